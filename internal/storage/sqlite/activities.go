package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupsplit/internal/models"
)

// CreateActivity appends an entry to a group's activity feed.
func (s *SQLiteStore) CreateActivity(ctx context.Context, activity *models.Activity) error {
	if activity.ID == "" {
		activity.ID = uuid.New().String()
	}
	if activity.CreatedAt == 0 {
		activity.CreatedAt = time.Now().Unix()
	}
	details := activity.Details
	if details == nil {
		details = map[string]any{}
	}
	raw, err := json.Marshal(details)
	if err != nil {
		return fmt.Errorf("failed to encode activity details: %w", err)
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO group_activities (id, group_id, user_id, activity_type, details, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		activity.ID, activity.GroupID, nullString(activity.UserID), string(activity.Type),
		string(raw), activity.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert activity: %w", err)
	}
	return nil
}

// ListActivities returns up to limit entries for a group, newest first.
func (s *SQLiteStore) ListActivities(ctx context.Context, groupID string, limit int) ([]*models.Activity, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, COALESCE(user_id, ''), activity_type, details, created_at
		 FROM group_activities WHERE group_id = ?
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		groupID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}
	defer rows.Close()

	var activities []*models.Activity
	for rows.Next() {
		a := &models.Activity{}
		var kind, raw string
		if err := rows.Scan(&a.ID, &a.GroupID, &a.UserID, &kind, &raw, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan activity: %w", err)
		}
		a.Type = models.ActivityType(kind)
		if err := json.Unmarshal([]byte(raw), &a.Details); err != nil {
			return nil, fmt.Errorf("failed to decode activity %s: %w", a.ID, err)
		}
		activities = append(activities, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate activities: %w", err)
	}
	return activities, nil
}
