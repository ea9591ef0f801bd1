package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
)

const memberColumns = "id, group_id, user_id, pending_email, display_name, email, role, status, joined_at"

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// queryer is satisfied by both *sql.DB and *sql.Tx.
type queryer interface {
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

func insertMember(ctx context.Context, ex execer, m *models.Member) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	if m.JoinedAt == 0 {
		m.JoinedAt = time.Now().Unix()
	}
	if m.Role == "" {
		m.Role = models.RoleMember
	}
	if m.Status == "" {
		if m.UserID != "" {
			m.Status = models.MemberActive
		} else {
			m.Status = models.MemberPending
		}
	}
	m.PendingEmail = strings.ToLower(strings.TrimSpace(m.PendingEmail))

	_, err := ex.ExecContext(ctx,
		"INSERT INTO group_members ("+memberColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
		m.ID, m.GroupID, nullString(m.UserID), nullString(m.PendingEmail),
		m.DisplayName, m.Email, string(m.Role), string(m.Status), m.JoinedAt,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("member of group %s: %w", m.GroupID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

func scanMember(row rowScanner) (*models.Member, error) {
	m := &models.Member{}
	var userID, pendingEmail sql.NullString
	var role, status string
	if err := row.Scan(&m.ID, &m.GroupID, &userID, &pendingEmail,
		&m.DisplayName, &m.Email, &role, &status, &m.JoinedAt); err != nil {
		return nil, err
	}
	m.UserID = userID.String
	m.PendingEmail = pendingEmail.String
	m.Role = models.MemberRole(role)
	m.Status = models.MemberStatus(status)
	return m, nil
}

func queryMembers(ctx context.Context, q queryer, query string, args ...any) ([]*models.Member, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

func (s *SQLiteStore) queryMember(ctx context.Context, what string, query string, args ...any) (*models.Member, error) {
	m, err := scanMember(s.db.QueryRowContext(ctx, query, args...))
	if isNoRows(err) {
		return nil, notFound("member", what)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member: %w", err)
	}
	return m, nil
}

// AddMember inserts a roster row.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	return insertMember(ctx, s.db, member)
}

// GetMember retrieves a roster row by ID.
func (s *SQLiteStore) GetMember(ctx context.Context, memberID string) (*models.Member, error) {
	return s.queryMember(ctx, memberID,
		"SELECT "+memberColumns+" FROM group_members WHERE id = ?", memberID)
}

// GetMemberByUser finds a user's roster row in a group.
func (s *SQLiteStore) GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error) {
	return s.queryMember(ctx, userID,
		"SELECT "+memberColumns+" FROM group_members WHERE group_id = ? AND user_id = ?",
		groupID, userID)
}

// FindPendingByEmail finds an unclaimed invitation in a group.
func (s *SQLiteStore) FindPendingByEmail(ctx context.Context, groupID, email string) (*models.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return s.queryMember(ctx, email,
		`SELECT `+memberColumns+` FROM group_members
		 WHERE group_id = ? AND pending_email = ? AND user_id IS NULL AND status = 'pending'`,
		groupID, email)
}

// ListPendingByEmail returns every unclaimed invitation for an email address.
func (s *SQLiteStore) ListPendingByEmail(ctx context.Context, email string) ([]*models.Member, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return queryMembers(ctx, s.db,
		`SELECT `+memberColumns+` FROM group_members
		 WHERE pending_email = ? AND user_id IS NULL AND status = 'pending'
		 ORDER BY joined_at`,
		email)
}

// ListMembers returns a group's full roster in join order.
func (s *SQLiteStore) ListMembers(ctx context.Context, groupID string) ([]*models.Member, error) {
	return listMembers(ctx, s.db, groupID)
}

func listMembers(ctx context.Context, q queryer, groupID string) ([]*models.Member, error) {
	return queryMembers(ctx, q,
		"SELECT "+memberColumns+" FROM group_members WHERE group_id = ? ORDER BY joined_at, rowid",
		groupID)
}

// SetMemberStatus changes a roster row's status.
func (s *SQLiteStore) SetMemberStatus(ctx context.Context, memberID string, status models.MemberStatus) error {
	res, err := s.db.ExecContext(ctx,
		"UPDATE group_members SET status = ? WHERE id = ?", string(status), memberID)
	if err != nil {
		return fmt.Errorf("failed to update member status: %w", err)
	}
	return checkAffected(res, "member", memberID)
}

// ClaimPendingMember links a pending roster row to a user and moves the
// pending row's ledger history onto the user's account.
func (s *SQLiteStore) ClaimPendingMember(ctx context.Context, memberID string, user *models.Member) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE group_members
		 SET user_id = ?, display_name = ?, email = ?, status = 'active', joined_at = ?
		 WHERE id = ? AND user_id IS NULL AND status = 'pending'`,
		user.UserID, user.DisplayName, user.Email, time.Now().Unix(), memberID,
	)
	if isUniqueViolation(err) {
		return fmt.Errorf("user %s already in group: %w", user.UserID, storage.ErrConflict)
	}
	if err != nil {
		return fmt.Errorf("failed to claim member: %w", err)
	}
	if err := checkAffected(res, "pending member", memberID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE expenses SET paid_by = ?, paid_by_pending_member_id = NULL
		 WHERE paid_by_pending_member_id = ?`,
		user.UserID, memberID,
	); err != nil {
		return fmt.Errorf("failed to move expenses: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE expense_splits SET user_id = ?, pending_member_id = NULL
		 WHERE pending_member_id = ?`,
		user.UserID, memberID,
	); err != nil {
		return fmt.Errorf("failed to move splits: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
