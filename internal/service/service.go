// Package service implements the groupsplit.v1 Connect services on top of
// a storage.Store.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/middleware"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
)

// base carries what every service needs: storage, the activity publisher,
// and membership checks.
type base struct {
	store     storage.Store
	publisher events.Publisher
}

func newBase(store storage.Store, publisher events.Publisher) base {
	if publisher == nil {
		publisher = events.LogPublisher{}
	}
	return base{store: store, publisher: publisher}
}

// caller returns the authenticated user id.
func caller(ctx context.Context) (string, error) {
	userID := middleware.GetUserID(ctx)
	if userID == "" {
		return "", connect.NewError(connect.CodeUnauthenticated, errors.New("no authenticated user"))
	}
	return userID, nil
}

// requireMember loads the group and the caller's active membership in it.
func (b *base) requireMember(ctx context.Context, groupID string) (*models.Group, *models.Member, error) {
	userID, err := caller(ctx)
	if err != nil {
		return nil, nil, err
	}
	if groupID == "" {
		return nil, nil, invalidArgument("group_id required")
	}

	group, err := b.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, nil, rpcError("load group", err)
	}

	member, err := b.store.GetMemberByUser(ctx, groupID, userID)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, nil, connect.NewError(connect.CodePermissionDenied, errors.New("not a member of this group"))
	}
	if err != nil {
		return nil, nil, rpcError("load membership", err)
	}
	if member.Status != models.MemberActive {
		return nil, nil, connect.NewError(connect.CodePermissionDenied, errors.New("not an active member of this group"))
	}
	return group, member, nil
}

// record writes an activity row and publishes it. Failures are logged; the
// change they describe has already been committed.
func (b *base) record(ctx context.Context, groupID, userID string, kind models.ActivityType, details map[string]any) {
	activity := &models.Activity{
		GroupID: groupID,
		UserID:  userID,
		Type:    kind,
		Details: details,
	}
	if err := b.store.CreateActivity(ctx, activity); err != nil {
		slog.Error("Failed to record activity", "group_id", groupID, "type", kind, "error", err)
		return
	}
	if err := b.publisher.Publish(ctx, activity); err != nil {
		slog.Warn("Failed to publish activity", "group_id", groupID, "type", kind, "error", err)
	}
}

func invalidArgument(format string, args ...any) error {
	return connect.NewError(connect.CodeInvalidArgument, fmt.Errorf(format, args...))
}

// rpcError maps storage errors onto connect codes.
func rpcError(op string, err error) error {
	var connectErr *connect.Error
	switch {
	case errors.As(err, &connectErr):
		return err
	case errors.Is(err, storage.ErrNotFound):
		return connect.NewError(connect.CodeNotFound, err)
	case errors.Is(err, storage.ErrConflict):
		return connect.NewError(connect.CodeAlreadyExists, err)
	default:
		slog.Error(op+" failed", "error", err)
		return connect.NewError(connect.CodeInternal, fmt.Errorf("%s: %w", op, err))
	}
}

// parseEntry reads an optional per-participant number (custom amount,
// percentage or share count). Empty means zero.
func parseEntry(s string) (decimal.Decimal, error) {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", "."))
	if s == "" {
		return decimal.Zero, nil
	}
	return decimal.NewFromString(s)
}

func today() string {
	return time.Now().UTC().Format(time.DateOnly)
}

func normalizeCurrency(code, fallback string) (string, error) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return fallback, nil
	}
	if len(code) != 3 {
		return "", invalidArgument("currency must be a 3-letter code, got %q", code)
	}
	for _, r := range code {
		if r < 'A' || r > 'Z' {
			return "", invalidArgument("currency must be a 3-letter code, got %q", code)
		}
	}
	return code, nil
}
