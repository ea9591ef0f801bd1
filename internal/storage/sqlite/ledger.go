package sqlite

import (
	"context"
	"fmt"

	"github.com/mmynk/groupsplit/internal/storage"
)

// LoadLedger reads a group's roster, expenses and splits inside one read
// transaction. In WAL mode the transaction sees a single committed snapshot,
// so an edit that replaces an expense's splits is either fully visible or
// not at all.
func (s *SQLiteStore) LoadLedger(ctx context.Context, groupID string) (*storage.Ledger, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	members, err := listMembers(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	expenses, err := listExpenses(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return &storage.Ledger{Members: members, Expenses: expenses}, nil
}
