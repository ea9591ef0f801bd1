package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupsplit/internal/models"
)

// RecordSettlement writes the offsetting expense and the settlement that
// references it in a single transaction.
func (s *SQLiteStore) RecordSettlement(ctx context.Context, settlement *models.Settlement, offset *models.Expense) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.PaidAt == 0 {
		settlement.PaidAt = time.Now().Unix()
	}

	from, err := settlement.From.MarshalText()
	if err != nil {
		return fmt.Errorf("invalid settlement debtor: %w", err)
	}
	to, err := settlement.To.MarshalText()
	if err != nil {
		return fmt.Errorf("invalid settlement creditor: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if offset != nil {
		if offset.CreatedAt == 0 {
			offset.CreatedAt = settlement.PaidAt
		}
		stampExpense(offset)
		if err := insertExpense(ctx, tx, offset); err != nil {
			return err
		}
		settlement.ExpenseID = offset.ID
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO settlements (id, group_id, from_user, to_user, amount, currency, expense_id, paid_at, created_by)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.GroupID, string(from), string(to), settlement.Amount,
		settlement.Currency, nullString(settlement.ExpenseID), settlement.PaidAt, settlement.CreatedBy,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListSettlementsByGroup retrieves all settlements for a group, newest first.
func (s *SQLiteStore) ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, group_id, from_user, to_user, amount, currency, COALESCE(expense_id, ''), paid_at, created_by
		 FROM settlements WHERE group_id = ? ORDER BY paid_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements by group: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		st := &models.Settlement{}
		var from, to string
		if err := rows.Scan(&st.ID, &st.GroupID, &from, &to, &st.Amount, &st.Currency,
			&st.ExpenseID, &st.PaidAt, &st.CreatedBy); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		if st.From, err = models.ParseParticipant(from); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", st.ID, err)
		}
		if st.To, err = models.ParseParticipant(to); err != nil {
			return nil, fmt.Errorf("settlement %s: %w", st.ID, err)
		}
		settlements = append(settlements, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}
