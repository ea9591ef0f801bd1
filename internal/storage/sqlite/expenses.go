package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/groupsplit/internal/models"
)

const expenseColumns = `id, group_id, description, amount, currency, category, notes, expense_date,
	split_type, paid_by, paid_by_pending_member_id, receipt_url, created_by, created_at, updated_at`

func insertExpense(ctx context.Context, ex execer, e *models.Expense) error {
	payerUser, payerPending := e.Payer.Columns()
	_, err := ex.ExecContext(ctx,
		"INSERT INTO expenses ("+expenseColumns+") VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)",
		e.ID, e.GroupID, e.Description, e.Amount, e.Currency, e.Category, nullString(e.Notes), e.Date,
		string(e.SplitType), payerUser, payerPending, nullString(e.ReceiptURL),
		e.CreatedBy, e.CreatedAt, e.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}
	return insertSplits(ctx, ex, e)
}

func insertSplits(ctx context.Context, ex execer, e *models.Expense) error {
	for i := range e.Splits {
		split := &e.Splits[i]
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.ExpenseID = e.ID
		userID, pendingID := split.Participant.Columns()
		_, err := ex.ExecContext(ctx,
			`INSERT INTO expense_splits (id, expense_id, user_id, pending_member_id, amount, percentage, shares)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			split.ID, split.ExpenseID, userID, pendingID, split.Amount, split.Percentage, split.Shares,
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

func stampExpense(e *models.Expense) {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if e.CreatedAt == 0 {
		e.CreatedAt = now
	}
	if e.UpdatedAt == 0 {
		e.UpdatedAt = e.CreatedAt
	}
	if e.Date == "" {
		e.Date = time.Unix(e.CreatedAt, 0).UTC().Format(time.DateOnly)
	}
}

// CreateExpense persists an expense and its splits in one transaction.
func (s *SQLiteStore) CreateExpense(ctx context.Context, expense *models.Expense) error {
	stampExpense(expense)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := insertExpense(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func scanExpense(row rowScanner) (*models.Expense, error) {
	e := &models.Expense{}
	var notes, receipt, paidBy, paidByPending sql.NullString
	var splitType string
	if err := row.Scan(&e.ID, &e.GroupID, &e.Description, &e.Amount, &e.Currency, &e.Category,
		&notes, &e.Date, &splitType, &paidBy, &paidByPending, &receipt,
		&e.CreatedBy, &e.CreatedAt, &e.UpdatedAt); err != nil {
		return nil, err
	}
	e.Notes = notes.String
	e.ReceiptURL = receipt.String
	e.SplitType = models.SplitType(splitType)
	e.Payer = participantFrom(paidBy, paidByPending)
	return e, nil
}

func scanSplit(row rowScanner) (models.Split, error) {
	var split models.Split
	var userID, pendingID sql.NullString
	if err := row.Scan(&split.ID, &split.ExpenseID, &userID, &pendingID,
		&split.Amount, &split.Percentage, &split.Shares); err != nil {
		return split, err
	}
	split.Participant = participantFrom(userID, pendingID)
	return split, nil
}

func querySplits(ctx context.Context, q queryer, query string, args ...any) ([]models.Split, error) {
	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []models.Split
	for rows.Next() {
		split, err := scanSplit(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// GetExpense retrieves an expense with its splits.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense, err := scanExpense(s.db.QueryRowContext(ctx,
		"SELECT "+expenseColumns+" FROM expenses WHERE id = ?", expenseID))
	if isNoRows(err) {
		return nil, notFound("expense", expenseID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expense.Splits, err = querySplits(ctx, s.db,
		`SELECT id, expense_id, user_id, pending_member_id, amount, percentage, shares
		 FROM expense_splits WHERE expense_id = ? ORDER BY rowid`,
		expenseID)
	if err != nil {
		return nil, err
	}
	return expense, nil
}

// UpdateExpense overwrites an expense's fields and replaces its splits.
func (s *SQLiteStore) UpdateExpense(ctx context.Context, expense *models.Expense) error {
	expense.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	payerUser, payerPending := expense.Payer.Columns()
	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET description = ?, amount = ?, currency = ?, category = ?, notes = ?, expense_date = ?,
		     split_type = ?, paid_by = ?, paid_by_pending_member_id = ?, receipt_url = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Description, expense.Amount, expense.Currency, expense.Category, nullString(expense.Notes),
		expense.Date, string(expense.SplitType), payerUser, payerPending, nullString(expense.ReceiptURL),
		expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if err := checkAffected(res, "expense", expense.ID); err != nil {
		return err
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete old splits: %w", err)
	}
	for i := range expense.Splits {
		expense.Splits[i].ID = ""
	}
	if err := insertSplits(ctx, tx, expense); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// DeleteExpense removes an expense; its splits cascade.
func (s *SQLiteStore) DeleteExpense(ctx context.Context, expenseID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	return checkAffected(res, "expense", expenseID)
}

// ListExpensesByGroup returns a group's expenses, newest first, with splits
// attached. Expenses and splits come from the same read transaction.
func (s *SQLiteStore) ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	expenses, err := listExpenses(ctx, tx, groupID)
	if err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit transaction: %w", err)
	}
	return expenses, nil
}

func listExpenses(ctx context.Context, q queryer, groupID string) ([]*models.Expense, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+expenseColumns+` FROM expenses
		 WHERE group_id = ? ORDER BY expense_date DESC, created_at DESC, rowid DESC`,
		groupID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	byID := make(map[string]*models.Expense)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expenses = append(expenses, e)
		byID[e.ID] = e
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	rows.Close()

	splits, err := querySplits(ctx, q,
		`SELECT s.id, s.expense_id, s.user_id, s.pending_member_id, s.amount, s.percentage, s.shares
		 FROM expense_splits s
		 JOIN expenses e ON e.id = s.expense_id
		 WHERE e.group_id = ?
		 ORDER BY s.rowid`,
		groupID)
	if err != nil {
		return nil, err
	}
	for _, split := range splits {
		if e, ok := byID[split.ExpenseID]; ok {
			e.Splits = append(e.Splits, split)
		}
	}
	return expenses, nil
}
