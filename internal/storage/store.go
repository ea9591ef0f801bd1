// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"github.com/mmynk/groupsplit/internal/models"
)

// ErrNotFound is returned (wrapped) when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// ErrConflict is returned (wrapped) when a write would violate uniqueness,
// such as inviting the same email twice.
var ErrConflict = errors.New("already exists")

// Ledger is everything the balance engine reads for one group.
type Ledger struct {
	// Members is the full roster, including pending and inactive rows.
	Members []*models.Member

	// Expenses carry their splits, newest first.
	Expenses []*models.Expense
}

// Store defines the persistence operations the services need.
// This abstraction allows swapping storage backends without changing the
// service layer.
//
// Implementations must make each method atomic: an expense and its splits,
// or a settlement and its offsetting expense, are written together or not
// at all. Callers read whatever committed snapshot the store returns.
type Store interface {
	// CreateGroup persists a new group together with its creator as the
	// first admin member. IDs and timestamps are filled in when empty.
	CreateGroup(ctx context.Context, group *models.Group, creator *models.Member) error

	// GetGroup retrieves a group by its ID.
	GetGroup(ctx context.Context, groupID string) (*models.Group, error)

	// ListGroupsForUser returns groups in which the user is an active member.
	ListGroupsForUser(ctx context.Context, userID string) ([]*models.Group, error)

	// DeleteGroup removes a group and everything that belongs to it.
	DeleteGroup(ctx context.Context, groupID string) error

	// AddMember inserts a roster row (active or pending).
	AddMember(ctx context.Context, member *models.Member) error

	// GetMember retrieves a roster row by its ID.
	GetMember(ctx context.Context, memberID string) (*models.Member, error)

	// GetMemberByUser finds the roster row linking a user to a group.
	GetMemberByUser(ctx context.Context, groupID, userID string) (*models.Member, error)

	// FindPendingByEmail finds an unclaimed invitation in a group.
	FindPendingByEmail(ctx context.Context, groupID, email string) (*models.Member, error)

	// ListPendingByEmail returns every unclaimed invitation for an email.
	ListPendingByEmail(ctx context.Context, email string) ([]*models.Member, error)

	// ListMembers returns the full roster of a group, including pending
	// and inactive rows, in join order.
	ListMembers(ctx context.Context, groupID string) ([]*models.Member, error)

	// SetMemberStatus changes a roster row's status.
	SetMemberStatus(ctx context.Context, memberID string, status models.MemberStatus) error

	// ClaimPendingMember links a pending row to a user account and rewrites
	// every expense payer and split that referenced the pending row to
	// reference the account instead.
	ClaimPendingMember(ctx context.Context, memberID string, user *models.Member) error

	// CreateExpense persists an expense and its splits.
	CreateExpense(ctx context.Context, expense *models.Expense) error

	// GetExpense retrieves an expense with its splits.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// UpdateExpense overwrites an expense and replaces all of its splits.
	UpdateExpense(ctx context.Context, expense *models.Expense) error

	// DeleteExpense removes an expense; its splits go with it.
	DeleteExpense(ctx context.Context, expenseID string) error

	// ListExpensesByGroup returns a group's expenses with splits, newest first.
	ListExpensesByGroup(ctx context.Context, groupID string) ([]*models.Expense, error)

	// LoadLedger returns a group's roster and expenses with splits, all read
	// from the same committed snapshot.
	LoadLedger(ctx context.Context, groupID string) (*Ledger, error)

	// RecordSettlement persists a settlement together with its offsetting
	// expense.
	RecordSettlement(ctx context.Context, settlement *models.Settlement, offset *models.Expense) error

	// ListSettlementsByGroup returns a group's settlements, newest first.
	ListSettlementsByGroup(ctx context.Context, groupID string) ([]*models.Settlement, error)

	// CreateActivity appends an entry to a group's activity feed.
	CreateActivity(ctx context.Context, activity *models.Activity) error

	// ListActivities returns up to limit entries, newest first.
	ListActivities(ctx context.Context, groupID string, limit int) ([]*models.Activity, error)

	// Close releases any resources held by the store.
	Close() error
}
