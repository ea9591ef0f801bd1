package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/storage"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := New(filepath.Join(t.TempDir(), "nested", "test.db"))
	require.NoError(t, err, "failed to create store")
	t.Cleanup(func() { store.Close() })
	return store
}

func newTestGroup(t *testing.T, store *SQLiteStore, creator string) *models.Group {
	t.Helper()
	group := &models.Group{Name: "Trip", CreatedBy: creator}
	err := store.CreateGroup(context.Background(), group, &models.Member{UserID: creator, DisplayName: creator})
	require.NoError(t, err)
	return group
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func TestSQLiteStore(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	t.Run("CreateGroup fills defaults and adds creator as admin", func(t *testing.T) {
		group := newTestGroup(t, store, "alice")

		assert.NotEmpty(t, group.ID)
		assert.Equal(t, models.DefaultCurrency, group.BaseCurrency)
		assert.NotZero(t, group.CreatedAt)

		member, err := store.GetMemberByUser(ctx, group.ID, "alice")
		require.NoError(t, err)
		assert.Equal(t, models.RoleAdmin, member.Role)
		assert.Equal(t, models.MemberActive, member.Status)

		groups, err := store.ListGroupsForUser(ctx, "alice")
		require.NoError(t, err)
		require.NotEmpty(t, groups)
	})

	t.Run("GetGroup returns ErrNotFound for missing group", func(t *testing.T) {
		_, err := store.GetGroup(ctx, "nope")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
	})

	t.Run("pending invitations are unique per email", func(t *testing.T) {
		group := newTestGroup(t, store, "bob")

		invite := &models.Member{GroupID: group.ID, PendingEmail: "Dana@Example.com"}
		require.NoError(t, store.AddMember(ctx, invite))
		assert.Equal(t, models.MemberPending, invite.Status)
		assert.Equal(t, "dana@example.com", invite.PendingEmail)

		err := store.AddMember(ctx, &models.Member{GroupID: group.ID, PendingEmail: "dana@example.com"})
		assert.True(t, errors.Is(err, storage.ErrConflict))

		found, err := store.FindPendingByEmail(ctx, group.ID, "DANA@example.com")
		require.NoError(t, err)
		assert.Equal(t, invite.ID, found.ID)

		pending, err := store.ListPendingByEmail(ctx, "dana@example.com")
		require.NoError(t, err)
		assert.Len(t, pending, 1)
	})

	t.Run("expense round trip keeps splits exact", func(t *testing.T) {
		group := newTestGroup(t, store, "carol")
		expense := &models.Expense{
			GroupID:     group.ID,
			Description: "Dinner",
			Amount:      dec("200.00"),
			Currency:    "USD",
			Category:    models.CategoryFood,
			Date:        "2026-03-01",
			SplitType:   models.SplitPercentage,
			Payer:       models.Account("carol"),
			CreatedBy:   "carol",
			Splits: []models.Split{
				{Participant: models.Account("carol"), Amount: dec("66.66"), Percentage: decimal.NewNullDecimal(dec("33.33"))},
				{Participant: models.Account("dave"), Amount: dec("133.34"), Percentage: decimal.NewNullDecimal(dec("66.67"))},
			},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))
		require.NotEmpty(t, expense.ID)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.True(t, got.Amount.Equal(dec("200")))
		assert.Equal(t, models.Account("carol"), got.Payer)
		require.Len(t, got.Splits, 2)
		assert.True(t, got.Splits[0].Amount.Equal(dec("66.66")))
		assert.True(t, got.Splits[1].Percentage.Valid)
		assert.True(t, got.Splits[1].Percentage.Decimal.Equal(dec("66.67")))
		assert.False(t, got.Splits[0].Shares.Valid)

		got.Description = "Late dinner"
		got.SplitType = models.SplitPersonal
		got.Splits = []models.Split{{Participant: models.Account("carol"), Amount: dec("200.00")}}
		require.NoError(t, store.UpdateExpense(ctx, got))

		list, err := store.ListExpensesByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, "Late dinner", list[0].Description)
		require.Len(t, list[0].Splits, 1, "old splits are replaced, not appended")
		assert.Equal(t, models.Account("carol"), list[0].Splits[0].Participant)

		require.NoError(t, store.DeleteExpense(ctx, expense.ID))
		_, err = store.GetExpense(ctx, expense.ID)
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.True(t, errors.Is(store.DeleteExpense(ctx, expense.ID), storage.ErrNotFound))
	})

	t.Run("LoadLedger returns roster and expenses with their splits", func(t *testing.T) {
		group := newTestGroup(t, store, "ivy")
		invite := &models.Member{GroupID: group.ID, PendingEmail: "jack@example.com"}
		require.NoError(t, store.AddMember(ctx, invite))

		for _, amount := range []string{"40", "10"} {
			require.NoError(t, store.CreateExpense(ctx, &models.Expense{
				GroupID: group.ID, Description: "Snacks", Amount: dec(amount), Currency: "USD",
				Category: models.CategoryFood, SplitType: models.SplitEqual,
				Payer: models.Account("ivy"), CreatedBy: "ivy",
				Splits: []models.Split{
					{Participant: models.Account("ivy"), Amount: dec(amount).Div(dec("2"))},
					{Participant: models.Pending(invite.ID), Amount: dec(amount).Div(dec("2"))},
				},
			}))
		}

		ledger, err := store.LoadLedger(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, ledger.Members, 2)
		assert.Equal(t, "ivy", ledger.Members[0].UserID)
		assert.Equal(t, invite.ID, ledger.Members[1].ID)

		require.Len(t, ledger.Expenses, 2)
		for _, e := range ledger.Expenses {
			require.Len(t, e.Splits, 2)
			sum := decimal.Zero
			for _, sp := range e.Splits {
				assert.Equal(t, e.ID, sp.ExpenseID)
				sum = sum.Add(sp.Amount)
			}
			assert.True(t, sum.Equal(e.Amount), "splits of %s add up to %s", e.ID, sum)
		}

		empty, err := store.LoadLedger(ctx, "no-such-group")
		require.NoError(t, err)
		assert.Empty(t, empty.Members)
		assert.Empty(t, empty.Expenses)
	})

	t.Run("claiming a pending member moves its history", func(t *testing.T) {
		group := newTestGroup(t, store, "erin")
		invite := &models.Member{GroupID: group.ID, PendingEmail: "frank@example.com"}
		require.NoError(t, store.AddMember(ctx, invite))

		expense := &models.Expense{
			GroupID: group.ID, Description: "Taxi", Amount: dec("30"), Currency: "USD",
			Category: models.CategoryTransport, SplitType: models.SplitEqual,
			Payer: models.Pending(invite.ID), CreatedBy: "erin",
			Splits: []models.Split{
				{Participant: models.Account("erin"), Amount: dec("15")},
				{Participant: models.Pending(invite.ID), Amount: dec("15")},
			},
		}
		require.NoError(t, store.CreateExpense(ctx, expense))

		err := store.ClaimPendingMember(ctx, invite.ID, &models.Member{UserID: "frank", DisplayName: "Frank", Email: "frank@example.com"})
		require.NoError(t, err)

		got, err := store.GetExpense(ctx, expense.ID)
		require.NoError(t, err)
		assert.Equal(t, models.Account("frank"), got.Payer)
		assert.Equal(t, models.Account("frank"), got.Splits[1].Participant)

		member, err := store.GetMember(ctx, invite.ID)
		require.NoError(t, err)
		assert.Equal(t, "frank", member.UserID)
		assert.Equal(t, models.MemberActive, member.Status)

		err = store.ClaimPendingMember(ctx, invite.ID, &models.Member{UserID: "someone"})
		assert.True(t, errors.Is(err, storage.ErrNotFound), "row is no longer pending")
	})

	t.Run("RecordSettlement writes offset expense atomically", func(t *testing.T) {
		group := newTestGroup(t, store, "gina")
		settlement := &models.Settlement{
			GroupID: group.ID, From: models.Account("hal"), To: models.Account("gina"),
			Amount: dec("12.50"), Currency: "USD", CreatedBy: "hal",
		}
		offset := &models.Expense{
			GroupID: group.ID, Description: "Settlement", Amount: dec("12.50"), Currency: "USD",
			Category: models.CategorySettlement, SplitType: models.SplitPersonal,
			Payer: models.Account("hal"), CreatedBy: "hal",
			Splits: []models.Split{{Participant: models.Account("gina"), Amount: dec("12.50")}},
		}
		require.NoError(t, store.RecordSettlement(ctx, settlement, offset))
		assert.Equal(t, offset.ID, settlement.ExpenseID)

		list, err := store.ListSettlementsByGroup(ctx, group.ID)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, models.Account("hal"), list[0].From)
		assert.Equal(t, models.Account("gina"), list[0].To)
		assert.True(t, list[0].Amount.Equal(dec("12.5")))

		_, err = store.GetExpense(ctx, offset.ID)
		require.NoError(t, err)
	})

	t.Run("activities keep details and order", func(t *testing.T) {
		group := newTestGroup(t, store, "ivan")
		for _, desc := range []string{"first", "second", "third"} {
			require.NoError(t, store.CreateActivity(ctx, &models.Activity{
				GroupID: group.ID, UserID: "ivan", Type: models.ActivityExpenseCreated,
				Details: map[string]any{"description": desc},
			}))
		}

		list, err := store.ListActivities(ctx, group.ID, 2)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "third", list[0].Details["description"])
		assert.Equal(t, "second", list[1].Details["description"])
	})

	t.Run("DeleteGroup cascades", func(t *testing.T) {
		group := newTestGroup(t, store, "judy")
		require.NoError(t, store.DeleteGroup(ctx, group.ID))

		_, err := store.GetMemberByUser(ctx, group.ID, "judy")
		assert.True(t, errors.Is(err, storage.ErrNotFound))
		assert.True(t, errors.Is(store.DeleteGroup(ctx, group.ID), storage.ErrNotFound))
	})
}
