package service

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmynk/groupsplit/pkg/rpc"
)

func splitAmounts(splits []*rpc.Split) []string {
	out := make([]string, len(splits))
	for i, s := range splits {
		out[i] = s.Amount
	}
	return out
}

func TestCalculateSplit(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)

	tests := []struct {
		name      string
		amount    string
		splitType string
		splits    []*rpc.SplitInput
		want      []string
		wantCode  connect.Code
		wantMsg   string
	}{
		{
			name:      "equal keeps every cent",
			amount:    "100.00",
			splitType: "equal",
			splits:    []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}, {Participant: account(carol)}},
			want:      []string{"33.33", "33.33", "33.34"},
		},
		{
			name:      "percentage",
			amount:    "200",
			splitType: "percentage",
			splits: []*rpc.SplitInput{
				{Participant: account(alice), Percentage: "50"},
				{Participant: account(bob), Percentage: "30"},
				{Participant: account(carol), Percentage: "20"},
			},
			want: []string{"100.00", "60.00", "40.00"},
		},
		{
			name:      "shares",
			amount:    "100,00",
			splitType: "shares",
			splits: []*rpc.SplitInput{
				{Participant: account(alice), Shares: "1"},
				{Participant: account(bob), Shares: "1"},
				{Participant: account(carol), Shares: "2"},
			},
			want: []string{"25.00", "25.00", "50.00"},
		},
		{
			name:      "personal defaults to the caller",
			amount:    "12.50",
			splitType: "personal",
			want:      []string{"12.50"},
		},
		{
			name:      "personal may name the caller",
			amount:    "8",
			splitType: "personal",
			splits:    []*rpc.SplitInput{{Participant: account(alice)}},
			want:      []string{"8.00"},
		},
		{
			name:      "personal cannot be charged to someone else",
			amount:    "50",
			splitType: "personal",
			splits:    []*rpc.SplitInput{{Participant: account(carol)}},
			wantCode:  connect.CodeInvalidArgument,
			wantMsg:   "personal split belongs to account:alice",
		},
		{
			name:      "custom rejects fractions of a cent",
			amount:    "100.00",
			splitType: "custom",
			splits: []*rpc.SplitInput{
				{Participant: account(alice), Amount: "33.335"},
				{Participant: account(bob), Amount: "33.335"},
				{Participant: account(carol), Amount: "33.33"},
			},
			wantCode: connect.CodeInvalidArgument,
		},
		{
			name:      "custom must add up",
			amount:    "100.00",
			splitType: "custom",
			splits: []*rpc.SplitInput{
				{Participant: account(alice), Amount: "50.00"},
				{Participant: account(bob), Amount: "49.99"},
			},
			wantCode: connect.CodeInvalidArgument,
			wantMsg:  "split amounts add up to 99.99, expected 100.00",
		},
		{
			name:      "zero shares",
			amount:    "10",
			splitType: "shares",
			splits:    []*rpc.SplitInput{{Participant: account(alice), Shares: "0"}},
			wantCode:  connect.CodeInvalidArgument,
		},
		{
			name:      "no participants",
			amount:    "10",
			splitType: "equal",
			wantCode:  connect.CodeInvalidArgument,
		},
		{
			name:      "outsider participant",
			amount:    "10",
			splitType: "equal",
			splits:    []*rpc.SplitInput{{Participant: account("mallory")}},
			wantCode:  connect.CodeInvalidArgument,
		},
		{
			name:      "non-numeric amount",
			amount:    "ten",
			splitType: "equal",
			splits:    []*rpc.SplitInput{{Participant: account(alice)}},
			wantCode:  connect.CodeInvalidArgument,
		},
		{
			name:      "unknown split type",
			amount:    "10",
			splitType: "by-vibes",
			splits:    []*rpc.SplitInput{{Participant: account(alice)}},
			wantCode:  connect.CodeInvalidArgument,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := env.expenses.CalculateSplit(ctx, as(t, env, alice, &rpc.CalculateSplitRequest{
				GroupID:   groupID,
				Amount:    tt.amount,
				SplitType: tt.splitType,
				Splits:    tt.splits,
			}))
			if tt.wantCode != 0 {
				requireCode(t, err, tt.wantCode)
				if tt.wantMsg != "" {
					var connectErr *connect.Error
					require.ErrorAs(t, err, &connectErr)
					assert.Contains(t, connectErr.Message(), tt.wantMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, splitAmounts(resp.Msg.Splits))
		})
	}
}

func TestExpenseLifecycle(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)

	created, err := env.expenses.CreateExpense(ctx, as(t, env, bob, &rpc.CreateExpenseRequest{
		GroupID: groupID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Groceries",
			Amount:      "45.00",
			Category:    "Groceries",
			Date:        "2026-03-14",
			SplitType:   "equal",
			Splits: []*rpc.SplitInput{
				{Participant: account(alice)},
				{Participant: account(bob)},
				{Participant: account(carol)},
			},
		},
	}))
	require.NoError(t, err)

	expense := created.Msg.Expense
	assert.NotEmpty(t, expense.ID)
	assert.Equal(t, account(bob), expense.Payer, "payer defaults to the caller")
	assert.Equal(t, "USD", expense.Currency)
	assert.Equal(t, "45.00", expense.Amount)
	assert.Equal(t, []string{"15.00", "15.00", "15.00"}, splitAmounts(expense.Splits))

	updated, err := env.expenses.UpdateExpense(ctx, as(t, env, alice, &rpc.UpdateExpenseRequest{
		ExpenseID: expense.ID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Groceries and wine",
			Amount:      "60.00",
			Category:    "Groceries",
			SplitType:   "custom",
			Payer:       account(bob),
			Splits: []*rpc.SplitInput{
				{Participant: account(bob), Amount: "20"},
				{Participant: account(carol), Amount: "40"},
			},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, "custom", updated.Msg.Expense.SplitType)
	assert.Equal(t, []string{"20.00", "40.00"}, splitAmounts(updated.Msg.Expense.Splits))

	list, err := env.expenses.ListExpenses(ctx, as(t, env, carol, &rpc.ListExpensesRequest{GroupID: groupID}))
	require.NoError(t, err)
	require.Len(t, list.Msg.Expenses, 1)
	assert.Equal(t, "Groceries and wine", list.Msg.Expenses[0].Description)
	assert.Len(t, list.Msg.Expenses[0].Splits, 2, "old splits are replaced")

	_, err = env.expenses.DeleteExpense(ctx, as(t, env, "mallory", &rpc.DeleteExpenseRequest{ExpenseID: expense.ID}))
	requireCode(t, err, connect.CodePermissionDenied)

	_, err = env.expenses.DeleteExpense(ctx, as(t, env, carol, &rpc.DeleteExpenseRequest{ExpenseID: expense.ID}))
	require.NoError(t, err)

	_, err = env.expenses.DeleteExpense(ctx, as(t, env, carol, &rpc.DeleteExpenseRequest{ExpenseID: expense.ID}))
	requireCode(t, err, connect.CodeNotFound)

	list, err = env.expenses.ListExpenses(ctx, as(t, env, carol, &rpc.ListExpensesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Expenses)

	assert.Equal(t, []string{
		"group_created", "member_added", "member_added",
		"expense_created", "expense_updated", "expense_deleted",
	}, env.events.Types())
}

func TestCreateExpense_Validation(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)

	valid := func() rpc.ExpenseInput {
		return rpc.ExpenseInput{
			Description: "Lunch",
			Amount:      "20",
			SplitType:   "equal",
			Splits:      []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}},
		}
	}

	tests := []struct {
		name   string
		mutate func(*rpc.ExpenseInput)
	}{
		{"missing description", func(in *rpc.ExpenseInput) { in.Description = "" }},
		{"negative amount", func(in *rpc.ExpenseInput) { in.Amount = "-5" }},
		{"zero amount", func(in *rpc.ExpenseInput) { in.Amount = "0" }},
		{"reserved category", func(in *rpc.ExpenseInput) { in.Category = "Settlement" }},
		{"unknown category", func(in *rpc.ExpenseInput) { in.Category = "Bribes" }},
		{"bad date", func(in *rpc.ExpenseInput) { in.Date = "14/03/2026" }},
		{"bad currency", func(in *rpc.ExpenseInput) { in.Currency = "EURO" }},
		{"outsider payer", func(in *rpc.ExpenseInput) { in.Payer = account("mallory") }},
		{"malformed participant", func(in *rpc.ExpenseInput) { in.Splits[0].Participant = "alice" }},
		{"duplicate participant", func(in *rpc.ExpenseInput) { in.Splits[1].Participant = account(alice) }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := valid()
			tt.mutate(&in)
			_, err := env.expenses.CreateExpense(ctx, as(t, env, alice, &rpc.CreateExpenseRequest{
				GroupID:      groupID,
				ExpenseInput: in,
			}))
			requireCode(t, err, connect.CodeInvalidArgument)
		})
	}

	list, err := env.expenses.ListExpenses(ctx, as(t, env, alice, &rpc.ListExpensesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Empty(t, list.Msg.Expenses)
}

// removeMember has alice, the group admin, remove userID from the group.
func removeMember(t *testing.T, env *testEnv, groupID, userID string) {
	t.Helper()
	ctx := context.Background()

	group, err := env.groups.GetGroup(ctx, as(t, env, alice, &rpc.GetGroupRequest{GroupID: groupID}))
	require.NoError(t, err)
	var row string
	for _, m := range group.Msg.Members {
		if m.UserID == userID {
			row = m.ID
		}
	}
	require.NotEmpty(t, row, "%s is not on the roster", userID)

	_, err = env.groups.RemoveMember(ctx, as(t, env, alice, &rpc.RemoveMemberRequest{GroupID: groupID, MemberID: row}))
	require.NoError(t, err)
}

func TestCreateExpense_RemovedMemberTakesNoNewShares(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)
	removeMember(t, env, groupID, carol)

	_, err := env.expenses.CreateExpense(ctx, as(t, env, alice, &rpc.CreateExpenseRequest{
		GroupID: groupID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Cinema",
			Amount:      "24",
			SplitType:   "equal",
			Splits:      []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(carol)}},
		},
	}))
	requireCode(t, err, connect.CodeInvalidArgument)
}

func TestUpdateExpense_KeepsPayerWhenOmitted(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)

	splits := []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}, {Participant: account(carol)}}
	created, err := env.expenses.CreateExpense(ctx, as(t, env, bob, &rpc.CreateExpenseRequest{
		GroupID:      groupID,
		ExpenseInput: rpc.ExpenseInput{Description: "Dinner", Amount: "90", SplitType: "equal", Splits: splits},
	}))
	require.NoError(t, err)

	updated, err := env.expenses.UpdateExpense(ctx, as(t, env, alice, &rpc.UpdateExpenseRequest{
		ExpenseID:    created.Msg.Expense.ID,
		ExpenseInput: rpc.ExpenseInput{Description: "Dinner at Luigi's", Amount: "90", SplitType: "equal", Splits: splits},
	}))
	require.NoError(t, err)
	assert.Equal(t, account(bob), updated.Msg.Expense.Payer)
	assert.Equal(t, bob, updated.Msg.Expense.CreatedBy)

	balances, err := env.balances.GetGroupBalances(ctx, as(t, env, alice, &rpc.GetGroupBalancesRequest{GroupID: groupID}))
	require.NoError(t, err)
	assert.Equal(t, map[string]string{
		account(alice): "-30.00",
		account(bob):   "60.00",
		account(carol): "-30.00",
	}, nets(balances.Msg))

	moved, err := env.expenses.UpdateExpense(ctx, as(t, env, alice, &rpc.UpdateExpenseRequest{
		ExpenseID: created.Msg.Expense.ID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Dinner at Luigi's", Amount: "90", SplitType: "equal", Splits: splits,
			Payer: account(carol),
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, account(carol), moved.Msg.Expense.Payer, "an explicit payer still wins")
}

func TestPersonalSplitBelongsToItsCreator(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)

	created, err := env.expenses.CreateExpense(ctx, as(t, env, bob, &rpc.CreateExpenseRequest{
		GroupID:      groupID,
		ExpenseInput: rpc.ExpenseInput{Description: "Gym pass", Amount: "30", SplitType: "personal"},
	}))
	require.NoError(t, err)
	require.Len(t, created.Msg.Expense.Splits, 1)
	assert.Equal(t, account(bob), created.Msg.Expense.Splits[0].Participant)

	_, err = env.expenses.CreateExpense(ctx, as(t, env, bob, &rpc.CreateExpenseRequest{
		GroupID: groupID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Gym pass", Amount: "30", SplitType: "personal",
			Splits: []*rpc.SplitInput{{Participant: account(carol)}},
		},
	}))
	requireCode(t, err, connect.CodeInvalidArgument)

	updated, err := env.expenses.UpdateExpense(ctx, as(t, env, alice, &rpc.UpdateExpenseRequest{
		ExpenseID:    created.Msg.Expense.ID,
		ExpenseInput: rpc.ExpenseInput{Description: "Gym pass (March)", Amount: "35", SplitType: "personal"},
	}))
	require.NoError(t, err)
	require.Len(t, updated.Msg.Expense.Splits, 1)
	assert.Equal(t, account(bob), updated.Msg.Expense.Splits[0].Participant, "editing does not hand the expense to the editor")
	assert.Equal(t, "35.00", updated.Msg.Expense.Splits[0].Amount)
}

func TestUpdateExpense_KeepsRemovedMembers(t *testing.T) {
	env := setupTestServer(t)
	ctx := context.Background()
	groupID := newGroup(t, env)

	shared, err := env.expenses.CreateExpense(ctx, as(t, env, alice, &rpc.CreateExpenseRequest{
		GroupID: groupID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Cabin", Amount: "300", SplitType: "equal", Payer: account(carol),
			Splits: []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}, {Participant: account(carol)}},
		},
	}))
	require.NoError(t, err)
	pair, err := env.expenses.CreateExpense(ctx, as(t, env, alice, &rpc.CreateExpenseRequest{
		GroupID: groupID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Fuel", Amount: "40", SplitType: "equal",
			Splits: []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}},
		},
	}))
	require.NoError(t, err)

	removeMember(t, env, groupID, carol)

	updated, err := env.expenses.UpdateExpense(ctx, as(t, env, alice, &rpc.UpdateExpenseRequest{
		ExpenseID: shared.Msg.Expense.ID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Cabin, two nights", Amount: "300", SplitType: "equal", Payer: account(carol),
			Splits: []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}, {Participant: account(carol)}},
		},
	}))
	require.NoError(t, err)
	assert.Equal(t, account(carol), updated.Msg.Expense.Payer)
	assert.Equal(t, []string{"100.00", "100.00", "100.00"}, splitAmounts(updated.Msg.Expense.Splits))

	_, err = env.expenses.UpdateExpense(ctx, as(t, env, alice, &rpc.UpdateExpenseRequest{
		ExpenseID: pair.Msg.Expense.ID,
		ExpenseInput: rpc.ExpenseInput{
			Description: "Fuel", Amount: "60", SplitType: "equal",
			Splits: []*rpc.SplitInput{{Participant: account(alice)}, {Participant: account(bob)}, {Participant: account(carol)}},
		},
	}))
	requireCode(t, err, connect.CodeInvalidArgument)
}
