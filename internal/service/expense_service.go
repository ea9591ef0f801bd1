package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"connectrpc.com/connect"
	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
	"github.com/mmynk/groupsplit/internal/storage"
	"github.com/mmynk/groupsplit/pkg/rpc"
)

// ExpenseService implements the Connect ExpenseService.
type ExpenseService struct {
	base
}

var _ rpc.ExpenseServiceHandler = (*ExpenseService)(nil)

// NewExpenseService creates a new ExpenseService with the given storage backend.
func NewExpenseService(store storage.Store, publisher events.Publisher) *ExpenseService {
	return &ExpenseService{base: newBase(store, publisher)}
}

// roster indexes the members that may appear on an expense: active and
// pending rows. Removed members keep their history but take no new shares;
// when editing, the members already on the expense stay eligible.
type roster map[models.Participant]*models.Member

func (s *ExpenseService) loadRoster(ctx context.Context, groupID string, existing *models.Expense) (roster, error) {
	members, err := s.store.ListMembers(ctx, groupID)
	if err != nil {
		return nil, rpcError("list members", err)
	}
	onExpense := make(map[models.Participant]bool)
	if existing != nil {
		onExpense[existing.Payer] = true
		for _, sp := range existing.Splits {
			onExpense[sp.Participant] = true
		}
	}
	r := make(roster, len(members))
	for _, m := range members {
		p := m.Participant()
		if m.Status != models.MemberInactive || onExpense[p] {
			r[p] = m
		}
	}
	return r, nil
}

func (r roster) resolve(ref string) (models.Participant, error) {
	p, err := models.ParseParticipant(ref)
	if err != nil {
		return models.Participant{}, invalidArgument("invalid participant %q: %v", ref, err)
	}
	if _, ok := r[p]; !ok {
		return models.Participant{}, invalidArgument("%s is not a member of this group", ref)
	}
	return p, nil
}

// calculate validates the split inputs against the roster and runs the
// split calculator. A personal split goes entirely to owner; inputs may only
// name owner.
func calculate(amount string, splitType string, inputs []*rpc.SplitInput, r roster, owner models.Participant) (decimal.Decimal, []calculator.SplitAmount, error) {
	total, err := money.Parse(amount)
	if err != nil {
		return decimal.Zero, nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	req := calculator.SplitRequest{
		Total:       total,
		Strategy:    models.SplitType(strings.ToLower(strings.TrimSpace(splitType))),
		Actor:       owner,
		Amounts:     make(map[models.Participant]decimal.Decimal),
		Percentages: make(map[models.Participant]decimal.Decimal),
		Shares:      make(map[models.Participant]decimal.Decimal),
	}
	if req.Strategy == "" {
		req.Strategy = models.SplitEqual
	}

	for _, in := range inputs {
		if in == nil {
			continue
		}
		p, err := r.resolve(in.Participant)
		if err != nil {
			return decimal.Zero, nil, err
		}
		req.Participants = append(req.Participants, p)

		var value string
		var into map[models.Participant]decimal.Decimal
		switch req.Strategy {
		case models.SplitCustom:
			value, into = in.Amount, req.Amounts
		case models.SplitPercentage:
			value, into = in.Percentage, req.Percentages
		case models.SplitShares:
			value, into = in.Shares, req.Shares
		}
		if into != nil {
			d, err := parseEntry(value)
			if err != nil {
				return decimal.Zero, nil, invalidArgument("invalid %s entry %q for %s", req.Strategy, value, in.Participant)
			}
			into[p] = d
		}
	}

	if req.Strategy == models.SplitPersonal {
		for _, p := range req.Participants {
			if p != owner {
				return decimal.Zero, nil, invalidArgument("a personal split belongs to %s, not %s", owner, p)
			}
		}
	}

	splits, err := calculator.CalculateSplit(req)
	if err != nil {
		return decimal.Zero, nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	return total, splits, nil
}

// applyInput validates in and writes it onto e, including freshly computed
// splits. A new expense is paid by the caller unless in names a payer; an
// edit keeps the stored payer and, for personal splits, the stored owner.
func (s *ExpenseService) applyInput(e *models.Expense, in *rpc.ExpenseInput, group *models.Group, r roster, actor *models.Member) error {
	owner := actor.Participant()
	if e.SplitType == models.SplitPersonal && len(e.Splits) == 1 {
		owner = e.Splits[0].Participant
	}

	e.Description = strings.TrimSpace(in.Description)
	if e.Description == "" {
		return invalidArgument("description required")
	}

	e.Category = strings.TrimSpace(in.Category)
	if e.Category == "" {
		e.Category = models.CategoryOther
	}
	if !models.ValidCategory(e.Category) {
		return invalidArgument("unknown category %q", e.Category)
	}

	currency, err := normalizeCurrency(in.Currency, group.BaseCurrency)
	if err != nil {
		return err
	}
	e.Currency = currency

	e.Date = strings.TrimSpace(in.Date)
	if e.Date == "" {
		e.Date = today()
	} else if _, err := time.Parse(time.DateOnly, e.Date); err != nil {
		return invalidArgument("date must be YYYY-MM-DD, got %q", in.Date)
	}

	if in.Payer != "" {
		if e.Payer, err = r.resolve(in.Payer); err != nil {
			return err
		}
	} else if e.Payer.IsZero() {
		e.Payer = actor.Participant()
	}

	total, amounts, err := calculate(in.Amount, in.SplitType, in.Splits, r, owner)
	if err != nil {
		return err
	}
	e.Amount = total
	e.SplitType = models.SplitType(strings.ToLower(strings.TrimSpace(in.SplitType)))
	if e.SplitType == "" {
		e.SplitType = models.SplitEqual
	}
	e.Notes = strings.TrimSpace(in.Notes)
	e.ReceiptURL = strings.TrimSpace(in.ReceiptURL)

	e.Splits = make([]models.Split, len(amounts))
	for i, a := range amounts {
		e.Splits[i] = models.Split{
			Participant: a.Participant,
			Amount:      a.Amount,
			Percentage:  a.Percentage,
			Shares:      a.Shares,
		}
	}
	return nil
}

// CalculateSplit previews a split without saving anything.
func (s *ExpenseService) CalculateSplit(ctx context.Context, req *connect.Request[rpc.CalculateSplitRequest]) (*connect.Response[rpc.CalculateSplitResponse], error) {
	group, actor, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	r, err := s.loadRoster(ctx, group.ID, nil)
	if err != nil {
		return nil, err
	}

	total, amounts, err := calculate(req.Msg.Amount, req.Msg.SplitType, req.Msg.Splits, r, actor.Participant())
	if err != nil {
		return nil, err
	}

	out := make([]*rpc.Split, len(amounts))
	for i, a := range amounts {
		out[i] = toRPCSplitAmount(a)
	}
	return connect.NewResponse(&rpc.CalculateSplitResponse{
		Total:  amountString(total),
		Splits: out,
	}), nil
}

// CreateExpense saves an expense and its splits.
func (s *ExpenseService) CreateExpense(ctx context.Context, req *connect.Request[rpc.CreateExpenseRequest]) (*connect.Response[rpc.CreateExpenseResponse], error) {
	group, actor, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	slog.Info("CreateExpense request received",
		"group_id", group.ID,
		"split_type", req.Msg.SplitType,
		"splits_count", len(req.Msg.Splits),
	)

	r, err := s.loadRoster(ctx, group.ID, nil)
	if err != nil {
		return nil, err
	}

	expense := &models.Expense{GroupID: group.ID, CreatedBy: actor.UserID}
	if err := s.applyInput(expense, &req.Msg.ExpenseInput, group, r, actor); err != nil {
		return nil, err
	}
	if err := s.store.CreateExpense(ctx, expense); err != nil {
		return nil, rpcError("create expense", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivityExpenseCreated, map[string]any{
		"expense_id":  expense.ID,
		"description": expense.Description,
		"amount":      amountString(expense.Amount),
		"currency":    expense.Currency,
	})
	slog.Info("Expense created", "group_id", group.ID, "expense_id", expense.ID)

	return connect.NewResponse(&rpc.CreateExpenseResponse{Expense: toRPCExpense(expense)}), nil
}

// loadExpense fetches an expense and checks the caller belongs to its group.
func (s *ExpenseService) loadExpense(ctx context.Context, expenseID string) (*models.Expense, *models.Group, *models.Member, error) {
	if expenseID == "" {
		return nil, nil, nil, invalidArgument("expense_id required")
	}
	expense, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, nil, rpcError("load expense", err)
	}
	group, actor, err := s.requireMember(ctx, expense.GroupID)
	if err != nil {
		return nil, nil, nil, err
	}
	return expense, group, actor, nil
}

// UpdateExpense overwrites an expense and recomputes all of its splits.
// Settlement offsets cannot be edited.
func (s *ExpenseService) UpdateExpense(ctx context.Context, req *connect.Request[rpc.UpdateExpenseRequest]) (*connect.Response[rpc.UpdateExpenseResponse], error) {
	expense, group, actor, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}
	if expense.Category == models.CategorySettlement {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("settlement records cannot be edited"))
	}

	r, err := s.loadRoster(ctx, group.ID, expense)
	if err != nil {
		return nil, err
	}
	if err := s.applyInput(expense, &req.Msg.ExpenseInput, group, r, actor); err != nil {
		return nil, err
	}
	if err := s.store.UpdateExpense(ctx, expense); err != nil {
		return nil, rpcError("update expense", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivityExpenseUpdated, map[string]any{
		"expense_id":  expense.ID,
		"description": expense.Description,
		"amount":      amountString(expense.Amount),
		"currency":    expense.Currency,
	})
	slog.Info("Expense updated", "group_id", group.ID, "expense_id", expense.ID)

	return connect.NewResponse(&rpc.UpdateExpenseResponse{Expense: toRPCExpense(expense)}), nil
}

// DeleteExpense removes an expense and its splits.
func (s *ExpenseService) DeleteExpense(ctx context.Context, req *connect.Request[rpc.DeleteExpenseRequest]) (*connect.Response[rpc.DeleteExpenseResponse], error) {
	expense, group, actor, err := s.loadExpense(ctx, req.Msg.ExpenseID)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteExpense(ctx, expense.ID); err != nil {
		return nil, rpcError("delete expense", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivityExpenseDeleted, map[string]any{
		"expense_id":  expense.ID,
		"description": expense.Description,
		"amount":      amountString(expense.Amount),
		"currency":    expense.Currency,
	})
	slog.Info("Expense deleted", "group_id", group.ID, "expense_id", expense.ID)

	return connect.NewResponse(&rpc.DeleteExpenseResponse{}), nil
}

// ListExpenses returns a group's expenses with their splits, newest first.
func (s *ExpenseService) ListExpenses(ctx context.Context, req *connect.Request[rpc.ListExpensesRequest]) (*connect.Response[rpc.ListExpensesResponse], error) {
	group, _, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	expenses, err := s.store.ListExpensesByGroup(ctx, group.ID)
	if err != nil {
		return nil, rpcError("list expenses", err)
	}

	out := make([]*rpc.Expense, len(expenses))
	for i, e := range expenses {
		out[i] = toRPCExpense(e)
	}
	return connect.NewResponse(&rpc.ListExpensesResponse{Expenses: out}), nil
}
