package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"connectrpc.com/connect"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/events"
	"github.com/mmynk/groupsplit/internal/metrics"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
	"github.com/mmynk/groupsplit/internal/storage"
	"github.com/mmynk/groupsplit/pkg/rpc"
)

// BalanceService implements the Connect BalanceService: balances, settlement
// suggestions and recorded payments.
type BalanceService struct {
	base
	metrics *metrics.Metrics
}

var _ rpc.BalanceServiceHandler = (*BalanceService)(nil)

// NewBalanceService creates a new BalanceService. m may be nil.
func NewBalanceService(store storage.Store, publisher events.Publisher, m *metrics.Metrics) *BalanceService {
	return &BalanceService{base: newBase(store, publisher), metrics: m}
}

// settle converts a stored ledger to engine input and runs it. Splits are
// taken from the expenses they belong to, so both come from one snapshot.
func settle(l *storage.Ledger) calculator.Report {
	roster := make([]calculator.RosterEntry, len(l.Members))
	for i, m := range l.Members {
		roster[i] = calculator.RosterEntry{
			Participant: m.Participant(),
			DisplayName: m.Label(),
			Active:      m.IsActive(),
		}
	}

	expenses := make([]calculator.ExpenseEntry, len(l.Expenses))
	var splits []calculator.SplitEntry
	for i, e := range l.Expenses {
		expenses[i] = calculator.ExpenseEntry{
			ID:       e.ID,
			Amount:   e.Amount,
			Currency: e.Currency,
			Payer:    e.Payer,
		}
		for _, sp := range e.Splits {
			splits = append(splits, calculator.SplitEntry{
				ExpenseID:   e.ID,
				Participant: sp.Participant,
				Amount:      sp.Amount,
			})
		}
	}

	return calculator.Settle(roster, expenses, splits)
}

// GetGroupBalances recomputes every active member's balance and the
// suggested transfers from the full expense history.
func (s *BalanceService) GetGroupBalances(ctx context.Context, req *connect.Request[rpc.GetGroupBalancesRequest]) (*connect.Response[rpc.GetGroupBalancesResponse], error) {
	group, _, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	slog.Info("GetGroupBalances request received", "group_id", group.ID)

	l, err := s.store.LoadLedger(ctx, group.ID)
	if err != nil {
		return nil, rpcError("load ledger", err)
	}
	report := settle(l)

	violations := make([]*rpc.Violation, len(report.Violations))
	for i, v := range report.Violations {
		slog.Warn("Balance invariant violated",
			"group_id", group.ID,
			"kind", v.Kind,
			"detail", v.Detail,
		)
		s.metrics.CountViolation(string(v.Kind))
		violations[i] = &rpc.Violation{Kind: string(v.Kind), Detail: v.Detail}
	}

	currency := group.BaseCurrency
	balances := make([]*rpc.MemberBalance, len(report.Balances))
	for i, b := range report.Balances {
		balances[i] = &rpc.MemberBalance{
			Participant: b.Participant.String(),
			Name:        b.Name,
			TotalPaid:   amountString(b.TotalPaid),
			TotalOwed:   amountString(b.TotalOwed),
			Net:         amountString(b.Net),
			Label:       money.DescribeBalance(b.Net, currency),
		}
	}

	suggestions := make([]*rpc.Suggestion, len(report.Suggestions))
	for i, sg := range report.Suggestions {
		suggestions[i] = &rpc.Suggestion{
			From:     sg.From.String(),
			To:       sg.To.String(),
			FromName: sg.FromName,
			ToName:   sg.ToName,
			Amount:   amountString(sg.Amount),
			Label:    fmt.Sprintf("%s pays %s %s", sg.FromName, sg.ToName, money.Format(sg.Amount, currency)),
		}
	}

	slog.Info("GetGroupBalances successful",
		"group_id", group.ID,
		"members", len(balances),
		"suggestions", len(suggestions),
		"violations", len(violations),
	)

	return connect.NewResponse(&rpc.GetGroupBalancesResponse{
		Currency:     currency,
		Balances:     balances,
		Suggestions:  suggestions,
		Unattributed: amountString(report.Unattributed),
		Violations:   violations,
	}), nil
}

// MarkSettlementPaid records a real-world payment. The payment is booked as
// an offsetting expense paid by the debtor with one personal split to the
// creditor, so balances move without rewriting history.
func (s *BalanceService) MarkSettlementPaid(ctx context.Context, req *connect.Request[rpc.MarkSettlementPaidRequest]) (*connect.Response[rpc.MarkSettlementPaidResponse], error) {
	group, actor, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}
	slog.Info("MarkSettlementPaid request received",
		"group_id", group.ID,
		"from", req.Msg.From,
		"to", req.Msg.To,
		"amount", req.Msg.Amount,
	)

	amount, err := money.Parse(req.Msg.Amount)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}

	members, err := s.store.ListMembers(ctx, group.ID)
	if err != nil {
		return nil, rpcError("list members", err)
	}
	active := make(map[models.Participant]*models.Member, len(members))
	for _, m := range members {
		if m.IsActive() {
			active[m.Participant()] = m
		}
	}

	from, err := models.ParseParticipant(req.Msg.From)
	if err != nil {
		return nil, invalidArgument("invalid debtor %q: %v", req.Msg.From, err)
	}
	to, err := models.ParseParticipant(req.Msg.To)
	if err != nil {
		return nil, invalidArgument("invalid creditor %q: %v", req.Msg.To, err)
	}
	if from == to {
		return nil, invalidArgument("debtor and creditor must differ")
	}
	debtor, ok := active[from]
	if !ok {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("debtor is not an active member"))
	}
	creditor, ok := active[to]
	if !ok {
		return nil, connect.NewError(connect.CodeFailedPrecondition, errors.New("creditor is not an active member"))
	}

	offset := &models.Expense{
		GroupID:     group.ID,
		Description: fmt.Sprintf("%s paid %s", nameOr(debtor), nameOr(creditor)),
		Amount:      amount,
		Currency:    group.BaseCurrency,
		Category:    models.CategorySettlement,
		Date:        today(),
		SplitType:   models.SplitPersonal,
		Payer:       from,
		CreatedBy:   actor.UserID,
		Splits:      []models.Split{{Participant: to, Amount: amount}},
	}
	settlement := &models.Settlement{
		GroupID:   group.ID,
		From:      from,
		To:        to,
		Amount:    amount,
		Currency:  group.BaseCurrency,
		CreatedBy: actor.UserID,
	}
	if err := s.store.RecordSettlement(ctx, settlement, offset); err != nil {
		return nil, rpcError("record settlement", err)
	}

	s.record(ctx, group.ID, actor.UserID, models.ActivitySettlementCreated, map[string]any{
		"settlement_id": settlement.ID,
		"expense_id":    offset.ID,
		"from":          nameOr(debtor),
		"to":            nameOr(creditor),
		"amount":        amountString(amount),
		"currency":      settlement.Currency,
	})
	slog.Info("Settlement recorded", "group_id", group.ID, "settlement_id", settlement.ID)

	return connect.NewResponse(&rpc.MarkSettlementPaidResponse{Settlement: toRPCSettlement(settlement)}), nil
}

// ListSettlements returns a group's recorded payments, newest first.
func (s *BalanceService) ListSettlements(ctx context.Context, req *connect.Request[rpc.ListSettlementsRequest]) (*connect.Response[rpc.ListSettlementsResponse], error) {
	group, _, err := s.requireMember(ctx, req.Msg.GroupID)
	if err != nil {
		return nil, err
	}

	settlements, err := s.store.ListSettlementsByGroup(ctx, group.ID)
	if err != nil {
		return nil, rpcError("list settlements", err)
	}

	out := make([]*rpc.Settlement, len(settlements))
	for i, st := range settlements {
		out[i] = toRPCSettlement(st)
	}
	return connect.NewResponse(&rpc.ListSettlementsResponse{Settlements: out}), nil
}

func nameOr(m *models.Member) string {
	if label := m.Label(); label != "" {
		return label
	}
	return calculator.UnknownName
}
