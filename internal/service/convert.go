package service

import (
	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/calculator"
	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/pkg/rpc"
)

func amountString(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func nullString(d decimal.NullDecimal) string {
	if !d.Valid {
		return ""
	}
	return d.Decimal.String()
}

func toRPCGroup(g *models.Group) *rpc.Group {
	return &rpc.Group{
		ID:           g.ID,
		Name:         g.Name,
		BaseCurrency: g.BaseCurrency,
		CreatedBy:    g.CreatedBy,
		CreatedAt:    g.CreatedAt,
	}
}

func toRPCMember(m *models.Member) *rpc.Member {
	return &rpc.Member{
		ID:           m.ID,
		Participant:  m.Participant().String(),
		UserID:       m.UserID,
		PendingEmail: m.PendingEmail,
		DisplayName:  m.DisplayName,
		Email:        m.Email,
		Role:         string(m.Role),
		Status:       string(m.Status),
		JoinedAt:     m.JoinedAt,
	}
}

func toRPCMembers(members []*models.Member) []*rpc.Member {
	out := make([]*rpc.Member, len(members))
	for i, m := range members {
		out[i] = toRPCMember(m)
	}
	return out
}

func toRPCSplit(s models.Split) *rpc.Split {
	return &rpc.Split{
		ID:          s.ID,
		Participant: s.Participant.String(),
		Amount:      amountString(s.Amount),
		Percentage:  nullString(s.Percentage),
		Shares:      nullString(s.Shares),
	}
}

func toRPCSplitAmount(s calculator.SplitAmount) *rpc.Split {
	return &rpc.Split{
		Participant: s.Participant.String(),
		Amount:      amountString(s.Amount),
		Percentage:  nullString(s.Percentage),
		Shares:      nullString(s.Shares),
	}
}

func toRPCExpense(e *models.Expense) *rpc.Expense {
	splits := make([]*rpc.Split, len(e.Splits))
	for i, s := range e.Splits {
		splits[i] = toRPCSplit(s)
	}
	return &rpc.Expense{
		ID:          e.ID,
		GroupID:     e.GroupID,
		Description: e.Description,
		Amount:      amountString(e.Amount),
		Currency:    e.Currency,
		Category:    e.Category,
		Notes:       e.Notes,
		Date:        e.Date,
		SplitType:   string(e.SplitType),
		Payer:       e.Payer.String(),
		ReceiptURL:  e.ReceiptURL,
		CreatedBy:   e.CreatedBy,
		CreatedAt:   e.CreatedAt,
		UpdatedAt:   e.UpdatedAt,
		Splits:      splits,
	}
}

func toRPCSettlement(s *models.Settlement) *rpc.Settlement {
	return &rpc.Settlement{
		ID:        s.ID,
		GroupID:   s.GroupID,
		From:      s.From.String(),
		To:        s.To.String(),
		Amount:    amountString(s.Amount),
		Currency:  s.Currency,
		ExpenseID: s.ExpenseID,
		PaidAt:    s.PaidAt,
		CreatedBy: s.CreatedBy,
	}
}

func toRPCActivity(a *models.Activity) *rpc.Activity {
	return &rpc.Activity{
		ID:        a.ID,
		UserID:    a.UserID,
		Type:      string(a.Type),
		Details:   a.Details,
		CreatedAt: a.CreatedAt,
	}
}
