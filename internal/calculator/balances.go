package calculator

import (
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
)

// UnknownName labels a member whose profile could not be resolved.
const UnknownName = "Unknown"

// RosterEntry is one member of the group as seen by the balance engine.
type RosterEntry struct {
	Participant models.Participant
	DisplayName string

	// Active members hold settleable balances. Pending and departed members
	// may still appear in the ledger but are not settled against.
	Active bool
}

// ExpenseEntry is the part of an expense the engine needs.
type ExpenseEntry struct {
	ID       string
	Amount   decimal.Decimal
	Currency string
	Payer    models.Participant
}

// SplitEntry is the part of a split the engine needs.
type SplitEntry struct {
	ExpenseID   string
	Participant models.Participant
	Amount      decimal.Decimal
}

// MemberBalance is one active member's net position.
type MemberBalance struct {
	Participant models.Participant
	Name        string
	TotalPaid   decimal.Decimal
	TotalOwed   decimal.Decimal

	// Net is TotalPaid - TotalOwed. Positive = owed money, negative = owes money.
	Net decimal.Decimal
}

// Suggestion is a payment that moves From's and To's balances toward zero.
type Suggestion struct {
	From     models.Participant
	To       models.Participant
	FromName string
	ToName   string
	Amount   decimal.Decimal
}

// ViolationKind classifies ledger data the engine could not reconcile.
type ViolationKind string

const (
	ViolationUnknownParticipant ViolationKind = "unknown_participant"
	ViolationOrphanSplit        ViolationKind = "orphan_split"
	ViolationSplitSum           ViolationKind = "split_sum_mismatch"
	ViolationUnsettled          ViolationKind = "unsettled_remainder"
)

// Violation describes corrupted or inconsistent upstream data. Balances are
// still computed; the violation makes the mismatch visible.
type Violation struct {
	Kind   ViolationKind
	Detail string
}

// Report is the full output of Settle.
type Report struct {
	// Balances has one entry per active member, in roster order.
	Balances []MemberBalance

	Suggestions []Suggestion

	// Unattributed is the combined net position of pending and inactive
	// members. It is tracked so the books visibly balance, but not settled.
	Unattributed decimal.Decimal

	Violations []Violation
}

// Settle computes balances for the group and the payments that clear them.
func Settle(roster []RosterEntry, expenses []ExpenseEntry, splits []SplitEntry) Report {
	balances, unattributed, violations := ComputeBalances(roster, expenses, splits)
	suggestions, remainder := SuggestSettlements(balances)

	// Members within a cent of zero are left out of netting, so up to a cent
	// per member may legitimately remain, plus whatever sits with members
	// who cannot settle.
	allowance := unattributed.Abs().Add(money.Cent.Mul(decimal.NewFromInt(int64(len(balances)))))
	if remainder.GreaterThan(allowance) {
		violations = append(violations, Violation{
			Kind:   ViolationUnsettled,
			Detail: fmt.Sprintf("netting left %s unsettled, unattributed %s", remainder.StringFixed(2), unattributed.StringFixed(2)),
		})
	}

	return Report{
		Balances:     balances,
		Suggestions:  suggestions,
		Unattributed: unattributed,
		Violations:   violations,
	}
}

// ComputeBalances credits each expense payer and debits each split
// participant. Only active members get a balance; amounts belonging to
// pending or inactive roster members are accumulated into unattributed.
// References that match nobody on the roster are reported as violations.
func ComputeBalances(roster []RosterEntry, expenses []ExpenseEntry, splits []SplitEntry) ([]MemberBalance, decimal.Decimal, []Violation) {
	var violations []Violation

	index := make(map[models.Participant]int, len(roster))
	known := make(map[models.Participant]bool, len(roster))
	var balances []MemberBalance
	for _, entry := range roster {
		if entry.Participant.IsZero() || known[entry.Participant] {
			continue
		}
		known[entry.Participant] = true
		if !entry.Active || !entry.Participant.IsAccount() {
			continue
		}
		name := entry.DisplayName
		if name == "" {
			name = UnknownName
		}
		index[entry.Participant] = len(balances)
		balances = append(balances, MemberBalance{
			Participant: entry.Participant,
			Name:        name,
			TotalPaid:   decimal.Zero,
			TotalOwed:   decimal.Zero,
		})
	}

	reported := make(map[models.Participant]bool)
	unknown := func(p models.Participant, where string) {
		if reported[p] {
			return
		}
		reported[p] = true
		violations = append(violations, Violation{
			Kind:   ViolationUnknownParticipant,
			Detail: fmt.Sprintf("%s references %q which is not a group member", where, p.String()),
		})
	}

	unattributed := decimal.Zero
	expenseTotals := make(map[string]decimal.Decimal, len(expenses))
	splitTotals := make(map[string]decimal.Decimal, len(expenses))
	for _, e := range expenses {
		expenseTotals[e.ID] = e.Amount
		splitTotals[e.ID] = decimal.Zero
		if i, ok := index[e.Payer]; ok {
			balances[i].TotalPaid = balances[i].TotalPaid.Add(e.Amount)
		} else if known[e.Payer] {
			unattributed = unattributed.Add(e.Amount)
		} else {
			unknown(e.Payer, "expense "+e.ID+" payer")
		}
	}

	for _, s := range splits {
		if _, ok := expenseTotals[s.ExpenseID]; !ok {
			violations = append(violations, Violation{
				Kind:   ViolationOrphanSplit,
				Detail: fmt.Sprintf("split for %q references unknown expense %s", s.Participant.String(), s.ExpenseID),
			})
			continue
		}
		splitTotals[s.ExpenseID] = splitTotals[s.ExpenseID].Add(s.Amount)
		if i, ok := index[s.Participant]; ok {
			balances[i].TotalOwed = balances[i].TotalOwed.Add(s.Amount)
		} else if known[s.Participant] {
			unattributed = unattributed.Sub(s.Amount)
		} else {
			unknown(s.Participant, "split on expense "+s.ExpenseID)
		}
	}

	for _, e := range expenses {
		if diff := splitTotals[e.ID].Sub(e.Amount).Abs(); !money.NearZero(diff) {
			violations = append(violations, Violation{
				Kind: ViolationSplitSum,
				Detail: fmt.Sprintf("expense %s splits add up to %s, expected %s",
					e.ID, splitTotals[e.ID].StringFixed(2), e.Amount.StringFixed(2)),
			})
		}
	}

	for i := range balances {
		b := &balances[i]
		b.TotalPaid = money.Round(b.TotalPaid)
		b.TotalOwed = money.Round(b.TotalOwed)
		b.Net = money.Round(b.TotalPaid.Sub(b.TotalOwed))
	}

	return balances, money.Round(unattributed), violations
}

type position struct {
	MemberBalance
	remaining decimal.Decimal
}

// SuggestSettlements matches debtors against creditors greedily, largest
// first, and returns the resulting payments along with whatever could not be
// matched. For consistent input the remainder is zero.
func SuggestSettlements(balances []MemberBalance) ([]Suggestion, decimal.Decimal) {
	var debtors, creditors []position
	for _, b := range balances {
		switch {
		case b.Net.LessThan(money.Cent.Neg()):
			debtors = append(debtors, position{MemberBalance: b, remaining: b.Net.Neg()})
		case b.Net.GreaterThan(money.Cent):
			creditors = append(creditors, position{MemberBalance: b, remaining: b.Net})
		}
	}

	// Stable sorts keep roster order among equal balances, so the same input
	// always yields the same suggestions.
	slices.SortStableFunc(debtors, func(a, b position) int { return a.Net.Cmp(b.Net) })
	slices.SortStableFunc(creditors, func(a, b position) int { return b.Net.Cmp(a.Net) })

	var suggestions []Suggestion
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		debtor, creditor := &debtors[i], &creditors[j]

		amount := decimal.Min(debtor.remaining, creditor.remaining)
		suggestions = append(suggestions, Suggestion{
			From:     debtor.Participant,
			To:       creditor.Participant,
			FromName: debtor.Name,
			ToName:   creditor.Name,
			Amount:   amount,
		})
		debtor.remaining = debtor.remaining.Sub(amount)
		creditor.remaining = creditor.remaining.Sub(amount)

		if money.NearZero(debtor.remaining) {
			i++
		}
		if money.NearZero(creditor.remaining) {
			j++
		}
	}

	remainder := decimal.Zero
	for ; i < len(debtors); i++ {
		remainder = remainder.Add(debtors[i].remaining)
	}
	for ; j < len(creditors); j++ {
		remainder = remainder.Add(creditors[j].remaining)
	}
	return suggestions, remainder
}
