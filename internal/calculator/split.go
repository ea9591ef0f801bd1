// Package calculator holds the two pure computations at the heart of
// groupsplit: dividing an expense among participants, and reducing a group's
// ledger to per-member balances and suggested payments.
//
// Nothing here touches storage or the network, and every function is safe to
// call concurrently.
package calculator

import (
	"errors"
	"fmt"
	"slices"

	"github.com/shopspring/decimal"

	"github.com/mmynk/groupsplit/internal/models"
	"github.com/mmynk/groupsplit/internal/money"
)

var (
	ErrInvalidAmount        = errors.New("expense amount must be positive")
	ErrNoParticipants       = errors.New("must have at least one participant")
	ErrSplitMismatch        = errors.New("split does not add up to the expense")
	ErrZeroShares           = errors.New("total shares must be greater than zero")
	ErrUnknownStrategy      = errors.New("unknown split type")
	ErrDuplicateParticipant = errors.New("participant listed more than once")
	ErrMissingActor         = errors.New("personal split requires the acting member")
	ErrNegativeEntry        = errors.New("split entries cannot be negative")
	ErrSubCentEntry         = errors.New("split amounts cannot have fractions of a cent")
)

var hundred = decimal.NewFromInt(100)

// MismatchError reports a custom or percentage split whose entries do not
// reconcile with the expected total.
type MismatchError struct {
	Strategy models.SplitType
	Got      decimal.Decimal
	Want     decimal.Decimal
}

func (e *MismatchError) Error() string {
	if e.Strategy == models.SplitPercentage {
		return fmt.Sprintf("percentages add up to %s%%, expected %s%%",
			e.Got.StringFixed(2), e.Want.StringFixed(0))
	}
	return fmt.Sprintf("split amounts add up to %s, expected %s",
		e.Got.StringFixed(2), e.Want.StringFixed(2))
}

func (e *MismatchError) Unwrap() error { return ErrSplitMismatch }

// SplitRequest describes one expense to divide.
type SplitRequest struct {
	Total    decimal.Decimal
	Strategy models.SplitType

	// Participants are the selected members, in display order. Ignored for
	// personal splits.
	Participants []models.Participant

	// Actor is the member creating the expense; a personal split goes
	// entirely to them.
	Actor models.Participant

	// Amounts holds entered amounts for custom splits.
	Amounts map[models.Participant]decimal.Decimal

	// Percentages holds entered percentages for percentage splits.
	Percentages map[models.Participant]decimal.Decimal

	// Shares holds share counts for shares splits.
	Shares map[models.Participant]decimal.Decimal
}

// SplitAmount is one participant's computed share.
type SplitAmount struct {
	Participant models.Participant
	Amount      decimal.Decimal
	Percentage  decimal.NullDecimal
	Shares      decimal.NullDecimal
}

// CalculateSplit divides req.Total according to req.Strategy. The returned
// amounts are in cents and, for every strategy, sum to the total.
func CalculateSplit(req SplitRequest) ([]SplitAmount, error) {
	total := money.Round(req.Total)
	if !total.IsPositive() {
		return nil, ErrInvalidAmount
	}
	if !req.Strategy.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownStrategy, req.Strategy)
	}

	if req.Strategy == models.SplitPersonal {
		if req.Actor.IsZero() {
			return nil, ErrMissingActor
		}
		return []SplitAmount{{Participant: req.Actor, Amount: total}}, nil
	}

	if len(req.Participants) == 0 {
		return nil, ErrNoParticipants
	}
	seen := make(map[models.Participant]bool, len(req.Participants))
	for _, p := range req.Participants {
		if p.IsZero() {
			return nil, fmt.Errorf("invalid participant reference")
		}
		if seen[p] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateParticipant, p)
		}
		seen[p] = true
	}

	switch req.Strategy {
	case models.SplitEqual:
		return splitEqual(total, req.Participants), nil
	case models.SplitCustom:
		return splitCustom(total, req.Participants, req.Amounts)
	case models.SplitPercentage:
		return splitPercentage(total, req.Participants, req.Percentages)
	default:
		return splitShares(total, req.Participants, req.Shares)
	}
}

func splitEqual(total decimal.Decimal, participants []models.Participant) []SplitAmount {
	weights := make([]decimal.Decimal, len(participants))
	for i := range weights {
		weights[i] = decimal.NewFromInt(1)
	}
	amounts := apportion(total, weights)
	splits := make([]SplitAmount, len(participants))
	for i, p := range participants {
		splits[i] = SplitAmount{Participant: p, Amount: amounts[i]}
	}
	return splits
}

func splitCustom(total decimal.Decimal, participants []models.Participant, amounts map[models.Participant]decimal.Decimal) ([]SplitAmount, error) {
	splits := make([]SplitAmount, len(participants))
	sum := decimal.Zero
	for i, p := range participants {
		amount := amounts[p]
		if amount.IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeEntry, p)
		}
		if !amount.Equal(money.Round(amount)) {
			return nil, fmt.Errorf("%w: %s entered %s", ErrSubCentEntry, p, amount)
		}
		splits[i] = SplitAmount{Participant: p, Amount: amount}
		sum = sum.Add(amount)
	}
	// Entries are whole cents, so anything short of an exact match is at
	// least a cent off.
	if !sum.Equal(total) {
		return nil, &MismatchError{Strategy: models.SplitCustom, Got: sum, Want: total}
	}
	return splits, nil
}

func splitPercentage(total decimal.Decimal, participants []models.Participant, percentages map[models.Participant]decimal.Decimal) ([]SplitAmount, error) {
	pcts := make([]decimal.Decimal, len(participants))
	for i, p := range participants {
		pcts[i] = percentages[p]
		if pcts[i].IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeEntry, p)
		}
	}
	sum := decimal.Sum(decimal.Zero, pcts...)
	if sum.Sub(hundred).Abs().GreaterThan(money.Cent) {
		return nil, &MismatchError{Strategy: models.SplitPercentage, Got: sum, Want: hundred}
	}

	amounts := apportion(total, pcts)
	splits := make([]SplitAmount, len(participants))
	for i, p := range participants {
		splits[i] = SplitAmount{
			Participant: p,
			Amount:      amounts[i],
			Percentage:  decimal.NewNullDecimal(pcts[i]),
		}
	}
	return splits, nil
}

func splitShares(total decimal.Decimal, participants []models.Participant, shares map[models.Participant]decimal.Decimal) ([]SplitAmount, error) {
	counts := make([]decimal.Decimal, len(participants))
	for i, p := range participants {
		counts[i] = shares[p]
		if counts[i].IsNegative() {
			return nil, fmt.Errorf("%w: %s", ErrNegativeEntry, p)
		}
	}
	if !decimal.Sum(decimal.Zero, counts...).IsPositive() {
		return nil, ErrZeroShares
	}

	amounts := apportion(total, counts)
	splits := make([]SplitAmount, len(participants))
	for i, p := range participants {
		splits[i] = SplitAmount{
			Participant: p,
			Amount:      amounts[i],
			Shares:      decimal.NewNullDecimal(counts[i]),
		}
	}
	return splits, nil
}

// apportion divides total in proportion to weights by the largest remainder
// method. Each share is floored to the cent, then the cents left over go one
// apiece to the shares that lost most to flooring, later participants first
// on ties. The result always sums to total and is never negative.
func apportion(total decimal.Decimal, weights []decimal.Decimal) []decimal.Decimal {
	sumWeights := decimal.Sum(decimal.Zero, weights...)
	amounts := make([]decimal.Decimal, len(weights))
	remainders := make([]decimal.Decimal, len(weights))
	allocated := decimal.Zero
	for i, w := range weights {
		exact := total.Mul(w).Div(sumWeights)
		amounts[i] = exact.RoundFloor(2)
		remainders[i] = exact.Sub(amounts[i])
		allocated = allocated.Add(amounts[i])
	}

	order := make([]int, len(weights))
	for i := range order {
		order[i] = i
	}
	slices.SortFunc(order, func(a, b int) int {
		if c := remainders[b].Cmp(remainders[a]); c != 0 {
			return c
		}
		return b - a
	})

	left := int(total.Sub(allocated).Div(money.Cent).IntPart())
	for k := 0; k < left; k++ {
		i := order[k%len(order)]
		amounts[i] = amounts[i].Add(money.Cent)
	}
	return amounts
}

// SumSplits returns the total of a computed split.
func SumSplits(splits []SplitAmount) decimal.Decimal {
	sum := decimal.Zero
	for _, s := range splits {
		sum = sum.Add(s.Amount)
	}
	return sum
}
