package models

import "github.com/shopspring/decimal"

// SplitType names the strategy used to divide an expense.
type SplitType string

const (
	SplitEqual      SplitType = "equal"
	SplitPersonal   SplitType = "personal"
	SplitCustom     SplitType = "custom"
	SplitPercentage SplitType = "percentage"
	SplitShares     SplitType = "shares"
)

// Valid reports whether t is one of the known strategies.
func (t SplitType) Valid() bool {
	switch t {
	case SplitEqual, SplitPersonal, SplitCustom, SplitPercentage, SplitShares:
		return true
	}
	return false
}

// Expense categories offered to users. CategorySettlement is reserved for
// offsetting expenses created when a debt is paid.
const (
	CategoryFood          = "Food & Dining"
	CategoryTransport     = "Transportation"
	CategoryAccommodation = "Accommodation"
	CategoryEntertainment = "Entertainment"
	CategoryShopping      = "Shopping"
	CategoryGroceries     = "Groceries"
	CategoryUtilities     = "Utilities"
	CategoryOther         = "Other"
	CategorySettlement    = "Settlement"
)

// Categories lists the user-selectable categories in display order.
var Categories = []string{
	CategoryFood,
	CategoryTransport,
	CategoryAccommodation,
	CategoryEntertainment,
	CategoryShopping,
	CategoryGroceries,
	CategoryUtilities,
	CategoryOther,
}

// ValidCategory reports whether c may be set on a user-entered expense.
func ValidCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Expense is one payment made on behalf of the group.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// GroupID is the group this expense belongs to.
	GroupID string

	Description string

	// Amount is the positive total paid, in Currency.
	Amount decimal.Decimal

	Currency string
	Category string
	Notes    string

	// Date is the calendar day of the expense (YYYY-MM-DD).
	Date string

	SplitType SplitType

	// Payer is the member who paid: an account or a pending member, never both.
	Payer Participant

	// ReceiptURL points at a stored receipt image, if any.
	ReceiptURL string

	CreatedBy string
	CreatedAt int64
	UpdatedAt int64

	// Splits are the per-participant shares. They always sum to Amount.
	Splits []Split
}

// Split is one participant's share of an expense.
type Split struct {
	ID          string
	ExpenseID   string
	Participant Participant
	Amount      decimal.Decimal

	// Percentage is set for percentage splits only.
	Percentage decimal.NullDecimal

	// Shares is set for shares splits only.
	Shares decimal.NullDecimal
}
