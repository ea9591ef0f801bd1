package models

import "github.com/shopspring/decimal"

// Settlement records a real-world payment between two members.
//
// Every settlement has an offsetting expense (ExpenseID) paid by From with a
// single split to To, which is what actually moves the balances.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// GroupID is the group this settlement belongs to.
	GroupID string

	// From is the debtor who paid.
	From Participant

	// To is the creditor who received the payment.
	To Participant

	Amount   decimal.Decimal
	Currency string

	// ExpenseID references the offsetting expense.
	ExpenseID string

	// PaidAt is the Unix timestamp when the payment was marked as made.
	PaidAt int64

	// CreatedBy is the user who recorded the settlement.
	CreatedBy string
}
