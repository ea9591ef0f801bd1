package models

// Group is a set of people sharing expenses in one base currency.
type Group struct {
	// ID is the unique identifier for the group (UUID format).
	ID string

	// Name is the display name of the group (e.g., "Roommates", "Ski Trip").
	Name string

	// BaseCurrency is the ISO code new expenses default to.
	BaseCurrency string

	// CreatedBy is the user id of the creator, who becomes the first admin.
	CreatedBy string

	// CreatedAt is the Unix timestamp when the group was created.
	CreatedAt int64
}

// DefaultCurrency is used when a group is created without a base currency.
const DefaultCurrency = "USD"
