package models

import "github.com/shopspring/decimal"

// Settlement records an actual payment between trip members to clear debts.
// Recorded settlements are folded into balance computation: the payer's
// balance improves, the receiver's decreases, in the settlement's currency.
type Settlement struct {
	// ID is the unique identifier for the settlement (UUID format).
	ID string

	// TripID is the trip this settlement belongs to.
	TripID string

	// FromMemberID is the member who paid (debtor settling up).
	FromMemberID string

	// ToMemberID is the member who received payment (creditor being paid).
	ToMemberID string

	// Amount is the payment amount.
	Amount decimal.Decimal

	// Currency is the code the amount is denominated in.
	Currency string

	// Note is an optional description for the settlement.
	Note string

	// CreatedAt is the Unix timestamp when the settlement was recorded.
	CreatedAt int64
}
