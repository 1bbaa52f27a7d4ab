package models

import "github.com/shopspring/decimal"

// Expense is a single recorded payment within a trip.
type Expense struct {
	// ID is the unique identifier for the expense (UUID format).
	ID string

	// TripID is the trip this expense belongs to.
	TripID string

	// Name is the human-readable description (e.g., "Dinner at restaurant").
	Name string

	// Amount is the total paid, in Currency.
	Amount decimal.Decimal

	// Currency is the ISO-4217-style code the amount is denominated in.
	// No semantic validation beyond non-empty; balances group by exact match.
	Currency string

	// PaidByMemberID is the member who advanced the money.
	PaidByMemberID string

	// Date is the day the expense occurred, formatted as YYYY-MM-DD.
	Date string

	// Category is a free-form label (e.g., "Food", "Transport").
	Category string

	// CreatedAt and UpdatedAt are Unix timestamps maintained by the store.
	CreatedAt int64
	UpdatedAt int64
}

// ExpenseSplit is one member's allocated share of an expense's amount.
//
// Invariant: for a given expense, the split members are a subset of the
// trip's members and the share amounts sum to the expense amount within
// 0.01 (modulo the documented equal-split rounding residue).
type ExpenseSplit struct {
	// ID is the unique identifier for the split row (UUID format).
	ID string

	// ExpenseID is the owning expense.
	ExpenseID string

	// MemberID is the member this share is allocated to.
	MemberID string

	// ShareAmount is this member's share, in the expense's currency.
	ShareAmount decimal.Decimal
}
