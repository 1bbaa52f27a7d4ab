// Package models defines the core domain models for Tripledger.
//
// # Ownership
//
// Members and Expenses belong to a Trip. ExpenseSplits belong to their
// Expense and are replaced wholesale (deleted and reinserted) whenever an
// expense's split configuration changes. Settlements record actual payments
// between members and belong to a Trip.
//
// Deleting a Member cascades to the expenses that member paid and to every
// split referencing the member. Deleting an Expense cascades to its splits.
//
// # Money
//
// All monetary amounts are decimal.Decimal values, never floats. Amounts are
// persisted as two-decimal strings and compared against a fixed 0.01 epsilon
// in the currency's minor unit. Currency codes are free-form strings (ISO
// 4217 style); the system never converts between currencies, it only groups
// by exact code.
//
// # Design Principles
//
//  1. Avoid circular references: use ID strings instead of pointers for
//     relationships.
//  2. Balances and settlement suggestions are derived views computed by
//     internal/calculator; they are never stored on these models.
package models
