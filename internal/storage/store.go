// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"tripledger/internal/models"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("record not found")

// Store defines the interface for trip ledger storage operations.
// This abstraction allows swapping storage backends (SQLite, PostgreSQL, etc.)
// without changing the service layer.
//
// Cascade semantics are part of the contract, not an implementation detail:
// DeleteMemberCascade removes the member, every expense the member paid, and
// every split referencing the member; DeleteExpenseCascade removes the
// expense and its splits. Both must apply atomically so the splits-sum
// invariant never observes a partial delete.
type Store interface {
	// CreateTrip persists a new trip. The trip's ID and CreatedAt fields
	// are populated by the store.
	CreateTrip(ctx context.Context, trip *models.Trip) error

	// GetTrip retrieves a trip by ID. Returns ErrNotFound if missing.
	GetTrip(ctx context.Context, tripID string) (*models.Trip, error)

	// ListTripsByOwner retrieves all trips created by the given user,
	// newest first.
	ListTripsByOwner(ctx context.Context, ownerID string) ([]*models.Trip, error)

	// DeleteTripCascade removes a trip with its members, expenses, splits
	// and settlements.
	DeleteTripCascade(ctx context.Context, tripID string) error

	// AddMember persists a new member. ID and CreatedAt are populated by
	// the store.
	AddMember(ctx context.Context, member *models.Member) error

	// ListMembers retrieves a trip's members in creation order.
	ListMembers(ctx context.Context, tripID string) ([]*models.Member, error)

	// DeleteMemberCascade removes a member, the expenses they paid, and all
	// splits referencing them, in one transaction. The delete is scoped to
	// the given trip: a member ID from another trip yields ErrNotFound.
	DeleteMemberCascade(ctx context.Context, tripID, memberID string) error

	// CreateExpenseWithSplits persists an expense and its split rows
	// atomically. IDs and timestamps are populated by the store.
	CreateExpenseWithSplits(ctx context.Context, expense *models.Expense, splits []*models.ExpenseSplit) error

	// UpdateExpenseWithSplits updates an expense and replaces its splits
	// wholesale (old rows deleted, new rows inserted) in one transaction.
	UpdateExpenseWithSplits(ctx context.Context, expense *models.Expense, splits []*models.ExpenseSplit) error

	// GetExpense retrieves an expense by ID. Returns ErrNotFound if missing.
	GetExpense(ctx context.Context, expenseID string) (*models.Expense, error)

	// ListExpenses retrieves a trip's expenses, newest date first.
	ListExpenses(ctx context.Context, tripID string) ([]*models.Expense, error)

	// ListSplitsByExpense retrieves the split rows for one expense.
	ListSplitsByExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error)

	// ListSplitsByTrip retrieves every split row belonging to a trip's
	// expenses.
	ListSplitsByTrip(ctx context.Context, tripID string) ([]*models.ExpenseSplit, error)

	// DeleteExpenseCascade removes an expense and its splits.
	DeleteExpenseCascade(ctx context.Context, expenseID string) error

	// CreateSettlement persists a recorded payment between members.
	CreateSettlement(ctx context.Context, settlement *models.Settlement) error

	// ListSettlements retrieves a trip's recorded settlements, newest first.
	ListSettlements(ctx context.Context, tripID string) ([]*models.Settlement, error)

	// DeleteSettlement removes a recorded settlement by ID, scoped to the
	// given trip. A settlement ID from another trip yields ErrNotFound.
	DeleteSettlement(ctx context.Context, tripID, settlementID string) error

	// CreateUser persists a new user account.
	CreateUser(ctx context.Context, user *models.User) error

	// GetUserByEmail retrieves a user by email. Returns (nil, nil) when no
	// such user exists.
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)

	// GetUserByID retrieves a user by ID. Returns ErrNotFound if missing.
	GetUserByID(ctx context.Context, id string) (*models.User, error)

	// Close releases any resources held by the store.
	Close() error
}
