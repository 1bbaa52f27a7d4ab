// Package service orchestrates the storage layer and the calculator: it
// validates writes before they reach the store and assembles snapshots for
// the derived balance/settlement views.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"tripledger/internal/calculator"
	"tripledger/internal/models"
	"tripledger/internal/storage"
)

var (
	// ErrCurrencyRequired is returned when an expense or settlement has an
	// empty currency code.
	ErrCurrencyRequired = errors.New("currency code required")
	// ErrPayerNotMember is returned when the paying member does not belong
	// to the trip.
	ErrPayerNotMember = errors.New("payer must be a member of the trip")
	// ErrParticipantNotMember is returned when a split participant does not
	// belong to the trip.
	ErrParticipantNotMember = errors.New("all split participants must be members of the trip")
	// ErrNotOwner is returned when a user tries to modify a trip they do
	// not own.
	ErrNotOwner = errors.New("trip belongs to another user")
)

// ExpenseInput carries the caller-supplied fields for creating or editing
// an expense. Amount and custom shares arrive as strings and are validated
// by calculator.ComputeSplits; nothing is persisted when validation fails.
type ExpenseInput struct {
	Name           string
	Amount         string
	Currency       string
	PaidByMemberID string
	Date           string
	Category       string
	SplitMode      calculator.SplitMode
	Participants   []string
	CustomShares   map[string]string
}

// TripService implements trip, member, expense and settlement operations on
// top of a storage.Store.
type TripService struct {
	store storage.Store
}

// NewTripService creates a new TripService with the given storage backend.
func NewTripService(store storage.Store) *TripService {
	return &TripService{store: store}
}

// CreateTrip creates a trip owned by the given user.
func (s *TripService) CreateTrip(ctx context.Context, ownerID, name string) (*models.Trip, error) {
	if name == "" {
		return nil, errors.New("trip name required")
	}
	trip := &models.Trip{OwnerID: ownerID, Name: name}
	if err := s.store.CreateTrip(ctx, trip); err != nil {
		slog.Error("CreateTrip failed", "owner_id", ownerID, "error", err)
		return nil, err
	}
	slog.Info("Trip created", "trip_id", trip.ID, "owner_id", ownerID)
	return trip, nil
}

// ListTrips returns the trips owned by the given user, newest first.
func (s *TripService) ListTrips(ctx context.Context, ownerID string) ([]*models.Trip, error) {
	return s.store.ListTripsByOwner(ctx, ownerID)
}

// GetTrip returns a trip the given user owns.
func (s *TripService) GetTrip(ctx context.Context, ownerID, tripID string) (*models.Trip, error) {
	trip, err := s.store.GetTrip(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if trip.OwnerID != ownerID {
		return nil, ErrNotOwner
	}
	return trip, nil
}

// DeleteTrip removes a trip the given user owns, with all its members,
// expenses, splits and settlements.
func (s *TripService) DeleteTrip(ctx context.Context, ownerID, tripID string) error {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return err
	}
	if err := s.store.DeleteTripCascade(ctx, tripID); err != nil {
		slog.Error("DeleteTrip failed", "trip_id", tripID, "error", err)
		return err
	}
	slog.Info("Trip deleted", "trip_id", tripID)
	return nil
}

// AddMember adds a named member to a trip.
func (s *TripService) AddMember(ctx context.Context, ownerID, tripID, name string) (*models.Member, error) {
	if name == "" {
		return nil, errors.New("member name required")
	}
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return nil, err
	}
	member := &models.Member{TripID: tripID, Name: name}
	if err := s.store.AddMember(ctx, member); err != nil {
		slog.Error("AddMember failed", "trip_id", tripID, "error", err)
		return nil, err
	}
	return member, nil
}

// ListMembers returns a trip's members in creation order.
func (s *TripService) ListMembers(ctx context.Context, ownerID, tripID string) ([]*models.Member, error) {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return nil, err
	}
	return s.store.ListMembers(ctx, tripID)
}

// RemoveMember deletes a member with full cascade: the expenses the member
// paid, every split referencing them, and their recorded settlements.
func (s *TripService) RemoveMember(ctx context.Context, ownerID, tripID, memberID string) error {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return err
	}
	if err := s.store.DeleteMemberCascade(ctx, tripID, memberID); err != nil {
		slog.Error("RemoveMember failed", "member_id", memberID, "error", err)
		return err
	}
	slog.Info("Member removed", "trip_id", tripID, "member_id", memberID)
	return nil
}

// memberSet builds a lookup of the trip's member IDs.
func (s *TripService) memberSet(ctx context.Context, tripID string) (map[string]bool, error) {
	members, err := s.store.ListMembers(ctx, tripID)
	if err != nil {
		return nil, err
	}
	set := make(map[string]bool, len(members))
	for _, m := range members {
		set[m.ID] = true
	}
	return set, nil
}

// validateExpense runs the split validator and the trip-membership checks.
// The returned shares are safe to persist.
func (s *TripService) validateExpense(ctx context.Context, tripID string, in ExpenseInput) (map[string]decimal.Decimal, error) {
	if in.Currency == "" {
		return nil, ErrCurrencyRequired
	}

	shares, err := calculator.ComputeSplits(in.Amount, in.SplitMode, in.Participants, in.CustomShares)
	if err != nil {
		return nil, err
	}

	members, err := s.memberSet(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !members[in.PaidByMemberID] {
		return nil, ErrPayerNotMember
	}
	for memberID := range shares {
		if !members[memberID] {
			return nil, fmt.Errorf("%w: %s", ErrParticipantNotMember, memberID)
		}
	}
	return shares, nil
}

// AddExpense validates and persists a new expense with its splits.
// Validation failures block persistence entirely.
func (s *TripService) AddExpense(ctx context.Context, ownerID, tripID string, in ExpenseInput) (*models.Expense, []*models.ExpenseSplit, error) {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return nil, nil, err
	}

	shares, err := s.validateExpense(ctx, tripID, in)
	if err != nil {
		slog.Warn("AddExpense validation failed", "trip_id", tripID, "error", err)
		return nil, nil, err
	}

	expense := &models.Expense{
		TripID:         tripID,
		Name:           in.Name,
		Amount:         decimal.RequireFromString(in.Amount), // validated above
		Currency:       in.Currency,
		PaidByMemberID: in.PaidByMemberID,
		Date:           in.Date,
		Category:       in.Category,
	}
	splits := splitRows(shares)

	if err := s.store.CreateExpenseWithSplits(ctx, expense, splits); err != nil {
		slog.Error("AddExpense failed", "trip_id", tripID, "error", err)
		return nil, nil, err
	}
	slog.Info("Expense added", "trip_id", tripID, "expense_id", expense.ID,
		"currency", expense.Currency, "splits", len(splits))
	return expense, splits, nil
}

// UpdateExpense validates and persists changes to an expense, replacing its
// splits wholesale.
func (s *TripService) UpdateExpense(ctx context.Context, ownerID, expenseID string, in ExpenseInput) (*models.Expense, []*models.ExpenseSplit, error) {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return nil, nil, err
	}
	if _, err := s.GetTrip(ctx, ownerID, existing.TripID); err != nil {
		return nil, nil, err
	}

	shares, err := s.validateExpense(ctx, existing.TripID, in)
	if err != nil {
		slog.Warn("UpdateExpense validation failed", "expense_id", expenseID, "error", err)
		return nil, nil, err
	}

	expense := &models.Expense{
		ID:             expenseID,
		TripID:         existing.TripID,
		Name:           in.Name,
		Amount:         decimal.RequireFromString(in.Amount),
		Currency:       in.Currency,
		PaidByMemberID: in.PaidByMemberID,
		Date:           in.Date,
		Category:       in.Category,
		CreatedAt:      existing.CreatedAt,
	}
	splits := splitRows(shares)

	if err := s.store.UpdateExpenseWithSplits(ctx, expense, splits); err != nil {
		slog.Error("UpdateExpense failed", "expense_id", expenseID, "error", err)
		return nil, nil, err
	}
	slog.Info("Expense updated", "expense_id", expenseID, "splits", len(splits))
	return expense, splits, nil
}

// ListExpenses returns a trip's expenses, newest date first.
func (s *TripService) ListExpenses(ctx context.Context, ownerID, tripID string) ([]*models.Expense, error) {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return nil, err
	}
	return s.store.ListExpenses(ctx, tripID)
}

// DeleteExpense removes an expense and its splits.
func (s *TripService) DeleteExpense(ctx context.Context, ownerID, expenseID string) error {
	existing, err := s.store.GetExpense(ctx, expenseID)
	if err != nil {
		return err
	}
	if _, err := s.GetTrip(ctx, ownerID, existing.TripID); err != nil {
		return err
	}
	if err := s.store.DeleteExpenseCascade(ctx, expenseID); err != nil {
		slog.Error("DeleteExpense failed", "expense_id", expenseID, "error", err)
		return err
	}
	slog.Info("Expense deleted", "expense_id", expenseID)
	return nil
}

// RecordSettlement persists an actual payment between two trip members so
// future reports reflect it.
func (s *TripService) RecordSettlement(ctx context.Context, ownerID, tripID, fromMemberID, toMemberID, amount, currency, note string) (*models.Settlement, error) {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return nil, err
	}
	if currency == "" {
		return nil, ErrCurrencyRequired
	}
	value, err := decimal.NewFromString(amount)
	if err != nil || !value.IsPositive() {
		return nil, calculator.ErrInvalidAmount
	}

	members, err := s.memberSet(ctx, tripID)
	if err != nil {
		return nil, err
	}
	if !members[fromMemberID] || !members[toMemberID] {
		return nil, ErrParticipantNotMember
	}

	settlement := &models.Settlement{
		TripID:       tripID,
		FromMemberID: fromMemberID,
		ToMemberID:   toMemberID,
		Amount:       value,
		Currency:     currency,
		Note:         note,
	}
	if err := s.store.CreateSettlement(ctx, settlement); err != nil {
		slog.Error("RecordSettlement failed", "trip_id", tripID, "error", err)
		return nil, err
	}
	slog.Info("Settlement recorded", "trip_id", tripID, "settlement_id", settlement.ID)
	return settlement, nil
}

// ListSettlements returns a trip's recorded settlements, newest first.
func (s *TripService) ListSettlements(ctx context.Context, ownerID, tripID string) ([]*models.Settlement, error) {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return nil, err
	}
	return s.store.ListSettlements(ctx, tripID)
}

// DeleteSettlement removes a recorded settlement from a trip the user owns.
func (s *TripService) DeleteSettlement(ctx context.Context, ownerID, tripID, settlementID string) error {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return err
	}
	if err := s.store.DeleteSettlement(ctx, tripID, settlementID); err != nil {
		slog.Error("DeleteSettlement failed", "settlement_id", settlementID, "error", err)
		return err
	}
	return nil
}

// SettlementReport loads the trip's full snapshot and computes the derived
// per-currency balances and settlement plans. The report is recomputed on
// every call and never cached across mutations.
func (s *TripService) SettlementReport(ctx context.Context, ownerID, tripID string) (calculator.Report, error) {
	if _, err := s.GetTrip(ctx, ownerID, tripID); err != nil {
		return calculator.Report{}, err
	}

	members, err := s.store.ListMembers(ctx, tripID)
	if err != nil {
		return calculator.Report{}, err
	}
	expenses, err := s.store.ListExpenses(ctx, tripID)
	if err != nil {
		return calculator.Report{}, err
	}
	splits, err := s.store.ListSplitsByTrip(ctx, tripID)
	if err != nil {
		return calculator.Report{}, err
	}
	settlements, err := s.store.ListSettlements(ctx, tripID)
	if err != nil {
		return calculator.Report{}, err
	}

	report := calculator.BuildReport(
		deref(members), deref(expenses), deref(splits), deref(settlements),
	)
	slog.Debug("Report built", "trip_id", tripID,
		"members", len(members), "expenses", len(expenses), "currencies", len(report.Currencies))
	return report, nil
}

func splitRows(shares map[string]decimal.Decimal) []*models.ExpenseSplit {
	splits := make([]*models.ExpenseSplit, 0, len(shares))
	for memberID, share := range shares {
		splits = append(splits, &models.ExpenseSplit{MemberID: memberID, ShareAmount: share})
	}
	return splits
}

func deref[T any](in []*T) []T {
	out := make([]T, len(in))
	for i, p := range in {
		out[i] = *p
	}
	return out
}
