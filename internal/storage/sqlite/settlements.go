package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"tripledger/internal/models"
	"tripledger/internal/storage"
)

// CreateSettlement persists a recorded payment between members.
func (s *SQLiteStore) CreateSettlement(ctx context.Context, settlement *models.Settlement) error {
	if settlement.ID == "" {
		settlement.ID = uuid.New().String()
	}
	if settlement.CreatedAt == 0 {
		settlement.CreatedAt = time.Now().Unix()
	}

	var note interface{}
	if settlement.Note != "" {
		note = settlement.Note
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO settlements (id, trip_id, from_member_id, to_member_id, amount, currency, note, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		settlement.ID, settlement.TripID, settlement.FromMemberID, settlement.ToMemberID,
		settlement.Amount.StringFixed(2), settlement.Currency, note, settlement.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert settlement: %w", err)
	}
	return nil
}

// ListSettlements retrieves a trip's recorded settlements, newest first.
func (s *SQLiteStore) ListSettlements(ctx context.Context, tripID string) ([]*models.Settlement, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, from_member_id, to_member_id, amount, currency, note, created_at
		 FROM settlements WHERE trip_id = ? ORDER BY created_at DESC, id`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list settlements: %w", err)
	}
	defer rows.Close()

	var settlements []*models.Settlement
	for rows.Next() {
		settlement := &models.Settlement{}
		var amount string
		var note sql.NullString
		if err := rows.Scan(&settlement.ID, &settlement.TripID, &settlement.FromMemberID,
			&settlement.ToMemberID, &amount, &settlement.Currency, &note, &settlement.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan settlement: %w", err)
		}
		settlement.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
		}
		if note.Valid {
			settlement.Note = note.String
		}
		settlements = append(settlements, settlement)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate settlements: %w", err)
	}
	return settlements, nil
}

// DeleteSettlement removes a recorded settlement by ID, scoped to its trip.
func (s *SQLiteStore) DeleteSettlement(ctx context.Context, tripID, settlementID string) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM settlements WHERE id = ? AND trip_id = ?", settlementID, tripID)
	if err != nil {
		return fmt.Errorf("failed to delete settlement: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("settlement %s: %w", settlementID, storage.ErrNotFound)
	}
	return nil
}
