package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripledger/internal/models"
	"tripledger/internal/storage"
)

// CreateTrip persists a new trip, generating its ID and CreatedAt.
func (s *SQLiteStore) CreateTrip(ctx context.Context, trip *models.Trip) error {
	if trip.ID == "" {
		trip.ID = uuid.New().String()
	}
	if trip.CreatedAt == 0 {
		trip.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO trips (id, owner_id, name, created_at) VALUES (?, ?, ?, ?)",
		trip.ID, trip.OwnerID, trip.Name, trip.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert trip: %w", err)
	}
	return nil
}

// GetTrip retrieves a trip by ID.
func (s *SQLiteStore) GetTrip(ctx context.Context, tripID string) (*models.Trip, error) {
	trip := &models.Trip{}
	err := s.db.QueryRowContext(ctx,
		"SELECT id, owner_id, name, created_at FROM trips WHERE id = ?",
		tripID,
	).Scan(&trip.ID, &trip.OwnerID, &trip.Name, &trip.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get trip: %w", err)
	}
	return trip, nil
}

// ListTripsByOwner retrieves all trips created by the given user, newest first.
func (s *SQLiteStore) ListTripsByOwner(ctx context.Context, ownerID string) ([]*models.Trip, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, owner_id, name, created_at FROM trips WHERE owner_id = ? ORDER BY created_at DESC",
		ownerID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list trips: %w", err)
	}
	defer rows.Close()

	var trips []*models.Trip
	for rows.Next() {
		trip := &models.Trip{}
		if err := rows.Scan(&trip.ID, &trip.OwnerID, &trip.Name, &trip.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan trip: %w", err)
		}
		trips = append(trips, trip)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate trips: %w", err)
	}
	return trips, nil
}

// DeleteTripCascade removes a trip and everything it owns. The dependent
// rows are deleted explicitly inside one transaction rather than relying on
// the foreign-key pragma.
func (s *SQLiteStore) DeleteTripCascade(ctx context.Context, tripID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	statements := []string{
		"DELETE FROM expense_splits WHERE expense_id IN (SELECT id FROM expenses WHERE trip_id = ?)",
		"DELETE FROM expenses WHERE trip_id = ?",
		"DELETE FROM settlements WHERE trip_id = ?",
		"DELETE FROM members WHERE trip_id = ?",
	}
	for _, stmt := range statements {
		if _, err := tx.ExecContext(ctx, stmt, tripID); err != nil {
			return fmt.Errorf("failed to cascade trip delete: %w", err)
		}
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM trips WHERE id = ?", tripID)
	if err != nil {
		return fmt.Errorf("failed to delete trip: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("trip %s: %w", tripID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
