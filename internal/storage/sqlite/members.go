package sqlite

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"tripledger/internal/models"
	"tripledger/internal/storage"
)

// AddMember persists a new member, generating its ID and CreatedAt.
func (s *SQLiteStore) AddMember(ctx context.Context, member *models.Member) error {
	if member.ID == "" {
		member.ID = uuid.New().String()
	}
	if member.CreatedAt == 0 {
		member.CreatedAt = time.Now().Unix()
	}

	_, err := s.db.ExecContext(ctx,
		"INSERT INTO members (id, trip_id, name, created_at) VALUES (?, ?, ?, ?)",
		member.ID, member.TripID, member.Name, member.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert member: %w", err)
	}
	return nil
}

// ListMembers retrieves a trip's members in creation order.
func (s *SQLiteStore) ListMembers(ctx context.Context, tripID string) ([]*models.Member, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, trip_id, name, created_at FROM members WHERE trip_id = ? ORDER BY created_at, id",
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list members: %w", err)
	}
	defer rows.Close()

	var members []*models.Member
	for rows.Next() {
		member := &models.Member{}
		if err := rows.Scan(&member.ID, &member.TripID, &member.Name, &member.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		members = append(members, member)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate members: %w", err)
	}
	return members, nil
}

// DeleteMemberCascade removes a member together with the expenses the member
// paid (and their splits) and every split that allocates a share to the
// member. All deletes happen in one transaction so the sum-to-zero invariant
// never observes a partial state. The member row goes first, scoped to the
// trip, so a member ID belonging to a different trip aborts the whole
// transaction with ErrNotFound before any cascade runs.
func (s *SQLiteStore) DeleteMemberCascade(ctx context.Context, tripID, memberID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		"DELETE FROM members WHERE id = ? AND trip_id = ?", memberID, tripID,
	)
	if err != nil {
		return fmt.Errorf("failed to delete member: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("member %s: %w", memberID, storage.ErrNotFound)
	}

	// Splits of expenses this member paid.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense_splits WHERE expense_id IN (SELECT id FROM expenses WHERE paid_by_member_id = ?)",
		memberID,
	); err != nil {
		return fmt.Errorf("failed to delete paid-expense splits: %w", err)
	}

	// Expenses this member paid.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expenses WHERE paid_by_member_id = ?", memberID,
	); err != nil {
		return fmt.Errorf("failed to delete paid expenses: %w", err)
	}

	// Shares allocated to this member on other members' expenses.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM expense_splits WHERE member_id = ?", memberID,
	); err != nil {
		return fmt.Errorf("failed to delete member splits: %w", err)
	}

	// Recorded settlements the member took part in.
	if _, err := tx.ExecContext(ctx,
		"DELETE FROM settlements WHERE from_member_id = ? OR to_member_id = ?",
		memberID, memberID,
	); err != nil {
		return fmt.Errorf("failed to delete member settlements: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
