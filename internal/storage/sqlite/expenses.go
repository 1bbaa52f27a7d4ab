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

// CreateExpenseWithSplits persists an expense and its split rows in one
// transaction, generating IDs and timestamps.
func (s *SQLiteStore) CreateExpenseWithSplits(ctx context.Context, expense *models.Expense, splits []*models.ExpenseSplit) error {
	if expense.ID == "" {
		expense.ID = uuid.New().String()
	}
	now := time.Now().Unix()
	if expense.CreatedAt == 0 {
		expense.CreatedAt = now
	}
	expense.UpdatedAt = now

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO expenses (id, trip_id, name, amount, currency, paid_by_member_id, date, category, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		expense.ID, expense.TripID, expense.Name, expense.Amount.StringFixed(2), expense.Currency,
		expense.PaidByMemberID, expense.Date, expense.Category, expense.CreatedAt, expense.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert expense: %w", err)
	}

	if err := insertSplits(ctx, tx, expense.ID, splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// UpdateExpenseWithSplits updates an expense and replaces its splits
// wholesale: the old rows are deleted and the new ones inserted inside the
// same transaction.
func (s *SQLiteStore) UpdateExpenseWithSplits(ctx context.Context, expense *models.Expense, splits []*models.ExpenseSplit) error {
	expense.UpdatedAt = time.Now().Unix()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE expenses
		 SET name = ?, amount = ?, currency = ?, paid_by_member_id = ?, date = ?, category = ?, updated_at = ?
		 WHERE id = ?`,
		expense.Name, expense.Amount.StringFixed(2), expense.Currency, expense.PaidByMemberID,
		expense.Date, expense.Category, expense.UpdatedAt, expense.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expense.ID, storage.ErrNotFound)
	}

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expense.ID); err != nil {
		return fmt.Errorf("failed to delete old splits: %w", err)
	}
	if err := insertSplits(ctx, tx, expense.ID, splits); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func insertSplits(ctx context.Context, tx *sql.Tx, expenseID string, splits []*models.ExpenseSplit) error {
	for _, split := range splits {
		if split.ID == "" {
			split.ID = uuid.New().String()
		}
		split.ExpenseID = expenseID
		_, err := tx.ExecContext(ctx,
			"INSERT INTO expense_splits (id, expense_id, member_id, share_amount) VALUES (?, ?, ?, ?)",
			split.ID, split.ExpenseID, split.MemberID, split.ShareAmount.StringFixed(2),
		)
		if err != nil {
			return fmt.Errorf("failed to insert split: %w", err)
		}
	}
	return nil
}

// GetExpense retrieves an expense by ID.
func (s *SQLiteStore) GetExpense(ctx context.Context, expenseID string) (*models.Expense, error) {
	expense := &models.Expense{}
	var amount string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, trip_id, name, amount, currency, paid_by_member_id, date, category, created_at, updated_at
		 FROM expenses WHERE id = ?`,
		expenseID,
	).Scan(&expense.ID, &expense.TripID, &expense.Name, &amount, &expense.Currency,
		&expense.PaidByMemberID, &expense.Date, &expense.Category, &expense.CreatedAt, &expense.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get expense: %w", err)
	}

	expense.Amount, err = decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
	}
	return expense, nil
}

// ListExpenses retrieves a trip's expenses, newest date first.
func (s *SQLiteStore) ListExpenses(ctx context.Context, tripID string) ([]*models.Expense, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, trip_id, name, amount, currency, paid_by_member_id, date, category, created_at, updated_at
		 FROM expenses WHERE trip_id = ? ORDER BY date DESC, created_at DESC`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []*models.Expense
	for rows.Next() {
		expense := &models.Expense{}
		var amount string
		if err := rows.Scan(&expense.ID, &expense.TripID, &expense.Name, &amount, &expense.Currency,
			&expense.PaidByMemberID, &expense.Date, &expense.Category, &expense.CreatedAt, &expense.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan expense: %w", err)
		}
		expense.Amount, err = decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored amount %q: %w", amount, err)
		}
		expenses = append(expenses, expense)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate expenses: %w", err)
	}
	return expenses, nil
}

// ListSplitsByExpense retrieves the split rows for one expense.
func (s *SQLiteStore) ListSplitsByExpense(ctx context.Context, expenseID string) ([]*models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		"SELECT id, expense_id, member_id, share_amount FROM expense_splits WHERE expense_id = ? ORDER BY member_id",
		expenseID,
	)
}

// ListSplitsByTrip retrieves every split row belonging to a trip's expenses.
func (s *SQLiteStore) ListSplitsByTrip(ctx context.Context, tripID string) ([]*models.ExpenseSplit, error) {
	return s.querySplits(ctx,
		`SELECT es.id, es.expense_id, es.member_id, es.share_amount
		 FROM expense_splits es
		 JOIN expenses e ON e.id = es.expense_id
		 WHERE e.trip_id = ?
		 ORDER BY es.expense_id, es.member_id`,
		tripID,
	)
}

func (s *SQLiteStore) querySplits(ctx context.Context, query string, arg string) ([]*models.ExpenseSplit, error) {
	rows, err := s.db.QueryContext(ctx, query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to query splits: %w", err)
	}
	defer rows.Close()

	var splits []*models.ExpenseSplit
	for rows.Next() {
		split := &models.ExpenseSplit{}
		var share string
		if err := rows.Scan(&split.ID, &split.ExpenseID, &split.MemberID, &share); err != nil {
			return nil, fmt.Errorf("failed to scan split: %w", err)
		}
		split.ShareAmount, err = decimal.NewFromString(share)
		if err != nil {
			return nil, fmt.Errorf("failed to parse stored share %q: %w", share, err)
		}
		splits = append(splits, split)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate splits: %w", err)
	}
	return splits, nil
}

// DeleteExpenseCascade removes an expense and its splits in one transaction.
func (s *SQLiteStore) DeleteExpenseCascade(ctx context.Context, expenseID string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "DELETE FROM expense_splits WHERE expense_id = ?", expenseID); err != nil {
		return fmt.Errorf("failed to delete splits: %w", err)
	}

	res, err := tx.ExecContext(ctx, "DELETE FROM expenses WHERE id = ?", expenseID)
	if err != nil {
		return fmt.Errorf("failed to delete expense: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("expense %s: %w", expenseID, storage.ErrNotFound)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}
