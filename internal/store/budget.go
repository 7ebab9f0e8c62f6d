package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dukerupert/trolley/internal/model"
	"github.com/google/uuid"
)

type BudgetStore struct {
	db *sql.DB
}

func NewBudgetStore(db *sql.DB) *BudgetStore {
	return &BudgetStore{db: db}
}

const budgetCols = `id, type, amount, currency, period_start, period_end, category_limits, is_active, created_at`

func scanBudget(scanner interface{ Scan(...any) error }) (*model.Budget, error) {
	var b model.Budget
	var start, end, limits string
	var active int
	err := scanner.Scan(&b.ID, &b.Type, &b.Amount, &b.Currency, &start, &end, &limits, &active, &b.CreatedAt)
	if err != nil {
		return nil, err
	}
	if b.PeriodStart, err = model.ParseDate(start); err != nil {
		return nil, err
	}
	if b.PeriodEnd, err = model.ParseDate(end); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(limits), &b.CategoryLimits); err != nil {
		return nil, fmt.Errorf("decode category limits: %w", err)
	}
	if b.CategoryLimits == nil {
		b.CategoryLimits = map[string]float64{}
	}
	b.IsActive = active != 0
	return &b, nil
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertBudget(db execer, b *model.Budget) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	if b.Currency == "" {
		b.Currency = "GBP"
	}
	limits := b.CategoryLimits
	if limits == nil {
		limits = map[string]float64{}
	}
	encoded, err := json.Marshal(limits)
	if err != nil {
		return fmt.Errorf("encode category limits: %w", err)
	}
	_, err = db.Exec(
		`INSERT INTO budgets (`+budgetCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Type, b.Amount, b.Currency, b.PeriodStart.String(), b.PeriodEnd.String(),
		string(encoded), b.IsActive, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("insert budget: %w", err)
	}
	return nil
}

func (s *BudgetStore) Create(b model.Budget) (*model.Budget, error) {
	if err := insertBudget(s.db, &b); err != nil {
		return nil, err
	}
	return s.GetByID(b.ID)
}

func (s *BudgetStore) GetByID(id string) (*model.Budget, error) {
	row := s.db.QueryRow(`SELECT `+budgetCols+` FROM budgets WHERE id = ?`, id)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get budget: %w", err)
	}
	return b, nil
}

// GetActive returns the most recently started active budget, or nil.
func (s *BudgetStore) GetActive() (*model.Budget, error) {
	row := s.db.QueryRow(`SELECT ` + budgetCols + ` FROM budgets WHERE is_active = 1 ORDER BY period_start DESC, created_at DESC LIMIT 1`)
	b, err := scanBudget(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get active budget: %w", err)
	}
	return b, nil
}

func (s *BudgetStore) List() ([]model.Budget, error) {
	rows, err := s.db.Query(`SELECT ` + budgetCols + ` FROM budgets ORDER BY period_start DESC, created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	var budgets []model.Budget
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		budgets = append(budgets, *b)
	}
	return budgets, rows.Err()
}

func (s *BudgetStore) Deactivate(id string) error {
	_, err := s.db.Exec(`UPDATE budgets SET is_active = 0 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deactivate budget: %w", err)
	}
	return nil
}

// Rollover deactivates the budget with oldID and inserts next as the new
// active budget in one transaction.
func (s *BudgetStore) Rollover(oldID string, next model.Budget) (*model.Budget, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE budgets SET is_active = 0 WHERE id = ?`, oldID); err != nil {
		return nil, fmt.Errorf("deactivate budget: %w", err)
	}
	next.IsActive = true
	if err := insertBudget(tx, &next); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(next.ID)
}

func (s *BudgetStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM budgets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete budget: %w", err)
	}
	return nil
}
