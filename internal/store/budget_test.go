package store

import (
	"testing"

	"github.com/dukerupert/trolley/internal/model"
)

func TestBudgetCreateAndActive(t *testing.T) {
	s := NewBudgetStore(openTestDB(t))

	none, err := s.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if none != nil {
		t.Fatal("expected no active budget")
	}

	b, err := s.Create(model.Budget{
		Type:           model.BudgetMonthly,
		Amount:         400,
		PeriodStart:    model.NewDate(2026, 3, 1),
		PeriodEnd:      model.NewDate(2026, 3, 31),
		CategoryLimits: map[string]float64{"snacks_sweets": 30},
		IsActive:       true,
	})
	if err != nil {
		t.Fatalf("create budget: %v", err)
	}
	if b.Currency != "GBP" {
		t.Errorf("currency = %q, want GBP", b.Currency)
	}
	if b.CategoryLimits["snacks_sweets"] != 30 {
		t.Errorf("category limits = %v, want snacks_sweets:30", b.CategoryLimits)
	}

	active, err := s.GetActive()
	if err != nil {
		t.Fatalf("get active: %v", err)
	}
	if active == nil || active.ID != b.ID {
		t.Fatalf("active = %v, want %s", active, b.ID)
	}

	if err := s.Deactivate(b.ID); err != nil {
		t.Fatalf("deactivate: %v", err)
	}
	active, _ = s.GetActive()
	if active != nil {
		t.Error("expected no active budget after deactivate")
	}
}

func TestBudgetRollover(t *testing.T) {
	s := NewBudgetStore(openTestDB(t))

	old, _ := s.Create(model.Budget{
		Type:        model.BudgetWeekly,
		Amount:      80,
		PeriodStart: model.NewDate(2026, 3, 2),
		PeriodEnd:   model.NewDate(2026, 3, 8),
		IsActive:    true,
	})

	next, err := s.Rollover(old.ID, model.Budget{
		Type:        model.BudgetWeekly,
		Amount:      80,
		PeriodStart: model.NewDate(2026, 3, 9),
		PeriodEnd:   model.NewDate(2026, 3, 15),
	})
	if err != nil {
		t.Fatalf("rollover: %v", err)
	}
	if !next.IsActive {
		t.Error("rolled budget should be active")
	}

	prev, _ := s.GetByID(old.ID)
	if prev.IsActive {
		t.Error("previous budget should be inactive")
	}

	budgets, err := s.List()
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(budgets) != 2 {
		t.Fatalf("expected 2 budgets, got %d", len(budgets))
	}
	if budgets[0].ID != next.ID {
		t.Errorf("budgets[0] = %s, want newest %s", budgets[0].ID, next.ID)
	}

	if err := s.Delete(old.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	budgets, _ = s.List()
	if len(budgets) != 1 {
		t.Errorf("expected 1 budget after delete, got %d", len(budgets))
	}
}
