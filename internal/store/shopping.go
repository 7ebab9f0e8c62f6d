package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/dukerupert/trolley/internal/model"
)

type ShoppingStore struct {
	db *sql.DB
}

func NewShoppingStore(db *sql.DB) *ShoppingStore {
	return &ShoppingStore{db: db}
}

func scanShoppingItem(scanner interface{ Scan(...any) error }) (*model.ShoppingItem, error) {
	var item model.ShoppingItem
	var aisleOrder sql.NullInt64
	var checkedAt sql.NullTime
	var checked int

	err := scanner.Scan(
		&item.ID, &item.Name, &item.Quantity, &item.Unit, &item.Notes,
		&item.Category, &aisleOrder, &checked, &checkedAt, &item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Checked = checked != 0
	if aisleOrder.Valid {
		order := int(aisleOrder.Int64)
		item.AisleOrder = &order
	}
	if checkedAt.Valid {
		item.CheckedAt = &checkedAt.Time
	}
	return &item, nil
}

const shoppingCols = `id, name, quantity, unit, notes, category, aisle_order, checked, checked_at, created_at`

func (s *ShoppingStore) GetByID(id int64) (*model.ShoppingItem, error) {
	row := s.db.QueryRow(`SELECT `+shoppingCols+` FROM shopping_items WHERE id = ?`, id)
	item, err := scanShoppingItem(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get shopping item: %w", err)
	}
	return item, nil
}

func (s *ShoppingStore) Create(name, quantity, unit, notes, category string, aisleOrder *int) (*model.ShoppingItem, error) {
	result, err := s.db.Exec(
		`INSERT INTO shopping_items (name, quantity, unit, notes, category, aisle_order) VALUES (?, ?, ?, ?, ?, ?)`,
		name, quantity, unit, notes, category, aisleOrder,
	)
	if err != nil {
		return nil, fmt.Errorf("insert shopping item: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// List returns unchecked items before checked ones, each group in insertion order.
// Callers apply aisle ordering on top.
func (s *ShoppingStore) List() ([]model.ShoppingItem, error) {
	rows, err := s.db.Query(`SELECT ` + shoppingCols + ` FROM shopping_items ORDER BY checked ASC, created_at ASC, id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list shopping items: %w", err)
	}
	defer rows.Close()

	var items []model.ShoppingItem
	for rows.Next() {
		item, err := scanShoppingItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan shopping item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (s *ShoppingStore) Update(id int64, name, quantity, unit, notes, category string, aisleOrder *int) (*model.ShoppingItem, error) {
	_, err := s.db.Exec(
		`UPDATE shopping_items SET name = ?, quantity = ?, unit = ?, notes = ?, category = ?, aisle_order = ? WHERE id = ?`,
		name, quantity, unit, notes, category, aisleOrder, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update shopping item: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) Delete(id int64) error {
	_, err := s.db.Exec(`DELETE FROM shopping_items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete shopping item: %w", err)
	}
	return nil
}

func (s *ShoppingStore) ToggleChecked(id int64) (*model.ShoppingItem, error) {
	item, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, nil
	}

	if item.Checked {
		_, err = s.db.Exec(`UPDATE shopping_items SET checked = 0, checked_at = NULL WHERE id = ?`, id)
	} else {
		_, err = s.db.Exec(`UPDATE shopping_items SET checked = 1, checked_at = ? WHERE id = ?`, time.Now().UTC(), id)
	}
	if err != nil {
		return nil, fmt.Errorf("toggle checked: %w", err)
	}
	return s.GetByID(id)
}

func (s *ShoppingStore) ClearChecked() (int64, error) {
	result, err := s.db.Exec(`DELETE FROM shopping_items WHERE checked = 1`)
	if err != nil {
		return 0, fmt.Errorf("clear checked: %w", err)
	}
	count, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return count, nil
}

func (s *ShoppingStore) CountUnchecked() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM shopping_items WHERE checked = 0`).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count unchecked: %w", err)
	}
	return count, nil
}
