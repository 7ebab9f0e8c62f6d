package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/dukerupert/trolley/internal/model"
	"github.com/google/uuid"
)

type IngredientMapStore struct {
	db *sql.DB
}

func NewIngredientMapStore(db *sql.DB) *IngredientMapStore {
	return &IngredientMapStore{db: db}
}

const ingredientMapCols = `id, raw_ingredient_string, canonical_name, category, created_at`

func scanIngredientMap(scanner interface{ Scan(...any) error }) (*model.IngredientMap, error) {
	var m model.IngredientMap
	if err := scanner.Scan(&m.ID, &m.RawIngredientString, &m.CanonicalName, &m.Category, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

func (s *IngredientMapStore) Create(raw, canonical, category string) (*model.IngredientMap, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO ingredient_maps (id, raw_ingredient_string, canonical_name, category) VALUES (?, ?, ?, ?)`,
		id, strings.TrimSpace(raw), canonical, category,
	)
	if err != nil {
		return nil, fmt.Errorf("insert ingredient map: %w", err)
	}
	return s.GetByID(id)
}

func (s *IngredientMapStore) GetByID(id string) (*model.IngredientMap, error) {
	row := s.db.QueryRow(`SELECT `+ingredientMapCols+` FROM ingredient_maps WHERE id = ?`, id)
	m, err := scanIngredientMap(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get ingredient map: %w", err)
	}
	return m, nil
}

// FindByRaw looks up a mapping by its raw string, ignoring case and surrounding space.
func (s *IngredientMapStore) FindByRaw(raw string) (*model.IngredientMap, error) {
	row := s.db.QueryRow(
		`SELECT `+ingredientMapCols+` FROM ingredient_maps WHERE lower(raw_ingredient_string) = lower(?)`,
		strings.TrimSpace(raw),
	)
	m, err := scanIngredientMap(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find ingredient map: %w", err)
	}
	return m, nil
}

func (s *IngredientMapStore) List() ([]model.IngredientMap, error) {
	rows, err := s.db.Query(`SELECT ` + ingredientMapCols + ` FROM ingredient_maps ORDER BY raw_ingredient_string ASC`)
	if err != nil {
		return nil, fmt.Errorf("list ingredient maps: %w", err)
	}
	defer rows.Close()

	var maps []model.IngredientMap
	for rows.Next() {
		m, err := scanIngredientMap(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ingredient map: %w", err)
		}
		maps = append(maps, *m)
	}
	return maps, rows.Err()
}

func (s *IngredientMapStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM ingredient_maps WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete ingredient map: %w", err)
	}
	return nil
}
