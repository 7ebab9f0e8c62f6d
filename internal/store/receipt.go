package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/dukerupert/trolley/internal/model"
	"github.com/google/uuid"
)

type ReceiptStore struct {
	db *sql.DB
}

func NewReceiptStore(db *sql.DB) *ReceiptStore {
	return &ReceiptStore{db: db}
}

const receiptCols = `id, supermarket, store_location, purchase_date, total_amount, currency, notes, image_urls, validation_status, created_at, updated_at`

func scanReceipt(scanner interface{ Scan(...any) error }) (*model.Receipt, error) {
	var r model.Receipt
	var purchaseDate, imageURLs string
	err := scanner.Scan(
		&r.ID, &r.Supermarket, &r.StoreLocation, &purchaseDate, &r.TotalAmount,
		&r.Currency, &r.Notes, &imageURLs, &r.ValidationStatus, &r.CreatedAt, &r.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if purchaseDate != "" {
		if r.PurchaseDate, err = model.ParseDate(purchaseDate); err != nil {
			return nil, err
		}
	}
	if err := json.Unmarshal([]byte(imageURLs), &r.ImageURLs); err != nil {
		return nil, fmt.Errorf("decode image urls: %w", err)
	}
	return &r, nil
}

func encodeImageURLs(urls []string) (string, error) {
	if urls == nil {
		urls = []string{}
	}
	b, err := json.Marshal(urls)
	if err != nil {
		return "", fmt.Errorf("encode image urls: %w", err)
	}
	return string(b), nil
}

// Create inserts the receipt and its items, assigning an ID when none is set.
func (s *ReceiptStore) Create(r model.Receipt) (*model.Receipt, error) {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.ValidationStatus == "" {
		r.ValidationStatus = model.StatusCompleted
	}
	if r.Currency == "" {
		r.Currency = "GBP"
	}
	urls, err := encodeImageURLs(r.ImageURLs)
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO receipts (`+receiptCols+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, r.Supermarket, r.StoreLocation, r.PurchaseDate.String(), r.TotalAmount,
		r.Currency, r.Notes, urls, r.ValidationStatus, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert receipt: %w", err)
	}
	if err := insertItems(tx, r.ID, r.Items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(r.ID)
}

func insertItems(tx *sql.Tx, receiptID string, items []model.ReceiptItem) error {
	for i, item := range items {
		_, err := tx.Exec(
			`INSERT INTO receipt_items (receipt_id, position, name, canonical_name, category, quantity, unit_price, total_price) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
			receiptID, i, item.Name, item.CanonicalName, item.Category, item.Quantity, item.UnitPrice, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("insert item %d: %w", i, err)
		}
	}
	return nil
}

func (s *ReceiptStore) GetByID(id string) (*model.Receipt, error) {
	row := s.db.QueryRow(`SELECT `+receiptCols+` FROM receipts WHERE id = ?`, id)
	r, err := scanReceipt(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get receipt: %w", err)
	}
	receipts := []model.Receipt{*r}
	if err := s.loadItems(receipts); err != nil {
		return nil, err
	}
	return &receipts[0], nil
}

// List returns the most recent receipts, newest purchase first.
func (s *ReceiptStore) List(limit int) ([]model.Receipt, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.query(`SELECT `+receiptCols+` FROM receipts ORDER BY purchase_date DESC, created_at DESC LIMIT ?`, limit)
}

// ListBetween returns receipts purchased within [start, end], oldest first.
func (s *ReceiptStore) ListBetween(start, end model.Date) ([]model.Receipt, error) {
	return s.query(
		`SELECT `+receiptCols+` FROM receipts WHERE purchase_date BETWEEN ? AND ? ORDER BY purchase_date ASC, created_at ASC, id ASC`,
		start.String(), end.String(),
	)
}

func (s *ReceiptStore) query(q string, args ...any) ([]model.Receipt, error) {
	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list receipts: %w", err)
	}
	var receipts []model.Receipt
	for rows.Next() {
		r, err := scanReceipt(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan receipt: %w", err)
		}
		receipts = append(receipts, *r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	if err := s.loadItems(receipts); err != nil {
		return nil, err
	}
	return receipts, nil
}

// loadItems fills Items for each receipt. It runs after the receipt rows are
// closed so it works on a single-connection pool.
func (s *ReceiptStore) loadItems(receipts []model.Receipt) error {
	if len(receipts) == 0 {
		return nil
	}
	index := make(map[string]int, len(receipts))
	args := make([]any, len(receipts))
	for i, r := range receipts {
		index[r.ID] = i
		args[i] = r.ID
		receipts[i].Items = []model.ReceiptItem{}
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(receipts)), ",")

	rows, err := s.db.Query(
		`SELECT receipt_id, name, canonical_name, category, quantity, unit_price, total_price
		 FROM receipt_items WHERE receipt_id IN (`+placeholders+`) ORDER BY receipt_id, position`,
		args...,
	)
	if err != nil {
		return fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var receiptID string
		var item model.ReceiptItem
		var canonical sql.NullString
		var qty, unitPrice, totalPrice sql.NullFloat64
		if err := rows.Scan(&receiptID, &item.Name, &canonical, &item.Category, &qty, &unitPrice, &totalPrice); err != nil {
			return fmt.Errorf("scan item: %w", err)
		}
		if canonical.Valid {
			item.CanonicalName = &canonical.String
		}
		if qty.Valid {
			item.Quantity = &qty.Float64
		}
		if unitPrice.Valid {
			item.UnitPrice = &unitPrice.Float64
		}
		if totalPrice.Valid {
			item.TotalPrice = &totalPrice.Float64
		}
		i := index[receiptID]
		receipts[i].Items = append(receipts[i].Items, item)
	}
	return rows.Err()
}

// Update replaces the receipt header and its items.
func (s *ReceiptStore) Update(r model.Receipt) (*model.Receipt, error) {
	urls, err := encodeImageURLs(r.ImageURLs)
	if err != nil {
		return nil, err
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE receipts SET supermarket = ?, store_location = ?, purchase_date = ?, total_amount = ?, currency = ?, notes = ?, image_urls = ?, validation_status = ?, updated_at = ? WHERE id = ?`,
		r.Supermarket, r.StoreLocation, r.PurchaseDate.String(), r.TotalAmount, r.Currency, r.Notes, urls, r.ValidationStatus, time.Now().UTC(), r.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update receipt: %w", err)
	}
	if err := replaceItems(tx, r.ID, r.Items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(r.ID)
}

// SetItems replaces only the items and status, as delivered by the extraction pipeline.
func (s *ReceiptStore) SetItems(id string, items []model.ReceiptItem, status string) (*model.Receipt, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`UPDATE receipts SET validation_status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	if err := replaceItems(tx, id, items); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func replaceItems(tx *sql.Tx, receiptID string, items []model.ReceiptItem) error {
	if _, err := tx.Exec(`DELETE FROM receipt_items WHERE receipt_id = ?`, receiptID); err != nil {
		return fmt.Errorf("delete items: %w", err)
	}
	return insertItems(tx, receiptID, items)
}

func (s *ReceiptStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM receipts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}
