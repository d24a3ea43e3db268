package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"tripsplit/internal/models"
	"tripsplit/internal/storage"
)

// shortID returns the first n hex characters of a fresh UUID, matching
// the short receipt/item ids the wire protocol uses.
func shortID(n int) string {
	return strings.ReplaceAll(uuid.New().String(), "-", "")[:n]
}

// CreateReceipt persists a receipt and its items in one transaction.
func (s *SQLiteStore) CreateReceipt(ctx context.Context, receipt *models.Receipt) error {
	if receipt.ID == "" {
		receipt.ID = shortID(8)
	}
	if receipt.CreatedAt == "" {
		receipt.CreatedAt = time.Now().UTC().Format(time.RFC3339)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO receipts (id, title, supplier, paid_by, currency, total_amount, payment_method, notes, parser, raw_html_file, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		receipt.ID, receipt.Title, receipt.Supplier, receipt.PaidBy, receipt.Currency,
		receipt.TotalAmount, receipt.PaymentMethod, receipt.Notes, receipt.Parser,
		receipt.RawHTMLFile, receipt.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert receipt: %w", err)
	}

	for i := range receipt.Items {
		item := &receipt.Items[i]
		if item.ID == "" {
			item.ID = shortID(10)
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO items (id, receipt_id, description, quantity, price, total) VALUES (?, ?, ?, ?, ?, ?)",
			item.ID, receipt.ID, item.Description, item.Quantity, item.Price, item.Total,
		)
		if err != nil {
			return fmt.Errorf("failed to insert item: %w", err)
		}
		for _, name := range item.Participants {
			_, err = tx.ExecContext(ctx,
				"INSERT INTO item_participants (item_id, name) VALUES (?, ?) ON CONFLICT DO NOTHING",
				item.ID, name,
			)
			if err != nil {
				return fmt.Errorf("failed to insert item participant: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListReceipts returns all receipts oldest first, fully populated.
func (s *SQLiteStore) ListReceipts(ctx context.Context) ([]models.Receipt, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, supplier, paid_by, currency, total_amount, payment_method, notes, parser, raw_html_file, created_at
		 FROM receipts ORDER BY rowid`,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list receipts: %w", err)
	}
	defer rows.Close()

	receipts := []models.Receipt{}
	for rows.Next() {
		var r models.Receipt
		if err := rows.Scan(&r.ID, &r.Title, &r.Supplier, &r.PaidBy, &r.Currency,
			&r.TotalAmount, &r.PaymentMethod, &r.Notes, &r.Parser, &r.RawHTMLFile, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan receipt: %w", err)
		}
		receipts = append(receipts, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate receipts: %w", err)
	}

	for i := range receipts {
		items, err := s.loadItems(ctx, receipts[i].ID)
		if err != nil {
			return nil, err
		}
		receipts[i].Items = items
	}
	return receipts, nil
}

// GetReceipt retrieves one receipt by id.
func (s *SQLiteStore) GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error) {
	var r models.Receipt
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, supplier, paid_by, currency, total_amount, payment_method, notes, parser, raw_html_file, created_at
		 FROM receipts WHERE id = ?`, receiptID,
	).Scan(&r.ID, &r.Title, &r.Supplier, &r.PaidBy, &r.Currency,
		&r.TotalAmount, &r.PaymentMethod, &r.Notes, &r.Parser, &r.RawHTMLFile, &r.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get receipt: %w", err)
	}

	items, err := s.loadItems(ctx, r.ID)
	if err != nil {
		return nil, err
	}
	r.Items = items
	return &r, nil
}

// loadItems fetches a receipt's items in insertion order, each with its
// participant set.
func (s *SQLiteStore) loadItems(ctx context.Context, receiptID string) ([]models.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT id, description, quantity, price, total FROM items WHERE receipt_id = ? ORDER BY rowid",
		receiptID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get items: %w", err)
	}
	defer rows.Close()

	items := []models.Item{}
	for rows.Next() {
		var item models.Item
		if err := rows.Scan(&item.ID, &item.Description, &item.Quantity, &item.Price, &item.Total); err != nil {
			return nil, fmt.Errorf("failed to scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate items: %w", err)
	}

	for i := range items {
		participants, err := s.loadParticipants(ctx, items[i].ID)
		if err != nil {
			return nil, err
		}
		items[i].Participants = participants
	}
	return items, nil
}

func (s *SQLiteStore) loadParticipants(ctx context.Context, itemID string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT name FROM item_participants WHERE item_id = ? ORDER BY rowid",
		itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get item participants: %w", err)
	}
	defer rows.Close()

	participants := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		participants = append(participants, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	return participants, nil
}

// DeleteReceipt removes a receipt; items and participant sets cascade.
func (s *SQLiteStore) DeleteReceipt(ctx context.Context, receiptID string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM receipts WHERE id = ?", receiptID)
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to delete receipt: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	return nil
}

// SetItemParticipants replaces one item's participant set wholesale.
func (s *SQLiteStore) SetItemParticipants(ctx context.Context, receiptID, itemID string, participants []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var owner string
	err = tx.QueryRowContext(ctx, "SELECT receipt_id FROM items WHERE id = ?", itemID).Scan(&owner)
	if err == sql.ErrNoRows || (err == nil && owner != receiptID) {
		return fmt.Errorf("item %s on receipt %s: %w", itemID, receiptID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up item: %w", err)
	}

	if err := replaceParticipants(ctx, tx, itemID, participants); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// SetPaidBy changes a receipt's payer.
func (s *SQLiteStore) SetPaidBy(ctx context.Context, receiptID, paidBy string) error {
	res, err := s.db.ExecContext(ctx, "UPDATE receipts SET paid_by = ? WHERE id = ?", paidBy, receiptID)
	if err != nil {
		return fmt.Errorf("failed to set payer: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to set payer: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	return nil
}

// SetAllParticipants gives every item on a receipt the same participant
// set. An empty list clears all assignments.
func (s *SQLiteStore) SetAllParticipants(ctx context.Context, receiptID string, participants []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, "SELECT 1 FROM receipts WHERE id = ?", receiptID).Scan(&exists)
	if err == sql.ErrNoRows {
		return fmt.Errorf("receipt %s: %w", receiptID, storage.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("failed to look up receipt: %w", err)
	}

	rows, err := tx.QueryContext(ctx, "SELECT id FROM items WHERE receipt_id = ?", receiptID)
	if err != nil {
		return fmt.Errorf("failed to list items: %w", err)
	}
	var itemIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			rows.Close()
			return fmt.Errorf("failed to scan item id: %w", err)
		}
		itemIDs = append(itemIDs, id)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate items: %w", err)
	}

	for _, itemID := range itemIDs {
		if err := replaceParticipants(ctx, tx, itemID, participants); err != nil {
			return err
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

func replaceParticipants(ctx context.Context, tx *sql.Tx, itemID string, participants []string) error {
	if _, err := tx.ExecContext(ctx, "DELETE FROM item_participants WHERE item_id = ?", itemID); err != nil {
		return fmt.Errorf("failed to clear participants: %w", err)
	}
	for _, name := range participants {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO item_participants (item_id, name) VALUES (?, ?) ON CONFLICT DO NOTHING",
			itemID, name,
		)
		if err != nil {
			return fmt.Errorf("failed to insert participant: %w", err)
		}
	}
	return nil
}
