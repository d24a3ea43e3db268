// Package storage provides abstractions for persistent data storage.
package storage

import (
	"context"
	"errors"

	"tripsplit/internal/models"
)

// ErrNotFound is returned when a receipt or item id matches nothing.
var ErrNotFound = errors.New("storage: not found")

// Store defines the interface for people and receipt persistence. The
// abstraction keeps the HTTP layer free of SQL and allows swapping the
// backend without touching the handlers.
type Store interface {
	// ListPeople returns all known people in insertion order.
	ListPeople(ctx context.Context) ([]string, error)

	// AddPerson registers a person. Adding an existing name is a no-op.
	AddPerson(ctx context.Context, name string) error

	// ListReceipts returns all receipts, oldest first, with items and
	// participant sets populated.
	ListReceipts(ctx context.Context) ([]models.Receipt, error)

	// GetReceipt retrieves one receipt by id, or ErrNotFound.
	GetReceipt(ctx context.Context, receiptID string) (*models.Receipt, error)

	// CreateReceipt persists a new receipt with its items. Missing ids
	// and timestamps are populated on the passed value.
	CreateReceipt(ctx context.Context, receipt *models.Receipt) error

	// DeleteReceipt removes a receipt and everything under it, or
	// ErrNotFound.
	DeleteReceipt(ctx context.Context, receiptID string) error

	// SetItemParticipants replaces one item's participant set wholesale.
	SetItemParticipants(ctx context.Context, receiptID, itemID string, participants []string) error

	// SetPaidBy changes a receipt's payer.
	SetPaidBy(ctx context.Context, receiptID, paidBy string) error

	// SetAllParticipants replaces the participant set of every item on a
	// receipt with the same list (empty list clears them all).
	SetAllParticipants(ctx context.Context, receiptID string, participants []string) error

	// Close releases any resources held by the store.
	Close() error
}
