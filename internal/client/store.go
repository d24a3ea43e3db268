package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"tripsplit/internal/imaging"
	"tripsplit/internal/models"
)

// ErrNotLoaded is returned by cache-dependent operations before the
// first successful Refresh.
var ErrNotLoaded = errors.New("snapshot not loaded")

// SyncedStore caches the last server snapshot and keeps it consistent
// by refetching the full state after every mutation. There is no
// incremental merge: the reload replaces the cache wholesale, which
// makes reads after a mutation see that mutation (read-your-writes)
// without any client-side conflict handling.
type SyncedStore struct {
	api        *Client
	compressor *imaging.Compressor

	mu       sync.RWMutex
	snapshot *models.Snapshot
}

// StoreOption customizes a SyncedStore.
type StoreOption func(*SyncedStore)

// WithCompressor sets the compressor applied to photos before upload.
func WithCompressor(c *imaging.Compressor) StoreOption {
	return func(s *SyncedStore) { s.compressor = c }
}

// NewSyncedStore creates a SyncedStore. Photos are compressed with the
// default budget unless WithCompressor overrides it.
func NewSyncedStore(api *Client, opts ...StoreOption) *SyncedStore {
	s := &SyncedStore{
		api:        api,
		compressor: imaging.New(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Refresh replaces the cached snapshot with the server's current state.
func (s *SyncedStore) Refresh(ctx context.Context) error {
	snap, err := s.api.State(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.snapshot = snap
	s.mu.Unlock()
	return nil
}

// Snapshot returns the cached snapshot, or false before the first
// Refresh. The snapshot must be treated as read-only.
func (s *SyncedStore) Snapshot() (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snapshot, s.snapshot != nil
}

// People returns the cached people list, nil before the first Refresh.
func (s *SyncedStore) People() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.People
}

// Receipts returns the cached receipts, nil before the first Refresh.
func (s *SyncedStore) Receipts() []models.Receipt {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.Receipts
}

// Summary returns the cached balance rows, nil before the first Refresh.
func (s *SyncedStore) Summary() []models.BalanceRow {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil
	}
	return s.snapshot.Summary
}

// AddPerson registers a person and reloads the snapshot.
func (s *SyncedStore) AddPerson(ctx context.Context, name string) error {
	if _, err := s.api.AddPerson(ctx, name); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// CreateReceipt creates a receipt from invoice HTML and reloads the
// snapshot before returning.
func (s *SyncedStore) CreateReceipt(ctx context.Context, req CreateReceiptRequest) (*models.Receipt, error) {
	receipt, err := s.api.CreateReceipt(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	return receipt, nil
}

// SetItemParticipants replaces an item's participants and reloads.
func (s *SyncedStore) SetItemParticipants(ctx context.Context, receiptID, itemID string, participants []string) error {
	if err := s.api.SetItemParticipants(ctx, receiptID, itemID, participants); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// JoinItem adds a person to an item's participant set. The new full set
// is computed from the cached snapshot and sent wholesale; the wire
// protocol has no toggle operation.
func (s *SyncedStore) JoinItem(ctx context.Context, receiptID, itemID, person string) error {
	current, err := s.itemParticipants(receiptID, itemID)
	if err != nil {
		return err
	}
	for _, name := range current {
		if name == person {
			return nil
		}
	}
	return s.SetItemParticipants(ctx, receiptID, itemID, append(current, person))
}

// LeaveItem removes a person from an item's participant set.
func (s *SyncedStore) LeaveItem(ctx context.Context, receiptID, itemID, person string) error {
	current, err := s.itemParticipants(receiptID, itemID)
	if err != nil {
		return err
	}
	next := make([]string, 0, len(current))
	for _, name := range current {
		if name != person {
			next = append(next, name)
		}
	}
	if len(next) == len(current) {
		return nil
	}
	return s.SetItemParticipants(ctx, receiptID, itemID, next)
}

// SetPaidBy changes a receipt's payer and reloads.
func (s *SyncedStore) SetPaidBy(ctx context.Context, receiptID, paidBy string) error {
	if err := s.api.SetPaidBy(ctx, receiptID, paidBy); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// BulkAssign applies an "all" or "none" participant assignment to every
// item of a receipt and reloads.
func (s *SyncedStore) BulkAssign(ctx context.Context, receiptID, mode string) error {
	if err := s.api.BulkAssign(ctx, receiptID, mode); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// DeleteReceipt removes a receipt and reloads.
func (s *SyncedStore) DeleteReceipt(ctx context.Context, receiptID string) error {
	if err := s.api.DeleteReceipt(ctx, receiptID); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

// UploadPhoto compresses a receipt photo to the upload budget and sends
// it for QR decoding. Decoding mutates nothing, so the cache stays as
// is.
func (s *SyncedStore) UploadPhoto(ctx context.Context, filename string, image []byte) (*QRResult, error) {
	if s.compressor != nil {
		compressed, result := s.compressor.Compress(image)
		if result.Reencoded {
			slog.Debug("Compressed photo before upload",
				"original_bytes", len(image),
				"compressed_bytes", len(compressed),
				"scale", result.Scale,
				"quality", result.Quality,
				"within_budget", result.WithinBudget)
		}
		image = compressed
	}
	return s.api.DecodeQR(ctx, filename, image)
}

func (s *SyncedStore) itemParticipants(receiptID, itemID string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.snapshot == nil {
		return nil, ErrNotLoaded
	}
	for _, receipt := range s.snapshot.Receipts {
		if receipt.ID != receiptID {
			continue
		}
		for _, item := range receipt.Items {
			if item.ID == itemID {
				return append([]string(nil), item.Participants...), nil
			}
		}
	}
	return nil, fmt.Errorf("item %s/%s not in snapshot", receiptID, itemID)
}
