package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// StateRepository loads and saves the whole ledger
type StateRepository interface {
	// Load returns the persisted ledger. Missing or unreadable collections come back empty;
	// an error means the backend itself could not be reached.
	Load(ctx context.Context) (*State, error)

	// Save overwrites the persisted ledger with s
	Save(ctx context.Context, s *State) error
}

// BlobStore is a flat key to bytes store
type BlobStore interface {
	// Get returns ErrBlobNotFound for a key that was never written
	Get(ctx context.Context, key string) ([]byte, error)

	Set(ctx context.Context, key string, value []byte) error
}

// Quote is the current price of one symbol
type Quote struct {
	Symbol string
	Price  decimal.Decimal
}

// PriceOracle looks up current prices for a batch of symbols.
// The answer may cover only a subset of the symbols asked for.
type PriceOracle interface {
	Quotes(ctx context.Context, symbols []string) ([]Quote, error)
}

// Event is a notification that the ledger changed
type Event struct {
	Type       string    `json:"type"`
	Subject    string    `json:"subject"`
	Payload    any       `json:"payload,omitempty"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Event types
const (
	EventAssetTransaction = "asset.transaction"
	EventAssetRemoved     = "asset.removed"
	EventAssetAnnotated   = "asset.annotated"
	EventPricesRefreshed  = "prices.refreshed"
	EventProjectAction    = "project.action"
	EventProjectEntryDel  = "project.entry_removed"
	EventProjectRemoved   = "project.removed"
	EventProjectUpdated   = "project.updated"
	EventTradeRecorded    = "trade.recorded"
	EventTradeRemoved     = "trade.removed"
	EventSnapshotCaptured = "snapshot.captured"
)

// EventPublisher delivers ledger events. Publish must not block the caller.
type EventPublisher interface {
	Publish(ctx context.Context, evt Event)
}

// NopPublisher drops every event
type NopPublisher struct{}

func (NopPublisher) Publish(context.Context, Event) {}
