// Package events records the domain events every operation emits: one
// persisted row in the operation's transaction plus a structured log line.
package events

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
)

// Event kinds, one per operation.
const (
	KindMarketCreated   = "market_created"
	KindBidPlaced       = "bid_placed"
	KindMarketSettled   = "market_settled"
	KindWinningsClaimed = "winnings_claimed"
	KindMarketCancelled = "market_cancelled"
	KindRefundClaimed   = "refund_claimed"
)

// Event is one persisted domain event.
type Event struct {
	gorm.Model `json:"-"`
	EventID    string    `gorm:"uniqueIndex" json:"event_id"`
	Kind       string    `gorm:"index" json:"kind"`
	MarketID   string    `gorm:"index" json:"market_id"`
	Actor      string    `json:"actor"`
	Payload    string    `json:"payload"` // JSON document of kind-specific fields
	CreatedAt  time.Time `json:"created_at"`
}

// Recorder writes events. The database write joins the caller's transaction
// so an aborted operation leaves no event behind; log emission is
// fire-and-forget.
type Recorder struct{}

// NewRecorder creates an event recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

// Record persists and logs one event inside tx.
func (r *Recorder) Record(tx *gorm.DB, kind, marketID, actor string, payload map[string]interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	event := &Event{
		EventID:  "EVT_" + uuid.New().String(),
		Kind:     kind,
		MarketID: marketID,
		Actor:    actor,
		Payload:  string(body),
	}

	if err := tx.Create(event).Error; err != nil {
		return fmt.Errorf("failed to persist event: %w", err)
	}

	log.Info().
		Str("event_id", event.EventID).
		Str("kind", kind).
		Str("market_id", marketID).
		Str("actor", actor).
		RawJSON("payload", body).
		Msg("domain event")

	return nil
}

// ForMarket returns the persisted events of one market, oldest first.
func ForMarket(db *gorm.DB, marketID string) ([]Event, error) {
	var list []Event
	if err := db.Where("market_id = ?", marketID).Order("id ASC").Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}
