package position

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/types"
)

const (
	StatusActive   = "ACTIVE"
	StatusWon      = "WON"
	StatusLost     = "LOST"
	StatusRefunded = "REFUNDED"
)

// Bid is one participant's wager on one option of one market. Its economic
// terms are frozen at creation; only the status ever changes afterwards, and
// exactly once.
//
// Known gap carried over from the platform's accounting rules: no operation
// produces LOST. A bid on the losing side stays ACTIVE forever with no
// claimable value; the status exists only so the lifecycle is explicit.
type Bid struct {
	gorm.Model     `json:"-"`
	BidID          string    `gorm:"uniqueIndex" json:"bid_id"`
	MarketID       string    `gorm:"index;uniqueIndex:idx_market_bid_index" json:"market_id"`
	BidIndex       uint64    `gorm:"uniqueIndex:idx_market_bid_index" json:"bid_index"`
	Bettor         string    `gorm:"index" json:"bettor"`
	Amount         uint64    `json:"amount"`
	Option         string    `json:"option"`
	OddsAtPurchase uint64    `json:"odds_at_purchase"`
	PotentialWin   uint64    `json:"potential_win"`
	Status         string    `json:"status"` // ACTIVE, WON, LOST, REFUNDED
	PlacedAt       time.Time `json:"placed_at"` // caller-supplied, advisory only
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// MarkWon transitions ACTIVE -> WON. Any other source state is a double
// claim and is rejected.
func (b *Bid) MarkWon() error {
	if b.Status != StatusActive {
		return fmt.Errorf("%w: bid %s already %s", types.ErrWrongState, b.BidID, b.Status)
	}
	b.Status = StatusWon
	return nil
}

// MarkRefunded transitions ACTIVE -> REFUNDED, one-shot like MarkWon.
func (b *Bid) MarkRefunded() error {
	if b.Status != StatusActive {
		return fmt.Errorf("%w: bid %s already %s", types.ErrWrongState, b.BidID, b.Status)
	}
	b.Status = StatusRefunded
	return nil
}

// BidResponse is the API representation of a bid.
type BidResponse struct {
	BidID          string    `json:"bid_id"`
	MarketID       string    `json:"market_id"`
	BidIndex       uint64    `json:"bid_index"`
	Bettor         string    `json:"bettor"`
	Amount         uint64    `json:"amount"`
	Option         string    `json:"option"`
	OddsAtPurchase uint64    `json:"odds_at_purchase"`
	PotentialWin   uint64    `json:"potential_win"`
	Status         string    `json:"status"`
	PlacedAt       time.Time `json:"placed_at"`
	CreatedAt      time.Time `json:"created_at"`
}

// Response converts a bid to its API representation.
func (b *Bid) Response() *BidResponse {
	return &BidResponse{
		BidID:          b.BidID,
		MarketID:       b.MarketID,
		BidIndex:       b.BidIndex,
		Bettor:         b.Bettor,
		Amount:         b.Amount,
		Option:         b.Option,
		OddsAtPurchase: b.OddsAtPurchase,
		PotentialWin:   b.PotentialWin,
		Status:         b.Status,
		PlacedAt:       b.PlacedAt,
		CreatedAt:      b.CreatedAt,
	}
}
