package market

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/amm"
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/safe"
)

const (
	StatusActive    = "ACTIVE"
	StatusSettled   = "SETTLED"
	StatusCancelled = "CANCELLED"
)

// Market is one two-outcome prediction question. Stakes, odds and the bid
// counter are mutated only through the transition methods below; the
// descriptive fields are immutable after creation.
type Market struct {
	gorm.Model   `json:"-"`
	MarketID     string    `gorm:"uniqueIndex" json:"market_id"`
	Title        string    `json:"title"`
	OptionALabel string    `json:"option_a_label"`
	OptionBLabel string    `json:"option_b_label"`
	Authority    string    `json:"authority"`
	VaultRef     string    `json:"vault_ref"`
	AccountRef   string    `json:"account_ref"`
	OptionAStake uint64    `json:"option_a_stake"`
	OptionBStake uint64    `json:"option_b_stake"`
	TotalPool    uint64    `json:"total_pool"`
	OptionAOdds  uint64    `json:"option_a_odds"`
	OptionBOdds  uint64    `json:"option_b_odds"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"` // ACTIVE, SETTLED, CANCELLED
	Winner       string    `json:"winner,omitempty"`
	NextBidIndex uint64    `json:"next_bid_index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// ValidateNew checks the creation-time constraints: string length limits and
// an end time strictly in the future. Lengths are byte counts, matching the
// persisted layout limits; they are never re-validated after creation.
// Only upper bounds are enforced; empty strings are admitted here and left
// to the transport layer's required-field binding.
func ValidateNew(marketID, title, optionALabel, optionBLabel string, endTime, now time.Time) error {
	if len(marketID) > types.MaxMarketIDLen {
		return fmt.Errorf("%w: market id exceeds %d bytes", types.ErrValidation, types.MaxMarketIDLen)
	}
	if len(title) > types.MaxTitleLen {
		return fmt.Errorf("%w: title exceeds %d bytes", types.ErrValidation, types.MaxTitleLen)
	}
	if len(optionALabel) > types.MaxLabelLen {
		return fmt.Errorf("%w: option A label exceeds %d bytes", types.ErrValidation, types.MaxLabelLen)
	}
	if len(optionBLabel) > types.MaxLabelLen {
		return fmt.Errorf("%w: option B label exceeds %d bytes", types.ErrValidation, types.MaxLabelLen)
	}
	if !endTime.After(now) {
		return fmt.Errorf("%w: end time must be in the future", types.ErrValidation)
	}
	return nil
}

// OddsFor returns the current odds of the given option.
func (m *Market) OddsFor(option types.Option) uint64 {
	if option == types.OptionA {
		return m.OptionAOdds
	}
	return m.OptionBOdds
}

// AcceptStake validates a bid against the market and applies it: records the
// pre-update odds for the chosen option, computes the potential payout at
// those odds, adds the stake to the chosen side and the pool, recomputes
// both odds and advances the bid counter.
//
// The claimed index must equal the market's next index; this is how a lost
// race between two concurrently constructed bids is detected and rejected.
func (m *Market) AcceptStake(option types.Option, amount, claimedIndex uint64, now time.Time) (oddsAtPurchase, potentialWin uint64, err error) {
	if claimedIndex != m.NextBidIndex {
		return 0, 0, fmt.Errorf("%w: claimed index %d, next index %d", types.ErrIndexConflict, claimedIndex, m.NextBidIndex)
	}
	if m.Status != StatusActive {
		return 0, 0, fmt.Errorf("%w: market %s is %s", types.ErrWrongState, m.MarketID, m.Status)
	}
	if !now.Before(m.EndTime) {
		return 0, 0, fmt.Errorf("%w: market %s ended at %s", types.ErrDeadline, m.MarketID, m.EndTime.Format(time.RFC3339))
	}
	if amount < types.MinBet || amount > types.MaxBet {
		return 0, 0, fmt.Errorf("%w: bet amount %d outside [%d, %d]", types.ErrValidation, amount, types.MinBet, types.MaxBet)
	}

	oddsAtPurchase = m.OddsFor(option)
	potentialWin, err = safe.MulDiv(amount, types.BpsDenominator, oddsAtPurchase)
	if err != nil {
		return 0, 0, err
	}

	if option == types.OptionA {
		m.OptionAStake, err = safe.Add(m.OptionAStake, amount)
	} else {
		m.OptionBStake, err = safe.Add(m.OptionBStake, amount)
	}
	if err != nil {
		return 0, 0, err
	}
	m.TotalPool, err = safe.Add(m.TotalPool, amount)
	if err != nil {
		return 0, 0, err
	}

	m.OptionAOdds, m.OptionBOdds, err = amm.Recompute(m.OptionAStake, m.OptionBStake)
	if err != nil {
		return 0, 0, err
	}

	m.NextBidIndex, err = safe.Add(m.NextBidIndex, 1)
	if err != nil {
		return 0, 0, err
	}

	return oddsAtPurchase, potentialWin, nil
}

// Settle transitions the market to SETTLED and records the winner. Only the
// market authority may settle, only from ACTIVE, and only once the end time
// has passed.
func (m *Market) Settle(caller string, winner types.Option, now time.Time) error {
	if caller != m.Authority {
		return fmt.Errorf("%w: only the market authority can settle", types.ErrUnauthorized)
	}
	if m.Status != StatusActive {
		return fmt.Errorf("%w: market %s is %s", types.ErrWrongState, m.MarketID, m.Status)
	}
	if now.Before(m.EndTime) {
		return fmt.Errorf("%w: market %s has not ended yet", types.ErrDeadline, m.MarketID)
	}

	m.Status = StatusSettled
	m.Winner = string(winner)
	return nil
}

// Cancel transitions the market to CANCELLED. Authority-only and ACTIVE-only,
// but with no deadline check: cancellation is an emergency override available
// at any time while the market is live.
func (m *Market) Cancel(caller string) error {
	if caller != m.Authority {
		return fmt.Errorf("%w: only the market authority can cancel", types.ErrUnauthorized)
	}
	if m.Status != StatusActive {
		return fmt.Errorf("%w: market %s is %s", types.ErrWrongState, m.MarketID, m.Status)
	}

	m.Status = StatusCancelled
	return nil
}

// MarketResponse is the API representation of a market.
type MarketResponse struct {
	MarketID     string    `json:"market_id"`
	Title        string    `json:"title"`
	OptionALabel string    `json:"option_a_label"`
	OptionBLabel string    `json:"option_b_label"`
	Authority    string    `json:"authority"`
	VaultRef     string    `json:"vault_ref"`
	AccountRef   string    `json:"account_ref"`
	OptionAStake uint64    `json:"option_a_stake"`
	OptionBStake uint64    `json:"option_b_stake"`
	TotalPool    uint64    `json:"total_pool"`
	OptionAOdds  uint64    `json:"option_a_odds"`
	OptionBOdds  uint64    `json:"option_b_odds"`
	EndTime      time.Time `json:"end_time"`
	Status       string    `json:"status"`
	Winner       string    `json:"winner,omitempty"`
	NextBidIndex uint64    `json:"next_bid_index"`
	CreatedAt    time.Time `json:"created_at"`
}

// Response converts a market to its API representation.
func (m *Market) Response() *MarketResponse {
	return &MarketResponse{
		MarketID:     m.MarketID,
		Title:        m.Title,
		OptionALabel: m.OptionALabel,
		OptionBLabel: m.OptionBLabel,
		Authority:    m.Authority,
		VaultRef:     m.VaultRef,
		AccountRef:   m.AccountRef,
		OptionAStake: m.OptionAStake,
		OptionBStake: m.OptionBStake,
		TotalPool:    m.TotalPool,
		OptionAOdds:  m.OptionAOdds,
		OptionBOdds:  m.OptionBOdds,
		EndTime:      m.EndTime,
		Status:       m.Status,
		Winner:       m.Winner,
		NextBidIndex: m.NextBidIndex,
		CreatedAt:    m.CreatedAt,
	}
}
