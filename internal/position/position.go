package position

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/auth"
	"github.com/BearerOP/projekt-yukti/internal/escrow"
	"github.com/BearerOP/projekt-yukti/internal/events"
	"github.com/BearerOP/projekt-yukti/internal/market"
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/response"
)

// Service owns the bid lifecycle: placement against a live market and the
// two one-shot claims. Every operation runs as a single database
// transaction, so a failure anywhere leaves no partial state.
type Service struct {
	gormDB   *gorm.DB
	db       *Database
	keeper   *escrow.Keeper
	recorder *events.Recorder
	treasury string
}

// NewService creates a new position service. treasury receives the platform
// fee cut of winning payouts.
func NewService(gormDB *gorm.DB, keeper *escrow.Keeper, recorder *events.Recorder, treasury string) *Service {
	return &Service{
		gormDB:   gormDB,
		db:       NewDatabase(gormDB),
		keeper:   keeper,
		recorder: recorder,
		treasury: treasury,
	}
}

// PlaceBid stakes amount on one option of a market. The caller supplies the
// market's next bid index; any other value is rejected, which serializes
// placement per market even under optimistic concurrent submission.
func (s *Service) PlaceBid(bettor, marketID string, amount uint64, option types.Option, claimedIndex uint64, placedAt time.Time) (*Bid, error) {
	logger := log.With().
		Str("market_id", marketID).
		Str("bettor", bettor).
		Str("service", "position").
		Logger()

	if !option.Valid() {
		return nil, fmt.Errorf("%w: unknown option %q", types.ErrValidation, option)
	}
	if placedAt.IsZero() {
		placedAt = time.Now()
	}

	var bid *Bid
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		m, err := market.GetMarket(tx, marketID)
		if err != nil {
			return err
		}

		oddsAtPurchase, potentialWin, err := m.AcceptStake(option, amount, claimedIndex, time.Now())
		if err != nil {
			return err
		}

		// Funds move before any state is persisted; if the bettor cannot
		// cover the stake the whole placement rolls back untouched.
		if err := s.keeper.Deposit(tx, bettor, marketID, amount); err != nil {
			return err
		}

		bid = &Bid{
			BidID:          "BID_" + uuid.New().String(),
			MarketID:       marketID,
			BidIndex:       claimedIndex,
			Bettor:         bettor,
			Amount:         amount,
			Option:         string(option),
			OddsAtPurchase: oddsAtPurchase,
			PotentialWin:   potentialWin,
			Status:         StatusActive,
			PlacedAt:       placedAt,
		}
		if err := tx.Create(bid).Error; err != nil {
			return fmt.Errorf("failed to create bid: %w", err)
		}

		if err := market.SaveMarket(tx, m); err != nil {
			return fmt.Errorf("failed to persist market stakes: %w", err)
		}

		return s.recorder.Record(tx, events.KindBidPlaced, marketID, bettor, map[string]interface{}{
			"bid_id":        bid.BidID,
			"bid_index":     claimedIndex,
			"amount":        amount,
			"option":        option,
			"odds":          oddsAtPurchase,
			"potential_win": potentialWin,
		})
	})
	if err != nil {
		logger.Warn().Err(err).Uint64("amount", amount).Msg("bid placement failed")
		return nil, err
	}

	logger.Info().
		Str("bid_id", bid.BidID).
		Uint64("bid_index", bid.BidIndex).
		Uint64("amount", amount).
		Str("option", string(option)).
		Uint64("odds", bid.OddsAtPurchase).
		Uint64("potential_win", bid.PotentialWin).
		Msg("bid placed")

	return bid, nil
}

// ClaimWinnings pays out a winning bid on a settled market: the potential
// win minus the platform fee goes to the bettor and the fee to the treasury,
// both released from the market's vault under the same derivation authority.
func (s *Service) ClaimWinnings(caller, bidID string) (*Bid, uint64, uint64, error) {
	logger := log.With().
		Str("bid_id", bidID).
		Str("caller", caller).
		Str("service", "position").
		Logger()

	var (
		bid    *Bid
		payout uint64
		fee    uint64
	)
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		bid, err = getBid(tx, bidID)
		if err != nil {
			return err
		}

		if caller != bid.Bettor {
			return fmt.Errorf("%w: only the bettor can claim this bid", types.ErrUnauthorized)
		}

		m, err := market.GetMarket(tx, bid.MarketID)
		if err != nil {
			return err
		}

		if m.Status != market.StatusSettled {
			return fmt.Errorf("%w: market %s is %s, not settled", types.ErrWrongState, m.MarketID, m.Status)
		}
		if bid.Status != StatusActive {
			return fmt.Errorf("%w: bid %s already %s", types.ErrWrongState, bid.BidID, bid.Status)
		}
		if bid.Option != m.Winner {
			return fmt.Errorf("%w: bid %s backed option %s, winner is %s", types.ErrNotAWinner, bid.BidID, bid.Option, m.Winner)
		}

		payout, fee, err = escrow.PayoutSplit(bid.PotentialWin, types.PlatformFeeBps)
		if err != nil {
			return err
		}

		// Both releases are signed by the authority derived from this
		// market's identity; both succeed or the claim fails whole.
		authority := s.keeper.Authority(bid.MarketID)
		if err := s.keeper.Release(tx, authority, bid.Bettor, payout); err != nil {
			return err
		}
		if err := s.keeper.Release(tx, authority, s.treasury, fee); err != nil {
			return err
		}

		if err := bid.MarkWon(); err != nil {
			return err
		}
		if err := tx.Save(bid).Error; err != nil {
			return fmt.Errorf("failed to persist claimed bid: %w", err)
		}

		return s.recorder.Record(tx, events.KindWinningsClaimed, bid.MarketID, caller, map[string]interface{}{
			"bid_id":       bid.BidID,
			"payout":       payout,
			"platform_fee": fee,
		})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("winnings claim failed")
		return nil, 0, 0, err
	}

	logger.Info().
		Uint64("payout", payout).
		Uint64("platform_fee", fee).
		Msg("winnings claimed")

	return bid, payout, fee, nil
}

// ClaimRefund returns the original stake of a bid on a cancelled market.
// The refund is the staked amount, never the potential payout.
func (s *Service) ClaimRefund(caller, bidID string) (*Bid, uint64, error) {
	logger := log.With().
		Str("bid_id", bidID).
		Str("caller", caller).
		Str("service", "position").
		Logger()

	var (
		bid    *Bid
		refund uint64
	)
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		bid, err = getBid(tx, bidID)
		if err != nil {
			return err
		}

		if caller != bid.Bettor {
			return fmt.Errorf("%w: only the bettor can claim this bid", types.ErrUnauthorized)
		}

		m, err := market.GetMarket(tx, bid.MarketID)
		if err != nil {
			return err
		}

		if m.Status != market.StatusCancelled {
			return fmt.Errorf("%w: market %s is %s, not cancelled", types.ErrWrongState, m.MarketID, m.Status)
		}
		if bid.Status != StatusActive {
			return fmt.Errorf("%w: bid %s already %s", types.ErrWrongState, bid.BidID, bid.Status)
		}

		refund = bid.Amount
		authority := s.keeper.Authority(bid.MarketID)
		if err := s.keeper.Release(tx, authority, bid.Bettor, refund); err != nil {
			return err
		}

		if err := bid.MarkRefunded(); err != nil {
			return err
		}
		if err := tx.Save(bid).Error; err != nil {
			return fmt.Errorf("failed to persist refunded bid: %w", err)
		}

		return s.recorder.Record(tx, events.KindRefundClaimed, bid.MarketID, caller, map[string]interface{}{
			"bid_id": bid.BidID,
			"amount": refund,
		})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("refund claim failed")
		return nil, 0, err
	}

	logger.Info().Uint64("amount", refund).Msg("refund claimed")

	return bid, refund, nil
}

// GetBid retrieves a bid owned by the caller.
func (s *Service) GetBid(caller, bidID string) (*Bid, error) {
	bid, err := s.db.GetBid(bidID)
	if err != nil {
		return nil, err
	}
	if bid.Bettor != caller {
		return nil, fmt.Errorf("%w: bid belongs to another bettor", types.ErrUnauthorized)
	}
	return bid, nil
}

// GetMarketBids retrieves the caller's bids on one market.
func (s *Service) GetMarketBids(caller, marketID string) ([]Bid, error) {
	return s.db.GetBidsByMarketAndBettor(marketID, caller)
}

// GinHandlers contains HTTP handlers for bid endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for bid endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// PlaceBidRequest is the POST /markets/:market_id/bids request body.
type PlaceBidRequest struct {
	Amount   uint64       `json:"amount" binding:"required"`
	Option   types.Option `json:"option" binding:"required"`
	BidIndex *uint64      `json:"bid_index" binding:"required"`
	PlacedAt time.Time    `json:"placed_at"`
}

// PlaceBidHandler handles POST requests to place bids
// URL parameter: market_id
func (h *GinHandlers) PlaceBidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		var req PlaceBidRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		bid, err := h.service.PlaceBid(caller, c.Param("market_id"), req.Amount, req.Option, *req.BidIndex, req.PlacedAt)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, bid.Response())
	}
}

// ClaimWinningsHandler handles POST requests to claim a winning bid
// URL parameter: bid_id
func (h *GinHandlers) ClaimWinningsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		bid, payout, fee, err := h.service.ClaimWinnings(caller, c.Param("bid_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{
			"bid":          bid.Response(),
			"payout":       payout,
			"platform_fee": fee,
		})
	}
}

// ClaimRefundHandler handles POST requests to refund a bid on a cancelled market
// URL parameter: bid_id
func (h *GinHandlers) ClaimRefundHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		bid, refund, err := h.service.ClaimRefund(caller, c.Param("bid_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, gin.H{
			"bid":    bid.Response(),
			"amount": refund,
		})
	}
}

// GetBidHandler handles GET requests for a single bid
// URL parameter: bid_id
func (h *GinHandlers) GetBidHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		bid, err := h.service.GetBid(caller, c.Param("bid_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, bid.Response())
	}
}

// GetMarketBidsHandler handles GET requests for the caller's bids on a market
// URL parameter: market_id
func (h *GinHandlers) GetMarketBidsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		bids, err := h.service.GetMarketBids(caller, c.Param("market_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		out := make([]*BidResponse, 0, len(bids))
		for i := range bids {
			out = append(out, bids[i].Response())
		}
		response.Success(c, out)
	}
}

// callerAccountRef pulls the authenticated account ref from the request
// context, writing the error response itself when absent.
func callerAccountRef(c *gin.Context) string {
	claims, exists := c.Get("claims")
	if !exists {
		response.Unauthorized(c, "Missing authentication claims")
		return ""
	}

	ref := auth.GetAccountRef(claims)
	if ref == "" {
		response.Unauthorized(c, "Invalid account ref in token")
	}
	return ref
}
