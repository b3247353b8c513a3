package market

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/auth"
	"github.com/BearerOP/projekt-yukti/internal/escrow"
	"github.com/BearerOP/projekt-yukti/internal/events"
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/response"
)

// Service owns the market lifecycle: creation, settlement and cancellation.
type Service struct {
	gormDB   *gorm.DB
	db       *Database
	keeper   *escrow.Keeper
	recorder *events.Recorder
}

// NewService creates a new market service.
func NewService(gormDB *gorm.DB, keeper *escrow.Keeper, recorder *events.Recorder) *Service {
	return &Service{
		gormDB:   gormDB,
		db:       NewDatabase(gormDB),
		keeper:   keeper,
		recorder: recorder,
	}
}

// CreateMarket initializes a new market with the caller as authority: zero
// stakes, even odds, status ACTIVE, no winner, bid counter at zero.
func (s *Service) CreateMarket(authority, marketID, title, optionALabel, optionBLabel string, endTime time.Time) (*Market, error) {
	logger := log.With().
		Str("market_id", marketID).
		Str("authority", authority).
		Str("service", "market").
		Logger()

	now := time.Now()
	if err := ValidateNew(marketID, title, optionALabel, optionBLabel, endTime, now); err != nil {
		logger.Warn().Err(err).Msg("market creation rejected")
		return nil, err
	}

	m := &Market{
		MarketID:     marketID,
		Title:        title,
		OptionALabel: optionALabel,
		OptionBLabel: optionBLabel,
		Authority:    authority,
		VaultRef:     s.keeper.VaultRef(marketID),
		AccountRef:   s.keeper.MarketAccountRef(marketID),
		OptionAOdds:  types.InitialOdds,
		OptionBOdds:  types.InitialOdds,
		EndTime:      endTime,
		Status:       StatusActive,
	}

	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(m).Error; err != nil {
			return err
		}
		return s.recorder.Record(tx, events.KindMarketCreated, marketID, authority, map[string]interface{}{
			"title":    title,
			"end_time": endTime,
		})
	})
	if err != nil {
		logger.Error().Err(err).Msg("failed to create market")
		return nil, err
	}

	logger.Info().
		Time("end_time", endTime).
		Str("vault_ref", m.VaultRef).
		Msg("market created")

	return m, nil
}

// SettleMarket declares the winning option. The winner is set exactly once,
// on the ACTIVE -> SETTLED transition.
func (s *Service) SettleMarket(caller, marketID string, winner types.Option) (*Market, error) {
	logger := log.With().
		Str("market_id", marketID).
		Str("caller", caller).
		Str("service", "market").
		Logger()

	if !winner.Valid() {
		return nil, fmt.Errorf("%w: unknown option %q", types.ErrValidation, winner)
	}

	var m *Market
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = GetMarket(tx, marketID)
		if err != nil {
			return err
		}

		if err := m.Settle(caller, winner, time.Now()); err != nil {
			return err
		}

		if err := SaveMarket(tx, m); err != nil {
			return fmt.Errorf("failed to persist settled market: %w", err)
		}

		return s.recorder.Record(tx, events.KindMarketSettled, marketID, caller, map[string]interface{}{
			"winner":     winner,
			"total_pool": m.TotalPool,
		})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("settlement failed")
		return nil, err
	}

	logger.Info().
		Str("winner", string(winner)).
		Uint64("total_pool", m.TotalPool).
		Msg("market settled")

	return m, nil
}

// CancelMarket is the emergency override: it halts an ACTIVE market at any
// time so bettors can reclaim their stakes.
func (s *Service) CancelMarket(caller, marketID string) (*Market, error) {
	logger := log.With().
		Str("market_id", marketID).
		Str("caller", caller).
		Str("service", "market").
		Logger()

	var m *Market
	err := s.gormDB.Transaction(func(tx *gorm.DB) error {
		var err error
		m, err = GetMarket(tx, marketID)
		if err != nil {
			return err
		}

		if err := m.Cancel(caller); err != nil {
			return err
		}

		if err := SaveMarket(tx, m); err != nil {
			return fmt.Errorf("failed to persist cancelled market: %w", err)
		}

		return s.recorder.Record(tx, events.KindMarketCancelled, marketID, caller, map[string]interface{}{
			"total_pool": m.TotalPool,
		})
	})
	if err != nil {
		logger.Warn().Err(err).Msg("cancellation failed")
		return nil, err
	}

	logger.Info().Uint64("total_pool", m.TotalPool).Msg("market cancelled")

	return m, nil
}

// GetMarket retrieves a market by its id.
func (s *Service) GetMarket(marketID string) (*Market, error) {
	return s.db.GetMarket(marketID)
}

// ListMarkets retrieves all markets, newest first.
func (s *Service) ListMarkets() ([]Market, error) {
	return s.db.ListMarkets()
}

// GetMarketEvents retrieves the audit trail of one market, oldest first.
// The market must exist; an unknown id is a not-found, not an empty list.
func (s *Service) GetMarketEvents(marketID string) ([]events.Event, error) {
	if _, err := s.db.GetMarket(marketID); err != nil {
		return nil, err
	}
	return events.ForMarket(s.gormDB, marketID)
}

// GinHandlers contains HTTP handlers for market endpoints
type GinHandlers struct {
	service *Service
}

// NewGinHandlers creates a new set of HTTP handlers for market endpoints
func NewGinHandlers(service *Service) *GinHandlers {
	return &GinHandlers{
		service: service,
	}
}

// CreateMarketRequest is the POST /markets request body.
type CreateMarketRequest struct {
	MarketID     string    `json:"market_id" binding:"required"`
	Title        string    `json:"title" binding:"required"`
	OptionALabel string    `json:"option_a_label" binding:"required"`
	OptionBLabel string    `json:"option_b_label" binding:"required"`
	EndTime      time.Time `json:"end_time" binding:"required"`
}

// CreateMarketHandler handles POST requests to create markets. The
// authenticated caller becomes the market authority.
func (h *GinHandlers) CreateMarketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		var req CreateMarketRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		m, err := h.service.CreateMarket(caller, req.MarketID, req.Title, req.OptionALabel, req.OptionBLabel, req.EndTime)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, m.Response())
	}
}

// SettleMarketHandler handles POST requests to settle a market
// URL parameter: market_id
func (h *GinHandlers) SettleMarketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		var req struct {
			Winner types.Option `json:"winner" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			response.BadRequest(c, err.Error())
			return
		}

		m, err := h.service.SettleMarket(caller, c.Param("market_id"), req.Winner)
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, m.Response())
	}
}

// CancelMarketHandler handles POST requests to cancel a market
// URL parameter: market_id
func (h *GinHandlers) CancelMarketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		caller := callerAccountRef(c)
		if caller == "" {
			return
		}

		m, err := h.service.CancelMarket(caller, c.Param("market_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		response.Success(c, m.Response())
	}
}

// GetMarketHandler handles GET requests for a single market
// URL parameter: market_id
func (h *GinHandlers) GetMarketHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		m, err := h.service.GetMarket(c.Param("market_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, m.Response())
	}
}

// ListMarketsHandler handles GET requests for all markets
func (h *GinHandlers) ListMarketsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		markets, err := h.service.ListMarkets()
		if err != nil {
			response.Handle(c, nil, err)
			return
		}

		out := make([]*MarketResponse, 0, len(markets))
		for i := range markets {
			out = append(out, markets[i].Response())
		}
		response.Success(c, out)
	}
}

// ListMarketEventsHandler handles GET requests for a market's event trail
// URL parameter: market_id
func (h *GinHandlers) ListMarketEventsHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		list, err := h.service.GetMarketEvents(c.Param("market_id"))
		if err != nil {
			response.Handle(c, nil, err)
			return
		}
		response.Success(c, list)
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
