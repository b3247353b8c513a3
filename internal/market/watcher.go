package market

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
)

// ExpiryWatcher periodically surfaces ACTIVE markets whose end time has
// passed but which the authority has not settled or cancelled yet. It only
// observes: settlement stays a deliberate authority action, never automatic.
type ExpiryWatcher struct {
	db            *Database
	checkInterval time.Duration
}

func NewExpiryWatcher(db *Database) *ExpiryWatcher {
	return &ExpiryWatcher{
		db:            db,
		checkInterval: 5 * time.Minute,
	}
}

// Start begins the expiry watch loop
func (w *ExpiryWatcher) Start(ctx context.Context) {
	logger := log.With().Str("component", "expiry_watcher").Logger()
	logger.Info().Msg("starting market expiry watcher")

	ticker := time.NewTicker(w.checkInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info().Msg("shutting down market expiry watcher")
			return
		case <-ticker.C:
			if err := w.checkExpired(); err != nil {
				logger.Error().Err(err).Msg("failed to check expired markets")
			}
		}
	}
}

func (w *ExpiryWatcher) checkExpired() error {
	logger := log.With().Str("component", "expiry_watcher").Logger()

	markets, err := w.db.GetExpiredActiveMarkets(time.Now())
	if err != nil {
		return err
	}

	for _, m := range markets {
		logger.Warn().
			Str("market_id", m.MarketID).
			Str("authority", m.Authority).
			Time("end_time", m.EndTime).
			Uint64("total_pool", m.TotalPool).
			Msg("market past end time awaiting settlement")
	}

	if len(markets) > 0 {
		logger.Info().Int("awaiting_count", len(markets)).Msg("expired markets pending authority action")
	}

	return nil
}
