package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	zlog "github.com/rs/zerolog/log"

	"github.com/BearerOP/projekt-yukti/internal/auth"
	"github.com/BearerOP/projekt-yukti/internal/config"
	"github.com/BearerOP/projekt-yukti/internal/database"
	"github.com/BearerOP/projekt-yukti/internal/escrow"
	"github.com/BearerOP/projekt-yukti/internal/events"
	"github.com/BearerOP/projekt-yukti/internal/ledger"
	"github.com/BearerOP/projekt-yukti/internal/market"
	"github.com/BearerOP/projekt-yukti/internal/position"
	"github.com/BearerOP/projekt-yukti/pkg/middleware"

	"github.com/gin-gonic/gin"
)

// init configures the application logging based on environment settings
// In development mode, it enables pretty printing with timestamps
func init() {
	// Configure pretty logging for development
	if os.Getenv("ENV") != "production" {
		output := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		zlog.Logger = zerolog.New(output).With().Timestamp().Logger()
	}
}

// main initializes and runs the prediction market API server with graceful
// shutdown support
func main() {
	// Load configuration (optional file path via YUKTI_CONFIG)
	cfg, err := config.Load(os.Getenv("YUKTI_CONFIG"))
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to load configuration")
	}
	if err := cfg.Validate(); err != nil {
		zlog.Fatal().Err(err).Msg("Invalid configuration")
	}

	// Set global log level
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)
	if os.Getenv("DEBUG") == "true" {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		zlog.Fatal().Err(err).Msg("Failed to initialize database")
	}

	// Initialize router
	router := gin.Default()

	// Initialize services and handlers
	authService := auth.NewService(cfg.Auth.JWTSecret)
	authHandlers := auth.NewGinHandlers(authService)
	// Register demo credentials
	authService.RegisterAPICredentials(cfg.Auth.APIKey, cfg.Auth.APISecret)

	keeper := escrow.NewKeeper(cfg.Escrow.VaultSecret)
	recorder := events.NewRecorder()

	marketService := market.NewService(db, keeper, recorder)
	marketHandlers := market.NewGinHandlers(marketService)

	positionService := position.NewService(db, keeper, recorder, cfg.Escrow.TreasuryAccount)
	positionHandlers := position.NewGinHandlers(positionService)

	ledgerService := ledger.NewService(db)
	ledgerHandlers := ledger.NewGinHandlers(ledgerService)

	// Create and start the market expiry watcher
	expiryWatcher := market.NewExpiryWatcher(market.NewDatabase(db))
	watcherCtx, watcherCancel := context.WithCancel(context.Background())
	defer watcherCancel()

	go expiryWatcher.Start(watcherCtx)

	// Setup middleware
	router.Use(middleware.RateLimit())

	// Setup API routes
	setupRoutes(router, cfg.Auth.JWTSecret, authHandlers, marketHandlers, positionHandlers, ledgerHandlers)

	// Create server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown setup
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Fatal().Err(err).Msg("listen")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info().Msg("Shutting down server...")

	// Give outstanding operations 5 seconds to complete
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zlog.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	zlog.Info().Msg("Server exiting")
}

// setupRoutes configures all API endpoints and their handlers
// It groups routes by functionality and applies appropriate middleware:
// - Auth routes: Public endpoints for authentication
// - Market routes: Creation and authority actions, protected by JWT
// - Bid routes: Placement and claims, protected by JWT
// - Internal routes: Operator endpoints (faucet)
func setupRoutes(
	router *gin.Engine,
	jwtSecret string,
	authHandlers *auth.GinHandlers,
	marketHandlers *market.GinHandlers,
	positionHandlers *position.GinHandlers,
	ledgerHandlers *ledger.GinHandlers,
) {
	v1 := router.Group("/api/v1")
	{
		// Auth routes
		authGroup := v1.Group("/auth")
		{
			authGroup.POST("/token", authHandlers.GenerateTokenHandler())
		}

		// Market routes
		markets := v1.Group("/markets")
		markets.Use(middleware.JWTAuth(jwtSecret))
		{
			markets.POST("", marketHandlers.CreateMarketHandler())
			markets.GET("", marketHandlers.ListMarketsHandler())
			markets.GET("/:market_id", marketHandlers.GetMarketHandler())
			markets.GET("/:market_id/events", marketHandlers.ListMarketEventsHandler())
			markets.POST("/:market_id/settle", marketHandlers.SettleMarketHandler())
			markets.POST("/:market_id/cancel", marketHandlers.CancelMarketHandler())
			markets.POST("/:market_id/bids", positionHandlers.PlaceBidHandler())
			markets.GET("/:market_id/bids", positionHandlers.GetMarketBidsHandler())
		}

		// Bid routes
		bids := v1.Group("/bids")
		bids.Use(middleware.JWTAuth(jwtSecret))
		{
			bids.GET("/:bid_id", positionHandlers.GetBidHandler())
			bids.POST("/:bid_id/claim", positionHandlers.ClaimWinningsHandler())
			bids.POST("/:bid_id/refund", positionHandlers.ClaimRefundHandler())
		}

		// Balance route
		balance := v1.Group("/balance")
		balance.Use(middleware.JWTAuth(jwtSecret))
		{
			balance.GET("", ledgerHandlers.GetBalanceHandler())
		}

		// Internal routes (should be protected by internal network)
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret))
		{
			internal.POST("/faucet", ledgerHandlers.FaucetHandler())
		}
	}
}
