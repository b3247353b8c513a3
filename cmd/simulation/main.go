package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"math/rand"
	"net/http"
	"os"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/BearerOP/projekt-yukti/internal/auth"
	"github.com/BearerOP/projekt-yukti/internal/database"
	"github.com/BearerOP/projekt-yukti/internal/escrow"
	"github.com/BearerOP/projekt-yukti/internal/events"
	"github.com/BearerOP/projekt-yukti/internal/ledger"
	"github.com/BearerOP/projekt-yukti/internal/market"
	"github.com/BearerOP/projekt-yukti/internal/position"
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/middleware"
)

const (
	numMarkets    = 3
	numBettors    = 4
	minBids       = 3
	maxBids       = 8
	serverAddress = "http://localhost:8080"

	jwtSecret   = "simulation-secret-key"
	vaultSecret = "simulation-vault-key"
	treasuryRef = "treasury"
	operatorRef = "operator"

	// Markets stay open briefly so the simulation can settle them
	marketLifetime = 8 * time.Second

	bettorFunding = 50 * types.BaseUnit
)

var options = []types.Option{types.OptionA, types.OptionB}

// init configures the logger for the simulation with pretty printing and timestamp
func init() {
	// Configure pretty logging
	output := zerolog.ConsoleWriter{
		Out:        os.Stdout,
		TimeFormat: time.RFC3339,
	}
	log.Logger = zerolog.New(output).With().Timestamp().Logger()
}

// routeStats tracks performance statistics for an API endpoint
type routeStats struct {
	name       string
	mu         sync.Mutex
	durations  []time.Duration
	totalCalls int
	failures   int
}

// addDuration records a new duration measurement for the route
func (rs *routeStats) addDuration(d time.Duration) {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.durations = append(rs.durations, d)
	rs.totalCalls++
}

// addFailure records a failed call for the route
func (rs *routeStats) addFailure() {
	rs.mu.Lock()
	defer rs.mu.Unlock()
	rs.failures++
}

// calculate computes performance statistics from recorded durations
// Returns min, max, mean, median, 95th percentile, and 99th percentile durations
func (rs *routeStats) calculate() (min, max, mean, median, p95, p99 time.Duration) {
	if len(rs.durations) == 0 {
		return 0, 0, 0, 0, 0, 0
	}

	// Sort durations for percentile calculations
	sort.Slice(rs.durations, func(i, j int) bool {
		return rs.durations[i] < rs.durations[j]
	})

	min = rs.durations[0]
	max = rs.durations[len(rs.durations)-1]

	// Calculate mean
	var sum time.Duration
	for _, d := range rs.durations {
		sum += d
	}
	mean = sum / time.Duration(len(rs.durations))

	// Calculate median
	median = rs.durations[len(rs.durations)/2]

	// Calculate percentiles
	p95idx := int(math.Ceil(float64(len(rs.durations))*0.95)) - 1
	p99idx := int(math.Ceil(float64(len(rs.durations))*0.99)) - 1
	p95 = rs.durations[p95idx]
	p99 = rs.durations[p99idx]

	return
}

// simulationClient handles HTTP communication with the market API for a
// single account. Clients share one stats map so the final report covers
// every participant.
type simulationClient struct {
	baseURL    string
	accountRef string
	authToken  string
	client     *http.Client
	stats      map[string]*routeStats
}

// newStats prepares the shared performance tracking map
func newStats() map[string]*routeStats {
	return map[string]*routeStats{
		"auth":          {name: "Authentication"},
		"faucet":        {name: "Faucet"},
		"create_market": {name: "Create Market"},
		"get_market":    {name: "Get Market"},
		"place_bid":     {name: "Place Bid"},
		"settle":        {name: "Settle Market"},
		"cancel":        {name: "Cancel Market"},
		"claim":         {name: "Claim Winnings"},
		"refund":        {name: "Claim Refund"},
		"balance":       {name: "Get Balance"},
	}
}

// newSimulationClient creates a client for the given API credentials
// It authenticates with the API and stores the resulting JWT
func newSimulationClient(apiKey, apiSecret string, stats map[string]*routeStats) (*simulationClient, error) {
	sc := &simulationClient{
		baseURL:    serverAddress,
		accountRef: apiKey,
		client:     &http.Client{Timeout: 10 * time.Second},
		stats:      stats,
	}

	token, err := sc.authenticate(apiKey, apiSecret)
	if err != nil {
		return nil, fmt.Errorf("failed to authenticate %s: %w", apiKey, err)
	}
	sc.authToken = token

	return sc, nil
}

// authenticate performs API authentication and returns a JWT token
func (sc *simulationClient) authenticate(apiKey, apiSecret string) (string, error) {
	start := time.Now()
	defer func() {
		sc.stats["auth"].addDuration(time.Since(start))
	}()

	credentials := map[string]string{
		"api_key":    apiKey,
		"api_secret": apiSecret,
	}

	var result struct {
		Success bool               `json:"success"`
		Data    auth.TokenResponse `json:"data"`
	}
	if err := sc.postJSON("/api/v1/auth/token", credentials, &result); err != nil {
		sc.stats["auth"].addFailure()
		return "", err
	}

	if result.Data.Token == "" {
		return "", fmt.Errorf("no token in auth response")
	}

	return result.Data.Token, nil
}

// postJSON sends an authenticated POST request and decodes the success envelope
func (sc *simulationClient) postJSON(path string, payload, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return err
		}
		body = bytes.NewBuffer(data)
	}

	req, err := http.NewRequest("POST", sc.baseURL+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if sc.authToken != "" {
		req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))
	}

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	log.Debug().Str("path", path).Str("response", string(respBody)).Msg("API response")

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	if out != nil {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("failed to decode response: %w, body: %s", err, string(respBody))
		}
	}

	return nil
}

// getJSON sends an authenticated GET request and decodes the success envelope
func (sc *simulationClient) getJSON(path string, out interface{}) error {
	req, err := http.NewRequest("GET", sc.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", sc.authToken))

	resp, err := sc.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%s failed with status %d: %s", path, resp.StatusCode, string(respBody))
	}

	return json.Unmarshal(respBody, out)
}

// faucet credits an account through the internal operator endpoint
func (sc *simulationClient) faucet(accountRef string, amount uint64) error {
	start := time.Now()
	defer func() {
		sc.stats["faucet"].addDuration(time.Since(start))
	}()

	payload := map[string]interface{}{
		"account_ref": accountRef,
		"amount":      amount,
	}
	if err := sc.postJSON("/api/v1/internal/faucet", payload, nil); err != nil {
		sc.stats["faucet"].addFailure()
		return err
	}
	return nil
}

// createMarket creates a new prediction market owned by this client
func (sc *simulationClient) createMarket(marketID, title string, endTime time.Time) (*market.MarketResponse, error) {
	start := time.Now()
	defer func() {
		sc.stats["create_market"].addDuration(time.Since(start))
	}()

	payload := map[string]interface{}{
		"market_id":      marketID,
		"title":          title,
		"option_a_label": "Yes",
		"option_b_label": "No",
		"end_time":       endTime,
	}

	var result struct {
		Success bool                  `json:"success"`
		Data    market.MarketResponse `json:"data"`
	}
	if err := sc.postJSON("/api/v1/markets", payload, &result); err != nil {
		sc.stats["create_market"].addFailure()
		return nil, err
	}

	if result.Data.MarketID == "" {
		return nil, fmt.Errorf("no market ID in response")
	}

	return &result.Data, nil
}

// getMarket fetches the current state of a market
func (sc *simulationClient) getMarket(marketID string) (*market.MarketResponse, error) {
	start := time.Now()
	defer func() {
		sc.stats["get_market"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool                  `json:"success"`
		Data    market.MarketResponse `json:"data"`
	}
	if err := sc.getJSON("/api/v1/markets/"+marketID, &result); err != nil {
		sc.stats["get_market"].addFailure()
		return nil, err
	}

	return &result.Data, nil
}

// placeBid places a bid at the market's current next index. Concurrent
// bettors race for the same index, so a conflict is retried with a
// refreshed index a few times before giving up.
func (sc *simulationClient) placeBid(marketID string, amount uint64, option types.Option) (*position.BidResponse, error) {
	const maxAttempts = 5

	var lastErr error
	for attempt := 0; attempt < maxAttempts; attempt++ {
		m, err := sc.getMarket(marketID)
		if err != nil {
			return nil, err
		}

		start := time.Now()
		payload := map[string]interface{}{
			"amount":    amount,
			"option":    option,
			"bid_index": m.NextBidIndex,
		}

		var result struct {
			Success bool                 `json:"success"`
			Data    position.BidResponse `json:"data"`
		}
		err = sc.postJSON(fmt.Sprintf("/api/v1/markets/%s/bids", marketID), payload, &result)
		if err == nil {
			sc.stats["place_bid"].addDuration(time.Since(start))
			return &result.Data, nil
		}

		lastErr = err
		if !strings.Contains(err.Error(), "status 409") {
			sc.stats["place_bid"].addFailure()
			return nil, err
		}

		// Lost the race for the index, fetch the new one and retry
		time.Sleep(time.Duration(rand.Intn(100)) * time.Millisecond)
	}

	sc.stats["place_bid"].addFailure()
	return nil, fmt.Errorf("bid index conflict persisted after %d attempts: %w", maxAttempts, lastErr)
}

// settleMarket declares the winning option on an expired market
func (sc *simulationClient) settleMarket(marketID string, winner types.Option) error {
	start := time.Now()
	defer func() {
		sc.stats["settle"].addDuration(time.Since(start))
	}()

	payload := map[string]interface{}{"winner": winner}
	if err := sc.postJSON(fmt.Sprintf("/api/v1/markets/%s/settle", marketID), payload, nil); err != nil {
		sc.stats["settle"].addFailure()
		return err
	}
	return nil
}

// cancelMarket voids a market so bettors can reclaim their stakes
func (sc *simulationClient) cancelMarket(marketID string) error {
	start := time.Now()
	defer func() {
		sc.stats["cancel"].addDuration(time.Since(start))
	}()

	if err := sc.postJSON(fmt.Sprintf("/api/v1/markets/%s/cancel", marketID), nil, nil); err != nil {
		sc.stats["cancel"].addFailure()
		return err
	}
	return nil
}

// claimWinnings claims the payout on a winning bid
// Returns the paid amount and the platform fee taken from it
func (sc *simulationClient) claimWinnings(bidID string) (payout, fee uint64, err error) {
	start := time.Now()
	defer func() {
		sc.stats["claim"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Bid         position.BidResponse `json:"bid"`
			Payout      uint64               `json:"payout"`
			PlatformFee uint64               `json:"platform_fee"`
		} `json:"data"`
	}
	if err := sc.postJSON(fmt.Sprintf("/api/v1/bids/%s/claim", bidID), nil, &result); err != nil {
		sc.stats["claim"].addFailure()
		return 0, 0, err
	}

	return result.Data.Payout, result.Data.PlatformFee, nil
}

// claimRefund reclaims the staked amount of a bid on a cancelled market
func (sc *simulationClient) claimRefund(bidID string) (*position.BidResponse, error) {
	start := time.Now()
	defer func() {
		sc.stats["refund"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			Bid    position.BidResponse `json:"bid"`
			Amount uint64               `json:"amount"`
		} `json:"data"`
	}
	if err := sc.postJSON(fmt.Sprintf("/api/v1/bids/%s/refund", bidID), nil, &result); err != nil {
		sc.stats["refund"].addFailure()
		return nil, err
	}

	return &result.Data.Bid, nil
}

// getBalance fetches the caller's current ledger balance
func (sc *simulationClient) getBalance() (uint64, error) {
	start := time.Now()
	defer func() {
		sc.stats["balance"].addDuration(time.Since(start))
	}()

	var result struct {
		Success bool `json:"success"`
		Data    struct {
			AccountRef string `json:"account_ref"`
			Balance    uint64 `json:"balance"`
		} `json:"data"`
	}
	if err := sc.getJSON("/api/v1/balance", &result); err != nil {
		sc.stats["balance"].addFailure()
		return 0, err
	}

	return result.Data.Balance, nil
}

// printPerformanceStats outputs formatted performance statistics for all API endpoints
func printPerformanceStats(stats map[string]*routeStats) {
	fmt.Println("\n📊 API Performance Statistics")
	fmt.Println(strings.Repeat("-", 110))
	fmt.Printf("%-20s %10s %10s %10s %10s %10s %10s %10s %10s\n",
		"Endpoint", "Calls", "Errors", "Min", "Max", "Mean", "Median", "P95", "P99")
	fmt.Println(strings.Repeat("-", 110))

	for _, rs := range stats {
		min, max, mean, median, p95, p99 := rs.calculate()
		fmt.Printf("%-20s %10d %10d %10s %10s %10s %10s %10s %10s\n",
			rs.name,
			rs.totalCalls,
			rs.failures,
			min.Round(time.Millisecond),
			max.Round(time.Millisecond),
			mean.Round(time.Millisecond),
			median.Round(time.Millisecond),
			p95.Round(time.Millisecond),
			p99.Round(time.Millisecond))
	}
	fmt.Println(strings.Repeat("-", 110))
}

// placedBid tracks a bid made during the simulation for the claim phase
type placedBid struct {
	bidID    string
	marketID string
	bettor   int
	amount   uint64
	option   types.Option
}

// main runs the prediction market simulation
// It starts a local API server, funds a set of bettors, runs markets through
// their full lifecycle and reports conservation and latency statistics
func main() {
	// Start the server in a goroutine
	go func() {
		if err := startServer(); err != nil {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	// Wait for server to start
	time.Sleep(2 * time.Second)

	stats := newStats()

	// The operator owns the markets; each bettor is a separate account
	operator, err := newSimulationClient(operatorRef, operatorRef+"-secret", stats)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize operator client")
	}

	treasury, err := newSimulationClient(treasuryRef, treasuryRef+"-secret", stats)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize treasury client")
	}

	bettors := make([]*simulationClient, numBettors)
	for i := range bettors {
		ref := fmt.Sprintf("bettor_%d", i)
		bettors[i], err = newSimulationClient(ref, ref+"-secret", stats)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize bettor client")
		}

		if err := operator.faucet(ref, bettorFunding); err != nil {
			log.Fatal().Err(err).Str("account_ref", ref).Msg("Failed to fund bettor")
		}
	}
	log.Info().Int("bettors", numBettors).Uint64("funding", bettorFunding).Msg("Bettors funded")

	// Create markets with a short open window
	endTime := time.Now().Add(marketLifetime)
	marketIDs := make([]string, numMarkets)
	for i := range marketIDs {
		marketIDs[i] = fmt.Sprintf("SIM_MKT_%d_%d", time.Now().UnixNano(), i)
		m, err := operator.createMarket(marketIDs[i], fmt.Sprintf("Simulation market %d", i), endTime)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create market")
		}
		log.Info().
			Str("market_id", m.MarketID).
			Uint64("odds_a", m.OptionAOdds).
			Uint64("odds_b", m.OptionBOdds).
			Time("end_time", m.EndTime).
			Msg("Market created")
	}

	// Bidding phase: bettors place random bids concurrently until markets close
	bidsChan := make(chan placedBid, numBettors*maxBids)
	var wg sync.WaitGroup
	for i, bettor := range bettors {
		wg.Add(1)
		go func(bettorID int, sc *simulationClient) {
			defer wg.Done()
			placeBids(bettorID, sc, marketIDs, bidsChan)
		}(i, bettor)
	}
	wg.Wait()
	close(bidsChan)

	var bids []placedBid
	var totalStaked uint64
	for b := range bidsChan {
		bids = append(bids, b)
		totalStaked += b.amount
	}
	log.Info().Int("bids_placed", len(bids)).Uint64("total_staked", totalStaked).Msg("Bidding phase complete")

	// Wait for the markets to close
	if remaining := time.Until(endTime); remaining > 0 {
		log.Info().Dur("remaining", remaining).Msg("Waiting for markets to close")
		time.Sleep(remaining + time.Second)
	}

	// Resolution phase: settle all but the last market, cancel the last one
	winners := make(map[string]types.Option)
	cancelled := make(map[string]bool)
	for i, marketID := range marketIDs {
		if i == len(marketIDs)-1 {
			if err := operator.cancelMarket(marketID); err != nil {
				log.Error().Err(err).Str("market_id", marketID).Msg("Failed to cancel market")
				continue
			}
			cancelled[marketID] = true
			log.Info().Str("market_id", marketID).Msg("Market cancelled")
			continue
		}

		winner := options[rand.Intn(len(options))]
		if err := operator.settleMarket(marketID, winner); err != nil {
			log.Error().Err(err).Str("market_id", marketID).Msg("Failed to settle market")
			continue
		}
		winners[marketID] = winner
		log.Info().Str("market_id", marketID).Str("winner", string(winner)).Msg("Market settled")
	}

	// Claim phase: winners claim payouts, bids on the cancelled market are refunded
	simStats := struct {
		TotalBids     int
		WonClaims     int
		LostBids      int
		Refunds       int
		FailedClaims  int
		TotalPayout   uint64
		TotalFees     uint64
		TotalRefunded uint64
		StartTime     time.Time
		Options       map[types.Option]int
		Markets       map[string]int
	}{
		StartTime: time.Now(),
		Options:   make(map[types.Option]int),
		Markets:   make(map[string]int),
	}
	simStats.TotalBids = len(bids)

	for _, b := range bids {
		simStats.Options[b.option]++
		simStats.Markets[b.marketID]++
		sc := bettors[b.bettor]

		if cancelled[b.marketID] {
			if _, err := sc.claimRefund(b.bidID); err != nil {
				log.Error().Err(err).Str("bid_id", b.bidID).Msg("Failed to claim refund")
				simStats.FailedClaims++
				continue
			}
			simStats.Refunds++
			simStats.TotalRefunded += b.amount
			log.Info().
				Str("bid_id", b.bidID).
				Str("bettor", sc.accountRef).
				Uint64("refund", b.amount).
				Msg("Refund claimed")
			continue
		}

		winner, ok := winners[b.marketID]
		if !ok || b.option != winner {
			// Losing stakes stay in the vault
			simStats.LostBids++
			continue
		}

		payout, fee, err := sc.claimWinnings(b.bidID)
		if err != nil {
			log.Error().Err(err).Str("bid_id", b.bidID).Msg("Failed to claim winnings")
			simStats.FailedClaims++
			continue
		}
		simStats.WonClaims++
		simStats.TotalPayout += payout
		simStats.TotalFees += fee
		log.Info().
			Str("bid_id", b.bidID).
			Str("bettor", sc.accountRef).
			Uint64("payout", payout).
			Uint64("platform_fee", fee).
			Msg("Winnings claimed")
	}

	// Conservation check: every unit credited by the faucet is either held by
	// a bettor, collected by the treasury, or still locked in a market vault
	var bettorTotal uint64
	for _, sc := range bettors {
		balance, err := sc.getBalance()
		if err != nil {
			log.Error().Err(err).Str("account_ref", sc.accountRef).Msg("Failed to fetch balance")
			continue
		}
		bettorTotal += balance
		log.Info().Str("account_ref", sc.accountRef).Uint64("balance", balance).Msg("Final balance")
	}

	treasuryBalance, err := treasury.getBalance()
	if err != nil {
		log.Error().Err(err).Msg("Failed to fetch treasury balance")
	}

	totalFunded := uint64(numBettors) * bettorFunding
	inVaults := totalFunded - bettorTotal - treasuryBalance

	// Print summary
	duration := time.Since(simStats.StartTime)
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("🎲 PREDICTION MARKET SIMULATION SUMMARY")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf(`
📊 Bid Statistics
-----------------
Total Bids:       %d
Winning Claims:   %d
Losing Bids:      %d
Refunds:          %d
Failed Claims:    %d
Total Staked:     %d
Total Payout:     %d
Platform Fees:    %d
Total Refunded:   %d
Claim Duration:   %v

💰 Conservation
---------------
Funded:           %d
Bettors Hold:     %d
Treasury Holds:   %d
Left In Vaults:   %d

📈 Market Distribution
---------------------
`, simStats.TotalBids, simStats.WonClaims, simStats.LostBids, simStats.Refunds,
		simStats.FailedClaims, totalStaked, simStats.TotalPayout, simStats.TotalFees,
		simStats.TotalRefunded, duration.Round(time.Millisecond),
		totalFunded, bettorTotal, treasuryBalance, inVaults)

	// Print market distribution with simple ASCII bar chart
	maxMarketCount := 0
	for _, count := range simStats.Markets {
		if count > maxMarketCount {
			maxMarketCount = count
		}
	}

	for marketID, count := range simStats.Markets {
		barLength := int(float64(count) / float64(maxMarketCount) * 20)
		bar := strings.Repeat("█", barLength)
		fmt.Printf("%-30s: %s (%d)\n", marketID, bar, count)
	}

	fmt.Println("\n📉 Option Distribution")
	fmt.Println("---------------------")
	for option, count := range simStats.Options {
		barLength := int(float64(count) / float64(simStats.TotalBids) * 20)
		bar := strings.Repeat("█", barLength)
		fmt.Printf("%-4s: %s (%d)\n", option, bar, count)
	}

	fmt.Println("\n" + strings.Repeat("=", 80))

	claimRate := float64(simStats.WonClaims+simStats.Refunds) / float64(simStats.TotalBids) * 100
	log.Info().
		Float64("claim_rate", claimRate).
		Int("total_bids", simStats.TotalBids).
		Uint64("total_payout", simStats.TotalPayout).
		Uint64("platform_fees", simStats.TotalFees).
		Uint64("left_in_vaults", inVaults).
		Dur("duration", duration).
		Msg("Simulation completed")

	printPerformanceStats(stats)
}

// placeBids submits a random series of bids for one bettor
// Runs as a worker goroutine, sending placed bids to bidsChan
func placeBids(bettorID int, sc *simulationClient, marketIDs []string, bidsChan chan<- placedBid) {
	numBids := rand.Intn(maxBids-minBids) + minBids
	for i := 0; i < numBids; i++ {
		marketID := marketIDs[rand.Intn(len(marketIDs))]
		option := options[rand.Intn(len(options))]
		// Between 0.01 and 1.00 in whole hundredths of the base unit
		amount := types.MinBet * uint64(rand.Intn(100)+1)

		bid, err := sc.placeBid(marketID, amount, option)
		if err != nil {
			log.Error().Err(err).
				Int("bettor_id", bettorID).
				Str("market_id", marketID).
				Msg("Failed to place bid")
			continue
		}

		bidsChan <- placedBid{
			bidID:    bid.BidID,
			marketID: marketID,
			bettor:   bettorID,
			amount:   amount,
			option:   option,
		}
		log.Info().
			Int("bettor_id", bettorID).
			Str("bid_id", bid.BidID).
			Str("market_id", marketID).
			Str("option", string(option)).
			Uint64("amount", amount).
			Uint64("odds_at_purchase", bid.OddsAtPurchase).
			Uint64("potential_win", bid.PotentialWin).
			Msg("Bid placed")

		// Random sleep between bids
		time.Sleep(time.Duration(rand.Intn(500)) * time.Millisecond)
	}
}

// startServer initializes and starts the market API server
// Sets up all required services, handlers and routes
func startServer() error {
	// Initialize database
	db, err := database.NewDatabase("simulation.db")
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	// Initialize services
	authService := auth.NewService(jwtSecret)
	keeper := escrow.NewKeeper(vaultSecret)
	recorder := events.NewRecorder()
	marketService := market.NewService(db, keeper, recorder)
	positionService := position.NewService(db, keeper, recorder, treasuryRef)
	ledgerService := ledger.NewService(db)

	// Register simulation credentials
	authService.RegisterAPICredentials(operatorRef, operatorRef+"-secret")
	authService.RegisterAPICredentials(treasuryRef, treasuryRef+"-secret")
	for i := 0; i < numBettors; i++ {
		ref := fmt.Sprintf("bettor_%d", i)
		authService.RegisterAPICredentials(ref, ref+"-secret")
	}

	// Initialize router
	router := gin.Default()
	authHandlers := auth.NewGinHandlers(authService)
	marketHandlers := market.NewGinHandlers(marketService)
	positionHandlers := position.NewGinHandlers(positionService)
	ledgerHandlers := ledger.NewGinHandlers(ledgerService)

	// Setup routes
	setupRoutes(router, authHandlers, marketHandlers, positionHandlers, ledgerHandlers)

	// Start the server
	return router.Run(":8080")
}

// setupRoutes configures all API endpoints and their handlers
// Groups routes by functionality and applies appropriate middleware
func setupRoutes(
	router *gin.Engine,
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

		// Internal routes
		internal := v1.Group("/internal")
		internal.Use(middleware.InternalAuth(jwtSecret))
		{
			internal.POST("/faucet", ledgerHandlers.FaucetHandler())
		}
	}
}
