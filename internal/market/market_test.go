package market

import (
	"errors"
	"strings"
	"testing"
	"time"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/escrow"
	"github.com/BearerOP/projekt-yukti/internal/events"
	"github.com/BearerOP/projekt-yukti/internal/types"
)

func setupTestService(t *testing.T) *Service {
	// Use in-memory database for tests
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	if err := db.AutoMigrate(&Market{}, &events.Event{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return NewService(db, escrow.NewKeeper("test-secret"), events.NewRecorder())
}

func TestCreateMarket(t *testing.T) {
	service := setupTestService(t)

	endTime := time.Now().Add(time.Hour)
	m, err := service.CreateMarket("authority", "MKT_1", "Will it rain tomorrow?", "Yes", "No", endTime)
	if err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	if m.Status != StatusActive {
		t.Errorf("Expected status %s, got %s", StatusActive, m.Status)
	}
	if m.OptionAOdds != types.InitialOdds || m.OptionBOdds != types.InitialOdds {
		t.Errorf("Expected even initial odds %d/%d, got %d/%d",
			types.InitialOdds, types.InitialOdds, m.OptionAOdds, m.OptionBOdds)
	}
	if m.TotalPool != 0 || m.OptionAStake != 0 || m.OptionBStake != 0 {
		t.Errorf("Expected zero stakes, got pool=%d a=%d b=%d", m.TotalPool, m.OptionAStake, m.OptionBStake)
	}
	if m.NextBidIndex != 0 {
		t.Errorf("Expected next bid index 0, got %d", m.NextBidIndex)
	}
	if m.Winner != "" {
		t.Errorf("Expected no winner, got %s", m.Winner)
	}
	if m.VaultRef == "" {
		t.Error("Expected a derived vault ref")
	}
	if m.AccountRef == "" {
		t.Error("Expected a derived market account ref")
	}
	if m.AccountRef == m.VaultRef {
		t.Error("Expected the market account ref to differ from the vault ref")
	}

	stored, err := service.GetMarket("MKT_1")
	if err != nil {
		t.Fatalf("GetMarket failed: %v", err)
	}
	if stored.Authority != "authority" {
		t.Errorf("Expected authority %q, got %q", "authority", stored.Authority)
	}
}

func TestCreateMarketValidation(t *testing.T) {
	service := setupTestService(t)
	endTime := time.Now().Add(time.Hour)

	tests := []struct {
		name     string
		marketID string
		title    string
		optionA  string
		optionB  string
		endTime  time.Time
	}{
		{name: "market id too long", marketID: strings.Repeat("x", types.MaxMarketIDLen+1), title: "t", optionA: "Yes", optionB: "No", endTime: endTime},
		{name: "title too long", marketID: "MKT_1", title: strings.Repeat("x", types.MaxTitleLen+1), optionA: "Yes", optionB: "No", endTime: endTime},
		{name: "label too long", marketID: "MKT_1", title: "t", optionA: "Yes", optionB: strings.Repeat("x", types.MaxLabelLen+1), endTime: endTime},
		{name: "end time in the past", marketID: "MKT_1", title: "t", optionA: "Yes", optionB: "No", endTime: time.Now().Add(-time.Minute)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := service.CreateMarket("authority", tt.marketID, tt.title, tt.optionA, tt.optionB, tt.endTime)
			if !errors.Is(err, types.ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestValidateNewBoundsOnly(t *testing.T) {
	// Only upper bounds apply: empty strings pass validation here and are
	// rejected at the transport layer instead
	now := time.Now()
	if err := ValidateNew("", "", "", "", now.Add(time.Hour), now); err != nil {
		t.Errorf("Expected empty strings to validate, got %v", err)
	}
	if err := ValidateNew(strings.Repeat("x", types.MaxMarketIDLen), "t", "Yes", "No", now.Add(time.Hour), now); err != nil {
		t.Errorf("Expected id at the limit to validate, got %v", err)
	}
	if err := ValidateNew("MKT_1", "t", "Yes", "No", now, now); !errors.Is(err, types.ErrValidation) {
		t.Errorf("Expected ErrValidation for end time not after now, got %v", err)
	}
}

func TestCreateMarketDuplicateID(t *testing.T) {
	service := setupTestService(t)
	endTime := time.Now().Add(time.Hour)

	if _, err := service.CreateMarket("authority", "MKT_1", "First", "Yes", "No", endTime); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	_, err := service.CreateMarket("authority", "MKT_1", "Second", "Yes", "No", endTime)
	if !errors.Is(err, gorm.ErrDuplicatedKey) {
		t.Errorf("Expected ErrDuplicatedKey, got %v", err)
	}
}

func TestSettleMarket(t *testing.T) {
	service := setupTestService(t)

	// End time in the near past is not creatable, so create a short-lived
	// market and wait it out
	endTime := time.Now().Add(50 * time.Millisecond)
	if _, err := service.CreateMarket("authority", "MKT_1", "Test", "Yes", "No", endTime); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	// Too early
	_, err := service.SettleMarket("authority", "MKT_1", types.OptionA)
	if !errors.Is(err, types.ErrDeadline) {
		t.Errorf("Expected ErrDeadline before end time, got %v", err)
	}

	time.Sleep(60 * time.Millisecond)

	// Wrong caller
	_, err = service.SettleMarket("stranger", "MKT_1", types.OptionA)
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for non-authority, got %v", err)
	}

	// Invalid winner
	_, err = service.SettleMarket("authority", "MKT_1", types.Option("C"))
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("Expected ErrValidation for unknown option, got %v", err)
	}

	m, err := service.SettleMarket("authority", "MKT_1", types.OptionA)
	if err != nil {
		t.Fatalf("SettleMarket failed: %v", err)
	}
	if m.Status != StatusSettled {
		t.Errorf("Expected status %s, got %s", StatusSettled, m.Status)
	}
	if m.Winner != string(types.OptionA) {
		t.Errorf("Expected winner %s, got %s", types.OptionA, m.Winner)
	}

	// Settled is terminal
	_, err = service.SettleMarket("authority", "MKT_1", types.OptionB)
	if !errors.Is(err, types.ErrWrongState) {
		t.Errorf("Expected ErrWrongState on second settle, got %v", err)
	}
}

func TestCancelMarket(t *testing.T) {
	service := setupTestService(t)

	endTime := time.Now().Add(time.Hour)
	if _, err := service.CreateMarket("authority", "MKT_1", "Test", "Yes", "No", endTime); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}

	// Wrong caller
	_, err := service.CancelMarket("stranger", "MKT_1")
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for non-authority, got %v", err)
	}

	// Cancellation needs no deadline: the market is still an hour from ending
	m, err := service.CancelMarket("authority", "MKT_1")
	if err != nil {
		t.Fatalf("CancelMarket failed: %v", err)
	}
	if m.Status != StatusCancelled {
		t.Errorf("Expected status %s, got %s", StatusCancelled, m.Status)
	}
	if m.Winner != "" {
		t.Errorf("Expected no winner on a cancelled market, got %s", m.Winner)
	}

	// Cancelled is terminal
	_, err = service.CancelMarket("authority", "MKT_1")
	if !errors.Is(err, types.ErrWrongState) {
		t.Errorf("Expected ErrWrongState on second cancel, got %v", err)
	}
}

func TestGetMarketEvents(t *testing.T) {
	service := setupTestService(t)

	endTime := time.Now().Add(time.Hour)
	if _, err := service.CreateMarket("authority", "MKT_1", "Test", "Yes", "No", endTime); err != nil {
		t.Fatalf("CreateMarket failed: %v", err)
	}
	if _, err := service.CancelMarket("authority", "MKT_1"); err != nil {
		t.Fatalf("CancelMarket failed: %v", err)
	}

	list, err := service.GetMarketEvents("MKT_1")
	if err != nil {
		t.Fatalf("GetMarketEvents failed: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(list))
	}
	if list[0].Kind != events.KindMarketCreated || list[1].Kind != events.KindMarketCancelled {
		t.Errorf("Expected creation then cancellation, got %s then %s", list[0].Kind, list[1].Kind)
	}

	// Unknown markets are a not-found, not an empty trail
	_, err = service.GetMarketEvents("MKT_MISSING")
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		t.Errorf("Expected ErrRecordNotFound, got %v", err)
	}
}

func TestAcceptStakeOddsProgression(t *testing.T) {
	m := &Market{
		MarketID:    "MKT_1",
		Authority:   "authority",
		OptionAOdds: types.InitialOdds,
		OptionBOdds: types.InitialOdds,
		EndTime:     time.Now().Add(time.Hour),
		Status:      StatusActive,
	}
	now := time.Now()

	// First stake buys at the even initial odds
	odds, potentialWin, err := m.AcceptStake(types.OptionA, 10*types.BaseUnit, 0, now)
	if err != nil {
		t.Fatalf("AcceptStake failed: %v", err)
	}
	if odds != types.InitialOdds {
		t.Errorf("Expected odds at purchase %d, got %d", types.InitialOdds, odds)
	}
	// 10 units at even odds pay out double
	if potentialWin != 20*types.BaseUnit {
		t.Errorf("Expected potential win %d, got %d", 20*types.BaseUnit, potentialWin)
	}

	// 10 on A, 20 on B: odds track the stake proportions, truncated
	if _, _, err := m.AcceptStake(types.OptionB, 20*types.BaseUnit, 1, now); err != nil {
		t.Fatalf("AcceptStake failed: %v", err)
	}
	if m.OptionAOdds != 3333 {
		t.Errorf("Expected option A odds 3333, got %d", m.OptionAOdds)
	}
	if m.OptionBOdds != 6666 {
		t.Errorf("Expected option B odds 6666, got %d", m.OptionBOdds)
	}
	if m.TotalPool != 30*types.BaseUnit {
		t.Errorf("Expected total pool %d, got %d", 30*types.BaseUnit, m.TotalPool)
	}
	if m.NextBidIndex != 2 {
		t.Errorf("Expected next bid index 2, got %d", m.NextBidIndex)
	}
}

func TestAcceptStakeIndexConflict(t *testing.T) {
	m := &Market{
		MarketID:    "MKT_1",
		OptionAOdds: types.InitialOdds,
		OptionBOdds: types.InitialOdds,
		EndTime:     time.Now().Add(time.Hour),
		Status:      StatusActive,
	}
	before := *m

	_, _, err := m.AcceptStake(types.OptionA, types.MinBet, 3, time.Now())
	if !errors.Is(err, types.ErrIndexConflict) {
		t.Errorf("Expected ErrIndexConflict, got %v", err)
	}
	if *m != before {
		t.Error("Expected market unchanged after index conflict")
	}
}

func TestAcceptStakeDeadline(t *testing.T) {
	m := &Market{
		MarketID:    "MKT_1",
		OptionAOdds: types.InitialOdds,
		OptionBOdds: types.InitialOdds,
		EndTime:     time.Now().Add(-time.Minute),
		Status:      StatusActive,
	}

	_, _, err := m.AcceptStake(types.OptionA, types.MinBet, 0, time.Now())
	if !errors.Is(err, types.ErrDeadline) {
		t.Errorf("Expected ErrDeadline for an ended market, got %v", err)
	}

	// A stake exactly at the end time is also too late
	m.EndTime = time.Now()
	_, _, err = m.AcceptStake(types.OptionA, types.MinBet, 0, m.EndTime)
	if !errors.Is(err, types.ErrDeadline) {
		t.Errorf("Expected ErrDeadline at the exact end time, got %v", err)
	}
}
