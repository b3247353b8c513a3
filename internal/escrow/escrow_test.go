package escrow

import (
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/ledger"
	"github.com/BearerOP/projekt-yukti/internal/types"
)

func setupTestDB(t *testing.T) *gorm.DB {
	// Use in-memory database for tests
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("Failed to initialize test database: %v", err)
	}
	if err := db.AutoMigrate(&ledger.Account{}); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	return db
}

func TestVaultRefDeterministic(t *testing.T) {
	keeper := NewKeeper("test-secret")

	ref1 := keeper.VaultRef("MKT_1")
	ref2 := keeper.VaultRef("MKT_1")
	if ref1 != ref2 {
		t.Errorf("Expected identical refs for the same market, got %s and %s", ref1, ref2)
	}
}

func TestVaultRefUniquePerMarket(t *testing.T) {
	keeper := NewKeeper("test-secret")

	seen := make(map[string]string)
	for _, marketID := range []string{"MKT_1", "MKT_2", "MKT_11", "a:b", "a", ":b"} {
		ref := keeper.VaultRef(marketID)
		if prev, ok := seen[ref]; ok {
			t.Errorf("Markets %s and %s derived the same vault ref %s", prev, marketID, ref)
		}
		seen[ref] = marketID
	}
}

func TestVaultRefDistinctFromMarketAccountRef(t *testing.T) {
	keeper := NewKeeper("test-secret")

	if keeper.VaultRef("MKT_1") == keeper.MarketAccountRef("MKT_1") {
		t.Error("Expected vault ref and market account ref to differ for the same market")
	}
}

func TestAuthorityVerification(t *testing.T) {
	keeper := NewKeeper("test-secret")

	a := keeper.Authority("MKT_1")
	if !keeper.verify(a) {
		t.Error("Expected keeper to verify its own authority")
	}

	// Authority from one market must not release another market's vault
	a.MarketID = "MKT_2"
	a.VaultRef = keeper.VaultRef("MKT_2")
	if keeper.verify(a) {
		t.Error("Expected verification to fail for a retargeted authority")
	}

	// A different keeper's authority must not verify either
	other := NewKeeper("other-secret")
	if keeper.verify(other.Authority("MKT_1")) {
		t.Error("Expected verification to fail for a foreign keeper's authority")
	}
}

func TestDepositBounds(t *testing.T) {
	db := setupTestDB(t)
	keeper := NewKeeper("test-secret")

	if err := ledger.Credit(db, "bettor", 10*types.MaxBet); err != nil {
		t.Fatalf("Failed to fund bettor: %v", err)
	}

	tests := []struct {
		name    string
		amount  uint64
		wantErr error
	}{
		{name: "below minimum", amount: types.MinBet - 1, wantErr: types.ErrValidation},
		{name: "at minimum", amount: types.MinBet},
		{name: "at maximum", amount: types.MaxBet},
		{name: "above maximum", amount: types.MaxBet + 1, wantErr: types.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := keeper.Deposit(db, "bettor", "MKT_1", tt.amount)
			if tt.wantErr == nil && err != nil {
				t.Errorf("Expected deposit to succeed, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("Expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestReleaseRequiresValidAuthority(t *testing.T) {
	db := setupTestDB(t)
	keeper := NewKeeper("test-secret")

	if err := ledger.Credit(db, "bettor", types.MaxBet); err != nil {
		t.Fatalf("Failed to fund bettor: %v", err)
	}
	if err := keeper.Deposit(db, "bettor", "MKT_1", types.MinBet); err != nil {
		t.Fatalf("Deposit failed: %v", err)
	}

	// Forged authority: right market id, no proof
	forged := Authority{MarketID: "MKT_1", VaultRef: keeper.VaultRef("MKT_1")}
	err := keeper.Release(db, forged, "bettor", types.MinBet)
	if !errors.Is(err, types.ErrUnauthorized) {
		t.Errorf("Expected ErrUnauthorized for forged authority, got %v", err)
	}

	// The real authority releases the same funds
	if err := keeper.Release(db, keeper.Authority("MKT_1"), "bettor", types.MinBet); err != nil {
		t.Fatalf("Release with valid authority failed: %v", err)
	}

	balance, err := ledger.Balance(db, "bettor")
	if err != nil {
		t.Fatalf("Failed to read balance: %v", err)
	}
	if balance != types.MaxBet {
		t.Errorf("Expected bettor balance %d, got %d", types.MaxBet, balance)
	}
}

func TestPayoutSplit(t *testing.T) {
	tests := []struct {
		name         string
		potentialWin uint64
		feeBps       uint64
		wantWinner   uint64
		wantFee      uint64
	}{
		{name: "even split base", potentialWin: 10_000, feeBps: types.PlatformFeeBps, wantWinner: 9_800, wantFee: 200},
		{name: "fee rounds down", potentialWin: 50, feeBps: types.PlatformFeeBps, wantWinner: 49, wantFee: 1},
		{name: "fee rounds to zero", potentialWin: 49, feeBps: types.PlatformFeeBps, wantWinner: 49, wantFee: 0},
		{name: "zero payout", potentialWin: 0, feeBps: types.PlatformFeeBps, wantWinner: 0, wantFee: 0},
		{name: "full fee", potentialWin: 100, feeBps: types.BpsDenominator, wantWinner: 0, wantFee: 100},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			winner, fee, err := PayoutSplit(tt.potentialWin, tt.feeBps)
			if err != nil {
				t.Fatalf("PayoutSplit failed: %v", err)
			}
			if winner != tt.wantWinner {
				t.Errorf("Expected winner amount %d, got %d", tt.wantWinner, winner)
			}
			if fee != tt.wantFee {
				t.Errorf("Expected fee %d, got %d", tt.wantFee, fee)
			}
			if winner+fee != tt.potentialWin {
				t.Errorf("Expected parts to sum to %d, got %d", tt.potentialWin, winner+fee)
			}
		})
	}
}

func TestPayoutSplitInvalidFee(t *testing.T) {
	_, _, err := PayoutSplit(100, types.BpsDenominator+1)
	if !errors.Is(err, types.ErrValidation) {
		t.Errorf("Expected ErrValidation for fee above denominator, got %v", err)
	}
}
