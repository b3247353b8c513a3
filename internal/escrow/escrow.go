// Package escrow computes fund movements for markets: stake deposits into a
// market's vault, authority-gated releases out of it, and the winner/fee
// payout split. It never mutates market or bid fields.
package escrow

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"

	"gorm.io/gorm"

	"github.com/BearerOP/projekt-yukti/internal/ledger"
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/safe"
)

// Derivation tags. Distinct tags keep a market's vault and its own account
// from ever colliding, even for the same market id.
const (
	vaultTag  = "vault"
	marketTag = "market"
)

// Keeper derives vault addresses from market identities and moves funds in
// and out of them. The derivation key never leaves the keeper; callers get
// Authority capabilities instead.
type Keeper struct {
	secret []byte
}

// NewKeeper creates a keeper with the given derivation secret.
func NewKeeper(secret string) *Keeper {
	return &Keeper{secret: []byte(secret)}
}

// derive computes HMAC-SHA256(secret, tag:marketID).
func (k *Keeper) derive(tag, marketID string) []byte {
	mac := hmac.New(sha256.New, k.secret)
	mac.Write([]byte(tag + ":" + marketID))
	return mac.Sum(nil)
}

// VaultRef returns the deterministic escrow account reference for marketID.
// Two different market ids can never derive the same reference.
func (k *Keeper) VaultRef(marketID string) string {
	return "vault_" + hex.EncodeToString(k.derive(vaultTag, marketID)[:16])
}

// MarketAccountRef returns the market's own derived account reference.
func (k *Keeper) MarketAccountRef(marketID string) string {
	return "market_" + hex.EncodeToString(k.derive(marketTag, marketID)[:16])
}

// Authority proves the holder may move funds out of the vault derived from
// exactly one market identity.
type Authority struct {
	MarketID string
	VaultRef string
	proof    []byte
}

// Authority issues the release capability for marketID.
func (k *Keeper) Authority(marketID string) Authority {
	return Authority{
		MarketID: marketID,
		VaultRef: k.VaultRef(marketID),
		proof:    k.derive(vaultTag, marketID),
	}
}

// verify checks that the authority's proof was derived from its own market
// id with this keeper's secret, so one market's authority can never release
// another market's funds.
func (k *Keeper) verify(a Authority) bool {
	expected := k.derive(vaultTag, a.MarketID)
	return hmac.Equal(a.proof, expected) && a.VaultRef == k.VaultRef(a.MarketID)
}

// Deposit moves a stake from the participant into the market's vault.
// The amount must be within [MinBet, MaxBet].
func (k *Keeper) Deposit(tx *gorm.DB, from, marketID string, amount uint64) error {
	if amount < types.MinBet || amount > types.MaxBet {
		return fmt.Errorf("%w: bet amount %d outside [%d, %d]", types.ErrValidation, amount, types.MinBet, types.MaxBet)
	}
	return ledger.Transfer(tx, from, k.VaultRef(marketID), amount)
}

// Release moves amount out of the vault to the recipient. The caller must
// present a valid authority for the vault's market.
func (k *Keeper) Release(tx *gorm.DB, a Authority, to string, amount uint64) error {
	if !k.verify(a) {
		return fmt.Errorf("%w: invalid vault authority for market %s", types.ErrUnauthorized, a.MarketID)
	}
	return ledger.Transfer(tx, a.VaultRef, to, amount)
}

// PayoutSplit splits a winning payout into the winner's share and the
// platform fee. The fee is computed first and subtracted, so the two parts
// always sum to potentialWin exactly.
func PayoutSplit(potentialWin, feeBps uint64) (winnerAmount, feeAmount uint64, err error) {
	if feeBps > types.BpsDenominator {
		return 0, 0, fmt.Errorf("%w: fee %d bps exceeds denominator", types.ErrValidation, feeBps)
	}
	feeAmount, err = safe.MulDiv(potentialWin, feeBps, types.BpsDenominator)
	if err != nil {
		return 0, 0, err
	}
	winnerAmount, err = safe.Sub(potentialWin, feeAmount)
	if err != nil {
		return 0, 0, err
	}
	return winnerAmount, feeAmount, nil
}
