// Package amm maps the current stake distribution of a market to implied
// odds in basis points.
package amm

import (
	"github.com/BearerOP/projekt-yukti/internal/types"
	"github.com/BearerOP/projekt-yukti/pkg/safe"
)

// Recompute derives both sides' odds from the current stakes. Each call is a
// pure recomputation from the totals, never an incremental update, so odds
// are always consistent with current stakes regardless of call history.
//
// An empty market is 50/50. Otherwise each side's implied probability is
// floor(stake * 10000 / total), clamped to [MinOdds, MaxOdds] so neither
// side degenerates to all-or-nothing. The clamped sides are per-side payout
// multipliers and are not required to sum to 10000.
func Recompute(stakeA, stakeB uint64) (oddsA, oddsB uint64, err error) {
	total, err := safe.Add(stakeA, stakeB)
	if err != nil {
		return 0, 0, err
	}
	if total == 0 {
		return types.InitialOdds, types.InitialOdds, nil
	}

	probA, err := safe.MulDiv(stakeA, types.BpsDenominator, total)
	if err != nil {
		return 0, 0, err
	}
	probB, err := safe.MulDiv(stakeB, types.BpsDenominator, total)
	if err != nil {
		return 0, 0, err
	}

	return clamp(probA), clamp(probB), nil
}

func clamp(odds uint64) uint64 {
	if odds < types.MinOdds {
		return types.MinOdds
	}
	if odds > types.MaxOdds {
		return types.MaxOdds
	}
	return odds
}
