// Package types holds the domain primitives shared by every service:
// market options, basis-point constants, bet limits and the error taxonomy.
package types

// All percentages and odds are fixed-point integers in basis points.
const (
	BpsDenominator uint64 = 10_000

	// Odds clamp window: implied probabilities are kept between 5% and 95%
	// so one side can never become a zero-payout lock.
	MinOdds uint64 = 500
	MaxOdds uint64 = 9_500

	// A fresh market with no stake starts at even odds.
	InitialOdds uint64 = 5_000

	// PlatformFeeBps is charged on winning payouts only.
	PlatformFeeBps uint64 = 200
)

// Amounts are denominated in the smallest currency unit.
const (
	BaseUnit uint64 = 1_000_000_000

	MinBet uint64 = BaseUnit / 100 // 0.01 of the base currency
	MaxBet uint64 = BaseUnit * 100 // 100 of the base currency
)

// Persisted string length limits, enforced once at market creation.
const (
	MaxMarketIDLen = 64
	MaxTitleLen    = 256
	MaxLabelLen    = 128
)

// Option identifies one of the two sides of a market.
type Option string

const (
	OptionA Option = "A"
	OptionB Option = "B"
)

// Valid reports whether o is one of the two defined options.
func (o Option) Valid() bool {
	return o == OptionA || o == OptionB
}

// Other returns the opposing option.
func (o Option) Other() Option {
	if o == OptionA {
		return OptionB
	}
	return OptionA
}
