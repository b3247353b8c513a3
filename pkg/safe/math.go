// Package safe provides checked uint64 arithmetic for money amounts.
// Every helper returns an error instead of wrapping around; callers are
// expected to abort the whole operation on the first failure.
package safe

import (
	"errors"
	"math"
	"math/bits"
)

var (
	// ErrOverflow is returned when a result does not fit in a uint64.
	ErrOverflow = errors.New("arithmetic overflow")

	// ErrDivideByZero is returned by MulDiv on a zero divisor.
	ErrDivideByZero = errors.New("division by zero")
)

// Add returns a+b or ErrOverflow.
func Add(a, b uint64) (uint64, error) {
	if a > math.MaxUint64-b {
		return 0, ErrOverflow
	}
	return a + b, nil
}

// Sub returns a-b or ErrOverflow when b > a.
func Sub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrOverflow
	}
	return a - b, nil
}

// MulDiv returns (a*b)/den with a 128-bit intermediate product, truncated.
// The intermediate never overflows; the error cases are a zero divisor and a
// quotient that does not fit in a uint64.
func MulDiv(a, b, den uint64) (uint64, error) {
	if den == 0 {
		return 0, ErrDivideByZero
	}
	hi, lo := bits.Mul64(a, b)
	if hi >= den {
		return 0, ErrOverflow
	}
	q, _ := bits.Div64(hi, lo, den)
	return q, nil
}
