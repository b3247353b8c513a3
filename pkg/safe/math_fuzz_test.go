package safe

import (
	"math"
	"math/big"
	"testing"
)

// FuzzAddSub checks that Add and Sub round-trip whenever Add succeeds.
func FuzzAddSub(f *testing.F) {
	f.Add(uint64(0), uint64(0))
	f.Add(uint64(1), uint64(2))
	f.Add(uint64(math.MaxUint64), uint64(0))
	f.Add(uint64(math.MaxUint64), uint64(1))

	f.Fuzz(func(t *testing.T, a, b uint64) {
		sum, err := Add(a, b)
		if err != nil {
			return // overflow rejection is the expected behavior
		}
		back, err := Sub(sum, b)
		if err != nil || back != a {
			t.Errorf("Sub(Add(%d, %d), %d) = %d, %v", a, b, b, back, err)
		}
	})
}

// FuzzMulDiv compares MulDiv against big.Int arithmetic.
func FuzzMulDiv(f *testing.F) {
	f.Add(uint64(10), uint64(10000), uint64(2000))
	f.Add(uint64(math.MaxUint64), uint64(10000), uint64(10000))
	f.Add(uint64(0), uint64(0), uint64(0))

	f.Fuzz(func(t *testing.T, a, b, den uint64) {
		got, err := MulDiv(a, b, den)
		if den == 0 {
			if err == nil {
				t.Fatal("expected error on zero divisor")
			}
			return
		}

		want := new(big.Int).Mul(new(big.Int).SetUint64(a), new(big.Int).SetUint64(b))
		want.Div(want, new(big.Int).SetUint64(den))

		if !want.IsUint64() {
			if err == nil {
				t.Errorf("MulDiv(%d, %d, %d) = %d, expected overflow", a, b, den, got)
			}
			return
		}
		if err != nil {
			t.Fatalf("MulDiv(%d, %d, %d) unexpected error: %v", a, b, den, err)
		}
		if got != want.Uint64() {
			t.Errorf("MulDiv(%d, %d, %d) = %d, want %d", a, b, den, got, want.Uint64())
		}
	})
}
