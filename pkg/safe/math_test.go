package safe

import (
	"errors"
	"math"
	"testing"
)

func TestAdd(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{"normal", 10, 20, 30, false},
		{"boundary", math.MaxUint64 - 1, 1, math.MaxUint64, false},
		{"overflow", math.MaxUint64, 1, 0, true},
		{"zero", 0, 0, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Add(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Add(%d, %d) error = %v, wantErr %v", tt.a, tt.b, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Add(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestSub(t *testing.T) {
	tests := []struct {
		name    string
		a, b    uint64
		want    uint64
		wantErr bool
	}{
		{"normal", 30, 10, 20, false},
		{"to zero", 10, 10, 0, false},
		{"underflow", 10, 11, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Sub(tt.a, tt.b)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Sub(%d, %d) error = %v, wantErr %v", tt.a, tt.b, err, tt.wantErr)
			}
			if err == nil && got != tt.want {
				t.Errorf("Sub(%d, %d) = %d, want %d", tt.a, tt.b, got, tt.want)
			}
		})
	}
}

func TestMulDiv(t *testing.T) {
	tests := []struct {
		name       string
		a, b, den  uint64
		want       uint64
		wantErr    error
	}{
		{"small", 10, 10000, 2000, 50, nil},
		{"truncates", 10, 10000, 3000, 33, nil},
		// a*b overflows uint64 but the widened intermediate does not
		{"wide intermediate", math.MaxUint64, 10000, 10000, math.MaxUint64, nil},
		{"quotient overflow", math.MaxUint64, 10000, 1, 0, ErrOverflow},
		{"zero divisor", 1, 1, 0, 0, ErrDivideByZero},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := MulDiv(tt.a, tt.b, tt.den)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("MulDiv(%d, %d, %d) error = %v, want %v", tt.a, tt.b, tt.den, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("MulDiv(%d, %d, %d) unexpected error: %v", tt.a, tt.b, tt.den, err)
			}
			if got != tt.want {
				t.Errorf("MulDiv(%d, %d, %d) = %d, want %d", tt.a, tt.b, tt.den, got, tt.want)
			}
		})
	}
}
