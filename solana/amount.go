package solana

import (
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// SOL constants
const (
	SOL_DECIMALS   = 9
	SOL_MULTIPLIER = 1_000_000_000 // 10^9
)

// SOLAmount represents a SOL amount in lamports, its smallest unit
type SOLAmount struct {
	Value *big.Int
}

// NewSOLAmount creates a new SOL amount from a float
func NewSOLAmount(amount float64) (*SOLAmount, error) {
	// Convert to string with 9 decimal places to avoid floating point issues
	str := fmt.Sprintf("%.9f", amount)

	parts := strings.Split(str, ".")
	if len(parts) != 2 {
		return nil, fmt.Errorf("invalid amount format")
	}

	combined := parts[0] + parts[1]
	value := new(big.Int)
	value.SetString(combined, 10)

	return &SOLAmount{Value: value}, nil
}

// FromLamports creates a SOL amount from a raw lamport count
func FromLamports(lamports uint64) *SOLAmount {
	return &SOLAmount{Value: new(big.Int).SetUint64(lamports)}
}

// ToLamports returns the amount as a uint64 lamport count. Negative
// amounts clamp to zero; callers needing sign use Value directly.
func (a *SOLAmount) ToLamports() uint64 {
	if a == nil || a.Value == nil || a.Value.Sign() < 0 {
		return 0
	}
	return a.Value.Uint64()
}

// ToSOL returns the amount as a float64 (for display only)
func (a *SOLAmount) ToSOL() float64 {
	str := a.Value.String()
	if len(str) <= SOL_DECIMALS {
		str = strings.Repeat("0", SOL_DECIMALS-len(str)+1) + str
	}
	whole := str[:len(str)-SOL_DECIMALS]
	decimal := str[len(str)-SOL_DECIMALS:]
	result, _ := strconv.ParseFloat(whole+"."+decimal, 64)
	return result
}

// Zero returns a new SOLAmount with value 0
func Zero() *SOLAmount {
	return &SOLAmount{Value: new(big.Int)}
}

// Add adds two SOL amounts
func (a *SOLAmount) Add(b *SOLAmount) *SOLAmount {
	if a == nil || b == nil {
		return nil
	}
	result := new(big.Int)
	result.Add(a.Value, b.Value)
	return &SOLAmount{Value: result}
}

// Sub subtracts two SOL amounts
func (a *SOLAmount) Sub(b *SOLAmount) *SOLAmount {
	if a == nil || b == nil {
		return nil
	}
	result := new(big.Int)
	result.Sub(a.Value, b.Value)
	return &SOLAmount{Value: result}
}

// Cmp compares two SOL amounts
func (a *SOLAmount) Cmp(b *SOLAmount) int {
	if a == nil || b == nil {
		return 0
	}
	return a.Value.Cmp(b.Value)
}

// IsZero returns true if the amount is zero
func (a *SOLAmount) IsZero() bool {
	if a == nil || a.Value == nil {
		return true
	}
	return a.Value.Sign() == 0
}

// IsNegative returns true if the amount is negative
func (a *SOLAmount) IsNegative() bool {
	if a == nil || a.Value == nil {
		return false
	}
	return a.Value.Sign() < 0
}

// IsPositive returns true if the amount is positive
func (a *SOLAmount) IsPositive() bool {
	if a == nil || a.Value == nil {
		return false
	}
	return a.Value.Sign() > 0
}
