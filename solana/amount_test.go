package solana

import (
	"math/big"
	"testing"
)

func TestNewSOLAmount(t *testing.T) {
	tests := []struct {
		name    string
		amount  float64
		want    *big.Int
		wantErr bool
	}{
		{"zero", 0.0, big.NewInt(0), false},
		{"one_sol", 1.0, big.NewInt(1_000_000_000), false},
		{"fractional_sol", 0.5, big.NewInt(500_000_000), false},
		{"one_lamport", 0.000000001, big.NewInt(1), false},
		{"min_tip", 0.015, big.NewInt(15_000_000), false},
		{"agent_fee", 0.05, big.NewInt(50_000_000), false},
		{"large_amount", 123456.789012345, big.NewInt(123456_789012345), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := NewSOLAmount(tt.amount)
			if (err != nil) != tt.wantErr {
				t.Errorf("NewSOLAmount() error = %v, wantErr %v", err, tt.wantErr)
				return
			}
			if !tt.wantErr && got.Value.Cmp(tt.want) != 0 {
				t.Errorf("NewSOLAmount() got = %v, want %v", got.Value, tt.want)
			}
		})
	}
}

func TestSOLAmount_ToSOL(t *testing.T) {
	tests := []struct {
		name   string
		amount *SOLAmount
		want   float64
	}{
		{"zero", &SOLAmount{Value: big.NewInt(0)}, 0.0},
		{"one_sol", &SOLAmount{Value: big.NewInt(1_000_000_000)}, 1.0},
		{"fractional_sol", &SOLAmount{Value: big.NewInt(500_000_000)}, 0.5},
		{"one_lamport", &SOLAmount{Value: big.NewInt(1)}, 0.000000001},
		{"large_amount", &SOLAmount{Value: big.NewInt(123456_789012345)}, 123456.789012345},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Use a small tolerance for float comparison
			tolerance := 0.0000000001
			got := tt.amount.ToSOL()
			if diff := got - tt.want; diff > tolerance || diff < -tolerance {
				t.Errorf("ToSOL() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSOLAmount_Lamports(t *testing.T) {
	a := FromLamports(15_000_000)
	if got := a.ToLamports(); got != 15_000_000 {
		t.Errorf("ToLamports() = %v, want 15000000", got)
	}
	neg := &SOLAmount{Value: big.NewInt(-5)}
	if got := neg.ToLamports(); got != 0 {
		t.Errorf("ToLamports() on negative = %v, want 0", got)
	}
}

func TestSOLAmount_Add(t *testing.T) {
	a1, _ := NewSOLAmount(1.23)
	a2, _ := NewSOLAmount(4.56)
	want, _ := NewSOLAmount(5.79)

	got := a1.Add(a2)
	if got.Cmp(want) != 0 {
		t.Errorf("Add() = %v, want %v", got.Value, want.Value)
	}
}

func TestSOLAmount_Sub(t *testing.T) {
	a1, _ := NewSOLAmount(5.79)
	a2, _ := NewSOLAmount(1.23)
	want, _ := NewSOLAmount(4.56)

	got := a1.Sub(a2)
	if got.Cmp(want) != 0 {
		t.Errorf("Sub() = %v, want %v", got.Value, want.Value)
	}
}

func TestSOLAmount_Cmp(t *testing.T) {
	a1, _ := NewSOLAmount(1.0)
	a2, _ := NewSOLAmount(2.0)
	a3, _ := NewSOLAmount(1.0)

	if a1.Cmp(a2) != -1 {
		t.Errorf("Cmp(a1, a2) want -1")
	}
	if a2.Cmp(a1) != 1 {
		t.Errorf("Cmp(a2, a1) want 1")
	}
	if a1.Cmp(a3) != 0 {
		t.Errorf("Cmp(a1, a3) want 0")
	}
}
