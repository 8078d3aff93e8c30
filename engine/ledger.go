package engine

import (
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// Ledger is the balance store for every engine-owned account and every
// external wallet the engine has touched. Balances are plain lamport
// integers; all mutation goes through overflow-checked helpers.
//
// MinReserve is the balance an engine-owned account must retain to stay
// alive. Every release out of an escrow or treasury preserves it.
type Ledger struct {
	balances   map[solana.PublicKey]uint64
	minReserve uint64
}

// NewLedger returns an empty ledger with the given minimum reserve.
func NewLedger(minReserve uint64) *Ledger {
	return &Ledger{
		balances:   make(map[solana.PublicKey]uint64),
		minReserve: minReserve,
	}
}

// MinReserve reports the configured minimum account reserve.
func (l *Ledger) MinReserve() uint64 { return l.minReserve }

// Balance reports the current balance of an address (zero if never seen).
func (l *Ledger) Balance(addr solana.PublicKey) uint64 {
	return l.balances[addr]
}

// Fund credits an external wallet out of thin air. It exists for genesis
// and test setup; engine operations never mint.
func (l *Ledger) Fund(addr solana.PublicKey, amount uint64) error {
	return l.credit(addr, amount)
}

func checkedAdd(a, b uint64) (uint64, error) {
	s := a + b
	if s < a {
		return 0, ErrArithmeticOverflow
	}
	return s, nil
}

func checkedSub(a, b uint64) (uint64, error) {
	if b > a {
		return 0, ErrArithmeticOverflow
	}
	return a - b, nil
}

func checkedAddI64(a, b int64) (int64, error) {
	s := a + b
	if (b > 0 && s < a) || (b < 0 && s > a) {
		return 0, ErrArithmeticOverflow
	}
	return s, nil
}

func (l *Ledger) credit(addr solana.PublicKey, amount uint64) error {
	next, err := checkedAdd(l.balances[addr], amount)
	if err != nil {
		return err
	}
	l.balances[addr] = next
	return nil
}

func (l *Ledger) debit(addr solana.PublicKey, amount uint64) error {
	next, err := checkedSub(l.balances[addr], amount)
	if err != nil {
		return err
	}
	l.balances[addr] = next
	return nil
}

// Transfer moves amount between two accounts with no reserve check on the
// source. The caller is responsible for any reserve or sufficiency
// precondition; a plain underflow surfaces as ErrArithmeticOverflow.
func (l *Ledger) Transfer(from, to solana.PublicKey, amount uint64) error {
	if err := l.debit(from, amount); err != nil {
		return err
	}
	if err := l.credit(to, amount); err != nil {
		// Roll the debit back so a failed action leaves no partial state.
		l.balances[from] += amount
		return err
	}
	return nil
}

// Pay moves amount from an external wallet, failing with insufficient
// rather than arithmetic error when the wallet cannot cover it.
func (l *Ledger) Pay(from, to solana.PublicKey, amount uint64) error {
	if l.balances[from] < amount {
		return fmt.Errorf("%w: wallet %s has %d, needs %d",
			ErrInsufficientFunds, from, l.balances[from], amount)
	}
	return l.Transfer(from, to, amount)
}

// releaseReserving moves amount out of an engine-owned account while
// preserving the minimum reserve. insufficientErr names the categorical
// condition for the caller's account class (escrow, treasury, vault,
// rewards).
func (l *Ledger) releaseReserving(from, to solana.PublicKey, amount uint64, insufficientErr error) error {
	need, err := checkedAdd(l.minReserve, amount)
	if err != nil {
		return err
	}
	if l.balances[from] < need {
		return insufficientErr
	}
	return l.Transfer(from, to, amount)
}

// Escrow primitives. The held counter lives on the owning entity (tip
// escrow, job escrow, rewards epoch); the ledger only enforces the balance
// and reserve discipline around it.

// OpenEscrow funds a freshly created escrow account from a payer and
// returns the held amount the caller should record.
func (l *Ledger) OpenEscrow(payer, escrow solana.PublicKey, amount uint64) error {
	return l.Pay(payer, escrow, amount)
}

// ReleaseEscrow pays amount out of an escrow to a recipient, decrementing
// the held counter. amount must not exceed the held balance and the escrow
// must retain its minimum reserve afterwards.
func (l *Ledger) ReleaseEscrow(escrow solana.PublicKey, held *uint64, to solana.PublicKey, amount uint64) error {
	if amount > *held {
		return ErrInsufficientEscrowBalance
	}
	if err := l.releaseReserving(escrow, to, amount, ErrInsufficientEscrowBalance); err != nil {
		return err
	}
	*held -= amount
	return nil
}

// Share is one (recipient, amount) leg of a split release.
type Share struct {
	To     solana.PublicKey
	Amount uint64
}

// SplitEscrow releases the full held balance across the given shares. The
// shares must sum exactly to the held amount; integer split construction is
// the caller's job (see SplitTreasuryShare).
func (l *Ledger) SplitEscrow(escrow solana.PublicKey, held *uint64, shares []Share) error {
	var sum uint64
	for _, s := range shares {
		next, err := checkedAdd(sum, s.Amount)
		if err != nil {
			return err
		}
		sum = next
	}
	if sum != *held {
		return ErrEscrowAmountMismatch
	}
	for _, s := range shares {
		if err := l.ReleaseEscrow(escrow, held, s.To, s.Amount); err != nil {
			return err
		}
	}
	return nil
}

// RefundEscrow releases the full held balance back to the originating
// party.
func (l *Ledger) RefundEscrow(escrow solana.PublicKey, held *uint64, to solana.PublicKey) error {
	return l.ReleaseEscrow(escrow, held, to, *held)
}

// TreasurySharePercent is the global treasury's cut of an enclave-targeted
// tip settlement.
const TreasurySharePercent = 70

// SplitTreasuryShare computes the 70/30 settlement split with truncating
// division. The remainder goes to the enclave party, so the two shares
// always sum exactly to amount.
func SplitTreasuryShare(amount uint64) (treasury, enclave uint64, err error) {
	t, err := checkedMul(amount, TreasurySharePercent)
	if err != nil {
		return 0, 0, err
	}
	treasury = t / 100
	enclave = amount - treasury
	return treasury, enclave, nil
}

func checkedMul(a, b uint64) (uint64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	p := a * b
	if p/b != a {
		return 0, ErrArithmeticOverflow
	}
	return p, nil
}
