package engine

import (
	solana "github.com/gagliardetto/solana-go"

	"github.com/wunderland-sh/wunderland-engine/merkle"
)

// PublishRewardsEpoch escrows an enclave-scoped reward distribution: it
// moves amount from the enclave treasury into a new epoch escrow keyed by
// (enclave, epoch) and records the Merkle root claims are checked against.
// Only the enclave creator's owner wallet may publish. claimWindowSeconds
// of 0 means the epoch never expires and can never be swept.
func (e *Engine) PublishRewardsEpoch(authority, enclaveAddr solana.PublicKey, epoch uint64, root Hash32, amount uint64, claimWindowSeconds int64) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	enc, treasuryAddr, err := e.activeEnclave(enclaveAddr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if enc.CreatorOwner != authority {
		return solana.PublicKey{}, ErrUnauthorizedEnclaveOwner
	}
	return e.publishEpochLocked(authority, enclaveAddr, treasuryAddr, epoch, root, amount, claimWindowSeconds)
}

// PublishGlobalRewardsEpoch escrows a distribution funded by the global
// treasury. Global epochs use GlobalScope in place of an enclave address,
// so they derive distinct epoch accounts and distinct leaves. Only the
// program authority may publish.
func (e *Engine) PublishGlobalRewardsEpoch(authority solana.PublicKey, epoch uint64, root Hash32, amount uint64, claimWindowSeconds int64) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil || e.treasury == nil {
		return solana.PublicKey{}, ErrAccountNotFound
	}
	if e.config.Authority != authority || e.treasury.Authority != authority {
		return solana.PublicKey{}, ErrUnauthorizedAuthority
	}
	return e.publishEpochLocked(authority, GlobalScope, TreasuryAddress(), epoch, root, amount, claimWindowSeconds)
}

func (e *Engine) publishEpochLocked(authority, scope, sourceTreasury solana.PublicKey, epoch uint64, root Hash32, amount uint64, claimWindowSeconds int64) (solana.PublicKey, error) {
	if amount == 0 || claimWindowSeconds < 0 {
		return solana.PublicKey{}, ErrInvalidAmount
	}
	if root == zeroHash {
		return solana.PublicKey{}, ErrInvalidMerkleRoot
	}
	addr := RewardsEpochAddress(scope, epoch)
	if _, ok := e.epochs[addr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}

	now := e.unix()
	deadline := int64(0)
	if claimWindowSeconds != 0 {
		d, err := checkedAddI64(now, claimWindowSeconds)
		if err != nil {
			return solana.PublicKey{}, err
		}
		deadline = d
	}

	if err := e.createAccount(authority, addr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.ledger.releaseReserving(sourceTreasury, addr, amount, ErrInsufficientTreasuryBalance); err != nil {
		return solana.PublicKey{}, err
	}

	e.epochs[addr] = &RewardsEpoch{
		Scope:         scope,
		Epoch:         epoch,
		MerkleRoot:    root,
		TotalAmount:   amount,
		ClaimedAmount: 0,
		PublishedAt:   now,
		ClaimDeadline: deadline,
	}
	e.log.Info("rewards epoch published",
		"scope", scope, "epoch", epoch, "amount", amount, "deadline", deadline)
	return addr, nil
}

// ClaimRewards pays one leaf of a published epoch into the named agent's
// vault. The call is permissionless: the proof is the authorization, and
// the payout destination is fixed to the agent vault regardless of who
// submits. A claim receipt keyed by (epoch, index) is created first; its
// existence is the double-claim defense.
func (e *Engine) ClaimRewards(payer, epochAddr, agentAddr solana.PublicKey, index uint32, amount uint64, proof [][32]byte) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}
	if len(proof) > merkle.MaxProofLen {
		return ErrMerkleProofTooLong
	}
	epoch, ok := e.epochs[epochAddr]
	if !ok {
		return ErrInvalidRewardsEpoch
	}
	now := e.unix()
	if epoch.ClaimDeadline != 0 && now > epoch.ClaimDeadline {
		return ErrClaimWindowClosed
	}
	if epoch.SweptAt != 0 {
		return ErrRewardsEpochSwept
	}
	receiptAddr := ClaimReceiptAddress(epochAddr, index)
	if _, ok := e.claims[receiptAddr]; ok {
		return ErrAccountExists
	}
	if _, ok := e.agents[agentAddr]; !ok {
		return ErrAccountNotFound
	}
	vaultAddr, err := e.vaultOf(agentAddr)
	if err != nil {
		return err
	}

	leaf := merkle.LeafHash(epoch.Scope, epoch.Epoch, index, agentAddr, amount)
	if !merkle.VerifyProof(epoch.MerkleRoot, leaf, index, proof) {
		return ErrInvalidMerkleProof
	}

	nextClaimed, err := checkedAdd(epoch.ClaimedAmount, amount)
	if err != nil {
		return err
	}
	if nextClaimed > epoch.TotalAmount {
		return ErrInsufficientRewardsBalance
	}
	need, err := checkedAdd(amount, e.ledger.MinReserve())
	if err != nil {
		return err
	}
	if e.ledger.Balance(epochAddr) < need {
		return ErrInsufficientRewardsBalance
	}

	if err := e.createAccount(payer, receiptAddr); err != nil {
		return err
	}
	if err := e.ledger.releaseReserving(epochAddr, vaultAddr, amount, ErrInsufficientRewardsBalance); err != nil {
		return err
	}
	epoch.ClaimedAmount = nextClaimed
	e.claims[receiptAddr] = &RewardsClaimReceipt{
		RewardsEpoch: epochAddr,
		Index:        index,
		Agent:        agentAddr,
		Amount:       amount,
		ClaimedAt:    now,
	}
	e.log.Info("rewards claimed",
		"epoch", epochAddr, "index", index, "agent", agentAddr, "amount", amount)
	return nil
}

// SweepUnclaimedRewards returns an expired enclave epoch's remaining funds
// to the enclave treasury. Permissionless but time-gated: the epoch must
// carry a deadline, the deadline must have passed, and the epoch must not
// already be swept. Everything above the minimum reserve moves back.
func (e *Engine) SweepUnclaimedRewards(enclaveAddr solana.PublicKey, epoch uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, treasuryAddr, err := e.enclaveWithTreasury(enclaveAddr)
	if err != nil {
		return err
	}
	return e.sweepEpochLocked(enclaveAddr, treasuryAddr, epoch)
}

// SweepUnclaimedGlobalRewards is the global-scope sweep, back to the
// global treasury.
func (e *Engine) SweepUnclaimedGlobalRewards(epoch uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.treasury == nil {
		return ErrAccountNotFound
	}
	return e.sweepEpochLocked(GlobalScope, TreasuryAddress(), epoch)
}

func (e *Engine) sweepEpochLocked(scope, treasuryAddr solana.PublicKey, epochNum uint64) error {
	addr := RewardsEpochAddress(scope, epochNum)
	epoch, ok := e.epochs[addr]
	if !ok || epoch.Scope != scope {
		return ErrInvalidRewardsEpoch
	}
	if epoch.ClaimDeadline == 0 {
		return ErrRewardsEpochNoDeadline
	}
	now := e.unix()
	if now < epoch.ClaimDeadline {
		return ErrClaimWindowOpen
	}
	if epoch.SweptAt != 0 {
		return ErrRewardsEpochSwept
	}

	// Headroom above the reserve is the one place saturation is correct:
	// a partially drained epoch sweeps whatever is left, including zero.
	balance := e.ledger.Balance(addr)
	var sweep uint64
	if balance > e.ledger.MinReserve() {
		sweep = balance - e.ledger.MinReserve()
	}
	if sweep > 0 {
		if err := e.ledger.Transfer(addr, treasuryAddr, sweep); err != nil {
			return err
		}
	}
	epoch.SweptAt = now
	e.log.Info("rewards epoch swept", "scope", scope, "epoch", epochNum, "amount", sweep)
	return nil
}

// enclaveWithTreasury resolves an enclave and its treasury without the
// active check; sweeping stays possible after an enclave is deactivated.
func (e *Engine) enclaveWithTreasury(addr solana.PublicKey) (*Enclave, solana.PublicKey, error) {
	enc, ok := e.enclaves[addr]
	if !ok {
		return nil, solana.PublicKey{}, ErrInvalidTargetEnclave
	}
	treasuryAddr := EnclaveTreasuryAddress(addr)
	t, ok := e.enclaveTreasuries[treasuryAddr]
	if !ok || t.Enclave != addr {
		return nil, solana.PublicKey{}, ErrInvalidEnclaveTreasury
	}
	return enc, treasuryAddr, nil
}

// RewardsEpochState returns a copy of a published epoch.
func (e *Engine) RewardsEpochState(addr solana.PublicKey) (RewardsEpoch, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	ep, ok := e.epochs[addr]
	if !ok {
		return RewardsEpoch{}, false
	}
	return *ep, true
}

// ClaimReceipt returns a copy of a claim receipt.
func (e *Engine) ClaimReceipt(epochAddr solana.PublicKey, index uint32) (RewardsClaimReceipt, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.claims[ClaimReceiptAddress(epochAddr, index)]
	if !ok {
		return RewardsClaimReceipt{}, false
	}
	return *r, true
}
