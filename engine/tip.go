package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// checkRateLimit applies the two fixed-window counters for a tipper. A
// window that has lapsed resets to zero and its reset timestamp advances by
// the window length (rolling fixed grid, not clamped to now). A ceiling
// violation fails without mutating state.
func (e *Engine) checkRateLimit(tipper solana.PublicKey, now int64) error {
	addr := RateLimitAddress(tipper)
	rl := e.rateLimits[addr]
	if rl == nil {
		rl = &TipperRateLimit{
			Tipper:        tipper,
			MinuteResetAt: now + MinuteWindow,
			HourResetAt:   now + HourWindow,
		}
		e.rateLimits[addr] = rl
	}
	minute, hour := rl.TipsThisMinute, rl.TipsThisHour
	minuteResetAt, hourResetAt := rl.MinuteResetAt, rl.HourResetAt
	if now >= minuteResetAt {
		minute = 0
		minuteResetAt += MinuteWindow
	}
	if now >= hourResetAt {
		hour = 0
		hourResetAt += HourWindow
	}
	if minute >= MaxTipsPerMinute {
		return ErrRateLimitMinuteExceeded
	}
	if hour >= MaxTipsPerHour {
		return ErrRateLimitHourExceeded
	}
	rl.TipsThisMinute = minute + 1
	rl.TipsThisHour = hour + 1
	rl.MinuteResetAt = minuteResetAt
	rl.HourResetAt = hourResetAt
	return nil
}

// SubmitTip anchors tip content and escrows the payment until settlement
// or refund. Rate limited per tipper wallet. targetEnclave is GlobalScope
// for global tips.
func (e *Engine) SubmitTip(tipper solana.PublicKey, contentHash Hash32, amount uint64, sourceType TipSourceType, targetEnclave solana.PublicKey, nonce uint64) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount < MinTipAmount {
		return solana.PublicKey{}, ErrTipBelowMinimum
	}
	tipAddr := TipAddress(tipper, nonce)
	if _, ok := e.tips[tipAddr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}
	if targetEnclave != GlobalScope {
		if _, _, err := e.activeEnclave(targetEnclave); err != nil {
			return solana.PublicKey{}, err
		}
	}
	// The tipper funds the tip anchor, the escrow account and the escrow
	// amount itself. Check cover before the rate counters mutate so a
	// failed action leaves no state behind.
	need, err := checkedAdd(amount, 2*e.ledger.MinReserve())
	if err != nil {
		return solana.PublicKey{}, err
	}
	if e.ledger.Balance(tipper) < need {
		return solana.PublicKey{}, ErrInsufficientFunds
	}

	now := e.unix()
	if err := e.checkRateLimit(tipper, now); err != nil {
		return solana.PublicKey{}, err
	}

	escrowAddr := TipEscrowAddress(tipAddr)
	if err := e.createAccount(tipper, tipAddr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.createAccount(tipper, escrowAddr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.ledger.OpenEscrow(tipper, escrowAddr, amount); err != nil {
		return solana.PublicKey{}, err
	}

	e.tips[tipAddr] = &TipAnchor{
		Tipper:        tipper,
		ContentHash:   contentHash,
		Amount:        amount,
		Priority:      DeriveTipPriority(amount),
		SourceType:    sourceType,
		TargetEnclave: targetEnclave,
		TipNonce:      nonce,
		CreatedAt:     now,
		Status:        TipPending,
	}
	e.tipEscrows[escrowAddr] = &TipEscrow{Tip: tipAddr, Amount: amount}

	e.log.Info("tip submitted", "tip", tipAddr, "lamports", amount, "nonce", nonce)
	return tipAddr, nil
}

// SettleTip releases a pending tip's escrow after successful processing.
// Global tips pay 100% to the global treasury; enclave-targeted tips split
// 70/30 between global and enclave treasuries with no remainder loss.
// Authority-only.
func (e *Engine) SettleTip(authority, tipAddr solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil || e.treasury == nil {
		return ErrAccountNotFound
	}
	if authority != e.config.Authority {
		return ErrUnauthorizedAuthority
	}
	tip, escrow, err := e.pendingTip(tipAddr)
	if err != nil {
		return err
	}
	escrowAddr := TipEscrowAddress(tipAddr)
	amount := escrow.Amount

	if tip.TargetEnclave == GlobalScope {
		if err := e.ledger.ReleaseEscrow(escrowAddr, &escrow.Amount, TreasuryAddress(), amount); err != nil {
			return err
		}
		next, err := checkedAdd(e.treasury.TotalCollected, amount)
		if err != nil {
			return err
		}
		e.treasury.TotalCollected = next
		tip.Status = TipSettled
		e.log.Info("global tip settled", "tip", tipAddr, "treasury_share", amount)
		return nil
	}

	_, enclaveTreasury, err := e.activeEnclave(tip.TargetEnclave)
	if err != nil {
		return err
	}
	treasuryShare, enclaveShare, err := SplitTreasuryShare(amount)
	if err != nil {
		return err
	}
	if err := e.ledger.SplitEscrow(escrowAddr, &escrow.Amount, []Share{
		{To: TreasuryAddress(), Amount: treasuryShare},
		{To: enclaveTreasury, Amount: enclaveShare},
	}); err != nil {
		return err
	}
	next, err := checkedAdd(e.treasury.TotalCollected, treasuryShare)
	if err != nil {
		return err
	}
	e.treasury.TotalCollected = next
	tip.Status = TipSettled
	e.log.Info("enclave tip settled", "tip", tipAddr,
		"treasury_share", treasuryShare, "enclave_share", enclaveShare)
	return nil
}

// RefundTip returns a pending tip's escrow to the tipper. Authority-only;
// the permissionless path is ClaimTimeoutRefund.
func (e *Engine) RefundTip(authority, tipAddr solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return ErrAccountNotFound
	}
	if authority != e.config.Authority {
		return ErrUnauthorizedAuthority
	}
	tip, escrow, err := e.pendingTip(tipAddr)
	if err != nil {
		return err
	}
	return e.refundTipLocked(tipAddr, tip, escrow)
}

// ClaimTimeoutRefund lets the original tipper reclaim a tip that has sat
// pending for the timeout period. No operator involvement is needed; the
// wait is a wall-clock precondition, not an awaited delay.
func (e *Engine) ClaimTimeoutRefund(tipper, tipAddr solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	tip, escrow, err := e.pendingTip(tipAddr)
	if err != nil {
		return err
	}
	if tip.Tipper != tipper {
		return ErrUnauthorizedOwner
	}
	elapsed := e.unix() - tip.CreatedAt
	if elapsed < TipTimeoutSeconds {
		return ErrTipNotTimedOut
	}
	return e.refundTipLocked(tipAddr, tip, escrow)
}

func (e *Engine) refundTipLocked(tipAddr solana.PublicKey, tip *TipAnchor, escrow *TipEscrow) error {
	amount := escrow.Amount
	if err := e.ledger.RefundEscrow(TipEscrowAddress(tipAddr), &escrow.Amount, tip.Tipper); err != nil {
		return err
	}
	tip.Status = TipRefunded
	e.log.Info("tip refunded", "tip", tipAddr, "lamports", amount, "to", tip.Tipper)
	return nil
}

func (e *Engine) pendingTip(tipAddr solana.PublicKey) (*TipAnchor, *TipEscrow, error) {
	tip, ok := e.tips[tipAddr]
	if !ok {
		return nil, nil, ErrAccountNotFound
	}
	if tip.Status != TipPending {
		return nil, nil, ErrTipNotPending
	}
	escrow, ok := e.tipEscrows[TipEscrowAddress(tipAddr)]
	if !ok || escrow.Tip != tipAddr {
		return nil, nil, ErrAccountNotFound
	}
	if escrow.Amount != tip.Amount {
		return nil, nil, ErrEscrowAmountMismatch
	}
	return tip, escrow, nil
}

// Tip returns a copy of a tip anchor.
func (e *Engine) Tip(addr solana.PublicKey) (TipAnchor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	t, ok := e.tips[addr]
	if !ok {
		return TipAnchor{}, false
	}
	return *t, true
}

// RateLimit returns a copy of a tipper's rate limit state.
func (e *Engine) RateLimit(tipper solana.PublicKey) (TipperRateLimit, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	rl, ok := e.rateLimits[RateLimitAddress(tipper)]
	if !ok {
		return TipperRateLimit{}, false
	}
	return *rl, true
}
