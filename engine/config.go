package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// InitializeConfig creates the program config and the global treasury and
// hands administrative authority to adminAuthority. It can only run once.
func (e *Engine) InitializeConfig(payer, adminAuthority solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config != nil {
		return ErrAccountExists
	}
	if adminAuthority.IsZero() {
		return ErrUnauthorizedAuthority
	}
	if err := e.createAccount(payer, ConfigAddress()); err != nil {
		return err
	}
	if err := e.createAccount(payer, TreasuryAddress()); err != nil {
		return err
	}
	e.config = &ProgramConfig{Authority: adminAuthority}
	e.treasury = &GlobalTreasury{Authority: adminAuthority}
	e.log.Info("program config initialized", "authority", adminAuthority)
	return nil
}

// InitializeEconomics creates the economics config with the default fee,
// per-wallet cap and recovery timelock. Authority-only.
func (e *Engine) InitializeEconomics(authority solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return ErrAccountNotFound
	}
	if authority != e.config.Authority {
		return ErrUnauthorizedAuthority
	}
	if e.economics != nil {
		return ErrAccountExists
	}
	if err := e.createAccount(authority, EconomicsAddress()); err != nil {
		return err
	}
	e.economics = &EconomicsConfig{
		Authority:               e.config.Authority,
		AgentMintFeeLamports:    DefaultAgentMintFeeLamports,
		MaxAgentsPerWallet:      DefaultMaxAgentsPerWallet,
		RecoveryTimelockSeconds: DefaultRecoveryTimelockSeconds,
	}
	e.log.Info("economics initialized",
		"fee", e.economics.AgentMintFeeLamports,
		"max_per_wallet", e.economics.MaxAgentsPerWallet,
		"recovery_timelock_s", e.economics.RecoveryTimelockSeconds)
	return nil
}

// UpdateEconomics replaces the policy values. Authority-only.
func (e *Engine) UpdateEconomics(authority solana.PublicKey, mintFee uint64, maxPerWallet uint16, recoveryTimelockSeconds int64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil || e.economics == nil {
		return ErrAccountNotFound
	}
	if authority != e.config.Authority {
		return ErrUnauthorizedAuthority
	}
	if mintFee == 0 || maxPerWallet == 0 || recoveryTimelockSeconds < 0 {
		return ErrInvalidAmount
	}
	e.economics.AgentMintFeeLamports = mintFee
	e.economics.MaxAgentsPerWallet = maxPerWallet
	e.economics.RecoveryTimelockSeconds = recoveryTimelockSeconds
	e.log.Info("economics updated",
		"fee", mintFee, "max_per_wallet", maxPerWallet, "recovery_timelock_s", recoveryTimelockSeconds)
	return nil
}

// WithdrawTreasury pays lamports from the global treasury to the authority
// wallet, preserving the treasury's minimum reserve. Authority-only.
func (e *Engine) WithdrawTreasury(authority solana.PublicKey, lamports uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil || e.treasury == nil {
		return ErrAccountNotFound
	}
	if authority != e.config.Authority || e.treasury.Authority != e.config.Authority {
		return ErrUnauthorizedAuthority
	}
	if lamports == 0 {
		return ErrInvalidAmount
	}
	if err := e.ledger.releaseReserving(TreasuryAddress(), authority, lamports, ErrInsufficientTreasuryBalance); err != nil {
		return err
	}
	e.log.Info("treasury withdraw", "lamports", lamports, "to", authority)
	return nil
}

// Config returns a copy of the program config, if initialized.
func (e *Engine) Config() (ProgramConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.config == nil {
		return ProgramConfig{}, false
	}
	return *e.config, true
}

// Economics returns a copy of the economics config, if initialized.
func (e *Engine) Economics() (EconomicsConfig, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.economics == nil {
		return EconomicsConfig{}, false
	}
	return *e.economics, true
}

// Treasury returns a copy of the global treasury state, if initialized.
func (e *Engine) Treasury() (GlobalTreasury, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.treasury == nil {
		return GlobalTreasury{}, false
	}
	return *e.treasury, true
}
