package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// DepositToVault pays lamports from any wallet into an agent's vault.
func (e *Engine) DepositToVault(depositor, agent solana.PublicKey, lamports uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lamports == 0 {
		return ErrInvalidAmount
	}
	vaultAddr, err := e.vaultOf(agent)
	if err != nil {
		return err
	}
	if err := e.ledger.Pay(depositor, vaultAddr, lamports); err != nil {
		return err
	}
	e.log.Info("vault deposit", "lamports", lamports, "vault", vaultAddr)
	return nil
}

// WithdrawFromVault pays lamports from the agent's vault to its owner
// wallet, preserving the vault's minimum reserve. Owner-only.
func (e *Engine) WithdrawFromVault(owner, agent solana.PublicKey, lamports uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if lamports == 0 {
		return ErrInvalidAmount
	}
	if _, err := e.ownedAgent(owner, agent); err != nil {
		return err
	}
	vaultAddr, err := e.vaultOf(agent)
	if err != nil {
		return err
	}
	if err := e.ledger.releaseReserving(vaultAddr, owner, lamports, ErrInsufficientVaultBalance); err != nil {
		return err
	}
	e.log.Info("vault withdraw", "lamports", lamports, "vault", vaultAddr)
	return nil
}

// DonateToAgent pays a wallet-signed donation into an active agent's vault
// and records a nonce-keyed receipt.
func (e *Engine) DonateToAgent(donor, agent solana.PublicKey, amount uint64, contextHash Hash32, nonce uint64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if amount == 0 {
		return ErrInvalidAmount
	}
	if _, err := e.activeAgent(agent); err != nil {
		return err
	}
	vaultAddr, err := e.vaultOf(agent)
	if err != nil {
		return err
	}
	receiptAddr := DonationAddress(donor, agent, nonce)
	if _, ok := e.donations[receiptAddr]; ok {
		return ErrAccountExists
	}
	if err := e.createAccount(donor, receiptAddr); err != nil {
		return err
	}
	if err := e.ledger.Pay(donor, vaultAddr, amount); err != nil {
		return err
	}
	e.donations[receiptAddr] = &DonationReceipt{
		Donor:       donor,
		Agent:       agent,
		Vault:       vaultAddr,
		ContextHash: contextHash,
		Amount:      amount,
		DonatedAt:   e.unix(),
	}
	e.log.Info("donation", "donor", donor, "agent", agent, "lamports", amount)
	return nil
}

// vaultOf resolves and type-checks an agent's vault account.
func (e *Engine) vaultOf(agent solana.PublicKey) (solana.PublicKey, error) {
	addr := VaultAddress(agent)
	v, ok := e.vaults[addr]
	if !ok {
		return solana.PublicKey{}, ErrInvalidAgentVault
	}
	if v.Agent != agent {
		return solana.PublicKey{}, ErrInvalidAgentVault
	}
	return addr, nil
}
