package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// RegisterAgentParams carries everything needed to mint a new agent
// identity.
type RegisterAgentParams struct {
	Owner        solana.PublicKey
	AgentID      Hash32
	AgentSigner  solana.PublicKey
	DisplayName  [32]byte
	HexacoTraits [6]uint16
	MetadataHash Hash32
}

// RegisterAgent mints an agent identity and its vault. Registration is
// permissionless but charges the economics fee into the global treasury and
// enforces the lifetime per-wallet cap. The signer must be distinct from
// the owner wallet.
func (e *Engine) RegisterAgent(p RegisterAgentParams) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil || e.economics == nil || e.treasury == nil {
		return solana.PublicKey{}, ErrAccountNotFound
	}
	empty := true
	for _, b := range p.DisplayName {
		if b != 0 {
			empty = false
			break
		}
	}
	if empty {
		return solana.PublicKey{}, ErrEmptyDisplayName
	}
	for _, v := range p.HexacoTraits {
		if v > 1000 {
			return solana.PublicKey{}, ErrInvalidAmount
		}
	}
	if p.AgentSigner == p.Owner {
		return solana.PublicKey{}, ErrAgentSignerEqualsOwner
	}

	addr := AgentAddress(p.Owner, p.AgentID)
	if _, ok := e.agents[addr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}

	counter := e.ownerCounters[OwnerCounterAddress(p.Owner)]
	if counter == nil {
		counter = &OwnerAgentCounter{Owner: p.Owner}
	}
	if counter.MintedCount >= e.economics.MaxAgentsPerWallet {
		return solana.PublicKey{}, ErrMaxAgentsPerWalletExceeded
	}

	fee := e.economics.AgentMintFeeLamports
	if fee == 0 {
		return solana.PublicKey{}, ErrInvalidAmount
	}
	if err := e.ledger.Pay(p.Owner, TreasuryAddress(), fee); err != nil {
		return solana.PublicKey{}, err
	}
	nextCollected, err := checkedAdd(e.treasury.TotalCollected, fee)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.createAccount(p.Owner, addr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.createAccount(p.Owner, VaultAddress(addr)); err != nil {
		return solana.PublicKey{}, err
	}
	e.treasury.TotalCollected = nextCollected

	now := e.unix()
	agent := &AgentIdentity{
		Owner:        p.Owner,
		AgentID:      p.AgentID,
		AgentSigner:  p.AgentSigner,
		DisplayName:  p.DisplayName,
		HexacoTraits: p.HexacoTraits,
		CitizenLevel: 1,
		MetadataHash: p.MetadataHash,
		CreatedAt:    now,
		UpdatedAt:    now,
		IsActive:     true,
	}
	e.agents[addr] = agent
	e.vaults[VaultAddress(addr)] = &AgentVault{Agent: addr}
	counter.MintedCount++
	e.ownerCounters[OwnerCounterAddress(p.Owner)] = counter
	e.config.AgentCount++

	e.log.Info("agent registered", "owner", p.Owner, "agent", addr, "fee", fee)
	return addr, nil
}

// DeactivateAgent flips an active agent inactive. Owner-only.
func (e *Engine) DeactivateAgent(owner, agent solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.ownedAgent(owner, agent)
	if err != nil {
		return err
	}
	if !a.IsActive {
		return ErrAgentAlreadyInactive
	}
	a.IsActive = false
	a.UpdatedAt = e.unix()
	e.log.Info("agent deactivated", "agent", agent, "owner", owner)
	return nil
}

// ReactivateAgent flips an inactive agent active. Owner-only.
func (e *Engine) ReactivateAgent(owner, agent solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.ownedAgent(owner, agent)
	if err != nil {
		return err
	}
	if a.IsActive {
		return ErrAgentAlreadyActive
	}
	a.IsActive = true
	a.UpdatedAt = e.unix()
	e.log.Info("agent reactivated", "agent", agent, "owner", owner)
	return nil
}

// RotateAgentSigner replaces the agent's signer key. The request must be
// authorized by the current signer via a delegated signature over the
// rotation payload.
func (e *Engine) RotateAgentSigner(v Verifier, agent, newSigner solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, ok := e.agents[agent]
	if !ok {
		return ErrAccountNotFound
	}
	if newSigner == a.Owner {
		return ErrAgentSignerEqualsOwner
	}
	msg := BuildAgentMessage(ActionRotateAgentSigner, agent, RotateSignerPayload(newSigner))
	if err := v.Verify(a.AgentSigner, msg); err != nil {
		return err
	}
	a.AgentSigner = newSigner
	a.UpdatedAt = e.unix()
	e.log.Info("agent signer rotated", "agent", agent, "new_signer", newSigner)
	return nil
}

// RequestRecoverAgentSigner opens a timelocked request to replace a lost
// signer key. Owner-only; at most one live request per agent.
func (e *Engine) RequestRecoverAgentSigner(owner, agent, newSigner solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.economics == nil {
		return ErrAccountNotFound
	}
	a, err := e.ownedAgent(owner, agent)
	if err != nil {
		return err
	}
	if newSigner == owner {
		return ErrAgentSignerEqualsOwner
	}
	if newSigner == a.AgentSigner {
		return ErrRecoveryNoOp
	}
	addr := RecoveryAddress(agent)
	if _, ok := e.recoveries[addr]; ok {
		return ErrAccountExists
	}
	if err := e.createAccount(owner, addr); err != nil {
		return err
	}
	now := e.unix()
	readyAt, err := checkedAddI64(now, e.economics.RecoveryTimelockSeconds)
	if err != nil {
		return err
	}
	e.recoveries[addr] = &AgentSignerRecovery{
		Agent:          agent,
		Owner:          owner,
		NewAgentSigner: newSigner,
		RequestedAt:    now,
		ReadyAt:        readyAt,
	}
	e.log.Info("recovery requested", "agent", agent, "ready_at", readyAt, "new_signer", newSigner)
	return nil
}

// ExecuteRecoverAgentSigner applies a matured recovery request and closes
// it, returning its reserve to the owner. Fails RecoveryNotReady strictly
// before the ready timestamp.
func (e *Engine) ExecuteRecoverAgentSigner(owner, agent solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	a, err := e.ownedAgent(owner, agent)
	if err != nil {
		return err
	}
	addr := RecoveryAddress(agent)
	rec, ok := e.recoveries[addr]
	if !ok {
		return ErrAccountNotFound
	}
	if rec.Owner != owner {
		return ErrUnauthorizedOwner
	}
	now := e.unix()
	if now < rec.ReadyAt {
		return ErrRecoveryNotReady
	}
	if err := e.closeAccount(addr, owner); err != nil {
		return err
	}
	delete(e.recoveries, addr)
	a.AgentSigner = rec.NewAgentSigner
	a.UpdatedAt = now
	e.log.Info("recovery executed", "agent", agent, "new_signer", a.AgentSigner)
	return nil
}

// CancelRecoverAgentSigner closes a pending recovery request without
// applying it.
func (e *Engine) CancelRecoverAgentSigner(owner, agent solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := e.ownedAgent(owner, agent); err != nil {
		return err
	}
	addr := RecoveryAddress(agent)
	rec, ok := e.recoveries[addr]
	if !ok {
		return ErrAccountNotFound
	}
	if rec.Owner != owner {
		return ErrUnauthorizedOwner
	}
	if err := e.closeAccount(addr, owner); err != nil {
		return err
	}
	delete(e.recoveries, addr)
	e.log.Info("recovery canceled", "agent", agent, "owner", owner)
	return nil
}

// Agent returns a copy of an agent identity.
func (e *Engine) Agent(addr solana.PublicKey) (AgentIdentity, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	a, ok := e.agents[addr]
	if !ok {
		return AgentIdentity{}, false
	}
	return *a, true
}

// Recovery returns a copy of an agent's pending recovery request.
func (e *Engine) Recovery(agent solana.PublicKey) (AgentSignerRecovery, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	r, ok := e.recoveries[RecoveryAddress(agent)]
	if !ok {
		return AgentSignerRecovery{}, false
	}
	return *r, true
}

func (e *Engine) ownedAgent(owner, agent solana.PublicKey) (*AgentIdentity, error) {
	a, ok := e.agents[agent]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if a.Owner != owner {
		return nil, ErrUnauthorizedOwner
	}
	return a, nil
}

// activeAgent resolves an agent that must be active.
func (e *Engine) activeAgent(agent solana.PublicKey) (*AgentIdentity, error) {
	a, ok := e.agents[agent]
	if !ok {
		return nil, ErrAccountNotFound
	}
	if !a.IsActive {
		return nil, ErrAgentInactive
	}
	return a, nil
}
