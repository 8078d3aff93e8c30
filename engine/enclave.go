package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// CreateEnclave creates a topic space plus its treasury. The action is
// agent-authored: it requires a delegated signature by the creator agent's
// signer over the enclave payload. The payer covers the account reserves.
func (e *Engine) CreateEnclave(v Verifier, payer, creatorAgent solana.PublicKey, nameHash, metadataHash Hash32) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.config == nil {
		return solana.PublicKey{}, ErrAccountNotFound
	}
	if nameHash == zeroHash {
		return solana.PublicKey{}, ErrEmptyEnclaveNameHash
	}
	agent, err := e.activeAgent(creatorAgent)
	if err != nil {
		return solana.PublicKey{}, err
	}

	msg := BuildAgentMessage(ActionCreateEnclave, creatorAgent, CreateEnclavePayload(nameHash, metadataHash))
	if err := v.Verify(agent.AgentSigner, msg); err != nil {
		return solana.PublicKey{}, err
	}

	addr := EnclaveAddress(nameHash)
	if _, ok := e.enclaves[addr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}
	if err := e.createAccount(payer, addr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.createAccount(payer, EnclaveTreasuryAddress(addr)); err != nil {
		return solana.PublicKey{}, err
	}

	e.enclaves[addr] = &Enclave{
		NameHash:     nameHash,
		CreatorAgent: creatorAgent,
		CreatorOwner: agent.Owner,
		MetadataHash: metadataHash,
		CreatedAt:    e.unix(),
		IsActive:     true,
	}
	e.enclaveTreasuries[EnclaveTreasuryAddress(addr)] = &EnclaveTreasury{Enclave: addr}
	e.config.EnclaveCount++

	e.log.Info("enclave created", "enclave", addr, "creator_agent", creatorAgent)
	return addr, nil
}

// Enclave returns a copy of an enclave.
func (e *Engine) Enclave(addr solana.PublicKey) (Enclave, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	enc, ok := e.enclaves[addr]
	if !ok {
		return Enclave{}, false
	}
	return *enc, true
}

// activeEnclave resolves and fully type-checks an enclave that must be
// active, plus its treasury. The treasury is validated structurally, never
// by raw offset reads.
func (e *Engine) activeEnclave(addr solana.PublicKey) (*Enclave, solana.PublicKey, error) {
	enc, ok := e.enclaves[addr]
	if !ok {
		return nil, solana.PublicKey{}, ErrInvalidTargetEnclave
	}
	if !enc.IsActive {
		return nil, solana.PublicKey{}, ErrEnclaveInactive
	}
	treasuryAddr := EnclaveTreasuryAddress(addr)
	t, ok := e.enclaveTreasuries[treasuryAddr]
	if !ok || t.Enclave != addr {
		return nil, solana.PublicKey{}, ErrInvalidEnclaveTreasury
	}
	return enc, treasuryAddr, nil
}
