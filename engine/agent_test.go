package engine_test

import (
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/engine"
)

func TestRegisterAgent(t *testing.T) {
	f := newFixture(t)
	owner := newWallet(t, f.eng, 10*oneSOL)
	signer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	params := engine.RegisterAgentParams{
		Owner:        owner,
		AgentID:      hash32("agent-id/alice"),
		AgentSigner:  signer.PublicKey(),
		DisplayName:  displayName("alice"),
		HexacoTraits: [6]uint16{100, 200, 300, 400, 500, 600},
		MetadataHash: hash32("agent-meta/alice"),
	}
	addr, err := f.eng.RegisterAgent(params)
	require.NoError(t, err)
	require.Equal(t, engine.AgentAddress(owner, params.AgentID), addr)

	agent, ok := f.eng.Agent(addr)
	require.True(t, ok)
	require.Equal(t, owner, agent.Owner)
	require.Equal(t, signer.PublicKey(), agent.AgentSigner)
	require.Equal(t, uint8(1), agent.CitizenLevel)
	require.True(t, agent.IsActive)
	require.Zero(t, agent.TotalEntries)

	// Fee went to the treasury, reserves to the agent and vault accounts.
	fee := uint64(engine.DefaultAgentMintFeeLamports)
	require.Equal(t, 10*oneSOL-fee-2*minReserve, f.balance(owner))
	require.Equal(t, minReserve+fee, f.balance(engine.TreasuryAddress()))
	require.Equal(t, minReserve, f.balance(engine.VaultAddress(addr)))

	tre, _ := f.eng.Treasury()
	require.Equal(t, fee, tre.TotalCollected)

	_, err = f.eng.RegisterAgent(params)
	require.ErrorIs(t, err, engine.ErrAccountExists)
}

func TestRegisterAgentValidation(t *testing.T) {
	f := newFixture(t)
	owner := newWallet(t, f.eng, 10*oneSOL)
	signer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	base := engine.RegisterAgentParams{
		Owner:        owner,
		AgentID:      hash32("agent-id/bob"),
		AgentSigner:  signer.PublicKey(),
		DisplayName:  displayName("bob"),
		HexacoTraits: [6]uint16{0, 0, 0, 0, 0, 1000},
		MetadataHash: hash32("agent-meta/bob"),
	}

	p := base
	p.DisplayName = [32]byte{}
	_, err = f.eng.RegisterAgent(p)
	require.ErrorIs(t, err, engine.ErrEmptyDisplayName)

	p = base
	p.HexacoTraits[2] = 1001
	_, err = f.eng.RegisterAgent(p)
	require.ErrorIs(t, err, engine.ErrInvalidAmount)

	p = base
	p.AgentSigner = owner
	_, err = f.eng.RegisterAgent(p)
	require.ErrorIs(t, err, engine.ErrAgentSignerEqualsOwner)

	poor := newWallet(t, f.eng, minReserve)
	p = base
	p.Owner = poor
	_, err = f.eng.RegisterAgent(p)
	require.ErrorIs(t, err, engine.ErrInsufficientFunds)
}

func TestRegisterAgentWalletCap(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.eng.UpdateEconomics(f.authority, engine.DefaultAgentMintFeeLamports, 1, engine.DefaultRecoveryTimelockSeconds))

	owner := newWallet(t, f.eng, 10*oneSOL)
	f.newAgentForOwner(owner, "first")

	signer, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	_, err = f.eng.RegisterAgent(engine.RegisterAgentParams{
		Owner:        owner,
		AgentID:      hash32("agent-id/second"),
		AgentSigner:  signer.PublicKey(),
		DisplayName:  displayName("second"),
		MetadataHash: hash32("agent-meta/second"),
	})
	require.ErrorIs(t, err, engine.ErrMaxAgentsPerWalletExceeded)
}

func TestDeactivateReactivateAgent(t *testing.T) {
	f := newFixture(t)
	a := f.newAgent("alice")
	stranger := newWallet(t, f.eng, oneSOL)

	require.ErrorIs(t, f.eng.DeactivateAgent(stranger, a.addr), engine.ErrUnauthorizedOwner)
	require.ErrorIs(t, f.eng.ReactivateAgent(a.owner, a.addr), engine.ErrAgentAlreadyActive)

	require.NoError(t, f.eng.DeactivateAgent(a.owner, a.addr))
	agent, _ := f.eng.Agent(a.addr)
	require.False(t, agent.IsActive)
	require.ErrorIs(t, f.eng.DeactivateAgent(a.owner, a.addr), engine.ErrAgentAlreadyInactive)

	require.NoError(t, f.eng.ReactivateAgent(a.owner, a.addr))
	agent, _ = f.eng.Agent(a.addr)
	require.True(t, agent.IsActive)
}

func TestRotateAgentSigner(t *testing.T) {
	f := newFixture(t)
	a := f.newAgent("alice")
	next, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	msg := engine.BuildAgentMessage(engine.ActionRotateAgentSigner, a.addr,
		engine.RotateSignerPayload(next.PublicKey()))

	// A signature by anyone but the current signer is rejected.
	imposter, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	err = f.eng.RotateAgentSigner(signedBy(t, imposter, msg), a.addr, next.PublicKey())
	require.ErrorIs(t, err, engine.ErrPublicKeyMismatch)

	require.NoError(t, f.eng.RotateAgentSigner(signedBy(t, a.signer, msg), a.addr, next.PublicKey()))
	agent, _ := f.eng.Agent(a.addr)
	require.Equal(t, next.PublicKey(), agent.AgentSigner)

	// The rotated-out key no longer authorizes anything.
	again, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	msg = engine.BuildAgentMessage(engine.ActionRotateAgentSigner, a.addr,
		engine.RotateSignerPayload(again.PublicKey()))
	err = f.eng.RotateAgentSigner(signedBy(t, a.signer, msg), a.addr, again.PublicKey())
	require.ErrorIs(t, err, engine.ErrPublicKeyMismatch)
}

func TestRecoverAgentSigner(t *testing.T) {
	f := newFixture(t)
	a := f.newAgent("alice")
	next, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	require.ErrorIs(t,
		f.eng.RequestRecoverAgentSigner(a.owner, a.addr, a.owner),
		engine.ErrAgentSignerEqualsOwner)
	require.ErrorIs(t,
		f.eng.RequestRecoverAgentSigner(a.owner, a.addr, a.signer.PublicKey()),
		engine.ErrRecoveryNoOp)

	require.NoError(t, f.eng.RequestRecoverAgentSigner(a.owner, a.addr, next.PublicKey()))
	require.ErrorIs(t,
		f.eng.RequestRecoverAgentSigner(a.owner, a.addr, next.PublicKey()),
		engine.ErrAccountExists)

	rec, ok := f.eng.Recovery(a.addr)
	require.True(t, ok)
	require.Equal(t, rec.RequestedAt+engine.DefaultRecoveryTimelockSeconds, rec.ReadyAt)

	// Strictly before the ready timestamp the request cannot execute.
	f.clock.advance(engine.DefaultRecoveryTimelockSeconds*time.Second - time.Second)
	require.ErrorIs(t, f.eng.ExecuteRecoverAgentSigner(a.owner, a.addr), engine.ErrRecoveryNotReady)

	f.clock.advance(time.Second)
	ownerBefore := f.balance(a.owner)
	require.NoError(t, f.eng.ExecuteRecoverAgentSigner(a.owner, a.addr))

	agent, _ := f.eng.Agent(a.addr)
	require.Equal(t, next.PublicKey(), agent.AgentSigner)
	_, ok = f.eng.Recovery(a.addr)
	require.False(t, ok)
	// Closing the request account returns its reserve to the owner.
	require.Equal(t, ownerBefore+minReserve, f.balance(a.owner))
}

func TestCancelRecoverAgentSigner(t *testing.T) {
	f := newFixture(t)
	a := f.newAgent("alice")
	next, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)

	require.ErrorIs(t, f.eng.CancelRecoverAgentSigner(a.owner, a.addr), engine.ErrAccountNotFound)

	require.NoError(t, f.eng.RequestRecoverAgentSigner(a.owner, a.addr, next.PublicKey()))
	require.NoError(t, f.eng.CancelRecoverAgentSigner(a.owner, a.addr))

	_, ok := f.eng.Recovery(a.addr)
	require.False(t, ok)
	agent, _ := f.eng.Agent(a.addr)
	require.Equal(t, a.signer.PublicKey(), agent.AgentSigner)

	// A fresh request is allowed after cancel.
	require.NoError(t, f.eng.RequestRecoverAgentSigner(a.owner, a.addr, next.PublicKey()))
}
