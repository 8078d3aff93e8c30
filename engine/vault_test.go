package engine_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/engine"
)

func TestDepositToVault(t *testing.T) {
	f := newFixture(t)
	agent := f.newAgent("alice")
	vault := engine.VaultAddress(agent.addr)
	depositor := newWallet(t, f.eng, oneSOL)

	require.ErrorIs(t, f.eng.DepositToVault(depositor, agent.addr, 0), engine.ErrInvalidAmount)

	before := f.balance(vault)
	require.NoError(t, f.eng.DepositToVault(depositor, agent.addr, oneSOL/2))
	require.Equal(t, before+oneSOL/2, f.balance(vault))

	// A wallet with no agent registered has no vault.
	err := f.eng.DepositToVault(depositor, depositor, oneSOL/4)
	require.ErrorIs(t, err, engine.ErrInvalidAgentVault)
}

func TestWithdrawFromVault(t *testing.T) {
	f := newFixture(t)
	agent := f.newAgent("alice")
	vault := engine.VaultAddress(agent.addr)
	depositor := newWallet(t, f.eng, oneSOL)
	require.NoError(t, f.eng.DepositToVault(depositor, agent.addr, oneSOL/2))

	stranger := newWallet(t, f.eng, oneSOL)
	err := f.eng.WithdrawFromVault(stranger, agent.addr, oneSOL/4)
	require.ErrorIs(t, err, engine.ErrUnauthorizedOwner)

	ownerBefore := f.balance(agent.owner)
	require.NoError(t, f.eng.WithdrawFromVault(agent.owner, agent.addr, oneSOL/2))
	require.Equal(t, ownerBefore+oneSOL/2, f.balance(agent.owner))

	// The vault reserve is not withdrawable.
	require.Equal(t, minReserve, f.balance(vault))
	err = f.eng.WithdrawFromVault(agent.owner, agent.addr, 1)
	require.ErrorIs(t, err, engine.ErrInsufficientVaultBalance)
}

func TestDonateToAgent(t *testing.T) {
	f := newFixture(t)
	agent := f.newAgent("alice")
	vault := engine.VaultAddress(agent.addr)
	donor := newWallet(t, f.eng, oneSOL)

	before := f.balance(vault)
	require.NoError(t, f.eng.DonateToAgent(donor, agent.addr, oneSOL/4, hash32("thanks"), 1))
	require.Equal(t, before+oneSOL/4, f.balance(vault))

	// The receipt nonce makes each donation single-use.
	err := f.eng.DonateToAgent(donor, agent.addr, oneSOL/4, hash32("thanks"), 1)
	require.ErrorIs(t, err, engine.ErrAccountExists)
	require.NoError(t, f.eng.DonateToAgent(donor, agent.addr, oneSOL/4, hash32("thanks"), 2))

	// Donations require an active agent; plain deposits do not.
	require.NoError(t, f.eng.DeactivateAgent(agent.owner, agent.addr))
	err = f.eng.DonateToAgent(donor, agent.addr, oneSOL/8, hash32("thanks"), 3)
	require.ErrorIs(t, err, engine.ErrAgentInactive)
	require.NoError(t, f.eng.DepositToVault(donor, agent.addr, oneSOL/8))
}

func TestCreateEnclave(t *testing.T) {
	f := newFixture(t)
	creator := f.newAgent("creator")

	addr := f.newEnclave(creator, "observatory")
	enc, ok := f.eng.Enclave(addr)
	require.True(t, ok)
	require.Equal(t, creator.addr, enc.CreatorAgent)
	require.Equal(t, creator.owner, enc.CreatorOwner)
	require.True(t, enc.IsActive)
	require.Equal(t, engine.EnclaveAddress(hash32("enclave/observatory")), addr)
	require.Equal(t, minReserve, f.balance(engine.EnclaveTreasuryAddress(addr)))

	// The name hash is the identity: reusing it collides.
	nameHash := hash32("enclave/observatory")
	msg := engine.BuildAgentMessage(engine.ActionCreateEnclave, creator.addr,
		engine.CreateEnclavePayload(nameHash, hash32("other-meta")))
	_, err := f.eng.CreateEnclave(signedBy(t, creator.signer, msg),
		creator.owner, creator.addr, nameHash, hash32("other-meta"))
	require.ErrorIs(t, err, engine.ErrAccountExists)

	msg = engine.BuildAgentMessage(engine.ActionCreateEnclave, creator.addr,
		engine.CreateEnclavePayload(engine.Hash32{}, hash32("meta")))
	_, err = f.eng.CreateEnclave(signedBy(t, creator.signer, msg),
		creator.owner, creator.addr, engine.Hash32{}, hash32("meta"))
	require.ErrorIs(t, err, engine.ErrEmptyEnclaveNameHash)
}

func TestCreateEnclaveRequiresAgentSignature(t *testing.T) {
	f := newFixture(t)
	creator := f.newAgent("creator")
	imposter := f.newAgent("imposter")

	nameHash := hash32("enclave/observatory")
	metaHash := hash32("enclave-meta/observatory")
	msg := engine.BuildAgentMessage(engine.ActionCreateEnclave, creator.addr,
		engine.CreateEnclavePayload(nameHash, metaHash))
	_, err := f.eng.CreateEnclave(signedBy(t, imposter.signer, msg),
		creator.owner, creator.addr, nameHash, metaHash)
	require.ErrorIs(t, err, engine.ErrPublicKeyMismatch)
}
