package engine_test

import (
	"crypto/sha256"
	"io"
	"log/slog"
	"testing"
	"time"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/sigverify"
)

const (
	minReserve = uint64(1_000_000)
	oneSOL     = uint64(1_000_000_000)
)

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

// fixture is an initialized engine with a funded authority wallet and a
// deterministic clock.
type fixture struct {
	t         *testing.T
	eng       *engine.Engine
	clock     *fakeClock
	authority solana.PublicKey
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := &fakeClock{t: time.Unix(1_700_000_000, 0)}
	eng := engine.New(minReserve,
		engine.WithClock(clock.now),
		engine.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	authority := newWallet(t, eng, 100*oneSOL)
	require.NoError(t, eng.InitializeConfig(authority, authority))
	require.NoError(t, eng.InitializeEconomics(authority))
	return &fixture{t: t, eng: eng, clock: clock, authority: authority}
}

func newWallet(t *testing.T, eng *engine.Engine, lamports uint64) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	addr := key.PublicKey()
	require.NoError(t, eng.Ledger().Fund(addr, lamports))
	return addr
}

func hash32(s string) engine.Hash32 {
	return sha256.Sum256([]byte(s))
}

func displayName(s string) [32]byte {
	var out [32]byte
	copy(out[:], s)
	return out
}

// testAgent is a registered agent plus the keys needed to act as it.
type testAgent struct {
	addr   solana.PublicKey
	owner  solana.PublicKey
	signer solana.PrivateKey
}

func (f *fixture) newAgent(name string) testAgent {
	f.t.Helper()
	owner := newWallet(f.t, f.eng, 10*oneSOL)
	return f.newAgentForOwner(owner, name)
}

func (f *fixture) newAgentForOwner(owner solana.PublicKey, name string) testAgent {
	f.t.Helper()
	signer, err := solana.NewRandomPrivateKey()
	require.NoError(f.t, err)
	addr, err := f.eng.RegisterAgent(engine.RegisterAgentParams{
		Owner:        owner,
		AgentID:      hash32("agent-id/" + name),
		AgentSigner:  signer.PublicKey(),
		DisplayName:  displayName(name),
		HexacoTraits: [6]uint16{500, 500, 500, 500, 500, 500},
		MetadataHash: hash32("agent-meta/" + name),
	})
	require.NoError(f.t, err)
	return testAgent{addr: addr, owner: owner, signer: signer}
}

// signedBy builds a verifier from a real signature over msg, the way a
// transaction would carry it.
func signedBy(t *testing.T, key solana.PrivateKey, msg []byte) engine.Verifier {
	t.Helper()
	ix, err := sigverify.SignAndBuild(key, msg)
	require.NoError(t, err)
	v, err := sigverify.ForInstruction(ix)
	require.NoError(t, err)
	return v
}

func (f *fixture) newEnclave(creator testAgent, name string) solana.PublicKey {
	f.t.Helper()
	nameHash := hash32("enclave/" + name)
	metaHash := hash32("enclave-meta/" + name)
	msg := engine.BuildAgentMessage(engine.ActionCreateEnclave, creator.addr,
		engine.CreateEnclavePayload(nameHash, metaHash))
	addr, err := f.eng.CreateEnclave(signedBy(f.t, creator.signer, msg),
		creator.owner, creator.addr, nameHash, metaHash)
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) balance(addr solana.PublicKey) uint64 {
	return f.eng.Ledger().Balance(addr)
}
