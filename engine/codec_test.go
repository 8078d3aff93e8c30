package engine_test

import (
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/engine"
)

func solanaKey(t *testing.T) solana.PublicKey {
	t.Helper()
	key, err := solana.NewRandomPrivateKey()
	require.NoError(t, err)
	return key.PublicKey()
}

func TestAgentIdentityRoundTrip(t *testing.T) {
	f := newFixture(t)
	a := f.newAgent("alice")
	src, ok := f.eng.Agent(a.addr)
	require.True(t, ok)

	data, err := src.MarshalBinary()
	require.NoError(t, err)

	var got engine.AgentIdentity
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, src, got)
}

func TestTipAnchorRoundTrip(t *testing.T) {
	src := engine.TipAnchor{
		Tipper:        solanaKey(t),
		ContentHash:   hash32("content"),
		Amount:        engine.MinTipAmount,
		Priority:      engine.TipPriorityBreaking,
		SourceType:    engine.TipSourceURL,
		TargetEnclave: engine.GlobalScope,
		TipNonce:      42,
		CreatedAt:     1_700_000_123,
		Status:        engine.TipPending,
	}
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	var got engine.TipAnchor
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, src, got)
}

func TestJobPostingRoundTrip(t *testing.T) {
	src := engine.JobPosting{
		Creator:          solanaKey(t),
		JobNonce:         7,
		MetadataHash:     hash32("job"),
		BudgetLamports:   oneSOL,
		BuyItNowLamports: 2 * oneSOL,
		Status:           engine.JobAssigned,
		AssignedAgent:    solanaKey(t),
		AcceptedBid:      solanaKey(t),
		CreatedAt:        1_700_000_123,
		UpdatedAt:        1_700_000_456,
	}
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	var got engine.JobPosting
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, src, got)
}

func TestRewardsEpochRoundTrip(t *testing.T) {
	src := engine.RewardsEpoch{
		Scope:         engine.GlobalScope,
		Epoch:         12,
		MerkleRoot:    hash32("root"),
		TotalAmount:   oneSOL,
		ClaimedAmount: oneSOL / 2,
		PublishedAt:   1_700_000_123,
		ClaimDeadline: 1_700_604_923,
	}
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	var got engine.RewardsEpoch
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, src, got)
}

func TestPostAnchorRoundTrip(t *testing.T) {
	src := engine.PostAnchor{
		Agent:        solanaKey(t),
		Enclave:      solanaKey(t),
		Kind:         engine.EntryComment,
		ReplyTo:      solanaKey(t),
		EntryIndex:   3,
		ContentHash:  hash32("content"),
		ManifestHash: hash32("manifest"),
		Upvotes:      5,
		Downvotes:    1,
		CommentCount: 2,
		Timestamp:    1_700_000_123,
	}
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	var got engine.PostAnchor
	require.NoError(t, got.UnmarshalBinary(data))
	require.Equal(t, src, got)
}

func TestUnmarshalRejectsCorruptData(t *testing.T) {
	src := engine.RewardsEpoch{
		Scope:       engine.GlobalScope,
		Epoch:       1,
		MerkleRoot:  hash32("root"),
		TotalAmount: oneSOL,
		PublishedAt: 1_700_000_123,
	}
	data, err := src.MarshalBinary()
	require.NoError(t, err)

	var got engine.RewardsEpoch
	require.ErrorIs(t, got.UnmarshalBinary(data[:len(data)-1]), engine.ErrBadAccountData)
	require.ErrorIs(t, got.UnmarshalBinary(append(data, 0)), engine.ErrBadAccountData)
	require.ErrorIs(t, got.UnmarshalBinary(nil), engine.ErrBadAccountData)

	// A valid buffer for a different entity carries the wrong tag.
	var job engine.JobPosting
	require.ErrorIs(t, job.UnmarshalBinary(data), engine.ErrBadAccountData)

	flipped := make([]byte, len(data))
	copy(flipped, data)
	flipped[0] ^= 0xFF
	require.ErrorIs(t, got.UnmarshalBinary(flipped), engine.ErrBadAccountData)
}
