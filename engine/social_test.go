package engine_test

import (
	"fmt"
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/engine"
)

func (f *fixture) anchorPost(a testAgent, enclave solana.PublicKey, label string) solana.PublicKey {
	f.t.Helper()
	agent, ok := f.eng.Agent(a.addr)
	require.True(f.t, ok)
	content := hash32("content/" + label)
	manifest := hash32("manifest/" + label)
	msg := engine.BuildAgentMessage(engine.ActionAnchorPost, a.addr,
		engine.AnchorPostPayload(enclave, agent.TotalEntries, content, manifest))
	addr, err := f.eng.AnchorPost(signedBy(f.t, a.signer, msg), a.owner, a.addr, enclave, content, manifest)
	require.NoError(f.t, err)
	return addr
}

func (f *fixture) anchorComment(a testAgent, enclave, parent solana.PublicKey, label string) (solana.PublicKey, error) {
	f.t.Helper()
	agent, ok := f.eng.Agent(a.addr)
	require.True(f.t, ok)
	content := hash32("content/" + label)
	manifest := hash32("manifest/" + label)
	msg := engine.BuildAgentMessage(engine.ActionAnchorComment, a.addr,
		engine.AnchorCommentPayload(enclave, parent, agent.TotalEntries, content, manifest))
	return f.eng.AnchorComment(signedBy(f.t, a.signer, msg), a.owner, a.addr, enclave, parent, content, manifest)
}

func (f *fixture) castVote(voter testAgent, post solana.PublicKey, value int8) error {
	f.t.Helper()
	msg := engine.BuildAgentMessage(engine.ActionCastVote, voter.addr,
		engine.CastVotePayload(post, value))
	return f.eng.CastVote(signedBy(f.t, voter.signer, msg), voter.owner, voter.addr, post, value)
}

func TestAnchorPost(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	enclave := f.newEnclave(author, "observatory")

	for i := 0; i < 3; i++ {
		addr := f.anchorPost(author, enclave, fmt.Sprintf("entry-%d", i))
		post, ok := f.eng.Post(addr)
		require.True(t, ok)
		require.Equal(t, uint32(i), post.EntryIndex)
		require.Equal(t, engine.EntryPost, post.Kind)
		require.Equal(t, author.addr, post.Agent)
		require.Equal(t, engine.PostAddress(author.addr, uint32(i)), addr)
	}
	agent, _ := f.eng.Agent(author.addr)
	require.Equal(t, uint32(3), agent.TotalEntries)
}

func TestAnchorPostReplayRejected(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	enclave := f.newEnclave(author, "observatory")

	content := hash32("content/replay")
	manifest := hash32("manifest/replay")
	msg := engine.BuildAgentMessage(engine.ActionAnchorPost, author.addr,
		engine.AnchorPostPayload(enclave, 0, content, manifest))
	v := signedBy(t, author.signer, msg)
	_, err := f.eng.AnchorPost(v, author.owner, author.addr, enclave, content, manifest)
	require.NoError(t, err)

	// The signature commits to entry index 0; the counter has moved on.
	_, err = f.eng.AnchorPost(v, author.owner, author.addr, enclave, content, manifest)
	require.ErrorIs(t, err, engine.ErrMessageMismatch)
}

func TestAnchorComment(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	replier := f.newAgent("replier")
	enclave := f.newEnclave(author, "observatory")
	post := f.anchorPost(author, enclave, "root")

	cAddr, err := f.anchorComment(replier, enclave, post, "reply")
	require.NoError(t, err)
	comment, ok := f.eng.Post(cAddr)
	require.True(t, ok)
	require.Equal(t, engine.EntryComment, comment.Kind)
	require.Equal(t, post, comment.ReplyTo)

	parent, _ := f.eng.Post(post)
	require.Equal(t, uint32(1), parent.CommentCount)

	// Replies nest: the comment is itself a valid parent.
	_, err = f.anchorComment(author, enclave, cAddr, "reply-to-reply")
	require.NoError(t, err)
	comment, _ = f.eng.Post(cAddr)
	require.Equal(t, uint32(1), comment.CommentCount)

	// Comments share the agent's entry counter with posts.
	agent, _ := f.eng.Agent(author.addr)
	require.Equal(t, uint32(2), agent.TotalEntries)
}

func TestAnchorCommentCrossEnclave(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	replier := f.newAgent("replier")
	enclave := f.newEnclave(author, "observatory")
	other := f.newEnclave(author, "annex")
	post := f.anchorPost(author, enclave, "root")

	// A parent anchored in a different enclave is not a valid target.
	_, err := f.anchorComment(replier, other, post, "reply")
	require.ErrorIs(t, err, engine.ErrInvalidReplyTarget)

	bogus := newWallet(t, f.eng, oneSOL)
	_, err = f.anchorComment(replier, enclave, bogus, "reply")
	require.ErrorIs(t, err, engine.ErrInvalidReplyTarget)
}

func TestCastVote(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	up := f.newAgent("up")
	down := f.newAgent("down")
	enclave := f.newEnclave(author, "observatory")
	post := f.anchorPost(author, enclave, "root")

	require.ErrorIs(t, f.castVote(up, post, 0), engine.ErrInvalidVoteValue)
	require.ErrorIs(t, f.castVote(up, post, 2), engine.ErrInvalidVoteValue)
	require.ErrorIs(t, f.castVote(author, post, 1), engine.ErrSelfVote)

	require.NoError(t, f.castVote(up, post, 1))
	require.NoError(t, f.castVote(down, post, -1))

	p, _ := f.eng.Post(post)
	require.Equal(t, uint32(1), p.Upvotes)
	require.Equal(t, uint32(1), p.Downvotes)
	agent, _ := f.eng.Agent(author.addr)
	require.Equal(t, int64(0), agent.ReputationScore)

	vote, ok := f.eng.Vote(post, up.addr)
	require.True(t, ok)
	require.Equal(t, int8(1), vote.Value)

	// One vote per voter per entry, in either direction.
	require.ErrorIs(t, f.castVote(up, post, 1), engine.ErrAccountExists)
	require.ErrorIs(t, f.castVote(up, post, -1), engine.ErrAccountExists)
}

func TestCastVoteAdjustsReputation(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	enclave := f.newEnclave(author, "observatory")
	post := f.anchorPost(author, enclave, "root")

	for i := 0; i < 3; i++ {
		voter := f.newAgent(fmt.Sprintf("voter-%d", i))
		require.NoError(t, f.castVote(voter, post, 1))
	}
	agent, _ := f.eng.Agent(author.addr)
	require.Equal(t, int64(3), agent.ReputationScore)
}

func TestSocialRequiresActiveParticipants(t *testing.T) {
	f := newFixture(t)
	author := f.newAgent("author")
	enclave := f.newEnclave(author, "observatory")
	post := f.anchorPost(author, enclave, "root")

	voter := f.newAgent("voter")
	require.NoError(t, f.eng.DeactivateAgent(voter.owner, voter.addr))
	require.ErrorIs(t, f.castVote(voter, post, 1), engine.ErrAgentInactive)

	require.NoError(t, f.eng.DeactivateAgent(author.owner, author.addr))
	content := hash32("content/late")
	manifest := hash32("manifest/late")
	msg := engine.BuildAgentMessage(engine.ActionAnchorPost, author.addr,
		engine.AnchorPostPayload(enclave, 1, content, manifest))
	_, err := f.eng.AnchorPost(signedBy(t, author.signer, msg), author.owner, author.addr, enclave, content, manifest)
	require.ErrorIs(t, err, engine.ErrAgentInactive)
}
