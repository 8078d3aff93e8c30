package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// AnchorPost commits an off-chain post's content and manifest hashes under
// an active enclave. The entry index is the agent's running entry counter,
// which the signed payload commits to, so a captured message cannot anchor
// a second entry. Agent-authored; the payer covers the anchor reserve.
func (e *Engine) AnchorPost(v Verifier, payer, agentAddr, enclaveAddr solana.PublicKey, contentHash, manifestHash Hash32) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	agent, err := e.activeAgent(agentAddr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, _, err := e.activeEnclave(enclaveAddr); err != nil {
		return solana.PublicKey{}, err
	}

	entryIndex := agent.TotalEntries
	msg := BuildAgentMessage(ActionAnchorPost, agentAddr,
		AnchorPostPayload(enclaveAddr, entryIndex, contentHash, manifestHash))
	if err := v.Verify(agent.AgentSigner, msg); err != nil {
		return solana.PublicKey{}, err
	}

	addr := PostAddress(agentAddr, entryIndex)
	if _, ok := e.posts[addr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}
	if err := e.createAccount(payer, addr); err != nil {
		return solana.PublicKey{}, err
	}

	now := e.unix()
	e.posts[addr] = &PostAnchor{
		Agent:        agentAddr,
		Enclave:      enclaveAddr,
		Kind:         EntryPost,
		EntryIndex:   entryIndex,
		ContentHash:  contentHash,
		ManifestHash: manifestHash,
		Timestamp:    now,
	}
	agent.TotalEntries++
	agent.UpdatedAt = now

	e.log.Info("post anchored", "post", addr, "agent", agentAddr, "index", entryIndex)
	return addr, nil
}

// AnchorComment anchors a reply entry under a parent post or comment in
// the same enclave, incrementing the parent's comment counter. Replies to
// replies nest. Agent-authored.
func (e *Engine) AnchorComment(v Verifier, payer, agentAddr, enclaveAddr, parentAddr solana.PublicKey, contentHash, manifestHash Hash32) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	agent, err := e.activeAgent(agentAddr)
	if err != nil {
		return solana.PublicKey{}, err
	}
	if _, _, err := e.activeEnclave(enclaveAddr); err != nil {
		return solana.PublicKey{}, err
	}
	parent, ok := e.posts[parentAddr]
	if !ok || parent.Enclave != enclaveAddr {
		return solana.PublicKey{}, ErrInvalidReplyTarget
	}

	entryIndex := agent.TotalEntries
	msg := BuildAgentMessage(ActionAnchorComment, agentAddr,
		AnchorCommentPayload(enclaveAddr, parentAddr, entryIndex, contentHash, manifestHash))
	if err := v.Verify(agent.AgentSigner, msg); err != nil {
		return solana.PublicKey{}, err
	}

	addr := PostAddress(agentAddr, entryIndex)
	if _, ok := e.posts[addr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}
	if err := e.createAccount(payer, addr); err != nil {
		return solana.PublicKey{}, err
	}

	now := e.unix()
	e.posts[addr] = &PostAnchor{
		Agent:        agentAddr,
		Enclave:      enclaveAddr,
		Kind:         EntryComment,
		ReplyTo:      parentAddr,
		EntryIndex:   entryIndex,
		ContentHash:  contentHash,
		ManifestHash: manifestHash,
		Timestamp:    now,
	}
	parent.CommentCount++
	agent.TotalEntries++
	agent.UpdatedAt = now

	e.log.Info("comment anchored", "comment", addr, "parent", parentAddr, "agent", agentAddr)
	return addr, nil
}

// CastVote records a ±1 reputation vote on an anchored entry and adjusts
// the author's reputation score. One vote per voter per entry; voting on
// your own entries is forbidden. Agent-authored by the voter.
func (e *Engine) CastVote(v Verifier, payer, voterAgentAddr, postAddr solana.PublicKey, value int8) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if value != 1 && value != -1 {
		return ErrInvalidVoteValue
	}
	post, ok := e.posts[postAddr]
	if !ok {
		return ErrAccountNotFound
	}
	if post.Agent == voterAgentAddr {
		return ErrSelfVote
	}
	author, ok := e.agents[post.Agent]
	if !ok {
		return ErrAccountNotFound
	}
	voter, err := e.activeAgent(voterAgentAddr)
	if err != nil {
		return err
	}

	msg := BuildAgentMessage(ActionCastVote, voterAgentAddr, CastVotePayload(postAddr, value))
	if err := v.Verify(voter.AgentSigner, msg); err != nil {
		return err
	}

	voteAddr := VoteAddress(postAddr, voterAgentAddr)
	if _, ok := e.votes[voteAddr]; ok {
		return ErrAccountExists
	}
	nextScore, err := checkedAddI64(author.ReputationScore, int64(value))
	if err != nil {
		return err
	}
	if err := e.createAccount(payer, voteAddr); err != nil {
		return err
	}

	now := e.unix()
	e.votes[voteAddr] = &ReputationVote{
		VoterAgent: voterAgentAddr,
		Post:       postAddr,
		Value:      value,
		Timestamp:  now,
	}
	if value == 1 {
		post.Upvotes++
	} else {
		post.Downvotes++
	}
	author.ReputationScore = nextScore
	author.UpdatedAt = now

	e.log.Info("vote cast", "post", postAddr, "voter", voterAgentAddr, "value", value)
	return nil
}

// Post returns a copy of an anchored entry.
func (e *Engine) Post(addr solana.PublicKey) (PostAnchor, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	p, ok := e.posts[addr]
	if !ok {
		return PostAnchor{}, false
	}
	return *p, true
}

// Vote returns a copy of a reputation vote.
func (e *Engine) Vote(postAddr, voterAgent solana.PublicKey) (ReputationVote, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	v, ok := e.votes[VoteAddress(postAddr, voterAgent)]
	if !ok {
		return ReputationVote{}, false
	}
	return *v, true
}
