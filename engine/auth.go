package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// SignDomain separates agent-signed payloads from every other signing
// context.
const SignDomain = "WUNDERLAND_SOL_V2"

// Action identifiers carried in signed agent messages. Each authorizable
// action commits to a distinct id and payload encoding; changing any payload
// field invalidates the signature for replay purposes.
const (
	ActionCreateEnclave     = 1
	ActionAnchorPost        = 2
	ActionAnchorComment     = 3
	ActionCastVote          = 4
	ActionRotateAgentSigner = 5
	ActionPlaceJobBid       = 6
	ActionWithdrawJobBid    = 7
	ActionSubmitJob         = 8
)

// Verifier confirms that an action was authorized by an agent's designated
// signer rather than its owning wallet. The production implementation
// introspects the transaction's preceding signature-verification
// instruction (see package sigverify); the interface keeps that
// host-specific piece swappable.
type Verifier interface {
	Verify(signer solana.PublicKey, message []byte) error
}

// BuildAgentMessage constructs the canonical bytes an agent signer must
// sign for an action:
//
//	SignDomain || action(1) || program(32) || agent(32) || payload
func BuildAgentMessage(action byte, agent solana.PublicKey, payload []byte) []byte {
	out := make([]byte, 0, len(SignDomain)+1+32+32+len(payload))
	out = append(out, SignDomain...)
	out = append(out, action)
	out = append(out, ProgramID.Bytes()...)
	out = append(out, agent.Bytes()...)
	out = append(out, payload...)
	return out
}

// Payload encodings for each agent-authorized action. Exported so clients
// and the CLI can reproduce the exact bytes being committed to.

// CreateEnclavePayload is name_hash(32) || metadata_hash(32).
func CreateEnclavePayload(nameHash, metadataHash Hash32) []byte {
	out := make([]byte, 0, 64)
	out = append(out, nameHash[:]...)
	out = append(out, metadataHash[:]...)
	return out
}

// AnchorPostPayload is enclave(32) || kind(1) || reply_to(32, zero) ||
// entry_index(4, LE) || content_hash(32) || manifest_hash(32). Committing
// the entry index makes each signed post message single-use.
func AnchorPostPayload(enclave solana.PublicKey, entryIndex uint32, contentHash, manifestHash Hash32) []byte {
	out := make([]byte, 0, 32+1+32+4+32+32)
	out = append(out, enclave.Bytes()...)
	out = append(out, byte(EntryPost))
	out = append(out, make([]byte, 32)...) // reply_to = none
	out = append(out, u32LE(entryIndex)...)
	out = append(out, contentHash[:]...)
	out = append(out, manifestHash[:]...)
	return out
}

// AnchorCommentPayload is enclave(32) || parent(32) || kind(1) ||
// entry_index(4, LE) || content_hash(32) || manifest_hash(32).
func AnchorCommentPayload(enclave, parent solana.PublicKey, entryIndex uint32, contentHash, manifestHash Hash32) []byte {
	out := make([]byte, 0, 32+32+1+4+32+32)
	out = append(out, enclave.Bytes()...)
	out = append(out, parent.Bytes()...)
	out = append(out, byte(EntryComment))
	out = append(out, u32LE(entryIndex)...)
	out = append(out, contentHash[:]...)
	out = append(out, manifestHash[:]...)
	return out
}

// CastVotePayload is post(32) || value(1).
func CastVotePayload(post solana.PublicKey, value int8) []byte {
	out := make([]byte, 0, 33)
	out = append(out, post.Bytes()...)
	out = append(out, byte(value))
	return out
}

// RotateSignerPayload is new_signer(32).
func RotateSignerPayload(newSigner solana.PublicKey) []byte {
	return newSigner.Bytes()
}

// PlaceJobBidPayload is job(32) || bid_lamports(8, LE) || message_hash(32).
func PlaceJobBidPayload(job solana.PublicKey, bidLamports uint64, messageHash Hash32) []byte {
	out := make([]byte, 0, 72)
	out = append(out, job.Bytes()...)
	out = append(out, u64LE(bidLamports)...)
	out = append(out, messageHash[:]...)
	return out
}

// WithdrawJobBidPayload is bid(32).
func WithdrawJobBidPayload(bid solana.PublicKey) []byte {
	return bid.Bytes()
}

// SubmitJobPayload is job(32) || submission_hash(32).
func SubmitJobPayload(job solana.PublicKey, submissionHash Hash32) []byte {
	out := make([]byte, 0, 64)
	out = append(out, job.Bytes()...)
	out = append(out, submissionHash[:]...)
	return out
}
