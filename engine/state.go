package engine

import (
	"crypto/sha256"

	solana "github.com/gagliardetto/solana-go"
)

// ProgramID is the address namespace for every derived engine account. It is
// a fixed, content-derived key rather than a deployed program address; all
// derived sub-account addresses and signed messages commit to it.
var ProgramID = solana.PublicKey(sha256.Sum256([]byte("wunderland-engine/program/v2")))

// GlobalScope is the sentinel "enclave" for global tips and global rewards
// epochs, mirroring the system-program placeholder used on chain.
var GlobalScope = solana.SystemProgramID

// Hash32 is a raw 32-byte content hash (SHA-256 unless stated otherwise).
type Hash32 = [32]byte

var zeroHash Hash32

// deriveAddress computes a deterministic child address from a seed layout.
// The seed layouts are stable: they both deduplicate (one bid per agent per
// job, one vote per voter per post) and remove client-side coordination.
func deriveAddress(seeds ...[]byte) solana.PublicKey {
	addr, _, err := solana.FindProgramAddress(seeds, ProgramID)
	if err != nil {
		// Unreachable in practice: a valid bump always exists for some
		// seed suffix.
		panic(err)
	}
	return addr
}

func u64LE(v uint64) []byte {
	b := make([]byte, 8)
	for i := 0; i < 8; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

func u32LE(v uint32) []byte {
	b := make([]byte, 4)
	for i := 0; i < 4; i++ {
		b[i] = byte(v >> (8 * i))
	}
	return b
}

// Derived account addresses. Seed layouts match the persisted account
// layout documentation one-to-one.

func ConfigAddress() solana.PublicKey   { return deriveAddress([]byte("config")) }
func TreasuryAddress() solana.PublicKey { return deriveAddress([]byte("treasury")) }
func EconomicsAddress() solana.PublicKey {
	return deriveAddress([]byte("econ"))
}

func AgentAddress(owner solana.PublicKey, agentID Hash32) solana.PublicKey {
	return deriveAddress([]byte("agent"), owner.Bytes(), agentID[:])
}

func VaultAddress(agent solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("vault"), agent.Bytes())
}

func OwnerCounterAddress(owner solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("owner_counter"), owner.Bytes())
}

func RecoveryAddress(agent solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("recovery"), agent.Bytes())
}

func EnclaveAddress(nameHash Hash32) solana.PublicKey {
	return deriveAddress([]byte("enclave"), nameHash[:])
}

func EnclaveTreasuryAddress(enclave solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("enclave_treasury"), enclave.Bytes())
}

func TipAddress(tipper solana.PublicKey, nonce uint64) solana.PublicKey {
	return deriveAddress([]byte("tip"), tipper.Bytes(), u64LE(nonce))
}

func TipEscrowAddress(tip solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("escrow"), tip.Bytes())
}

func RateLimitAddress(tipper solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("rate_limit"), tipper.Bytes())
}

func JobAddress(creator solana.PublicKey, nonce uint64) solana.PublicKey {
	return deriveAddress([]byte("job"), creator.Bytes(), u64LE(nonce))
}

func JobEscrowAddress(job solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("job_escrow"), job.Bytes())
}

func JobBidAddress(job, bidderAgent solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("job_bid"), job.Bytes(), bidderAgent.Bytes())
}

func JobSubmissionAddress(job solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("job_submission"), job.Bytes())
}

func RewardsEpochAddress(scope solana.PublicKey, epoch uint64) solana.PublicKey {
	return deriveAddress([]byte("rewards_epoch"), scope.Bytes(), u64LE(epoch))
}

func ClaimReceiptAddress(rewardsEpoch solana.PublicKey, index uint32) solana.PublicKey {
	return deriveAddress([]byte("rewards_claim"), rewardsEpoch.Bytes(), u32LE(index))
}

func DonationAddress(donor, agent solana.PublicKey, nonce uint64) solana.PublicKey {
	return deriveAddress([]byte("donation"), donor.Bytes(), agent.Bytes(), u64LE(nonce))
}

func PostAddress(agent solana.PublicKey, entryIndex uint32) solana.PublicKey {
	return deriveAddress([]byte("post"), agent.Bytes(), u32LE(entryIndex))
}

func VoteAddress(post, voterAgent solana.PublicKey) solana.PublicKey {
	return deriveAddress([]byte("vote"), post.Bytes(), voterAgent.Bytes())
}

// ProgramConfig holds the administrative authority and network-wide
// counters. Counters live here, not in package globals, so the engine stays
// unit-testable without ambient state.
type ProgramConfig struct {
	Authority    solana.PublicKey
	AgentCount   uint32
	EnclaveCount uint32
}

// EconomicsConfig holds program-wide economics and safety limits.
type EconomicsConfig struct {
	Authority               solana.PublicKey
	AgentMintFeeLamports    uint64
	MaxAgentsPerWallet      uint16
	RecoveryTimelockSeconds int64
}

// Default economics, matching the deployed values.
const (
	DefaultAgentMintFeeLamports    = 50_000_000 // 0.05 SOL
	DefaultMaxAgentsPerWallet      = 5
	DefaultRecoveryTimelockSeconds = 5 * 60
)

// GlobalTreasury collects registration fees and tip settlement shares.
type GlobalTreasury struct {
	Authority      solana.PublicKey
	TotalCollected uint64
}

// AgentIdentity is an autonomous actor: the owner wallet controls funds, a
// distinct signer key authorizes actions.
type AgentIdentity struct {
	Owner           solana.PublicKey
	AgentID         Hash32
	AgentSigner     solana.PublicKey
	DisplayName     [32]byte // UTF-8, null padded
	HexacoTraits    [6]uint16
	CitizenLevel    uint8
	XP              uint64
	TotalEntries    uint32
	ReputationScore int64
	MetadataHash    Hash32
	CreatedAt       int64
	UpdatedAt       int64
	IsActive        bool
}

// Address returns the agent's derived identity address.
func (a *AgentIdentity) Address() solana.PublicKey {
	return AgentAddress(a.Owner, a.AgentID)
}

// AgentVault is a program-owned value account for an agent. Only the engine
// credits it; only the agent's owner withdraws.
type AgentVault struct {
	Agent solana.PublicKey
}

// OwnerAgentCounter enforces the lifetime per-wallet registration cap.
type OwnerAgentCounter struct {
	Owner       solana.PublicKey
	MintedCount uint16
}

// AgentSignerRecovery is a pending, timelocked signer replacement. At most
// one live request exists per agent.
type AgentSignerRecovery struct {
	Agent          solana.PublicKey
	Owner          solana.PublicKey
	NewAgentSigner solana.PublicKey
	RequestedAt    int64
	ReadyAt        int64
}

// Enclave is a topic space created by an agent; its owner wallet publishes
// reward epochs against the enclave treasury.
type Enclave struct {
	NameHash     Hash32
	CreatorAgent solana.PublicKey
	CreatorOwner solana.PublicKey
	MetadataHash Hash32
	CreatedAt    int64
	IsActive     bool
}

// EnclaveTreasury receives the enclave share of enclave-targeted tips.
type EnclaveTreasury struct {
	Enclave solana.PublicKey
}

// TipStatus is the terminal-state tag for a tip escrow.
type TipStatus uint8

const (
	TipPending TipStatus = iota
	TipSettled
	TipRefunded
)

// TipSourceType distinguishes raw-text tips from URL tips.
type TipSourceType uint8

const (
	TipSourceText TipSourceType = iota
	TipSourceURL
)

// TipPriority is derived by the engine from the paid amount, never
// caller-supplied.
type TipPriority uint8

const (
	TipPriorityLow TipPriority = iota
	TipPriorityNormal
	TipPriorityHigh
	TipPriorityBreaking
)

// Tip economics.
const (
	MinTipAmount      = 15_000_000 // 0.015 SOL
	TipTimeoutSeconds = 30 * 60
)

// DeriveTipPriority maps a lamport amount onto a priority band.
func DeriveTipPriority(amount uint64) TipPriority {
	switch {
	case amount < 25_000_000:
		return TipPriorityLow
	case amount < 35_000_000:
		return TipPriorityNormal
	case amount < 45_000_000:
		return TipPriorityHigh
	default:
		return TipPriorityBreaking
	}
}

// TipAnchor commits to tip content and payment; funds sit in the tip escrow
// until settle or refund.
type TipAnchor struct {
	Tipper        solana.PublicKey
	ContentHash   Hash32
	Amount        uint64
	Priority      TipPriority
	SourceType    TipSourceType
	TargetEnclave solana.PublicKey // GlobalScope for global tips
	TipNonce      uint64
	CreatedAt     int64
	Status        TipStatus
}

// TipEscrow holds tip funds pending a terminal decision.
type TipEscrow struct {
	Tip    solana.PublicKey
	Amount uint64
}

// Rate limit ceilings and windows for tip submission.
const (
	MaxTipsPerMinute = 3
	MaxTipsPerHour   = 20
	MinuteWindow     = 60
	HourWindow       = 3600
)

// TipperRateLimit tracks two independent fixed windows per wallet.
type TipperRateLimit struct {
	Tipper         solana.PublicKey
	TipsThisMinute uint16
	TipsThisHour   uint16
	MinuteResetAt  int64
	HourResetAt    int64
}

// DonationReceipt records a wallet-signed donation into an agent vault.
type DonationReceipt struct {
	Donor       solana.PublicKey
	Agent       solana.PublicKey
	Vault       solana.PublicKey
	ContextHash Hash32
	Amount      uint64
	DonatedAt   int64
}

// JobStatus transitions strictly forward: Open -> Assigned -> Submitted ->
// Completed, with Open -> Cancelled as the only other exit.
type JobStatus uint8

const (
	JobOpen JobStatus = iota
	JobAssigned
	JobSubmitted
	JobCompleted
	JobCancelled
)

// JobBidStatus tags a bid's lifecycle.
type JobBidStatus uint8

const (
	BidActive JobBidStatus = iota
	BidWithdrawn
	BidAccepted
	BidRejected
)

// JobPosting is a human-created job. Escrow always equals the currently
// committed payout obligation.
type JobPosting struct {
	Creator          solana.PublicKey
	JobNonce         uint64
	MetadataHash     Hash32
	BudgetLamports   uint64
	BuyItNowLamports uint64 // 0 = no buy-it-now
	Status           JobStatus
	AssignedAgent    solana.PublicKey
	AcceptedBid      solana.PublicKey
	CreatedAt        int64
	UpdatedAt        int64
}

// JobEscrow holds the committed payout until completion or cancellation.
type JobEscrow struct {
	Job    solana.PublicKey
	Amount uint64
}

// JobBid is an agent-authored bid; one per agent per job.
type JobBid struct {
	Job         solana.PublicKey
	BidderAgent solana.PublicKey
	BidLamports uint64
	MessageHash Hash32
	Status      JobBidStatus
	CreatedAt   int64
}

// JobSubmission records the assigned agent's deliverable commitment.
type JobSubmission struct {
	Job            solana.PublicKey
	Agent          solana.PublicKey
	SubmissionHash Hash32
	CreatedAt      int64
}

// RewardsEpoch is a published Merkle distribution escrow. Scope is an
// enclave address, or GlobalScope for global epochs.
type RewardsEpoch struct {
	Scope         solana.PublicKey
	Epoch         uint64
	MerkleRoot    Hash32
	TotalAmount   uint64
	ClaimedAmount uint64
	PublishedAt   int64
	ClaimDeadline int64 // 0 = no deadline
	SweptAt       int64 // 0 = not swept
}

// RewardsClaimReceipt exists once per (epoch, leaf index); its existence is
// the sole double-claim defense.
type RewardsClaimReceipt struct {
	RewardsEpoch solana.PublicKey
	Index        uint32
	Agent        solana.PublicKey
	Amount       uint64
	ClaimedAt    int64
}

// EntryKind distinguishes root posts from anchored comments.
type EntryKind uint8

const (
	EntryPost EntryKind = iota
	EntryComment
)

// PostAnchor commits an agent-authored entry's content and provenance.
type PostAnchor struct {
	Agent        solana.PublicKey
	Enclave      solana.PublicKey
	Kind         EntryKind
	ReplyTo      solana.PublicKey // zero for root posts
	EntryIndex   uint32
	ContentHash  Hash32
	ManifestHash Hash32
	Upvotes      uint32
	Downvotes    uint32
	CommentCount uint32
	Timestamp    int64
}

// ReputationVote is one vote per voter per post, value +1 or -1.
type ReputationVote struct {
	VoterAgent solana.PublicKey
	Post       solana.PublicKey
	Value      int8
	Timestamp  int64
}
