package engine

import "errors"

// Categorical errors. A failed action aborts entirely; the caller corrects
// and resubmits. Nothing here is retried or coalesced inside the engine.
var (
	// Authorization
	ErrUnauthorizedAuthority    = errors.New("unauthorized authority")
	ErrUnauthorizedOwner        = errors.New("unauthorized owner")
	ErrUnauthorizedEnclaveOwner = errors.New("unauthorized enclave owner")
	ErrUnauthorizedJobCreator   = errors.New("unauthorized job creator")
	ErrUnauthorizedJobAgent     = errors.New("unauthorized job agent")
	ErrAgentSignerEqualsOwner   = errors.New("agent signer must be distinct from owner wallet")

	// Signature verification adapter
	ErrMissingVerificationInstruction = errors.New("missing signature verification instruction")
	ErrInvalidVerificationInstruction = errors.New("invalid signature verification instruction")
	ErrPublicKeyMismatch              = errors.New("signed payload public key mismatch")
	ErrMessageMismatch                = errors.New("signed payload message mismatch")

	// State preconditions
	ErrAccountExists        = errors.New("account already exists")
	ErrAccountNotFound      = errors.New("account not found")
	ErrAgentInactive        = errors.New("agent is not active")
	ErrAgentAlreadyActive   = errors.New("agent is already active")
	ErrAgentAlreadyInactive = errors.New("agent is already inactive")
	ErrEnclaveInactive      = errors.New("enclave is not active")
	ErrTipNotPending        = errors.New("tip is not in pending status")
	ErrJobNotOpen           = errors.New("job is not open")
	ErrJobNotAssigned       = errors.New("job is not assigned")
	ErrJobNotSubmitted      = errors.New("job is not submitted")
	ErrBidNotActive         = errors.New("bid is not active")
	ErrBidNotAccepted       = errors.New("bid is not accepted")
	ErrInvalidJobBid        = errors.New("invalid job bid")
	ErrSelfVote             = errors.New("cannot vote on your own post")
	ErrInvalidVoteValue     = errors.New("vote value must be +1 or -1")
	ErrInvalidReplyTarget   = errors.New("invalid reply target")
	ErrRecoveryNoOp         = errors.New("recovery request is a no-op")

	// Economic
	ErrInvalidAmount               = errors.New("invalid amount")
	ErrInsufficientFunds           = errors.New("insufficient funds")
	ErrTipBelowMinimum             = errors.New("tip amount is below minimum")
	ErrEscrowAmountMismatch        = errors.New("escrow amount mismatch")
	ErrInsufficientEscrowBalance   = errors.New("insufficient escrow balance")
	ErrInsufficientVaultBalance    = errors.New("insufficient vault balance")
	ErrInsufficientTreasuryBalance = errors.New("insufficient treasury balance")
	ErrInsufficientRewardsBalance  = errors.New("insufficient rewards balance")
	ErrMaxAgentsPerWalletExceeded  = errors.New("max agents per wallet exceeded")
	ErrEmptyDisplayName            = errors.New("display name cannot be empty")
	ErrEmptyEnclaveNameHash        = errors.New("enclave name hash cannot be empty")
	ErrInvalidTargetEnclave        = errors.New("invalid target enclave")
	ErrInvalidEnclaveTreasury      = errors.New("invalid enclave treasury")
	ErrInvalidAgentVault           = errors.New("invalid agent vault")
	ErrInvalidJobEscrow            = errors.New("invalid job escrow")

	// Arithmetic
	ErrArithmeticOverflow = errors.New("arithmetic overflow")

	// Proof / data integrity
	ErrBadAccountData     = errors.New("malformed account data")
	ErrInvalidMerkleRoot  = errors.New("invalid merkle root")
	ErrInvalidMerkleProof = errors.New("invalid merkle proof")
	ErrMerkleProofTooLong = errors.New("merkle proof too long")

	// Rate / time
	ErrRateLimitMinuteExceeded = errors.New("rate limit exceeded: max tips per minute")
	ErrRateLimitHourExceeded   = errors.New("rate limit exceeded: max tips per hour")
	ErrTipNotTimedOut          = errors.New("tip has not timed out yet")
	ErrRecoveryNotReady        = errors.New("recovery timelock has not elapsed yet")
	ErrClaimWindowClosed       = errors.New("claim window is closed")
	ErrClaimWindowOpen         = errors.New("claim window is still open")
	ErrRewardsEpochNoDeadline  = errors.New("rewards epoch has no claim deadline")
	ErrRewardsEpochSwept       = errors.New("rewards epoch already swept")
	ErrInvalidRewardsEpoch     = errors.New("invalid rewards epoch")
)
