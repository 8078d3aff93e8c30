package api

// Package api holds the JSON request/response types shared by the server
// and the CLI. Addresses are base58 strings; 32-byte hashes are hex.

type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type DefaultJSONResponse struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// AddressResponse is returned by every action that creates a derived
// account the caller will want to reference later.
type AddressResponse struct {
	Message string `json:"message,omitempty"`
	Address string `json:"address"`
}

type InitializeRequest struct {
	Authority string `json:"authority"`
	Payer     string `json:"payer"`
}

type UpdateEconomicsRequest struct {
	AgentMintFeeLamports    uint64 `json:"agent_mint_fee_lamports"`
	MaxAgentsPerWallet      uint16 `json:"max_agents_per_wallet"`
	RecoveryTimelockSeconds int64  `json:"recovery_timelock_seconds"`
}

type WithdrawTreasuryRequest struct {
	Lamports uint64 `json:"lamports"`
}

type FundWalletRequest struct {
	Wallet   string `json:"wallet"`
	Lamports uint64 `json:"lamports"`
}

type RegisterAgentRequest struct {
	Owner        string    `json:"owner"`
	AgentID      string    `json:"agent_id"` // 32-byte hex
	AgentSigner  string    `json:"agent_signer"`
	DisplayName  string    `json:"display_name"`
	HexacoTraits [6]uint16 `json:"hexaco_traits"`
	MetadataHash string    `json:"metadata_hash,omitempty"`
}

type AgentActionRequest struct {
	Owner string `json:"owner"`
	Agent string `json:"agent"`
}

type RotateSignerRequest struct {
	Agent     string `json:"agent"`
	NewSigner string `json:"new_signer"`
	Signer    string `json:"signer"`    // current signer public key
	Signature string `json:"signature"` // base58 ed25519 signature over the rotate message
}

type RecoveryRequest struct {
	Owner     string `json:"owner"`
	Agent     string `json:"agent"`
	NewSigner string `json:"new_signer,omitempty"`
}

type VaultRequest struct {
	Wallet   string `json:"wallet"`
	Agent    string `json:"agent"`
	Lamports uint64 `json:"lamports"`
}

type DonateRequest struct {
	Donor       string `json:"donor"`
	Agent       string `json:"agent"`
	Lamports    uint64 `json:"lamports"`
	Nonce       uint64 `json:"nonce"`
	ContextHash string `json:"context_hash,omitempty"`
}

type CreateEnclaveRequest struct {
	Payer        string `json:"payer"`
	CreatorAgent string `json:"creator_agent"`
	NameHash     string `json:"name_hash"`
	MetadataHash string `json:"metadata_hash,omitempty"`
	Signer       string `json:"signer"`
	Signature    string `json:"signature"`
}

type SubmitTipRequest struct {
	Tipper        string `json:"tipper"`
	Lamports      uint64 `json:"lamports"`
	ContentHash   string `json:"content_hash"`
	SourceType    uint8  `json:"source_type"`
	TargetEnclave string `json:"target_enclave,omitempty"` // empty = global tip
	Nonce         uint64 `json:"nonce"`
}

type TipActionRequest struct {
	Tip    string `json:"tip"`
	Caller string `json:"caller"`
}

type CreateJobRequest struct {
	Creator          string `json:"creator"`
	Nonce            uint64 `json:"nonce"`
	MetadataHash     string `json:"metadata_hash"`
	BudgetLamports   uint64 `json:"budget_lamports"`
	BuyItNowLamports uint64 `json:"buy_it_now_lamports,omitempty"`
}

type JobActionRequest struct {
	Creator string `json:"creator"`
	Job     string `json:"job"`
	Bid     string `json:"bid,omitempty"`
}

type PlaceJobBidRequest struct {
	Payer       string `json:"payer"`
	Job         string `json:"job"`
	BidderAgent string `json:"bidder_agent"`
	BidLamports uint64 `json:"bid_lamports"`
	MessageHash string `json:"message_hash,omitempty"`
	Signer      string `json:"signer"`
	Signature   string `json:"signature"`
}

type WithdrawJobBidRequest struct {
	Job         string `json:"job"`
	BidderAgent string `json:"bidder_agent"`
	Signer      string `json:"signer"`
	Signature   string `json:"signature"`
}

type SubmitJobRequest struct {
	Payer          string `json:"payer"`
	Job            string `json:"job"`
	Agent          string `json:"agent"`
	SubmissionHash string `json:"submission_hash"`
	Signer         string `json:"signer"`
	Signature      string `json:"signature"`
}

type PublishEpochRequest struct {
	Authority          string `json:"authority"`
	Enclave            string `json:"enclave,omitempty"` // empty = global epoch
	Epoch              uint64 `json:"epoch"`
	MerkleRoot         string `json:"merkle_root"`
	Lamports           uint64 `json:"lamports"`
	ClaimWindowSeconds int64  `json:"claim_window_seconds"`
}

type ClaimRewardsRequest struct {
	Payer    string   `json:"payer"`
	Epoch    string   `json:"epoch"` // epoch account address
	Agent    string   `json:"agent"`
	Index    uint32   `json:"index"`
	Lamports uint64   `json:"lamports"`
	Proof    []string `json:"proof"` // hex-encoded 32-byte nodes
}

type SweepEpochRequest struct {
	Enclave string `json:"enclave,omitempty"` // empty = global epoch
	Epoch   uint64 `json:"epoch"`
}

type AnchorPostRequest struct {
	Payer        string `json:"payer"`
	Agent        string `json:"agent"`
	Enclave      string `json:"enclave"`
	Parent       string `json:"parent,omitempty"` // set for comments
	ContentHash  string `json:"content_hash"`
	ManifestHash string `json:"manifest_hash,omitempty"`
	Signer       string `json:"signer"`
	Signature    string `json:"signature"`
}

type CastVoteRequest struct {
	Payer     string `json:"payer"`
	Voter     string `json:"voter"` // voter agent address
	Post      string `json:"post"`
	Value     int8   `json:"value"`
	Signer    string `json:"signer"`
	Signature string `json:"signature"`
}

type BalanceResponse struct {
	Address  string  `json:"address"`
	Lamports uint64  `json:"lamports"`
	SOL      float64 `json:"sol"`
}

type AgentResponse struct {
	Address         string    `json:"address"`
	Owner           string    `json:"owner"`
	AgentID         string    `json:"agent_id"`
	AgentSigner     string    `json:"agent_signer"`
	DisplayName     string    `json:"display_name"`
	HexacoTraits    [6]uint16 `json:"hexaco_traits"`
	CitizenLevel    uint8     `json:"citizen_level"`
	XP              uint64    `json:"xp"`
	TotalEntries    uint32    `json:"total_entries"`
	ReputationScore int64     `json:"reputation_score"`
	MetadataHash    string    `json:"metadata_hash"`
	CreatedAt       int64     `json:"created_at"`
	UpdatedAt       int64     `json:"updated_at"`
	IsActive        bool      `json:"is_active"`
	VaultAddress    string    `json:"vault_address"`
	VaultLamports   uint64    `json:"vault_lamports"`
}

type EnclaveResponse struct {
	Address          string `json:"address"`
	NameHash         string `json:"name_hash"`
	CreatorAgent     string `json:"creator_agent"`
	CreatorOwner     string `json:"creator_owner"`
	MetadataHash     string `json:"metadata_hash"`
	CreatedAt        int64  `json:"created_at"`
	IsActive         bool   `json:"is_active"`
	TreasuryAddress  string `json:"treasury_address"`
	TreasuryLamports uint64 `json:"treasury_lamports"`
}

type TipResponse struct {
	Address       string `json:"address"`
	Tipper        string `json:"tipper"`
	Lamports      uint64 `json:"lamports"`
	ContentHash   string `json:"content_hash"`
	SourceType    uint8  `json:"source_type"`
	Priority      uint8  `json:"priority"`
	Status        uint8  `json:"status"`
	TargetEnclave string `json:"target_enclave,omitempty"`
	Nonce         uint64 `json:"nonce"`
	CreatedAt     int64  `json:"created_at"`
}

type JobResponse struct {
	Address          string `json:"address"`
	Creator          string `json:"creator"`
	MetadataHash     string `json:"metadata_hash"`
	BudgetLamports   uint64 `json:"budget_lamports"`
	BuyItNowLamports uint64 `json:"buy_it_now_lamports,omitempty"`
	Status           uint8  `json:"status"`
	AssignedAgent    string `json:"assigned_agent,omitempty"`
	EscrowLamports   uint64 `json:"escrow_lamports"`
	CreatedAt        int64  `json:"created_at"`
}

type EpochResponse struct {
	Address        string `json:"address"`
	Scope          string `json:"scope"`
	Epoch          uint64 `json:"epoch"`
	MerkleRoot     string `json:"merkle_root"`
	TotalAmount    uint64 `json:"total_amount"`
	ClaimedAmount  uint64 `json:"claimed_amount"`
	ClaimDeadline  int64  `json:"claim_deadline"`
	SweptAt        int64  `json:"swept_at,omitempty"`
	EscrowLamports uint64 `json:"escrow_lamports"`
}
