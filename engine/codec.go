package engine

import (
	"encoding/binary"
	"fmt"

	solana "github.com/gagliardetto/solana-go"
)

// Binary account layouts. Every persisted entity encodes to a fixed-size
// buffer with a one-byte type tag up front; all multi-byte integers are
// little-endian, all 32-byte fields are raw addresses or hashes. The tag
// doubles as a version discriminator: a layout change gets a new tag.

type accountTag byte

const (
	tagProgramConfig accountTag = iota + 1
	tagEconomicsConfig
	tagGlobalTreasury
	tagAgentIdentity
	tagAgentVault
	tagOwnerAgentCounter
	tagAgentSignerRecovery
	tagEnclave
	tagEnclaveTreasury
	tagTipAnchor
	tagTipEscrow
	tagTipperRateLimit
	tagDonationReceipt
	tagJobPosting
	tagJobEscrow
	tagJobBid
	tagJobSubmission
	tagRewardsEpoch
	tagRewardsClaimReceipt
	tagPostAnchor
	tagReputationVote
)

// Encoded sizes, tag byte included.
const (
	programConfigLen       = 1 + 32 + 4 + 4
	economicsConfigLen     = 1 + 32 + 8 + 2 + 8
	globalTreasuryLen      = 1 + 32 + 8
	agentIdentityLen       = 1 + 32 + 32 + 32 + 32 + 12 + 1 + 8 + 4 + 8 + 32 + 8 + 8 + 1
	agentVaultLen          = 1 + 32
	ownerAgentCounterLen   = 1 + 32 + 2
	agentSignerRecoveryLen = 1 + 32 + 32 + 32 + 8 + 8
	enclaveLen             = 1 + 32 + 32 + 32 + 32 + 8 + 1
	enclaveTreasuryLen     = 1 + 32
	tipAnchorLen           = 1 + 32 + 32 + 8 + 1 + 1 + 32 + 8 + 8 + 1
	tipEscrowLen           = 1 + 32 + 8
	tipperRateLimitLen     = 1 + 32 + 2 + 2 + 8 + 8
	donationReceiptLen     = 1 + 32 + 32 + 32 + 32 + 8 + 8
	jobPostingLen          = 1 + 32 + 8 + 32 + 8 + 8 + 1 + 32 + 32 + 8 + 8
	jobEscrowLen           = 1 + 32 + 8
	jobBidLen              = 1 + 32 + 32 + 8 + 32 + 1 + 8
	jobSubmissionLen       = 1 + 32 + 32 + 32 + 8
	rewardsEpochLen        = 1 + 32 + 8 + 32 + 8 + 8 + 8 + 8 + 8
	rewardsClaimReceiptLen = 1 + 32 + 4 + 32 + 8 + 8
	postAnchorLen          = 1 + 32 + 32 + 1 + 32 + 4 + 32 + 32 + 4 + 4 + 4 + 8
	reputationVoteLen      = 1 + 32 + 32 + 1 + 8
)

type accountWriter struct {
	buf []byte
}

func newAccountWriter(tag accountTag, size int) *accountWriter {
	w := &accountWriter{buf: make([]byte, 0, size)}
	w.buf = append(w.buf, byte(tag))
	return w
}

func (w *accountWriter) pub(p solana.PublicKey) { w.buf = append(w.buf, p.Bytes()...) }
func (w *accountWriter) hash(h Hash32)          { w.buf = append(w.buf, h[:]...) }
func (w *accountWriter) u8(v uint8)             { w.buf = append(w.buf, v) }
func (w *accountWriter) u16(v uint16)           { w.buf = binary.LittleEndian.AppendUint16(w.buf, v) }
func (w *accountWriter) u32(v uint32)           { w.buf = binary.LittleEndian.AppendUint32(w.buf, v) }
func (w *accountWriter) u64(v uint64)           { w.buf = binary.LittleEndian.AppendUint64(w.buf, v) }
func (w *accountWriter) i64(v int64)            { w.u64(uint64(v)) }
func (w *accountWriter) i8(v int8)              { w.buf = append(w.buf, byte(v)) }

func (w *accountWriter) boolean(v bool) {
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
}

type accountReader struct {
	buf []byte
	off int
}

// newAccountReader validates the tag and the exact encoded length before
// any field reads, so the field readers never run off the end.
func newAccountReader(data []byte, tag accountTag, size int) (*accountReader, error) {
	if len(data) != size {
		return nil, fmt.Errorf("%w: want %d bytes, got %d", ErrBadAccountData, size, len(data))
	}
	if accountTag(data[0]) != tag {
		return nil, fmt.Errorf("%w: want tag %d, got %d", ErrBadAccountData, tag, data[0])
	}
	return &accountReader{buf: data, off: 1}, nil
}

func (r *accountReader) take(n int) []byte {
	b := r.buf[r.off : r.off+n]
	r.off += n
	return b
}

func (r *accountReader) pub() solana.PublicKey { return solana.PublicKeyFromBytes(r.take(32)) }
func (r *accountReader) u8() uint8             { return r.take(1)[0] }
func (r *accountReader) u16() uint16           { return binary.LittleEndian.Uint16(r.take(2)) }
func (r *accountReader) u32() uint32           { return binary.LittleEndian.Uint32(r.take(4)) }
func (r *accountReader) u64() uint64           { return binary.LittleEndian.Uint64(r.take(8)) }
func (r *accountReader) i64() int64            { return int64(r.u64()) }
func (r *accountReader) i8() int8              { return int8(r.take(1)[0]) }
func (r *accountReader) boolean() bool         { return r.take(1)[0] != 0 }

func (r *accountReader) hash() Hash32 {
	var h Hash32
	copy(h[:], r.take(32))
	return h
}

func (c ProgramConfig) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagProgramConfig, programConfigLen)
	w.pub(c.Authority)
	w.u32(c.AgentCount)
	w.u32(c.EnclaveCount)
	return w.buf, nil
}

func (c *ProgramConfig) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagProgramConfig, programConfigLen)
	if err != nil {
		return err
	}
	c.Authority = r.pub()
	c.AgentCount = r.u32()
	c.EnclaveCount = r.u32()
	return nil
}

func (c EconomicsConfig) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagEconomicsConfig, economicsConfigLen)
	w.pub(c.Authority)
	w.u64(c.AgentMintFeeLamports)
	w.u16(c.MaxAgentsPerWallet)
	w.i64(c.RecoveryTimelockSeconds)
	return w.buf, nil
}

func (c *EconomicsConfig) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagEconomicsConfig, economicsConfigLen)
	if err != nil {
		return err
	}
	c.Authority = r.pub()
	c.AgentMintFeeLamports = r.u64()
	c.MaxAgentsPerWallet = r.u16()
	c.RecoveryTimelockSeconds = r.i64()
	return nil
}

func (t GlobalTreasury) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagGlobalTreasury, globalTreasuryLen)
	w.pub(t.Authority)
	w.u64(t.TotalCollected)
	return w.buf, nil
}

func (t *GlobalTreasury) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagGlobalTreasury, globalTreasuryLen)
	if err != nil {
		return err
	}
	t.Authority = r.pub()
	t.TotalCollected = r.u64()
	return nil
}

func (a AgentIdentity) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagAgentIdentity, agentIdentityLen)
	w.pub(a.Owner)
	w.hash(a.AgentID)
	w.pub(a.AgentSigner)
	w.hash(a.DisplayName)
	for _, trait := range a.HexacoTraits {
		w.u16(trait)
	}
	w.u8(a.CitizenLevel)
	w.u64(a.XP)
	w.u32(a.TotalEntries)
	w.i64(a.ReputationScore)
	w.hash(a.MetadataHash)
	w.i64(a.CreatedAt)
	w.i64(a.UpdatedAt)
	w.boolean(a.IsActive)
	return w.buf, nil
}

func (a *AgentIdentity) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagAgentIdentity, agentIdentityLen)
	if err != nil {
		return err
	}
	a.Owner = r.pub()
	a.AgentID = r.hash()
	a.AgentSigner = r.pub()
	a.DisplayName = r.hash()
	for i := range a.HexacoTraits {
		a.HexacoTraits[i] = r.u16()
	}
	a.CitizenLevel = r.u8()
	a.XP = r.u64()
	a.TotalEntries = r.u32()
	a.ReputationScore = r.i64()
	a.MetadataHash = r.hash()
	a.CreatedAt = r.i64()
	a.UpdatedAt = r.i64()
	a.IsActive = r.boolean()
	return nil
}

func (v AgentVault) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagAgentVault, agentVaultLen)
	w.pub(v.Agent)
	return w.buf, nil
}

func (v *AgentVault) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagAgentVault, agentVaultLen)
	if err != nil {
		return err
	}
	v.Agent = r.pub()
	return nil
}

func (c OwnerAgentCounter) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagOwnerAgentCounter, ownerAgentCounterLen)
	w.pub(c.Owner)
	w.u16(c.MintedCount)
	return w.buf, nil
}

func (c *OwnerAgentCounter) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagOwnerAgentCounter, ownerAgentCounterLen)
	if err != nil {
		return err
	}
	c.Owner = r.pub()
	c.MintedCount = r.u16()
	return nil
}

func (rec AgentSignerRecovery) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagAgentSignerRecovery, agentSignerRecoveryLen)
	w.pub(rec.Agent)
	w.pub(rec.Owner)
	w.pub(rec.NewAgentSigner)
	w.i64(rec.RequestedAt)
	w.i64(rec.ReadyAt)
	return w.buf, nil
}

func (rec *AgentSignerRecovery) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagAgentSignerRecovery, agentSignerRecoveryLen)
	if err != nil {
		return err
	}
	rec.Agent = r.pub()
	rec.Owner = r.pub()
	rec.NewAgentSigner = r.pub()
	rec.RequestedAt = r.i64()
	rec.ReadyAt = r.i64()
	return nil
}

func (e Enclave) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagEnclave, enclaveLen)
	w.hash(e.NameHash)
	w.pub(e.CreatorAgent)
	w.pub(e.CreatorOwner)
	w.hash(e.MetadataHash)
	w.i64(e.CreatedAt)
	w.boolean(e.IsActive)
	return w.buf, nil
}

func (e *Enclave) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagEnclave, enclaveLen)
	if err != nil {
		return err
	}
	e.NameHash = r.hash()
	e.CreatorAgent = r.pub()
	e.CreatorOwner = r.pub()
	e.MetadataHash = r.hash()
	e.CreatedAt = r.i64()
	e.IsActive = r.boolean()
	return nil
}

func (t EnclaveTreasury) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagEnclaveTreasury, enclaveTreasuryLen)
	w.pub(t.Enclave)
	return w.buf, nil
}

func (t *EnclaveTreasury) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagEnclaveTreasury, enclaveTreasuryLen)
	if err != nil {
		return err
	}
	t.Enclave = r.pub()
	return nil
}

func (t TipAnchor) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagTipAnchor, tipAnchorLen)
	w.pub(t.Tipper)
	w.hash(t.ContentHash)
	w.u64(t.Amount)
	w.u8(uint8(t.Priority))
	w.u8(uint8(t.SourceType))
	w.pub(t.TargetEnclave)
	w.u64(t.TipNonce)
	w.i64(t.CreatedAt)
	w.u8(uint8(t.Status))
	return w.buf, nil
}

func (t *TipAnchor) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagTipAnchor, tipAnchorLen)
	if err != nil {
		return err
	}
	t.Tipper = r.pub()
	t.ContentHash = r.hash()
	t.Amount = r.u64()
	t.Priority = TipPriority(r.u8())
	t.SourceType = TipSourceType(r.u8())
	t.TargetEnclave = r.pub()
	t.TipNonce = r.u64()
	t.CreatedAt = r.i64()
	t.Status = TipStatus(r.u8())
	return nil
}

func (t TipEscrow) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagTipEscrow, tipEscrowLen)
	w.pub(t.Tip)
	w.u64(t.Amount)
	return w.buf, nil
}

func (t *TipEscrow) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagTipEscrow, tipEscrowLen)
	if err != nil {
		return err
	}
	t.Tip = r.pub()
	t.Amount = r.u64()
	return nil
}

func (l TipperRateLimit) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagTipperRateLimit, tipperRateLimitLen)
	w.pub(l.Tipper)
	w.u16(l.TipsThisMinute)
	w.u16(l.TipsThisHour)
	w.i64(l.MinuteResetAt)
	w.i64(l.HourResetAt)
	return w.buf, nil
}

func (l *TipperRateLimit) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagTipperRateLimit, tipperRateLimitLen)
	if err != nil {
		return err
	}
	l.Tipper = r.pub()
	l.TipsThisMinute = r.u16()
	l.TipsThisHour = r.u16()
	l.MinuteResetAt = r.i64()
	l.HourResetAt = r.i64()
	return nil
}

func (d DonationReceipt) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagDonationReceipt, donationReceiptLen)
	w.pub(d.Donor)
	w.pub(d.Agent)
	w.pub(d.Vault)
	w.hash(d.ContextHash)
	w.u64(d.Amount)
	w.i64(d.DonatedAt)
	return w.buf, nil
}

func (d *DonationReceipt) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagDonationReceipt, donationReceiptLen)
	if err != nil {
		return err
	}
	d.Donor = r.pub()
	d.Agent = r.pub()
	d.Vault = r.pub()
	d.ContextHash = r.hash()
	d.Amount = r.u64()
	d.DonatedAt = r.i64()
	return nil
}

func (j JobPosting) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagJobPosting, jobPostingLen)
	w.pub(j.Creator)
	w.u64(j.JobNonce)
	w.hash(j.MetadataHash)
	w.u64(j.BudgetLamports)
	w.u64(j.BuyItNowLamports)
	w.u8(uint8(j.Status))
	w.pub(j.AssignedAgent)
	w.pub(j.AcceptedBid)
	w.i64(j.CreatedAt)
	w.i64(j.UpdatedAt)
	return w.buf, nil
}

func (j *JobPosting) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagJobPosting, jobPostingLen)
	if err != nil {
		return err
	}
	j.Creator = r.pub()
	j.JobNonce = r.u64()
	j.MetadataHash = r.hash()
	j.BudgetLamports = r.u64()
	j.BuyItNowLamports = r.u64()
	j.Status = JobStatus(r.u8())
	j.AssignedAgent = r.pub()
	j.AcceptedBid = r.pub()
	j.CreatedAt = r.i64()
	j.UpdatedAt = r.i64()
	return nil
}

func (j JobEscrow) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagJobEscrow, jobEscrowLen)
	w.pub(j.Job)
	w.u64(j.Amount)
	return w.buf, nil
}

func (j *JobEscrow) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagJobEscrow, jobEscrowLen)
	if err != nil {
		return err
	}
	j.Job = r.pub()
	j.Amount = r.u64()
	return nil
}

func (b JobBid) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagJobBid, jobBidLen)
	w.pub(b.Job)
	w.pub(b.BidderAgent)
	w.u64(b.BidLamports)
	w.hash(b.MessageHash)
	w.u8(uint8(b.Status))
	w.i64(b.CreatedAt)
	return w.buf, nil
}

func (b *JobBid) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagJobBid, jobBidLen)
	if err != nil {
		return err
	}
	b.Job = r.pub()
	b.BidderAgent = r.pub()
	b.BidLamports = r.u64()
	b.MessageHash = r.hash()
	b.Status = JobBidStatus(r.u8())
	b.CreatedAt = r.i64()
	return nil
}

func (s JobSubmission) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagJobSubmission, jobSubmissionLen)
	w.pub(s.Job)
	w.pub(s.Agent)
	w.hash(s.SubmissionHash)
	w.i64(s.CreatedAt)
	return w.buf, nil
}

func (s *JobSubmission) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagJobSubmission, jobSubmissionLen)
	if err != nil {
		return err
	}
	s.Job = r.pub()
	s.Agent = r.pub()
	s.SubmissionHash = r.hash()
	s.CreatedAt = r.i64()
	return nil
}

func (ep RewardsEpoch) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagRewardsEpoch, rewardsEpochLen)
	w.pub(ep.Scope)
	w.u64(ep.Epoch)
	w.hash(ep.MerkleRoot)
	w.u64(ep.TotalAmount)
	w.u64(ep.ClaimedAmount)
	w.i64(ep.PublishedAt)
	w.i64(ep.ClaimDeadline)
	w.i64(ep.SweptAt)
	return w.buf, nil
}

func (ep *RewardsEpoch) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagRewardsEpoch, rewardsEpochLen)
	if err != nil {
		return err
	}
	ep.Scope = r.pub()
	ep.Epoch = r.u64()
	ep.MerkleRoot = r.hash()
	ep.TotalAmount = r.u64()
	ep.ClaimedAmount = r.u64()
	ep.PublishedAt = r.i64()
	ep.ClaimDeadline = r.i64()
	ep.SweptAt = r.i64()
	return nil
}

func (rc RewardsClaimReceipt) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagRewardsClaimReceipt, rewardsClaimReceiptLen)
	w.pub(rc.RewardsEpoch)
	w.u32(rc.Index)
	w.pub(rc.Agent)
	w.u64(rc.Amount)
	w.i64(rc.ClaimedAt)
	return w.buf, nil
}

func (rc *RewardsClaimReceipt) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagRewardsClaimReceipt, rewardsClaimReceiptLen)
	if err != nil {
		return err
	}
	rc.RewardsEpoch = r.pub()
	rc.Index = r.u32()
	rc.Agent = r.pub()
	rc.Amount = r.u64()
	rc.ClaimedAt = r.i64()
	return nil
}

func (p PostAnchor) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagPostAnchor, postAnchorLen)
	w.pub(p.Agent)
	w.pub(p.Enclave)
	w.u8(uint8(p.Kind))
	w.pub(p.ReplyTo)
	w.u32(p.EntryIndex)
	w.hash(p.ContentHash)
	w.hash(p.ManifestHash)
	w.u32(p.Upvotes)
	w.u32(p.Downvotes)
	w.u32(p.CommentCount)
	w.i64(p.Timestamp)
	return w.buf, nil
}

func (p *PostAnchor) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagPostAnchor, postAnchorLen)
	if err != nil {
		return err
	}
	p.Agent = r.pub()
	p.Enclave = r.pub()
	p.Kind = EntryKind(r.u8())
	p.ReplyTo = r.pub()
	p.EntryIndex = r.u32()
	p.ContentHash = r.hash()
	p.ManifestHash = r.hash()
	p.Upvotes = r.u32()
	p.Downvotes = r.u32()
	p.CommentCount = r.u32()
	p.Timestamp = r.i64()
	return nil
}

func (v ReputationVote) MarshalBinary() ([]byte, error) {
	w := newAccountWriter(tagReputationVote, reputationVoteLen)
	w.pub(v.VoterAgent)
	w.pub(v.Post)
	w.i8(v.Value)
	w.i64(v.Timestamp)
	return w.buf, nil
}

func (v *ReputationVote) UnmarshalBinary(data []byte) error {
	r, err := newAccountReader(data, tagReputationVote, reputationVoteLen)
	if err != nil {
		return err
	}
	v.VoterAgent = r.pub()
	v.Post = r.pub()
	v.Value = r.i8()
	v.Timestamp = r.i64()
	return nil
}
