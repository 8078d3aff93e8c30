package engine

import (
	solana "github.com/gagliardetto/solana-go"
)

// CreateJob posts a job and escrows the maximum possible payout up front:
// the budget, or the buy-it-now price when one is set, so buy-it-now can
// resolve instantly without a second deposit. buyItNow of 0 means no
// buy-it-now; otherwise it must exceed the budget.
func (e *Engine) CreateJob(creator solana.PublicKey, nonce uint64, metadataHash Hash32, budget, buyItNow uint64) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if budget == 0 {
		return solana.PublicKey{}, ErrInvalidAmount
	}
	if metadataHash == zeroHash {
		return solana.PublicKey{}, ErrInvalidAmount
	}
	if buyItNow != 0 && buyItNow <= budget {
		return solana.PublicKey{}, ErrInvalidAmount
	}
	jobAddr := JobAddress(creator, nonce)
	if _, ok := e.jobs[jobAddr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}

	escrowAmount := budget
	if buyItNow != 0 {
		escrowAmount = buyItNow
	}
	escrowAddr := JobEscrowAddress(jobAddr)
	if err := e.createAccount(creator, jobAddr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.createAccount(creator, escrowAddr); err != nil {
		return solana.PublicKey{}, err
	}
	if err := e.ledger.OpenEscrow(creator, escrowAddr, escrowAmount); err != nil {
		return solana.PublicKey{}, err
	}

	now := e.unix()
	e.jobs[jobAddr] = &JobPosting{
		Creator:          creator,
		JobNonce:         nonce,
		MetadataHash:     metadataHash,
		BudgetLamports:   budget,
		BuyItNowLamports: buyItNow,
		Status:           JobOpen,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	e.jobEscrows[escrowAddr] = &JobEscrow{Job: jobAddr, Amount: escrowAmount}

	e.log.Info("job created", "job", jobAddr, "budget", budget, "escrow", escrowAmount)
	return jobAddr, nil
}

// CancelJob refunds an open job's full escrow to its creator and marks it
// Cancelled. Creator-only, Open-only.
func (e *Engine) CancelJob(creator, jobAddr solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[jobAddr]
	if !ok {
		return ErrAccountNotFound
	}
	if job.Creator != creator {
		return ErrUnauthorizedJobCreator
	}
	if job.Status != JobOpen {
		return ErrJobNotOpen
	}
	escrow, err := e.jobEscrowOf(jobAddr)
	if err != nil {
		return err
	}
	amount := escrow.Amount
	if amount == 0 {
		return ErrInvalidAmount
	}
	if err := e.ledger.RefundEscrow(JobEscrowAddress(jobAddr), &escrow.Amount, creator); err != nil {
		return err
	}
	job.Status = JobCancelled
	job.UpdatedAt = e.unix()
	e.log.Info("job cancelled", "job", jobAddr, "refunded", amount)
	return nil
}

// PlaceJobBid places an agent-authored bid on an open job, authorized by a
// delegated signature over the bid payload. A normal bid must not exceed
// the budget. A bid exactly equal to the buy-it-now price is accepted
// immediately and atomically assigns the job, bypassing creator approval.
func (e *Engine) PlaceJobBid(v Verifier, payer, jobAddr, bidderAgent solana.PublicKey, bidLamports uint64, messageHash Hash32) (solana.PublicKey, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if bidLamports == 0 {
		return solana.PublicKey{}, ErrInvalidAmount
	}
	job, ok := e.jobs[jobAddr]
	if !ok {
		return solana.PublicKey{}, ErrAccountNotFound
	}
	if job.Status != JobOpen {
		return solana.PublicKey{}, ErrJobNotOpen
	}
	agent, err := e.activeAgent(bidderAgent)
	if err != nil {
		return solana.PublicKey{}, err
	}

	isBuyItNow := job.BuyItNowLamports != 0 && bidLamports == job.BuyItNowLamports
	if !isBuyItNow && bidLamports > job.BudgetLamports {
		return solana.PublicKey{}, ErrInvalidAmount
	}

	msg := BuildAgentMessage(ActionPlaceJobBid, bidderAgent, PlaceJobBidPayload(jobAddr, bidLamports, messageHash))
	if err := v.Verify(agent.AgentSigner, msg); err != nil {
		return solana.PublicKey{}, err
	}

	bidAddr := JobBidAddress(jobAddr, bidderAgent)
	if _, ok := e.bids[bidAddr]; ok {
		return solana.PublicKey{}, ErrAccountExists
	}
	if err := e.createAccount(payer, bidAddr); err != nil {
		return solana.PublicKey{}, err
	}

	now := e.unix()
	bid := &JobBid{
		Job:         jobAddr,
		BidderAgent: bidderAgent,
		BidLamports: bidLamports,
		MessageHash: messageHash,
		Status:      BidActive,
		CreatedAt:   now,
	}
	if isBuyItNow {
		bid.Status = BidAccepted
		job.Status = JobAssigned
		job.AssignedAgent = bidderAgent
		job.AcceptedBid = bidAddr
		job.UpdatedAt = now
		e.log.Info("buy-it-now triggered", "job", jobAddr, "agent", bidderAgent, "lamports", bidLamports)
	}
	e.bids[bidAddr] = bid

	e.log.Info("job bid placed", "job", jobAddr, "bidder", bidderAgent, "lamports", bidLamports)
	return bidAddr, nil
}

// WithdrawJobBid marks an active bid withdrawn. Only the bidder agent's
// signer may authorize it; job state is untouched.
func (e *Engine) WithdrawJobBid(v Verifier, jobAddr, bidderAgent solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	bidAddr := JobBidAddress(jobAddr, bidderAgent)
	bid, ok := e.bids[bidAddr]
	if !ok {
		return ErrAccountNotFound
	}
	if bid.Job != jobAddr || bid.BidderAgent != bidderAgent {
		return ErrInvalidJobBid
	}
	if bid.Status != BidActive {
		return ErrBidNotActive
	}
	agent, err := e.activeAgent(bidderAgent)
	if err != nil {
		return err
	}
	msg := BuildAgentMessage(ActionWithdrawJobBid, bidderAgent, WithdrawJobBidPayload(bidAddr))
	if err := v.Verify(agent.AgentSigner, msg); err != nil {
		return err
	}
	bid.Status = BidWithdrawn
	e.log.Info("job bid withdrawn", "bid", bidAddr, "agent", bidderAgent)
	return nil
}

// AcceptJobBid selects an active bid on an open job. If the escrow holds
// the buy-it-now premium rather than the base budget, the surplus is
// refunded to the creator and the escrow resized down to the budget, which
// is the committed payout ceiling from here on. Creator-only.
func (e *Engine) AcceptJobBid(creator, jobAddr, bidAddr solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[jobAddr]
	if !ok {
		return ErrAccountNotFound
	}
	if job.Creator != creator {
		return ErrUnauthorizedJobCreator
	}
	if job.Status != JobOpen {
		return ErrJobNotOpen
	}
	bid, ok := e.bids[bidAddr]
	if !ok || bid.Job != jobAddr {
		return ErrInvalidJobBid
	}
	if bid.Status != BidActive {
		return ErrBidNotActive
	}
	escrow, err := e.jobEscrowOf(jobAddr)
	if err != nil {
		return err
	}
	if escrow.Amount < job.BudgetLamports {
		return ErrInsufficientEscrowBalance
	}
	if surplus := escrow.Amount - job.BudgetLamports; surplus > 0 {
		if err := e.ledger.ReleaseEscrow(JobEscrowAddress(jobAddr), &escrow.Amount, creator, surplus); err != nil {
			return err
		}
	}

	job.Status = JobAssigned
	job.AssignedAgent = bid.BidderAgent
	job.AcceptedBid = bidAddr
	job.UpdatedAt = e.unix()
	bid.Status = BidAccepted

	e.log.Info("job bid accepted", "job", jobAddr, "bid", bidAddr, "agent", job.AssignedAgent)
	return nil
}

// SubmitJob records the assigned agent's deliverable commitment and flips
// the job to Submitted. Agent-authored; only valid while Assigned.
func (e *Engine) SubmitJob(v Verifier, payer, jobAddr, agentAddr solana.PublicKey, submissionHash Hash32) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	if submissionHash == zeroHash {
		return ErrInvalidAmount
	}
	job, ok := e.jobs[jobAddr]
	if !ok {
		return ErrAccountNotFound
	}
	if job.Status != JobAssigned {
		return ErrJobNotAssigned
	}
	if job.AssignedAgent != agentAddr {
		return ErrUnauthorizedJobAgent
	}
	agent, err := e.activeAgent(agentAddr)
	if err != nil {
		return err
	}
	msg := BuildAgentMessage(ActionSubmitJob, agentAddr, SubmitJobPayload(jobAddr, submissionHash))
	if err := v.Verify(agent.AgentSigner, msg); err != nil {
		return err
	}

	subAddr := JobSubmissionAddress(jobAddr)
	if _, ok := e.submissions[subAddr]; ok {
		return ErrAccountExists
	}
	if err := e.createAccount(payer, subAddr); err != nil {
		return err
	}
	now := e.unix()
	e.submissions[subAddr] = &JobSubmission{
		Job:            jobAddr,
		Agent:          agentAddr,
		SubmissionHash: submissionHash,
		CreatedAt:      now,
	}
	job.Status = JobSubmitted
	job.UpdatedAt = now
	e.log.Info("job submitted", "job", jobAddr, "agent", agentAddr)
	return nil
}

// ApproveJobSubmission pays the accepted bid's exact amount (never the
// budget) from escrow into the agent's vault, refunds any residual to the
// creator, and marks the job Completed. Creator-only, Submitted-only.
func (e *Engine) ApproveJobSubmission(creator, jobAddr solana.PublicKey) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	job, ok := e.jobs[jobAddr]
	if !ok {
		return ErrAccountNotFound
	}
	if job.Creator != creator {
		return ErrUnauthorizedJobCreator
	}
	if job.Status != JobSubmitted {
		return ErrJobNotSubmitted
	}
	escrow, err := e.jobEscrowOf(jobAddr)
	if err != nil {
		return err
	}
	sub, ok := e.submissions[JobSubmissionAddress(jobAddr)]
	if !ok || sub.Job != jobAddr {
		return ErrAccountNotFound
	}
	if sub.Agent != job.AssignedAgent {
		return ErrUnauthorizedJobAgent
	}
	bid, ok := e.bids[job.AcceptedBid]
	if !ok || bid.Job != jobAddr {
		return ErrInvalidJobBid
	}
	if bid.BidderAgent != job.AssignedAgent {
		return ErrUnauthorizedJobAgent
	}
	if bid.Status != BidAccepted {
		return ErrBidNotAccepted
	}
	vaultAddr, err := e.vaultOf(sub.Agent)
	if err != nil {
		return err
	}

	payout := bid.BidLamports
	held := escrow.Amount
	if held == 0 || payout == 0 || payout > held {
		return ErrInvalidAmount
	}
	escrowAddr := JobEscrowAddress(jobAddr)
	shares := []Share{{To: vaultAddr, Amount: payout}}
	if residual := held - payout; residual > 0 {
		shares = append(shares, Share{To: creator, Amount: residual})
	}
	if err := e.ledger.SplitEscrow(escrowAddr, &escrow.Amount, shares); err != nil {
		return err
	}

	job.Status = JobCompleted
	job.UpdatedAt = e.unix()
	e.log.Info("job completed", "job", jobAddr, "paid", payout, "refunded", held-payout, "vault", vaultAddr)
	return nil
}

func (e *Engine) jobEscrowOf(jobAddr solana.PublicKey) (*JobEscrow, error) {
	escrow, ok := e.jobEscrows[JobEscrowAddress(jobAddr)]
	if !ok || escrow.Job != jobAddr {
		return nil, ErrInvalidJobEscrow
	}
	return escrow, nil
}

// Job returns a copy of a job posting.
func (e *Engine) Job(addr solana.PublicKey) (JobPosting, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	j, ok := e.jobs[addr]
	if !ok {
		return JobPosting{}, false
	}
	return *j, true
}

// JobBidBy returns a copy of an agent's bid on a job.
func (e *Engine) JobBidBy(jobAddr, bidderAgent solana.PublicKey) (JobBid, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	b, ok := e.bids[JobBidAddress(jobAddr, bidderAgent)]
	if !ok {
		return JobBid{}, false
	}
	return *b, true
}

// JobEscrowHeld reports the amount currently held for a job.
func (e *Engine) JobEscrowHeld(jobAddr solana.PublicKey) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	escrow, ok := e.jobEscrows[JobEscrowAddress(jobAddr)]
	if !ok {
		return 0
	}
	return escrow.Amount
}
