package engine_test

import (
	"testing"

	solana "github.com/gagliardetto/solana-go"
	"github.com/stretchr/testify/require"

	"github.com/wunderland-sh/wunderland-engine/engine"
)

func (f *fixture) placeBid(a testAgent, jobAddr solana.PublicKey, lamports uint64) (solana.PublicKey, error) {
	f.t.Helper()
	msgHash := hash32("bid-message")
	msg := engine.BuildAgentMessage(engine.ActionPlaceJobBid, a.addr,
		engine.PlaceJobBidPayload(jobAddr, lamports, msgHash))
	return f.eng.PlaceJobBid(signedBy(f.t, a.signer, msg), a.owner, jobAddr, a.addr, lamports, msgHash)
}

func (f *fixture) submitJob(a testAgent, jobAddr solana.PublicKey, subHash engine.Hash32) error {
	f.t.Helper()
	msg := engine.BuildAgentMessage(engine.ActionSubmitJob, a.addr,
		engine.SubmitJobPayload(jobAddr, subHash))
	return f.eng.SubmitJob(signedBy(f.t, a.signer, msg), a.owner, jobAddr, a.addr, subHash)
}

func TestCreateJob(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)

	_, err := f.eng.CreateJob(creator, 1, hash32("job"), 0, 0)
	require.ErrorIs(t, err, engine.ErrInvalidAmount)
	_, err = f.eng.CreateJob(creator, 1, engine.Hash32{}, oneSOL, 0)
	require.ErrorIs(t, err, engine.ErrInvalidAmount)
	// Buy-it-now must exceed the budget when set.
	_, err = f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, oneSOL)
	require.ErrorIs(t, err, engine.ErrInvalidAmount)

	addr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.NoError(t, err)
	require.Equal(t, oneSOL, f.eng.JobEscrowHeld(addr))
	job, ok := f.eng.Job(addr)
	require.True(t, ok)
	require.Equal(t, engine.JobOpen, job.Status)

	_, err = f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.ErrorIs(t, err, engine.ErrAccountExists)

	// With buy-it-now the premium is escrowed up front.
	addr2, err := f.eng.CreateJob(creator, 2, hash32("job"), oneSOL, 2*oneSOL)
	require.NoError(t, err)
	require.Equal(t, 2*oneSOL, f.eng.JobEscrowHeld(addr2))
}

func TestCancelJob(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	addr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.NoError(t, err)

	stranger := newWallet(t, f.eng, oneSOL)
	require.ErrorIs(t, f.eng.CancelJob(stranger, addr), engine.ErrUnauthorizedJobCreator)

	before := f.balance(creator)
	require.NoError(t, f.eng.CancelJob(creator, addr))
	require.Equal(t, before+oneSOL, f.balance(creator))
	require.Zero(t, f.eng.JobEscrowHeld(addr))

	job, _ := f.eng.Job(addr)
	require.Equal(t, engine.JobCancelled, job.Status)
	require.ErrorIs(t, f.eng.CancelJob(creator, addr), engine.ErrJobNotOpen)
}

func TestPlaceJobBid(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.NoError(t, err)

	// Without buy-it-now a bid cannot exceed the budget.
	_, err = f.placeBid(bidder, jobAddr, oneSOL+1)
	require.ErrorIs(t, err, engine.ErrInvalidAmount)

	bidAddr, err := f.placeBid(bidder, jobAddr, oneSOL/2)
	require.NoError(t, err)
	bid, ok := f.eng.JobBidBy(jobAddr, bidder.addr)
	require.True(t, ok)
	require.Equal(t, engine.BidActive, bid.Status)
	require.Equal(t, oneSOL/2, bid.BidLamports)
	require.Equal(t, engine.JobBidAddress(jobAddr, bidder.addr), bidAddr)

	// One bid per agent per job.
	_, err = f.placeBid(bidder, jobAddr, oneSOL/4)
	require.ErrorIs(t, err, engine.ErrAccountExists)

	// The job is untouched by a plain bid.
	job, _ := f.eng.Job(jobAddr)
	require.Equal(t, engine.JobOpen, job.Status)
}

func TestPlaceJobBidRequiresSignerAuthorization(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.NoError(t, err)

	// Signature over a different bid amount does not authorize this one.
	msgHash := hash32("bid-message")
	msg := engine.BuildAgentMessage(engine.ActionPlaceJobBid, bidder.addr,
		engine.PlaceJobBidPayload(jobAddr, oneSOL/4, msgHash))
	_, err = f.eng.PlaceJobBid(signedBy(t, bidder.signer, msg),
		bidder.owner, jobAddr, bidder.addr, oneSOL/2, msgHash)
	require.ErrorIs(t, err, engine.ErrMessageMismatch)
}

func TestBuyItNowBid(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 2*oneSOL)
	require.NoError(t, err)

	// A bid at exactly the buy-it-now price assigns the job atomically.
	bidAddr, err := f.placeBid(bidder, jobAddr, 2*oneSOL)
	require.NoError(t, err)

	job, _ := f.eng.Job(jobAddr)
	require.Equal(t, engine.JobAssigned, job.Status)
	require.Equal(t, bidder.addr, job.AssignedAgent)
	require.Equal(t, bidAddr, job.AcceptedBid)
	bid, _ := f.eng.JobBidBy(jobAddr, bidder.addr)
	require.Equal(t, engine.BidAccepted, bid.Status)

	// Completing pays the full buy-it-now price to the agent vault.
	subHash := hash32("deliverable")
	require.NoError(t, f.submitJob(bidder, jobAddr, subHash))
	vault := engine.VaultAddress(bidder.addr)
	vaultBefore := f.balance(vault)
	require.NoError(t, f.eng.ApproveJobSubmission(creator, jobAddr))
	require.Equal(t, vaultBefore+2*oneSOL, f.balance(vault))
	require.Zero(t, f.eng.JobEscrowHeld(jobAddr))
}

func TestWithdrawJobBid(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.NoError(t, err)
	bidAddr, err := f.placeBid(bidder, jobAddr, oneSOL/2)
	require.NoError(t, err)

	msg := engine.BuildAgentMessage(engine.ActionWithdrawJobBid, bidder.addr,
		engine.WithdrawJobBidPayload(bidAddr))
	require.NoError(t, f.eng.WithdrawJobBid(signedBy(t, bidder.signer, msg), jobAddr, bidder.addr))

	bid, _ := f.eng.JobBidBy(jobAddr, bidder.addr)
	require.Equal(t, engine.BidWithdrawn, bid.Status)

	// A withdrawn bid cannot be accepted.
	require.ErrorIs(t, f.eng.AcceptJobBid(creator, jobAddr, bidAddr), engine.ErrBidNotActive)
	err = f.eng.WithdrawJobBid(signedBy(t, bidder.signer, msg), jobAddr, bidder.addr)
	require.ErrorIs(t, err, engine.ErrBidNotActive)
}

func TestJobLifecycle(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	budget := oneSOL
	bidAmount := uint64(800_000_000)

	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), budget, 0)
	require.NoError(t, err)
	bidAddr, err := f.placeBid(bidder, jobAddr, bidAmount)
	require.NoError(t, err)

	// No submissions until a bid is accepted.
	err = f.submitJob(bidder, jobAddr, hash32("too-early"))
	require.ErrorIs(t, err, engine.ErrJobNotAssigned)

	stranger := newWallet(t, f.eng, oneSOL)
	require.ErrorIs(t, f.eng.AcceptJobBid(stranger, jobAddr, bidAddr), engine.ErrUnauthorizedJobCreator)
	require.NoError(t, f.eng.AcceptJobBid(creator, jobAddr, bidAddr))

	job, _ := f.eng.Job(jobAddr)
	require.Equal(t, engine.JobAssigned, job.Status)
	require.Equal(t, bidder.addr, job.AssignedAgent)

	// Submit is only for the assigned agent.
	other := f.newAgent("other")
	err = f.submitJob(other, jobAddr, hash32("deliverable"))
	require.ErrorIs(t, err, engine.ErrUnauthorizedJobAgent)

	subHash := hash32("deliverable")
	require.NoError(t, f.submitJob(bidder, jobAddr, subHash))
	job, _ = f.eng.Job(jobAddr)
	require.Equal(t, engine.JobSubmitted, job.Status)

	// Approval pays the bid amount, never the budget; the residual returns
	// to the creator.
	vault := engine.VaultAddress(bidder.addr)
	vaultBefore := f.balance(vault)
	creatorBefore := f.balance(creator)
	require.NoError(t, f.eng.ApproveJobSubmission(creator, jobAddr))

	require.Equal(t, vaultBefore+bidAmount, f.balance(vault))
	require.Equal(t, creatorBefore+(budget-bidAmount), f.balance(creator))
	require.Zero(t, f.eng.JobEscrowHeld(jobAddr))
	job, _ = f.eng.Job(jobAddr)
	require.Equal(t, engine.JobCompleted, job.Status)

	require.ErrorIs(t, f.eng.ApproveJobSubmission(creator, jobAddr), engine.ErrJobNotSubmitted)
}

func TestAcceptBidRefundsBuyItNowSurplus(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	budget := oneSOL

	// Escrow holds the 2 SOL premium; accepting a normal bid resizes it
	// down to the budget and returns the surplus.
	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), budget, 2*oneSOL)
	require.NoError(t, err)
	bidAddr, err := f.placeBid(bidder, jobAddr, 800_000_000)
	require.NoError(t, err)

	creatorBefore := f.balance(creator)
	require.NoError(t, f.eng.AcceptJobBid(creator, jobAddr, bidAddr))
	require.Equal(t, creatorBefore+oneSOL, f.balance(creator))
	require.Equal(t, budget, f.eng.JobEscrowHeld(jobAddr))

	require.NoError(t, f.submitJob(bidder, jobAddr, hash32("deliverable")))
	vault := engine.VaultAddress(bidder.addr)
	vaultBefore := f.balance(vault)
	creatorBefore = f.balance(creator)
	require.NoError(t, f.eng.ApproveJobSubmission(creator, jobAddr))
	require.Equal(t, vaultBefore+800_000_000, f.balance(vault))
	require.Equal(t, creatorBefore+200_000_000, f.balance(creator))
}

func TestCancelAssignedJobFails(t *testing.T) {
	f := newFixture(t)
	creator := newWallet(t, f.eng, 10*oneSOL)
	bidder := f.newAgent("bidder")
	jobAddr, err := f.eng.CreateJob(creator, 1, hash32("job"), oneSOL, 0)
	require.NoError(t, err)
	bidAddr, err := f.placeBid(bidder, jobAddr, oneSOL)
	require.NoError(t, err)
	require.NoError(t, f.eng.AcceptJobBid(creator, jobAddr, bidAddr))

	require.ErrorIs(t, f.eng.CancelJob(creator, jobAddr), engine.ErrJobNotOpen)
	// New bids are rejected once the job is assigned.
	other := f.newAgent("other")
	_, err = f.placeBid(other, jobAddr, oneSOL/2)
	require.ErrorIs(t, err, engine.ErrJobNotOpen)
}
