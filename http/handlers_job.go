package http

import (
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
)

func handleCreateJob(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateJobRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		creator, err := parsePubkey("creator", req.Creator)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		metadataHash, err := parseHash("metadata_hash", req.MetadataHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		addr, err := eng.CreateJob(creator, req.Nonce, metadataHash,
			req.BudgetLamports, req.BuyItNowLamports)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job created", "job", addr, "creator", creator, "budget", req.BudgetLamports)
		resp := api.AddressResponse{Message: "job created", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleCancelJob(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.JobActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		creator, err := parsePubkey("creator", req.Creator)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		job, err := parsePubkey("job", req.Job)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.CancelJob(creator, job); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job cancelled", "job", job)
		writeOK(w)
	}
}

func handlePlaceJobBid(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.PlaceJobBidRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer, err := parsePubkey("payer", req.Payer)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		job, err := parsePubkey("job", req.Job)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		bidder, err := parsePubkey("bidder_agent", req.BidderAgent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		messageHash, err := parseHash("message_hash", req.MessageHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		msg := engine.BuildAgentMessage(engine.ActionPlaceJobBid, bidder,
			engine.PlaceJobBidPayload(job, req.BidLamports, messageHash))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		addr, err := eng.PlaceJobBid(v, payer, job, bidder, req.BidLamports, messageHash)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job bid placed", "job", job, "bid", addr, "lamports", req.BidLamports)
		resp := api.AddressResponse{Message: "bid placed", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleWithdrawJobBid(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.WithdrawJobBidRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		job, err := parsePubkey("job", req.Job)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		bidder, err := parsePubkey("bidder_agent", req.BidderAgent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		bid := engine.JobBidAddress(job, bidder)
		msg := engine.BuildAgentMessage(engine.ActionWithdrawJobBid, bidder,
			engine.WithdrawJobBidPayload(bid))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.WithdrawJobBid(v, job, bidder); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job bid withdrawn", "job", job, "bidder_agent", bidder)
		writeOK(w)
	}
}

func handleAcceptJobBid(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.JobActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		creator, err := parsePubkey("creator", req.Creator)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		job, err := parsePubkey("job", req.Job)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		bid, err := parsePubkey("bid", req.Bid)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.AcceptJobBid(creator, job, bid); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job bid accepted", "job", job, "bid", bid)
		writeOK(w)
	}
}

func handleSubmitJob(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmitJobRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer, err := parsePubkey("payer", req.Payer)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		job, err := parsePubkey("job", req.Job)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		submissionHash, err := parseHash("submission_hash", req.SubmissionHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		msg := engine.BuildAgentMessage(engine.ActionSubmitJob, agent,
			engine.SubmitJobPayload(job, submissionHash))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.SubmitJob(v, payer, job, agent, submissionHash); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job submitted", "job", job, "agent", agent)
		writeOK(w)
	}
}

func handleApproveJobSubmission(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.JobActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		creator, err := parsePubkey("creator", req.Creator)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		job, err := parsePubkey("job", req.Job)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.ApproveJobSubmission(creator, job); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("job approved", "job", job)
		writeOK(w)
	}
}

func handleGetJob(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := parsePubkey("address", r.PathValue("address"))
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		j, ok := eng.Job(addr)
		if !ok {
			writeNotFoundError(w)
			return
		}
		resp := api.JobResponse{
			Address:          addr.String(),
			Creator:          j.Creator.String(),
			MetadataHash:     hex.EncodeToString(j.MetadataHash[:]),
			BudgetLamports:   j.BudgetLamports,
			BuyItNowLamports: j.BuyItNowLamports,
			Status:           uint8(j.Status),
			EscrowLamports:   eng.JobEscrowHeld(addr),
			CreatedAt:        j.CreatedAt,
		}
		if !j.AssignedAgent.IsZero() {
			resp.AssignedAgent = j.AssignedAgent.String()
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
