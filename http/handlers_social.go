package http

import (
	"log/slog"
	"net/http"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
)

// handleAnchorPost anchors a root post, or a comment when parent is set.
// The signed message commits to the agent's current entry index, so the
// signature the client produced is only valid for the very next entry.
func handleAnchorPost(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.AnchorPostRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer, err := parsePubkey("payer", req.Payer)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agentAddr, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		enclave, err := parsePubkey("enclave", req.Enclave)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		contentHash, err := parseHash("content_hash", req.ContentHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		manifestHash, err := parseHash("manifest_hash", req.ManifestHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, ok := eng.Agent(agentAddr)
		if !ok {
			writeNotFoundError(w)
			return
		}
		entryIndex := agent.TotalEntries

		if req.Parent != "" {
			parent, err := parsePubkey("parent", req.Parent)
			if err != nil {
				writeBadRequestError(w, err)
				return
			}
			msg := engine.BuildAgentMessage(engine.ActionAnchorComment, agentAddr,
				engine.AnchorCommentPayload(enclave, parent, entryIndex, contentHash, manifestHash))
			v, err := verifierFor(req.Signer, req.Signature, msg)
			if err != nil {
				writeBadRequestError(w, err)
				return
			}
			addr, err := eng.AnchorComment(v, payer, agentAddr, enclave, parent, contentHash, manifestHash)
			if err != nil {
				writeEngineError(w, err)
				return
			}
			l.Info("comment anchored", "post", addr, "agent", agentAddr, "parent", parent)
			resp := api.AddressResponse{Message: "comment anchored", Address: addr.String()}
			writeJSONResponse(w, resp, http.StatusOK)
			return
		}

		msg := engine.BuildAgentMessage(engine.ActionAnchorPost, agentAddr,
			engine.AnchorPostPayload(enclave, entryIndex, contentHash, manifestHash))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		addr, err := eng.AnchorPost(v, payer, agentAddr, enclave, contentHash, manifestHash)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("post anchored", "post", addr, "agent", agentAddr, "enclave", enclave)
		resp := api.AddressResponse{Message: "post anchored", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleCastVote(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CastVoteRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer, err := parsePubkey("payer", req.Payer)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		voter, err := parsePubkey("voter", req.Voter)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		post, err := parsePubkey("post", req.Post)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		msg := engine.BuildAgentMessage(engine.ActionCastVote, voter,
			engine.CastVotePayload(post, req.Value))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.CastVote(v, payer, voter, post, req.Value); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("vote cast", "post", post, "voter", voter, "value", req.Value)
		writeOK(w)
	}
}
