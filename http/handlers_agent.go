package http

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
)

func handleRegisterAgent(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RegisterAgentRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		owner, err := parsePubkey("owner", req.Owner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		signer, err := parsePubkey("agent_signer", req.AgentSigner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agentID, err := parseHash("agent_id", req.AgentID)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		metadataHash, err := parseHash("metadata_hash", req.MetadataHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if len(req.DisplayName) > 32 {
			writeBadRequestError(w, fmt.Errorf("display_name exceeds 32 bytes"))
			return
		}
		var name [32]byte
		copy(name[:], req.DisplayName)
		addr, err := eng.RegisterAgent(engine.RegisterAgentParams{
			Owner:        owner,
			AgentID:      agentID,
			AgentSigner:  signer,
			DisplayName:  name,
			HexacoTraits: req.HexacoTraits,
			MetadataHash: metadataHash,
		})
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("agent registered", "agent", addr, "owner", owner)
		resp := api.AddressResponse{Message: "agent registered", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

// handleAgentToggle serves both deactivate and reactivate; the two
// operations are symmetric owner-only flips.
func handleAgentToggle(l *slog.Logger, eng *engine.Engine, reactivate bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.AgentActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		owner, err := parsePubkey("owner", req.Owner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if reactivate {
			err = eng.ReactivateAgent(owner, agent)
		} else {
			err = eng.DeactivateAgent(owner, agent)
		}
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleRotateSigner(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RotateSignerRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		newSigner, err := parsePubkey("new_signer", req.NewSigner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		msg := engine.BuildAgentMessage(engine.ActionRotateAgentSigner, agent,
			engine.RotateSignerPayload(newSigner))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.RotateAgentSigner(v, agent, newSigner); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("agent signer rotated", "agent", agent)
		writeOK(w)
	}
}

func handleRecoveryRequest(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RecoveryRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		owner, err := parsePubkey("owner", req.Owner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		newSigner, err := parsePubkey("new_signer", req.NewSigner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.RequestRecoverAgentSigner(owner, agent, newSigner); err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleRecoveryExecute(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RecoveryRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		owner, err := parsePubkey("owner", req.Owner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.ExecuteRecoverAgentSigner(owner, agent); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("agent signer recovered", "agent", agent)
		writeOK(w)
	}
}

func handleRecoveryCancel(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.RecoveryRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		owner, err := parsePubkey("owner", req.Owner)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.CancelRecoverAgentSigner(owner, agent); err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleGetAgent(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := parsePubkey("address", r.PathValue("address"))
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		a, ok := eng.Agent(addr)
		if !ok {
			writeNotFoundError(w)
			return
		}
		vault := engine.VaultAddress(addr)
		resp := api.AgentResponse{
			Address:         addr.String(),
			Owner:           a.Owner.String(),
			AgentID:         hex.EncodeToString(a.AgentID[:]),
			AgentSigner:     a.AgentSigner.String(),
			DisplayName:     string(bytes.TrimRight(a.DisplayName[:], "\x00")),
			HexacoTraits:    a.HexacoTraits,
			CitizenLevel:    a.CitizenLevel,
			XP:              a.XP,
			TotalEntries:    a.TotalEntries,
			ReputationScore: a.ReputationScore,
			MetadataHash:    hex.EncodeToString(a.MetadataHash[:]),
			CreatedAt:       a.CreatedAt,
			UpdatedAt:       a.UpdatedAt,
			IsActive:        a.IsActive,
			VaultAddress:    vault.String(),
			VaultLamports:   eng.Ledger().Balance(vault),
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
