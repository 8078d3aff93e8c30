package http

import (
	"encoding/hex"
	"log/slog"
	"net/http"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
)

func handleCreateEnclave(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.CreateEnclaveRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer, err := parsePubkey("payer", req.Payer)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		creatorAgent, err := parsePubkey("creator_agent", req.CreatorAgent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		nameHash, err := parseHash("name_hash", req.NameHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		metadataHash, err := parseHash("metadata_hash", req.MetadataHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		msg := engine.BuildAgentMessage(engine.ActionCreateEnclave, creatorAgent,
			engine.CreateEnclavePayload(nameHash, metadataHash))
		v, err := verifierFor(req.Signer, req.Signature, msg)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		addr, err := eng.CreateEnclave(v, payer, creatorAgent, nameHash, metadataHash)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("enclave created", "enclave", addr, "creator_agent", creatorAgent)
		resp := api.AddressResponse{Message: "enclave created", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleGetEnclave(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := parsePubkey("address", r.PathValue("address"))
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		enc, ok := eng.Enclave(addr)
		if !ok {
			writeNotFoundError(w)
			return
		}
		treasury := engine.EnclaveTreasuryAddress(addr)
		resp := api.EnclaveResponse{
			Address:          addr.String(),
			NameHash:         hex.EncodeToString(enc.NameHash[:]),
			CreatorAgent:     enc.CreatorAgent.String(),
			CreatorOwner:     enc.CreatorOwner.String(),
			MetadataHash:     hex.EncodeToString(enc.MetadataHash[:]),
			CreatedAt:        enc.CreatedAt,
			IsActive:         enc.IsActive,
			TreasuryAddress:  treasury.String(),
			TreasuryLamports: eng.Ledger().Balance(treasury),
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
