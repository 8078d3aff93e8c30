package http

import (
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
	"github.com/wunderland-sh/wunderland-engine/merkle"
)

// handlePublishEpoch serves both the enclave route and the admin global
// route; global publishes ignore the enclave field.
func handlePublishEpoch(l *slog.Logger, eng *engine.Engine, global bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.PublishEpochRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		authority, err := parsePubkey("authority", req.Authority)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		root, err := parseHash("merkle_root", req.MerkleRoot)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		var addr solanago.PublicKey
		if global {
			addr, err = eng.PublishGlobalRewardsEpoch(authority, req.Epoch, root,
				req.Lamports, req.ClaimWindowSeconds)
		} else {
			var enclave solanago.PublicKey
			if enclave, err = parsePubkey("enclave", req.Enclave); err != nil {
				writeBadRequestError(w, err)
				return
			}
			addr, err = eng.PublishRewardsEpoch(authority, enclave, req.Epoch, root,
				req.Lamports, req.ClaimWindowSeconds)
		}
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("rewards epoch published", "epoch_account", addr, "epoch", req.Epoch, "lamports", req.Lamports)
		resp := api.AddressResponse{Message: "epoch published", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleClaimRewards(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.ClaimRewardsRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer, err := parsePubkey("payer", req.Payer)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		epochAddr, err := parsePubkey("epoch", req.Epoch)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		proof, err := parseProof(req.Proof)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.ClaimRewards(payer, epochAddr, agent, req.Index, req.Lamports, proof); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("rewards claimed", "epoch_account", epochAddr, "agent", agent,
			"index", req.Index, "lamports", req.Lamports)
		writeOK(w)
	}
}

func parseProof(nodes []string) ([][32]byte, error) {
	if len(nodes) > merkle.MaxProofLen {
		return nil, fmt.Errorf("proof exceeds %d nodes", merkle.MaxProofLen)
	}
	proof := make([][32]byte, len(nodes))
	for i, s := range nodes {
		b, err := hex.DecodeString(s)
		if err != nil || len(b) != 32 {
			return nil, fmt.Errorf("proof[%d] is not a 32-byte hex string", i)
		}
		copy(proof[i][:], b)
	}
	return proof, nil
}

func handleSweepEpoch(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SweepEpochRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		var err error
		if req.Enclave == "" {
			err = eng.SweepUnclaimedGlobalRewards(req.Epoch)
		} else {
			var enclave solanago.PublicKey
			if enclave, err = parsePubkey("enclave", req.Enclave); err != nil {
				writeBadRequestError(w, err)
				return
			}
			err = eng.SweepUnclaimedRewards(enclave, req.Epoch)
		}
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("rewards epoch swept", "epoch", req.Epoch, "enclave", req.Enclave)
		writeOK(w)
	}
}

func handleGetEpoch(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := parsePubkey("address", r.PathValue("address"))
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		ep, ok := eng.RewardsEpochState(addr)
		if !ok {
			writeNotFoundError(w)
			return
		}
		resp := api.EpochResponse{
			Address:        addr.String(),
			Scope:          ep.Scope.String(),
			Epoch:          ep.Epoch,
			MerkleRoot:     hex.EncodeToString(ep.MerkleRoot[:]),
			TotalAmount:    ep.TotalAmount,
			ClaimedAmount:  ep.ClaimedAmount,
			ClaimDeadline:  ep.ClaimDeadline,
			SweptAt:        ep.SweptAt,
			EscrowLamports: eng.Ledger().Balance(addr),
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
