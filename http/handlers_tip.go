package http

import (
	"encoding/hex"
	"log/slog"
	"net/http"

	solanago "github.com/gagliardetto/solana-go"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
)

func handleSubmitTip(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.SubmitTipRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		tipper, err := parsePubkey("tipper", req.Tipper)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		contentHash, err := parseHash("content_hash", req.ContentHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		target := engine.GlobalScope
		if req.TargetEnclave != "" {
			if target, err = parsePubkey("target_enclave", req.TargetEnclave); err != nil {
				writeBadRequestError(w, err)
				return
			}
		}
		addr, err := eng.SubmitTip(tipper, contentHash, req.Lamports,
			engine.TipSourceType(req.SourceType), target, req.Nonce)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("tip submitted", "tip", addr, "tipper", tipper, "lamports", req.Lamports)
		resp := api.AddressResponse{Message: "tip submitted", Address: addr.String()}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}

func handleSettleTip(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.TipActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		tip, caller, err := tipActionArgs(eng, req)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.SettleTip(caller, tip); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("tip settled", "tip", tip)
		writeOK(w)
	}
}

func handleRefundTip(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.TipActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		tip, caller, err := tipActionArgs(eng, req)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.RefundTip(caller, tip); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("tip refunded", "tip", tip)
		writeOK(w)
	}
}

func handleClaimTimeoutRefund(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.TipActionRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		tip, err := parsePubkey("tip", req.Tip)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		tipper, err := parsePubkey("caller", req.Caller)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.ClaimTimeoutRefund(tipper, tip); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("tip timeout refund claimed", "tip", tip)
		writeOK(w)
	}
}

// tipActionArgs resolves the tip address and the acting authority for
// settle/refund. An empty caller defaults to the config authority, which
// matches how the admin routes are used.
func tipActionArgs(eng *engine.Engine, req api.TipActionRequest) (tip, caller solanago.PublicKey, err error) {
	tip, err = parsePubkey("tip", req.Tip)
	if err != nil {
		return
	}
	if req.Caller != "" {
		caller, err = parsePubkey("caller", req.Caller)
		return
	}
	if cfg, ok := eng.Config(); ok {
		caller = cfg.Authority
	}
	return
}

func handleGetTip(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := parsePubkey("address", r.PathValue("address"))
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		t, ok := eng.Tip(addr)
		if !ok {
			writeNotFoundError(w)
			return
		}
		resp := api.TipResponse{
			Address:     addr.String(),
			Tipper:      t.Tipper.String(),
			Lamports:    t.Amount,
			ContentHash: hex.EncodeToString(t.ContentHash[:]),
			SourceType:  uint8(t.SourceType),
			Priority:    uint8(t.Priority),
			Status:      uint8(t.Status),
			Nonce:       t.TipNonce,
			CreatedAt:   t.CreatedAt,
		}
		if t.TargetEnclave != engine.GlobalScope {
			resp.TargetEnclave = t.TargetEnclave.String()
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
