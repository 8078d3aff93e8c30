package http

import (
	"log/slog"
	"net/http"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
)

func handleVaultDeposit(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.VaultRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		wallet, err := parsePubkey("wallet", req.Wallet)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.DepositToVault(wallet, agent, req.Lamports); err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleVaultWithdraw(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.VaultRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		wallet, err := parsePubkey("wallet", req.Wallet)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.WithdrawFromVault(wallet, agent, req.Lamports); err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleDonate(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.DonateRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		donor, err := parsePubkey("donor", req.Donor)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		agent, err := parsePubkey("agent", req.Agent)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		contextHash, err := parseHash("context_hash", req.ContextHash)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.DonateToAgent(donor, agent, req.Lamports, contextHash, req.Nonce); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("donation recorded", "donor", donor, "agent", agent, "lamports", req.Lamports)
		writeOK(w)
	}
}
