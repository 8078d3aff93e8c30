package http

import (
	"log/slog"
	"net/http"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
	wldsol "github.com/wunderland-sh/wunderland-engine/solana"
)

// handleInitialize sets up the program config, treasury, and economics in
// one shot. Only meaningful once; repeat calls fail on the config account.
func handleInitialize(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.InitializeRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		authority, err := parsePubkey("authority", req.Authority)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		payer := authority
		if req.Payer != "" {
			if payer, err = parsePubkey("payer", req.Payer); err != nil {
				writeBadRequestError(w, err)
				return
			}
		}
		if err := eng.InitializeConfig(payer, authority); err != nil {
			writeEngineError(w, err)
			return
		}
		if err := eng.InitializeEconomics(authority); err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleUpdateEconomics(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.UpdateEconomicsRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		cfg, ok := eng.Economics()
		if !ok {
			writeNotFoundError(w)
			return
		}
		err := eng.UpdateEconomics(cfg.Authority,
			req.AgentMintFeeLamports, req.MaxAgentsPerWallet, req.RecoveryTimelockSeconds)
		if err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

func handleWithdrawTreasury(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.WithdrawTreasuryRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		t, ok := eng.Treasury()
		if !ok {
			writeNotFoundError(w)
			return
		}
		if err := eng.WithdrawTreasury(t.Authority, req.Lamports); err != nil {
			writeEngineError(w, err)
			return
		}
		writeOK(w)
	}
}

// handleFundWallet credits a wallet from thin air. Development and test
// deployments only; it is why the route sits behind the sudo token.
func handleFundWallet(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req api.FundWalletRequest
		if err := stools.DecodeJSONBody(r, &req); err != nil {
			writeBadRequestError(w, err)
			return
		}
		wallet, err := parsePubkey("wallet", req.Wallet)
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		if err := eng.Ledger().Fund(wallet, req.Lamports); err != nil {
			writeEngineError(w, err)
			return
		}
		l.Info("wallet funded", "wallet", wallet, "lamports", req.Lamports)
		writeOK(w)
	}
}

func handleGetBalance(l *slog.Logger, eng *engine.Engine) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		addr, err := parsePubkey("address", r.PathValue("address"))
		if err != nil {
			writeBadRequestError(w, err)
			return
		}
		lamports := eng.Ledger().Balance(addr)
		resp := api.BalanceResponse{
			Address:  addr.String(),
			Lamports: lamports,
			SOL:      wldsol.FromLamports(lamports).ToSOL(),
		}
		writeJSONResponse(w, resp, http.StatusOK)
	}
}
