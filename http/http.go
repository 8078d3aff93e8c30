package http

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	solanago "github.com/gagliardetto/solana-go"
	"github.com/google/uuid"

	"github.com/wunderland-sh/wunderland-engine/engine"
	"github.com/wunderland-sh/wunderland-engine/http/api"
	"github.com/wunderland-sh/wunderland-engine/internal/stools"
	"github.com/wunderland-sh/wunderland-engine/sigverify"
)

// Environment Variable Keys
const (
	EnvServerSecretKey = "WLD_SECRET_KEY"
	EnvServerEnv       = "ENV"
	EnvAuthority       = "WLD_AUTHORITY"
	EnvMinReserve      = "WLD_MIN_RESERVE_LAMPORTS"
	EnvGenesisLamports = "WLD_GENESIS_LAMPORTS"
)

func writeOK(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Message: "ok"}
	writeJSONResponse(w, resp, http.StatusOK)
}

func writeInternalError(l *slog.Logger, w http.ResponseWriter, e error) {
	l.Error("internal error", "error", e.Error())
	resp := api.DefaultJSONResponse{Error: "internal error"}
	writeJSONResponse(w, resp, http.StatusInternalServerError)
}

func writeBadRequestError(w http.ResponseWriter, err error) {
	resp := api.DefaultJSONResponse{Error: err.Error()}
	writeJSONResponse(w, resp, http.StatusBadRequest)
}

func writeNotFoundError(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "not found"}
	writeJSONResponse(w, resp, http.StatusNotFound)
}

func writeUnauthorized(w http.ResponseWriter) {
	resp := api.DefaultJSONResponse{Error: "unauthorized"}
	writeJSONResponse(w, resp, http.StatusUnauthorized)
}

func writeJSONResponse(w http.ResponseWriter, resp interface{}, code int) {
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(resp)
}

// writeEngineError maps an engine failure onto a response. Every engine
// error is a categorical precondition the caller can correct, so they all
// surface as 400s with the sentinel text intact.
func writeEngineError(w http.ResponseWriter, err error) {
	writeBadRequestError(w, err)
}

func parsePubkey(field, s string) (solanago.PublicKey, error) {
	if s == "" {
		return solanago.PublicKey{}, fmt.Errorf("%s is required", field)
	}
	pk, err := solanago.PublicKeyFromBase58(s)
	if err != nil {
		return solanago.PublicKey{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return pk, nil
}

func parseHash(field, s string) (engine.Hash32, error) {
	var h engine.Hash32
	if s == "" {
		return h, nil
	}
	b, err := hex.DecodeString(s)
	if err != nil || len(b) != 32 {
		return h, fmt.Errorf("invalid %s: want 32 hex-encoded bytes", field)
	}
	copy(h[:], b)
	return h, nil
}

// verifierFor rebuilds the signature-verification instruction a client
// would have attached and runs the precompile check, returning the
// introspection verifier the engine consumes.
func verifierFor(signerStr, sigStr string, message []byte) (engine.Verifier, error) {
	signer, err := parsePubkey("signer", signerStr)
	if err != nil {
		return nil, err
	}
	sig, err := solanago.SignatureFromBase58(sigStr)
	if err != nil {
		return nil, fmt.Errorf("invalid signature: %w", err)
	}
	return sigverify.ForInstruction(sigverify.BuildInstruction(signer, sig, message))
}

// RunServer starts the HTTP server hosting the settlement engine.
func RunServer(ctx context.Context, logger *slog.Logger, port string) error {
	mux := http.NewServeMux()

	// --- Read and Apply CORS Configuration from Env Vars ---
	allowedOriginsEnv := os.Getenv("CORS_ORIGINS")
	var allowedOrigins []string
	if allowedOriginsEnv == "*" {
		allowedOrigins = []string{"*"}
		logger.Warn("CORS configured to allow all origins (*)")
	} else if allowedOriginsEnv != "" {
		allowedOrigins = strings.Split(allowedOriginsEnv, ",")
		logger.Info("CORS configured with specific origins", "origins", allowedOrigins)
	} else {
		logger.Warn("CORS_ORIGINS not set, CORS might not function correctly")
		allowedOrigins = []string{}
	}

	allowedMethodsEnv := os.Getenv("CORS_METHODS")
	var allowedMethods []string
	if allowedMethodsEnv != "" {
		allowedMethods = strings.Split(allowedMethodsEnv, ",")
	} else {
		allowedMethods = []string{"GET", "POST", "OPTIONS"}
	}

	allowedHeadersEnv := os.Getenv("CORS_HEADERS")
	var allowedHeaders []string
	if allowedHeadersEnv != "" {
		allowedHeaders = strings.Split(allowedHeadersEnv, ",")
	} else {
		allowedHeaders = []string{"Authorization", "Content-Type", "X-Requested-With"}
	}
	// --- End CORS Configuration ---

	minReserve := uint64(1_000_000)
	if s := os.Getenv(EnvMinReserve); s != "" {
		v, err := strconv.ParseUint(s, 10, 64)
		if err != nil {
			return fmt.Errorf("server startup error: invalid %s: %w", EnvMinReserve, err)
		}
		minReserve = v
	}

	eng := engine.New(minReserve, engine.WithLogger(logger))

	// When an authority is configured the server boots a ready-to-use
	// deployment: config, economics, and a funded authority wallet.
	if authorityStr := os.Getenv(EnvAuthority); authorityStr != "" {
		authority, err := solanago.PublicKeyFromBase58(authorityStr)
		if err != nil {
			return fmt.Errorf("server startup error: invalid %s: %w", EnvAuthority, err)
		}
		genesis := uint64(10_000_000_000)
		if s := os.Getenv(EnvGenesisLamports); s != "" {
			if v, err := strconv.ParseUint(s, 10, 64); err == nil {
				genesis = v
			}
		}
		if err := eng.Ledger().Fund(authority, genesis); err != nil {
			return fmt.Errorf("server startup error: funding authority: %w", err)
		}
		if err := eng.InitializeConfig(authority, authority); err != nil {
			return fmt.Errorf("server startup error: initializing config: %w", err)
		}
		if err := eng.InitializeEconomics(authority); err != nil {
			return fmt.Errorf("server startup error: initializing economics: %w", err)
		}
		logger.Info("engine initialized", "authority", authority, "min_reserve", minReserve)
	} else {
		logger.Warn("WLD_AUTHORITY not set; engine starts uninitialized, POST /admin/initialize to set up")
	}

	maxBytes := int64(1 << 20)
	mode := apiMode(logger, maxBytes, allowedHeaders, allowedMethods, allowedOrigins)

	mux.HandleFunc("GET /ping", stools.AdaptHandler(
		handlePing(),
		withRequestID(),
		withLogging(logger),
		mode,
	))

	mux.HandleFunc("POST /token", stools.AdaptHandler(
		handleIssueSudoToken(logger),
		withLoggingAndID(logger),
		atLeastOneAuth(oauthAuthorizerForm(getSecretKey)),
	))

	// Admin: authority-gated setup and settlement.
	admin := func(h http.HandlerFunc) http.HandlerFunc {
		return stools.AdaptHandler(
			h,
			withLoggingAndID(logger),
			atLeastOneAuth(bearerAuthorizerCtxSetToken(getSecretKey)),
			mode,
		)
	}
	mux.HandleFunc("POST /admin/initialize", admin(handleInitialize(logger, eng)))
	mux.HandleFunc("POST /admin/economics", admin(handleUpdateEconomics(logger, eng)))
	mux.HandleFunc("POST /admin/treasury/withdraw", admin(handleWithdrawTreasury(logger, eng)))
	mux.HandleFunc("POST /admin/fund", admin(handleFundWallet(logger, eng)))
	mux.HandleFunc("POST /tips/settle", admin(handleSettleTip(logger, eng)))
	mux.HandleFunc("POST /tips/refund", admin(handleRefundTip(logger, eng)))
	mux.HandleFunc("POST /rewards/publish-global", admin(handlePublishEpoch(logger, eng, true)))

	// Public actions.
	public := func(h http.HandlerFunc) http.HandlerFunc {
		return stools.AdaptHandler(
			h,
			withLoggingAndID(logger),
			mode,
		)
	}
	mux.HandleFunc("POST /agents", public(handleRegisterAgent(logger, eng)))
	mux.HandleFunc("POST /agents/deactivate", public(handleAgentToggle(logger, eng, false)))
	mux.HandleFunc("POST /agents/reactivate", public(handleAgentToggle(logger, eng, true)))
	mux.HandleFunc("POST /agents/rotate-signer", public(handleRotateSigner(logger, eng)))
	mux.HandleFunc("POST /agents/recovery/request", public(handleRecoveryRequest(logger, eng)))
	mux.HandleFunc("POST /agents/recovery/execute", public(handleRecoveryExecute(logger, eng)))
	mux.HandleFunc("POST /agents/recovery/cancel", public(handleRecoveryCancel(logger, eng)))
	mux.HandleFunc("GET /agents/{address}", public(handleGetAgent(logger, eng)))

	mux.HandleFunc("POST /vaults/deposit", public(handleVaultDeposit(logger, eng)))
	mux.HandleFunc("POST /vaults/withdraw", public(handleVaultWithdraw(logger, eng)))
	mux.HandleFunc("POST /vaults/donate", public(handleDonate(logger, eng)))

	mux.HandleFunc("POST /enclaves", public(handleCreateEnclave(logger, eng)))
	mux.HandleFunc("GET /enclaves/{address}", public(handleGetEnclave(logger, eng)))

	mux.HandleFunc("POST /tips", public(handleSubmitTip(logger, eng)))
	mux.HandleFunc("POST /tips/claim-timeout-refund", public(handleClaimTimeoutRefund(logger, eng)))
	mux.HandleFunc("GET /tips/{address}", public(handleGetTip(logger, eng)))

	mux.HandleFunc("POST /jobs", public(handleCreateJob(logger, eng)))
	mux.HandleFunc("POST /jobs/cancel", public(handleCancelJob(logger, eng)))
	mux.HandleFunc("POST /jobs/bids", public(handlePlaceJobBid(logger, eng)))
	mux.HandleFunc("POST /jobs/bids/withdraw", public(handleWithdrawJobBid(logger, eng)))
	mux.HandleFunc("POST /jobs/bids/accept", public(handleAcceptJobBid(logger, eng)))
	mux.HandleFunc("POST /jobs/submit", public(handleSubmitJob(logger, eng)))
	mux.HandleFunc("POST /jobs/approve", public(handleApproveJobSubmission(logger, eng)))
	mux.HandleFunc("GET /jobs/{address}", public(handleGetJob(logger, eng)))

	mux.HandleFunc("POST /rewards/publish", public(handlePublishEpoch(logger, eng, false)))
	mux.HandleFunc("POST /rewards/claim", public(handleClaimRewards(logger, eng)))
	mux.HandleFunc("POST /rewards/sweep", public(handleSweepEpoch(logger, eng)))
	mux.HandleFunc("GET /rewards/{address}", public(handleGetEpoch(logger, eng)))

	mux.HandleFunc("POST /posts", public(handleAnchorPost(logger, eng)))
	mux.HandleFunc("POST /votes", public(handleCastVote(logger, eng)))

	mux.HandleFunc("GET /balances/{address}", public(handleGetBalance(logger, eng)))

	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	logger.Info("server listening", "port", port)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func withLogging(logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			next(w, r)
			logger.Info("http request",
				"method", r.Method,
				"path", r.URL.Path,
				"duration", time.Since(start),
				"remote_addr", r.RemoteAddr,
				"request_id", r.Header.Get("X-Request-ID"),
			)
		}
	}
}

// withRequestID tags each request with a UUID for log correlation.
func withRequestID() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get("X-Request-ID")
			if id == "" {
				id = uuid.NewString()
				r.Header.Set("X-Request-ID", id)
			}
			w.Header().Set("X-Request-ID", id)
			next(w, r)
		}
	}
}

func withLoggingAndID(logger *slog.Logger) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return withRequestID()(withLogging(logger)(next))
	}
}

// handlePing returns a handler for the ping endpoint
func handlePing() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeOK(w)
	}
}
