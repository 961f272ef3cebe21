package web

import (
	"encoding/json"
	"net/http"
	"runtime"
	"strconv"
	"strings"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/stablekit/stableswap/internal/logger"
	enginerouter "github.com/stablekit/stableswap/internal/router"
	"github.com/stablekit/stableswap/internal/state"
)

var webLogger = logger.GetForComponent("web_server")

// WebServer exposes the engine's read-only surface over HTTP.
type WebServer struct {
	routes *mux.Router
	port   string
	engine *enginerouter.Router
}

// NewWebServer creates a new web server instance
func NewWebServer(port string, engine *enginerouter.Router) *WebServer {
	if port == "" {
		port = "8080"
	}

	server := &WebServer{
		routes: mux.NewRouter(),
		port:   port,
		engine: engine,
	}

	server.setupRoutes()
	return server
}

// setupRoutes configures all HTTP routes
func (ws *WebServer) setupRoutes() {
	// Health endpoint (direct route)
	ws.routes.HandleFunc("/health", ws.handleHealth).Methods("GET")

	// Prometheus scrape endpoint
	ws.routes.Handle("/metrics", promhttp.Handler()).Methods("GET")

	// API endpoints
	api := ws.routes.PathPrefix("/api").Subrouter()
	api.HandleFunc("/health", ws.handleHealth).Methods("GET")
	api.HandleFunc("/pool", ws.handleGetPool).Methods("GET")
	api.HandleFunc("/params", ws.handleGetParams).Methods("GET")
	api.HandleFunc("/account/{id}", ws.handleGetAccount).Methods("GET")
	api.HandleFunc("/quote/mint", ws.handleQuoteMint).Methods("GET")
	api.HandleFunc("/quote/swap", ws.handleQuoteSwap).Methods("GET")
	api.HandleFunc("/quote/redeem", ws.handleQuoteRedeem).Methods("GET")
	api.HandleFunc("/receipts", ws.handleGetReceipts).Methods("GET")
	api.HandleFunc("/rebases/latest", ws.handleGetLatestRebase).Methods("GET")

	// Add CORS middleware
	ws.routes.Use(ws.corsMiddleware)
	ws.routes.Use(ws.loggingMiddleware)
}

// Start starts the web server
func (ws *WebServer) Start() error {
	webLogger.Info().Str("port", ws.port).Msg("Starting web server")

	server := &http.Server{
		Addr:         ":" + ws.port,
		Handler:      ws.routes,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return server.ListenAndServe()
}

// handleHealth returns server health status
func (ws *WebServer) handleHealth(w http.ResponseWriter, r *http.Request) {
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	dbHealthy := true
	if err := state.TestDBConnection(); err != nil {
		dbHealthy = false
	}

	pool := ws.engine.Pool()
	overallStatus := "OK"
	statusCode := http.StatusOK
	if !dbHealthy {
		overallStatus = "DEGRADED"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    overallStatus,
		"timestamp": time.Now().UTC().Format(time.RFC3339Nano),
		"system": map[string]interface{}{
			"version":          runtime.Version(),
			"goroutines_count": runtime.NumGoroutine(),
			"alloc_bytes":      memStats.Alloc,
			"sys_bytes":        memStats.Sys,
			"gc_cycles":        memStats.NumGC,
		},
		"engine_status": map[string]interface{}{
			"database_healthy": dbHealthy,
			"pool_paused":      pool.Paused(),
			"total_supply":     pool.TotalSupply(),
		},
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// handleGetPool returns the pool's assets, balances, and invariant state
func (ws *WebServer) handleGetPool(w http.ResponseWriter, r *http.Request) {
	pool := ws.engine.Pool()
	ledger := ws.engine.Ledger()

	d, err := pool.D()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to compute invariant")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to compute invariant")
		return
	}

	response := map[string]interface{}{
		"id":              pool.ID(),
		"tokens":          pool.Tokens(),
		"balances":        pool.Balances(),
		"raw_balances":    pool.RawBalances(),
		"d":               d,
		"a":               pool.A(),
		"total_supply":    pool.TotalSupply(),
		"paused":          pool.Paused(),
		"buffer_amount":   ledger.BufferAmount(),
		"buffer_bad_debt": ledger.BufferBadDebt(),
		"total_shares":    ledger.TotalShares(),
		"total_rewards":   ledger.TotalRewards(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetParams returns the live engine parameters
func (ws *WebServer) handleGetParams(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"parameters": ws.engine.Pool().Params(),
		"timestamp":  time.Now().UTC(),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetAccount returns one holder's claim balance and shares
func (ws *WebServer) handleGetAccount(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	account := vars["id"]
	if account == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Missing account ID")
		return
	}

	ledger := ws.engine.Ledger()
	response := map[string]interface{}{
		"account": account,
		"balance": ledger.BalanceOf(account),
		"shares":  ledger.SharesOf(account),
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleQuoteMint prices a deposit: ?amounts=<a0>,<a1>,...
func (ws *WebServer) handleQuoteMint(w http.ResponseWriter, r *http.Request) {
	amounts, ok := ws.parseAmountList(w, r.URL.Query().Get("amounts"))
	if !ok {
		return
	}

	mintAmount, fee, err := ws.engine.Pool().GetMintAmount(amounts)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"mint_amount": mintAmount,
		"fee":         fee,
	})
}

// handleQuoteSwap prices a swap: ?token_in=0&token_out=1&amount=...
func (ws *WebServer) handleQuoteSwap(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	tokenIn, err := strconv.Atoi(q.Get("token_in"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid token_in")
		return
	}
	tokenOut, err := strconv.Atoi(q.Get("token_out"))
	if err != nil {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid token_out")
		return
	}
	amount, ok := sdkmath.NewIntFromString(q.Get("amount"))
	if !ok {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount")
		return
	}

	out, fee, err := ws.engine.Pool().GetSwapAmount(tokenIn, tokenOut, amount)
	if err != nil {
		ws.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"amount_out": out,
		"fee":        fee,
	})
}

// handleQuoteRedeem prices a redemption. mode=proportion|single|multi;
// proportion and single take ?amount= (single also ?token_out=), multi takes
// ?amounts=.
func (ws *WebServer) handleQuoteRedeem(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	pool := ws.engine.Pool()

	switch q.Get("mode") {
	case "proportion":
		amount, ok := sdkmath.NewIntFromString(q.Get("amount"))
		if !ok {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		payouts, fee, err := pool.GetRedeemProportionAmount(amount)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"amounts_out": payouts,
			"fee":         fee,
		})

	case "single":
		amount, ok := sdkmath.NewIntFromString(q.Get("amount"))
		if !ok {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount")
			return
		}
		tokenOut, err := strconv.Atoi(q.Get("token_out"))
		if err != nil {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid token_out")
			return
		}
		out, fee, err := pool.GetRedeemSingleAmount(amount, tokenOut)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"amount_out": out,
			"fee":        fee,
		})

	case "multi":
		amounts, ok := ws.parseAmountList(w, q.Get("amounts"))
		if !ok {
			return
		}
		redeemAmount, fee, err := pool.GetRedeemMultiAmount(amounts)
		if err != nil {
			ws.writeErrorResponse(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		ws.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
			"redeem_amount": redeemAmount,
			"fee":           fee,
		})

	default:
		ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid mode (want proportion, single, or multi)")
	}
}

// handleGetReceipts returns recent settlement receipts
func (ws *WebServer) handleGetReceipts(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsedLimit, err := strconv.Atoi(limitStr); err == nil && parsedLimit > 0 && parsedLimit <= 100 {
			limit = parsedLimit
		}
	}

	receipts, err := state.RecentReceipts(limit)
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get recent receipts")
		ws.writeErrorResponse(w, http.StatusInternalServerError, "Failed to retrieve receipts")
		return
	}

	response := map[string]interface{}{
		"receipts": receipts,
		"count":    len(receipts),
		"limit":    limit,
	}

	ws.writeJSONResponse(w, http.StatusOK, response)
}

// handleGetLatestRebase returns the most recent rebase snapshot
func (ws *WebServer) handleGetLatestRebase(w http.ResponseWriter, r *http.Request) {
	snap, err := state.LatestRebaseSnapshot()
	if err != nil {
		webLogger.Error().Err(err).Msg("Failed to get latest rebase snapshot")
		ws.writeErrorResponse(w, http.StatusNotFound, "No rebase snapshots found")
		return
	}

	ws.writeJSONResponse(w, http.StatusOK, snap)
}

func (ws *WebServer) parseAmountList(w http.ResponseWriter, raw string) ([]sdkmath.Int, bool) {
	if raw == "" {
		ws.writeErrorResponse(w, http.StatusBadRequest, "Missing amounts")
		return nil, false
	}
	parts := strings.Split(raw, ",")
	amounts := make([]sdkmath.Int, len(parts))
	for i, part := range parts {
		v, ok := sdkmath.NewIntFromString(strings.TrimSpace(part))
		if !ok {
			ws.writeErrorResponse(w, http.StatusBadRequest, "Invalid amount at position "+strconv.Itoa(i))
			return nil, false
		}
		amounts[i] = v
	}
	return amounts, true
}

// writeJSONResponse writes a JSON response
func (ws *WebServer) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		webLogger.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeErrorResponse writes an error response
func (ws *WebServer) writeErrorResponse(w http.ResponseWriter, statusCode int, message string) {
	response := map[string]interface{}{
		"error":     true,
		"message":   message,
		"timestamp": time.Now().UTC(),
	}

	ws.writeJSONResponse(w, statusCode, response)
}

// corsMiddleware adds CORS headers
func (ws *WebServer) corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// loggingMiddleware logs HTTP requests
func (ws *WebServer) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Create a response writer wrapper to capture status code
		wrapper := &responseWriterWrapper{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapper, r)

		duration := time.Since(start)

		webLogger.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Str("remote_addr", r.RemoteAddr).
			Int("status", wrapper.statusCode).
			Dur("duration", duration).
			Msg("HTTP request")
	})
}

// responseWriterWrapper wraps http.ResponseWriter to capture status code
type responseWriterWrapper struct {
	http.ResponseWriter
	statusCode int
}

func (w *responseWriterWrapper) WriteHeader(statusCode int) {
	w.statusCode = statusCode
	w.ResponseWriter.WriteHeader(statusCode)
}
