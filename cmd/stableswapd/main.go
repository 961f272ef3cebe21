package main

import (
	"os"
	"os/signal"
	"syscall"
	"time"

	sdkmath "cosmossdk.io/math"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/stablekit/stableswap/internal/config"
	"github.com/stablekit/stableswap/internal/guard"
	"github.com/stablekit/stableswap/internal/ledger"
	"github.com/stablekit/stableswap/internal/logger"
	"github.com/stablekit/stableswap/internal/oracle"
	"github.com/stablekit/stableswap/internal/pool"
	"github.com/stablekit/stableswap/internal/ramp"
	"github.com/stablekit/stableswap/internal/router"
	"github.com/stablekit/stableswap/internal/state"
	"github.com/stablekit/stableswap/internal/types"
	"github.com/stablekit/stableswap/internal/web"
)

const PARAMS_INITIAL_VERSION = 1

// main is the entry point for the stableswap engine service.
func main() {
	// --- 1. Initialization Phase ---
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg("Warning: .env file not found. Relying on OS environment variables.")
	}

	// Load configuration from environment variables
	if err := config.LoadConfig(); err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logger.Initialize(config.LogLevel)
	log.Info().Msg("StableSwap engine starting...")

	// Initialize database connection
	dbCfg := state.DBConfig{
		Host: config.DBHost, Port: config.DBPort,
		User: config.DBUser, Password: config.DBPassword,
		DBName: config.DBName, SSLMode: config.DBSSLMode,
	}
	if err := state.InitDB(dbCfg); err != nil {
		log.Fatal().Err(err).Msg("Failed to initialize database")
	}
	defer state.CloseDB()
	if err := state.EnsureSchema(); err != nil {
		log.Fatal().Err(err).Msg("Failed to ensure database schema")
	}

	// Load engine parameters, seeding the defaults on first start.
	params, version, err := state.LoadActiveParameters(config.ParamsConfigName)
	if err != nil {
		log.Warn().Err(err).Msg("No active engine parameters found, using defaults and saving.")
		params = config.DefaultEngineParameters
		if _, err := state.SaveEngineParameters(params, config.ParamsConfigName, PARAMS_INITIAL_VERSION, true); err != nil {
			log.Fatal().Err(err).Msg("Failed to save initial default engine parameters.")
		}
		version = PARAMS_INITIAL_VERSION
	}
	log.Info().Int("version", version).Msg("Engine parameters loaded successfully.")

	// --- 2. Engine Construction ---
	roles := guard.Roles{
		Governor: config.GovernorAddress,
		Curator:  config.CuratorAddress,
		Guardian: config.GuardianAddress,
	}

	shareLedger := ledger.New(config.GovernorAddress, params.BufferPercent)
	if err := shareLedger.RegisterPool(config.GovernorAddress, config.PoolID); err != nil {
		log.Fatal().Err(err).Msg("Failed to register pool with the share ledger")
	}

	rampController, err := ramp.New(
		sdkmath.NewIntFromUint64(params.A),
		time.Duration(params.MinRampTimeSeconds)*time.Second,
		time.Now,
	)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create amplification ramp controller")
	}

	providers := buildRateProviders()

	enginePool, err := pool.New(pool.Config{
		ID:        config.PoolID,
		Assets:    config.Assets,
		Providers: providers,
		Params:    params,
		Roles:     roles,
		Admins:    config.AdminAddresses,
		Guard:     guard.New(roles),
		Ramp:      rampController,
		Ledger:    shareLedger,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create pool")
	}

	engine := router.New(enginePool, shareLedger, state.ReceiptStore{})
	log.Info().
		Str("pool", config.PoolID).
		Int("assets", len(config.Assets)).
		Msg("Engine constructed")

	// --- 3. Start Web Server ---
	webServer := web.NewWebServer(config.WebPort, engine)
	go func() {
		log.Info().Str("port", config.WebPort).Msg("Starting API server")
		if err := webServer.Start(); err != nil {
			log.Error().Err(err).Msg("Web server failed to start")
		}
	}()

	// --- 4. Rebase Loop ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	if config.RebaseIntervalSeconds <= 0 {
		log.Warn().Msg("REBASE_INTERVAL_SECONDS is zero, automatic rebasing disabled")
		<-stop
		log.Info().Msg("Shutting down...")
		return
	}

	interval := time.Duration(config.RebaseIntervalSeconds) * time.Second
	log.Info().Str("interval", interval.String()).Msg("Starting rebase loop")
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			runRebase(enginePool)
		case <-stop:
			log.Info().Msg("Shutting down...")
			return
		}
	}
}

// runRebase performs one reconciliation pass and persists its snapshot.
func runRebase(enginePool *pool.Pool) {
	snap, err := enginePool.Rebase()
	if err != nil {
		switch err {
		case types.ErrLossNotApproved:
			log.Warn().Msg("Rebase found a loss; waiting for governor approval")
		case types.ErrPoolPaused:
			log.Info().Msg("Pool paused, skipping rebase")
		case types.ErrNoSupply:
			log.Debug().Msg("Pool empty, skipping rebase")
		default:
			log.Error().Err(err).Msg("Rebase failed")
		}
		return
	}

	if err := state.SaveRebaseSnapshot(snap); err != nil {
		log.Error().Err(err).Msg("Failed to persist rebase snapshot")
	}
}

// buildRateProviders wires one rate source per asset: an HTTP source behind a
// freshness bound where an endpoint is configured, the identity rate
// otherwise.
func buildRateProviders() []oracle.Provider {
	maxAge := time.Duration(config.RateMaxAgeSeconds) * time.Second
	providers := make([]oracle.Provider, len(config.Assets))
	for i, endpoint := range config.RateEndpoints {
		if endpoint == "" {
			continue // pool.New substitutes the identity provider
		}
		providers[i] = oracle.NewFresh(oracle.NewHTTP(endpoint), maxAge, time.Now)
		log.Info().
			Str("asset", config.Assets[i].Symbol).
			Str("endpoint", endpoint).
			Msg("Configured HTTP rate source")
	}
	return providers
}
