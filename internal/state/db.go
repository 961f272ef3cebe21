// ./internal/state/db.go
package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/lib/pq" // PostgreSQL driver
	"github.com/rs/zerolog/log"
)

// DB is a global database connection pool.
var DB *sql.DB

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string // "disable", "require", "verify-full", etc.
}

// InitDB initializes the database connection pool.
func InitDB(cfg DBConfig) error {
	psqlInfo := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.DBName, cfg.SSLMode)

	var err error
	DB, err = sql.Open("postgres", psqlInfo)
	if err != nil {
		return fmt.Errorf("failed to open database connection: %w", err)
	}

	DB.SetMaxOpenConns(25)
	DB.SetMaxIdleConns(25)
	DB.SetConnMaxLifetime(5 * time.Minute)

	err = DB.Ping()
	if err != nil {
		DB.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().Msg("Successfully connected to the PostgreSQL database!")
	return nil
}

// CloseDB closes the database connection pool.
func CloseDB() {
	if DB != nil {
		log.Info().Msg("Closing database connection...")
		if err := DB.Close(); err != nil {
			log.Error().Err(err).Msg("Error closing database connection")
		}
	}
}

// EnsureSchema applies the necessary DDL to create tables if they don't exist.
func EnsureSchema() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}

	// All big integers are stored as NUMERIC(78, 0): wide enough for any
	// 256-bit amount in the normalized 18-decimal unit, with no float
	// rounding on the way in or out.
	schemaSQL := `
		CREATE TABLE IF NOT EXISTS engine_parameters (
			params_id SERIAL PRIMARY KEY,
			version INTEGER NOT NULL DEFAULT 1,
			config_name VARCHAR(255) NOT NULL DEFAULT 'default',
			is_active BOOLEAN NOT NULL DEFAULT FALSE,
			activated_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			created_at TIMESTAMPTZ NOT NULL DEFAULT CURRENT_TIMESTAMP,
			a BIGINT NOT NULL,
			mint_fee BIGINT NOT NULL,
			swap_fee BIGINT NOT NULL,
			redeem_fee BIGINT NOT NULL,
			off_peg_fee_multiplier BIGINT NOT NULL,
			min_ramp_time_seconds BIGINT NOT NULL,
			fee_error_margin NUMERIC(78, 0) NOT NULL,
			yield_error_margin NUMERIC(78, 0) NOT NULL,
			max_delta_d NUMERIC(78, 0) NOT NULL,
			buffer_percent BIGINT NOT NULL,
			CONSTRAINT uq_engine_parameters_config_version UNIQUE (config_name, version)
		);
		CREATE INDEX IF NOT EXISTS idx_engine_parameters_config_active ON engine_parameters(config_name, is_active, activated_at DESC);

		CREATE TABLE IF NOT EXISTS settlement_receipts (
			receipt_id SERIAL PRIMARY KEY,
			kind VARCHAR(32) NOT NULL,
			account VARCHAR(255) NOT NULL,
			settled_at TIMESTAMPTZ NOT NULL,
			token_in INTEGER NOT NULL,
			token_out INTEGER NOT NULL,
			amounts_in JSONB,
			amounts_out JSONB,
			claim_delta NUMERIC(78, 0) NOT NULL,
			fee_charged NUMERIC(78, 0) NOT NULL,
			d NUMERIC(78, 0) NOT NULL,
			total_supply NUMERIC(78, 0) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_settlement_receipts_settled_at ON settlement_receipts(settled_at DESC);
		CREATE INDEX IF NOT EXISTS idx_settlement_receipts_account ON settlement_receipts(account);
		CREATE INDEX IF NOT EXISTS idx_settlement_receipts_kind ON settlement_receipts(kind);

		CREATE TABLE IF NOT EXISTS rebase_snapshots (
			snapshot_id SERIAL PRIMARY KEY,
			rebased_at TIMESTAMPTZ NOT NULL,
			balances JSONB NOT NULL,
			d NUMERIC(78, 0) NOT NULL,
			total_supply NUMERIC(78, 0) NOT NULL,
			fee_amount NUMERIC(78, 0) NOT NULL,
			yield_amount NUMERIC(78, 0) NOT NULL,
			buffer_amount NUMERIC(78, 0) NOT NULL,
			buffer_bad_debt NUMERIC(78, 0) NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_rebase_snapshots_rebased_at ON rebase_snapshots(rebased_at DESC);
	`
	_, err := DB.Exec(schemaSQL)
	if err != nil {
		return fmt.Errorf("failed to execute schema DDL: %w", err)
	}
	log.Info().Msg("Database schema ensured.")
	return nil
}

// TestDBConnection tests if the database connection is healthy
func TestDBConnection() error {
	if DB == nil {
		return fmt.Errorf("database connection is nil")
	}

	// Use a short timeout context for health checks
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := DB.PingContext(ctx)
	if err != nil {
		return fmt.Errorf("database ping failed: %w", err)
	}

	return nil
}
