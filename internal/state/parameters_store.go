// ./internal/state/parameters_store.go
package state

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/stablekit/stableswap/internal/types"
)

// SaveEngineParameters saves a new version of engine parameters. When
// makeActive is true the previously active version for the config is
// deactivated in the same transaction.
func SaveEngineParameters(params types.EngineParameters, configName string, version int, makeActive bool) (int64, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	tx, err := DB.Begin()
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			tx.Rollback()
			panic(p) // Re-panic after rollback
		} else if err != nil {
			tx.Rollback() // Rollback if error occurred
		}
	}()

	if makeActive {
		stmtDeactivate := `UPDATE engine_parameters SET is_active = FALSE WHERE config_name = $1 AND is_active = TRUE;`
		_, err = tx.Exec(stmtDeactivate, configName)
		if err != nil {
			return 0, fmt.Errorf("failed to deactivate existing active parameters for %s: %w", configName, err)
		}
	}

	stmt := `
        INSERT INTO engine_parameters (
            version, config_name, is_active, activated_at,
            a, mint_fee, swap_fee, redeem_fee, off_peg_fee_multiplier,
            min_ramp_time_seconds,
            fee_error_margin, yield_error_margin, max_delta_d,
            buffer_percent
        ) VALUES (
            $1, $2, $3, $4,
            $5, $6, $7, $8, $9,
            $10,
            $11, $12, $13,
            $14
        ) RETURNING params_id;`

	now := time.Now()
	var paramsID int64
	err = tx.QueryRow(stmt,
		version, configName, makeActive, now,
		params.A, params.MintFee, params.SwapFee, params.RedeemFee, params.OffPegFeeMultiplier,
		params.MinRampTimeSeconds,
		nonEmpty(params.FeeErrorMargin), nonEmpty(params.YieldErrorMargin), nonEmpty(params.MaxDeltaD),
		params.BufferPercent,
	).Scan(&paramsID)
	if err != nil {
		return 0, fmt.Errorf("failed to insert engine parameters: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit parameters transaction: %w", err)
	}

	log.Info().
		Str("config", configName).
		Int("version", version).
		Bool("active", makeActive).
		Int64("params_id", paramsID).
		Msg("Saved engine parameters")
	return paramsID, nil
}

// LoadActiveParameters returns the active parameter set for a config, or
// sql.ErrNoRows if none has been activated yet.
func LoadActiveParameters(configName string) (types.EngineParameters, int, error) {
	var params types.EngineParameters
	if DB == nil {
		return params, 0, fmt.Errorf("database not initialized")
	}

	stmt := `
        SELECT version, a, mint_fee, swap_fee, redeem_fee, off_peg_fee_multiplier,
               min_ramp_time_seconds,
               fee_error_margin, yield_error_margin, max_delta_d,
               buffer_percent
        FROM engine_parameters
        WHERE config_name = $1 AND is_active = TRUE
        ORDER BY activated_at DESC
        LIMIT 1;`

	var version int
	err := DB.QueryRow(stmt, configName).Scan(
		&version,
		&params.A, &params.MintFee, &params.SwapFee, &params.RedeemFee, &params.OffPegFeeMultiplier,
		&params.MinRampTimeSeconds,
		&params.FeeErrorMargin, &params.YieldErrorMargin, &params.MaxDeltaD,
		&params.BufferPercent,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return params, 0, err
		}
		return params, 0, fmt.Errorf("failed to load active parameters for %s: %w", configName, err)
	}
	return params, version, nil
}

// LatestParametersVersion returns the highest stored version for a config,
// or 0 when none exist.
func LatestParametersVersion(configName string) (int, error) {
	if DB == nil {
		return 0, fmt.Errorf("database not initialized")
	}

	var version sql.NullInt64
	err := DB.QueryRow(
		`SELECT MAX(version) FROM engine_parameters WHERE config_name = $1;`,
		configName,
	).Scan(&version)
	if err != nil {
		return 0, fmt.Errorf("failed to query latest parameters version: %w", err)
	}
	if !version.Valid {
		return 0, nil
	}
	return int(version.Int64), nil
}

// nonEmpty maps an unset big-integer string to "0" so NUMERIC columns never
// see an empty literal.
func nonEmpty(s string) string {
	if s == "" {
		return "0"
	}
	return s
}
