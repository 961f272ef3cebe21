package config

import (
	"errors"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/stablekit/stableswap/internal/types"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// PoolID identifies this pool deployment in the ledger and persistence.
	PoolID string

	// LogLevel is the zerolog level name ("debug", "info", ...).
	LogLevel string

	// WebPort is the JSON API listen port.
	WebPort string

	// RebaseIntervalSeconds is the period of the automatic rebase loop.
	// Zero disables the loop.
	RebaseIntervalSeconds int64

	// GovernorAddress holds unrestricted parameter and ledger authority.
	GovernorAddress string
	// CuratorAddress may move guarded parameters within bounds.
	CuratorAddress string
	// GuardianAddress may cancel an in-flight amplification ramp.
	GuardianAddress string
	// AdminAddresses may pause and unpause settlement.
	AdminAddresses []string

	// Assets describes the pool's tokens, parsed from the ASSET_* variables.
	Assets []types.Asset
	// RateEndpoints holds one HTTP rate source URL per asset; an empty entry
	// means the asset trades at the identity rate.
	RateEndpoints []string
	// RateMaxAgeSeconds bounds how old a fetched rate may be at rebase time.
	RateMaxAgeSeconds int64

	// ParamsConfigName selects the parameter row family in postgres.
	ParamsConfigName string

	// Database connection parameters.
	DBHost     string
	DBPort     int
	DBUser     string
	DBPassword string
	DBName     string
	DBSSLMode  string
)

// LoadConfig loads configuration from environment variables and sets the
// global config vars. All environment variables are required and must be set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	PoolID, err = getEnv("POOL_ID")
	if err != nil {
		return err
	}

	LogLevel, err = getEnv("LOG_LEVEL")
	if err != nil {
		return err
	}

	WebPort, err = getEnv("WEB_PORT")
	if err != nil {
		return err
	}

	RebaseIntervalSeconds, err = getEnvAsInt64("REBASE_INTERVAL_SECONDS")
	if err != nil {
		return err
	}

	GovernorAddress, err = getEnv("GOVERNOR_ADDRESS")
	if err != nil {
		return err
	}

	CuratorAddress, err = getEnv("CURATOR_ADDRESS")
	if err != nil {
		return err
	}

	GuardianAddress, err = getEnv("GUARDIAN_ADDRESS")
	if err != nil {
		return err
	}

	admins, err := getEnv("ADMIN_ADDRESSES")
	if err != nil {
		return err
	}
	AdminAddresses = splitTrimmed(admins)

	if err := loadAssetConfig(); err != nil {
		return err
	}

	ParamsConfigName, err = getEnv("PARAMS_CONFIG_NAME")
	if err != nil {
		return err
	}

	if err := loadDatabaseConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("PoolID", PoolID).
		Int("Assets", len(Assets)).
		Str("WebPort", WebPort).
		Msg("Configuration loaded successfully.")

	return nil
}

// loadAssetConfig parses the parallel ASSET_* lists into the Assets slice.
func loadAssetConfig() error {
	symbols, err := getEnv("ASSET_SYMBOLS")
	if err != nil {
		return err
	}
	denoms, err := getEnv("ASSET_DENOMS")
	if err != nil {
		return err
	}
	decimals, err := getEnv("ASSET_DECIMALS")
	if err != nil {
		return err
	}

	symbolList := splitTrimmed(symbols)
	denomList := splitTrimmed(denoms)
	decimalList := splitTrimmed(decimals)
	if len(symbolList) < 2 {
		return errors.New("ASSET_SYMBOLS must list at least two assets")
	}
	if len(denomList) != len(symbolList) || len(decimalList) != len(symbolList) {
		return errors.New("ASSET_SYMBOLS, ASSET_DENOMS and ASSET_DECIMALS must have the same length")
	}

	Assets = make([]types.Asset, len(symbolList))
	for i := range symbolList {
		dec, err := strconv.Atoi(decimalList[i])
		if err != nil || dec < 0 || dec > types.TargetDecimals {
			return errors.New("ASSET_DECIMALS entry must be an integer between 0 and 18, got: " + decimalList[i])
		}
		Assets[i] = types.Asset{Symbol: symbolList[i], Denom: denomList[i], Decimals: dec}
	}

	// RATE_ENDPOINTS is optional; when set it must be one entry per asset,
	// with blanks for identity-rate assets.
	if raw, exists := os.LookupEnv("RATE_ENDPOINTS"); exists && raw != "" {
		RateEndpoints = strings.Split(raw, ",")
		for i := range RateEndpoints {
			RateEndpoints[i] = strings.TrimSpace(RateEndpoints[i])
		}
		if len(RateEndpoints) != len(Assets) {
			return errors.New("RATE_ENDPOINTS must have one entry per asset")
		}
	} else {
		RateEndpoints = make([]string, len(Assets))
	}

	RateMaxAgeSeconds, err = getEnvAsInt64("RATE_MAX_AGE_SECONDS")
	if err != nil {
		return err
	}
	return nil
}

// loadDatabaseConfig loads the postgres connection parameters.
func loadDatabaseConfig() error {
	var err error

	DBHost, err = getEnv("DB_HOST")
	if err != nil {
		return err
	}

	DBPort, err = getEnvAsInt("DB_PORT")
	if err != nil {
		return err
	}

	DBUser, err = getEnv("DB_USER")
	if err != nil {
		return err
	}

	DBPassword, err = getEnv("DB_PASSWORD")
	if err != nil {
		return err
	}

	DBName, err = getEnv("DB_NAME")
	if err != nil {
		return err
	}

	DBSSLMode, err = getEnv("DB_SSLMODE")
	if err != nil {
		return err
	}
	return nil
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists {
		return value, nil
	}
	return "", errors.New("environment variable " + key + " is required but not set")
}

// getEnvAsInt retrieves an environment variable as an int. Returns error if not set or invalid.
func getEnvAsInt(key string) (int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid integer, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsInt64 retrieves an environment variable as an int64. Returns error if not set or invalid.
func getEnvAsInt64(key string) (int64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return 0, err
	}
	value, err := strconv.ParseInt(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int64, got: " + valueStr)
	}
	return value, nil
}

func splitTrimmed(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
