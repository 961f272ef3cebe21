package oracle

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	sdkmath "cosmossdk.io/math"

	"github.com/stablekit/stableswap/internal/logger"
)

const queryTimeout = 10 * time.Second

var httpLogger = logger.GetForComponent("rate_source")

// rateResponse is the wire shape a remote rate endpoint returns.
type rateResponse struct {
	Rate      string `json:"rate"`      // integer string in the endpoint's precision
	Decimals  int    `json:"decimals"`  // precision of Rate
	Timestamp int64  `json:"timestamp"` // unix seconds of the observation
}

// HTTP fetches rates from a JSON endpoint. Wrap it in Fresh before handing
// it to the pool so stale observations fail settlement instead of feeding it.
type HTTP struct {
	endpoint string
	client   *http.Client
}

func NewHTTP(endpoint string) *HTTP {
	return &HTTP{
		endpoint: endpoint,
		client:   &http.Client{Timeout: queryTimeout},
	}
}

func (p *HTTP) Rate() (Rate, error) {
	resp, err := p.client.Get(p.endpoint)
	if err != nil {
		return Rate{}, fmt.Errorf("rate query failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Rate{}, fmt.Errorf("rate endpoint returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Rate{}, fmt.Errorf("failed to read rate response: %w", err)
	}

	var decoded rateResponse
	if err := json.Unmarshal(body, &decoded); err != nil {
		return Rate{}, fmt.Errorf("failed to decode rate response: %w", err)
	}

	value, ok := sdkmath.NewIntFromString(decoded.Rate)
	if !ok {
		return Rate{}, fmt.Errorf("rate endpoint returned a non-integer rate: %q", decoded.Rate)
	}

	httpLogger.Debug().
		Str("endpoint", p.endpoint).
		Str("rate", value.String()).
		Int("decimals", decoded.Decimals).
		Msg("Fetched exchange rate")

	return Rate{
		Value:     value,
		Decimals:  decoded.Decimals,
		Timestamp: time.Unix(decoded.Timestamp, 0),
	}, nil
}
