package pool

import (
	"sync"

	sdkmath "cosmossdk.io/math"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/stablekit/stableswap/internal/utils"
)

// Metrics holds the Prometheus instruments for the invariant engine.
type Metrics struct {
	MintsTotal   prometheus.Counter
	SwapsTotal   prometheus.Counter
	RedeemsTotal prometheus.Counter
	RebasesTotal prometheus.Counter

	FeesCollected prometheus.Counter

	InvariantD  prometheus.Gauge
	TotalSupply prometheus.Gauge
}

var (
	engineMetricsOnce sync.Once
	engineMetrics     *Metrics
)

// EngineMetrics creates and registers the engine metrics (singleton pattern).
func EngineMetrics() *Metrics {
	engineMetricsOnce.Do(func() {
		engineMetrics = &Metrics{
			MintsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "mints_total",
					Help:      "Total number of mint settlements",
				},
			),
			SwapsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "swaps_total",
					Help:      "Total number of swap settlements",
				},
			),
			RedeemsTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "redeems_total",
					Help:      "Total number of redeem settlements",
				},
			),
			RebasesTotal: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "rebases_total",
					Help:      "Total number of completed rebases",
				},
			),
			FeesCollected: promauto.NewCounter(
				prometheus.CounterOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "fees_collected_total",
					Help:      "Cumulative fees charged, in normalized display units",
				},
			),
			InvariantD: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "invariant_d",
					Help:      "Current invariant D in normalized display units",
				},
			),
			TotalSupply: promauto.NewGauge(
				prometheus.GaugeOpts{
					Namespace: "stableswap",
					Subsystem: "pool",
					Name:      "total_supply",
					Help:      "Claim supply attributed to the pool, in normalized display units",
				},
			),
		}
	})
	return engineMetrics
}

func (p *Pool) observeFee(fee sdkmath.Int) {
	if !fee.IsPositive() {
		return
	}
	if v, err := utils.SDKIntToFloat64(fee, 18); err == nil {
		p.metrics.FeesCollected.Add(v)
	}
}

func (p *Pool) observeState(d sdkmath.Int) {
	if v, err := utils.SDKIntToFloat64(d, 18); err == nil {
		p.metrics.InvariantD.Set(v)
	}
	if v, err := utils.SDKIntToFloat64(p.totalSupply, 18); err == nil {
		p.metrics.TotalSupply.Set(v)
	}
}
