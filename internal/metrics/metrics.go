// Package metrics holds the prometheus collectors shared by the planners.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Path query results.
const (
	ResultFound       = "found"
	ResultUnreachable = "unreachable"
	ResultTrivial     = "trivial"
	ResultInvalid     = "invalid"
)

var (
	pathQueryTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_path_query_total",
		Help: "Total A* path queries by result type",
	}, []string{"result"})

	pathQueryDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_path_query_duration_seconds",
		Help:    "A* path query duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.00001, 2, 14), // 10µs to ~80ms
	})

	pathQueryExpansions = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_path_query_expansions",
		Help:    "Number of frontier records expanded per A* query",
		Buckets: []float64{1, 2, 5, 10, 20, 50, 100, 200, 500, 1000},
	})

	acoRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_aco_run_duration_seconds",
		Help:    "Duration of a full ACO optimisation",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 14), // 1ms to ~8s
	})

	acoAntTours = promauto.NewCounter(prometheus.CounterOpts{
		Name: "fleet_aco_ant_tours_total",
		Help: "Total ant tours constructed",
	})

	acoRouteLength = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "fleet_aco_route_edges",
		Help:    "Edges in the route extracted after optimisation",
		Buckets: []float64{0, 1, 2, 3, 5, 8, 13, 21, 34},
	})

	fleetDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "fleet_yield_decisions_total",
		Help: "Pause and resume decisions made by the fleet coordinator",
	}, []string{"decision"})

	fleetActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_active_agents",
		Help: "Agents currently registered with the fleet coordinator",
	})
)

// ObservePathQuery records the outcome of one A* query.
func ObservePathQuery(result string, expansions int, d time.Duration) {
	pathQueryTotal.WithLabelValues(result).Inc()
	pathQueryDuration.Observe(d.Seconds())
	pathQueryExpansions.Observe(float64(expansions))
}

// ObserveACORun records a finished optimisation.
func ObserveACORun(tours int, routeEdges int, d time.Duration) {
	acoRunDuration.Observe(d.Seconds())
	acoAntTours.Add(float64(tours))
	acoRouteLength.Observe(float64(routeEdges))
}

// ObserveFleetDecisions records one coordinator tick.
func ObserveFleetDecisions(paused, resumed, active int) {
	fleetDecisions.WithLabelValues("pause").Add(float64(paused))
	fleetDecisions.WithLabelValues("resume").Add(float64(resumed))
	fleetActive.Set(float64(active))
}
