package services

import "github.com/prometheus/client_golang/prometheus"

var (
	dayStatusMutations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "day_status_mutations_total",
			Help: "Day status requests by mode and outcome",
		},
		[]string{"mode", "outcome"},
	)
	goalAutoAdvances = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "goal_auto_advances_total",
			Help: "Goal selections advanced automatically from elapsed time",
		},
	)
	goalPersistFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "goal_persist_failures_total",
			Help: "Background goal persists that failed or were dropped",
		},
	)
	liveTimerSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "live_timer_sessions",
			Help: "Open live timer websocket sessions",
		},
	)
)

// InitMetrics registers the domain metrics. Call this from main.go
func InitMetrics() {
	prometheus.MustRegister(dayStatusMutations)
	prometheus.MustRegister(goalAutoAdvances)
	prometheus.MustRegister(goalPersistFailures)
	prometheus.MustRegister(liveTimerSessions)
}
