package metrics

import (
	"errors"
	"net/http"
	"sync/atomic"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Package-level Prometheus collectors, registered via Register. Helpers
// below no-op until registration so library use without metrics stays free.
var (
	regOK atomic.Bool

	serviceStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "starts_total",
			Help:      "Number of successful service launches.",
		}, []string{"service"},
	)
	serviceStops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "stops_total",
			Help:      "Number of user-initiated stops by final outcome (graceful or killed).",
		}, []string{"service", "outcome"},
	)
	unexpectedExits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "unexpected_exits_total",
			Help:      "Number of exits not preceded by a stop request.",
		}, []string{"service"},
	)
	autorestartTriggers = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "autorestart_triggers_total",
			Help:      "Number of autorestart script invocations.",
		},
	)
	sweepKills = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardkeep",
			Subsystem: "sweep",
			Name:      "force_kills_total",
			Help:      "Stray processes force-killed after ignoring graceful termination.",
		}, []string{"image"},
	)
	stateTransitions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "state_transitions_total",
			Help:      "State machine transitions per service.",
		}, []string{"service", "from", "to"},
	)
	currentStates = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "current_state",
			Help:      "Current state per service (1 = active state, 0 = inactive).",
		}, []string{"service", "state"},
	)
	countdownSeconds = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: "wardkeep",
			Subsystem: "service",
			Name:      "countdown_seconds",
			Help:      "Displayed startup-grace countdown per service.",
		}, []string{"service"},
	)
)

// Register registers all collectors with r. Safe to call more than once.
func Register(r prometheus.Registerer) error {
	if regOK.Load() {
		return nil
	}
	cs := []prometheus.Collector{
		serviceStarts, serviceStops, unexpectedExits, autorestartTriggers,
		sweepKills, stateTransitions, currentStates, countdownSeconds,
	}
	for _, c := range cs {
		if err := r.Register(c); err != nil {
			var are prometheus.AlreadyRegisteredError
			if errors.As(err, &are) {
				continue
			}
			return err
		}
	}
	regOK.Store(true)
	return nil
}

// Handler serves the default gatherer; the caller wires the route.
func Handler() http.Handler { return promhttp.Handler() }

func IncStart(service string) {
	if regOK.Load() {
		serviceStarts.WithLabelValues(service).Inc()
	}
}

func IncStop(service, outcome string) {
	if regOK.Load() {
		serviceStops.WithLabelValues(service, outcome).Inc()
	}
}

func IncUnexpectedExit(service string) {
	if regOK.Load() {
		unexpectedExits.WithLabelValues(service).Inc()
	}
}

func IncAutorestart() {
	if regOK.Load() {
		autorestartTriggers.Inc()
	}
}

func IncSweepKill(image string) {
	if regOK.Load() {
		sweepKills.WithLabelValues(image).Inc()
	}
}

func RecordStateTransition(service, from, to string) {
	if regOK.Load() {
		stateTransitions.WithLabelValues(service, from, to).Inc()
	}
}

func SetCurrentState(service, state string, active bool) {
	if !regOK.Load() {
		return
	}
	v := 0.0
	if active {
		v = 1.0
	}
	currentStates.WithLabelValues(service, state).Set(v)
}

func SetCountdown(service string, seconds int) {
	if regOK.Load() {
		countdownSeconds.WithLabelValues(service).Set(float64(seconds))
	}
}
