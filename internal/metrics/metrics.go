package metrics

import (
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	httpRequestsTotal   *prometheus.CounterVec
	registrationResults *prometheus.CounterVec
	activityProcessed   *prometheus.CounterVec
	registerOnce        sync.Once
)

// Register initializes Prometheus metrics on the default registry.
func Register() {
	registerOnce.Do(func() {
		httpRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventplanner",
			Name:      "http_requests_total",
			Help:      "Total HTTP requests processed by the event API.",
		}, []string{"method", "path", "status"})

		registrationResults = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventplanner",
			Name:      "registration_attempts_total",
			Help:      "Register and unregister attempts by outcome.",
		}, []string{"action", "outcome"})

		activityProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "eventplanner",
			Name:      "activity_events_total",
			Help:      "Registration activity events handled by the background worker.",
		}, []string{"kind"})
	})
}

// IncRequest increments the http_requests_total counter with the given labels.
func IncRequest(method, path string, status int) {
	if httpRequestsTotal == nil {
		return
	}
	httpRequestsTotal.WithLabelValues(method, path, strconv.Itoa(status)).Inc()
}

// IncRegistration counts one register/unregister attempt.
func IncRegistration(action, outcome string) {
	if registrationResults == nil {
		return
	}
	registrationResults.WithLabelValues(action, outcome).Inc()
}

func IncActivity(kind string) {
	if activityProcessed == nil {
		return
	}
	activityProcessed.WithLabelValues(kind).Inc()
}
