package mpvremote

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	requestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpvctl_remote_requests_total",
		Help: "Requests made to the mpv remote server by endpoint and outcome",
	}, []string{
		"op",      // status|command|upload|browse|thumbnail|authenticate|is-authenticated|change-password
		"outcome", // ok|unauthorized|http_error|network_error
	})

	// An ok request whose body could not be used is also counted here.
	malformedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mpvctl_remote_malformed_responses_total",
		Help: "Successful responses from the mpv remote server whose body could not be decoded",
	}, []string{"op"})

	requestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "mpvctl_remote_request_duration_seconds",
		Help:    "Latency of requests made to the mpv remote server",
		Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
	}, []string{"op"})
)

func observeRequest(op, outcome string, seconds float64) {
	requestsTotal.WithLabelValues(op, outcome).Inc()
	requestDuration.WithLabelValues(op).Observe(seconds)
}

// malformed counts an undecodable response and returns the error for it.
func malformed(op string, err error) error {
	malformedTotal.WithLabelValues(op).Inc()
	return &Error{Op: op, StatusCode: http.StatusOK, Err: fmt.Errorf("%w: %v", ErrMalformed, err)}
}
