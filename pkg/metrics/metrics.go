package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// ClientMetrics tracks requests sent to the UP42 API
type ClientMetrics struct {
	requests     *prometheus.CounterVec
	duration     *prometheus.HistogramVec
	responseSize *prometheus.HistogramVec
}

// NewClientMetrics creates the client collectors and registers them on reg.
// A nil reg leaves them unregistered.
func NewClientMetrics(reg prometheus.Registerer) *ClientMetrics {
	m := &ClientMetrics{
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "up42_client_requests_total",
				Help: "Total requests sent to the UP42 API",
			},
			[]string{"method", "status"},
		),
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "up42_client_request_duration_seconds",
				Help:    "Latency of requests to the UP42 API",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method"},
		),
		responseSize: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "up42_client_response_size_bytes",
				Help:    "Declared size of UP42 API responses",
				Buckets: prometheus.ExponentialBuckets(100, 10, 6),
			},
			[]string{"method"},
		),
	}

	if reg != nil {
		reg.MustRegister(m.requests, m.duration, m.responseSize)
	}
	return m
}

// Transport returns a RoundTripper that records every request. Transport
// failures are counted with status "error".
func (m *ClientMetrics) Transport(next http.RoundTripper) http.RoundTripper {
	if next == nil {
		next = http.DefaultTransport
	}
	return roundTripperFunc(func(req *http.Request) (*http.Response, error) {
		start := time.Now()
		resp, err := next.RoundTrip(req)
		m.duration.WithLabelValues(req.Method).Observe(time.Since(start).Seconds())

		if err != nil {
			m.requests.WithLabelValues(req.Method, "error").Inc()
			return nil, err
		}

		m.requests.WithLabelValues(req.Method, strconv.Itoa(resp.StatusCode)).Inc()
		if resp.ContentLength > 0 {
			m.responseSize.WithLabelValues(req.Method).Observe(float64(resp.ContentLength))
		}
		return resp, nil
	})
}

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}
