package middleware

import (
	"net/http"
	"sync/atomic"
)

// Counters are the request totals reported by /metrics.
type Counters struct {
	Requests atomic.Int64
	Errors   atomic.Int64
	// Refused counts requests answered with 422, which is how rule
	// verification failures surface.
	Refused atomic.Int64
}

// MetricsCollector collects request metrics.
type MetricsCollector struct {
	counters *Counters
}

func NewMetricsCollector(c *Counters) *MetricsCollector {
	return &MetricsCollector{counters: c}
}

// Middleware counts requests, errors (4xx and 5xx) and refusals.
func (mc *MetricsCollector) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mc.counters.Requests.Add(1)

		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		if rw.statusCode >= 400 {
			mc.counters.Errors.Add(1)
		}
		if rw.statusCode == http.StatusUnprocessableEntity {
			mc.counters.Refused.Add(1)
		}
	})
}
