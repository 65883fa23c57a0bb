package engine

import (
	"net/http"
	"sync"
	"time"
)

// Metrics summarises the traffic of one identification.
type Metrics struct {
	Requests int64         `json:"requests"`
	Failures int64         `json:"failures"`
	Statuses map[int]int64 `json:"statuses,omitempty"`
	Duration time.Duration `json:"duration_ns"`
}

// MetricsTransport counts requests, transport failures and status codes.
type MetricsTransport struct {
	Base http.RoundTripper

	mu       sync.Mutex
	requests int64
	failures int64
	statuses map[int]int64
	duration time.Duration
}

func (t *MetricsTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	resp, err := baseOf(t.Base).RoundTrip(req)
	elapsed := time.Since(start)

	t.mu.Lock()
	defer t.mu.Unlock()
	t.requests++
	t.duration += elapsed
	if err != nil {
		t.failures++
		return resp, err
	}
	if t.statuses == nil {
		t.statuses = make(map[int]int64)
	}
	t.statuses[resp.StatusCode]++
	return resp, nil
}

func (t *MetricsTransport) Snapshot() Metrics {
	t.mu.Lock()
	defer t.mu.Unlock()
	m := Metrics{
		Requests: t.requests,
		Failures: t.failures,
		Duration: t.duration,
	}
	if len(t.statuses) > 0 {
		m.Statuses = make(map[int]int64, len(t.statuses))
		for code, n := range t.statuses {
			m.Statuses[code] = n
		}
	}
	return m
}
