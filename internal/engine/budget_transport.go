package engine

import (
	"errors"
	"net/http"
	"sync/atomic"
)

var ErrRequestBudgetExceeded = errors.New("request budget exceeded")

// RequestBudgetTransport caps the requests one identification may send.
// Max <= 0 disables the cap.
type RequestBudgetTransport struct {
	Base      http.RoundTripper
	Max       int64
	requested atomic.Int64
}

func (t *RequestBudgetTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if next := t.requested.Add(1); t.Max > 0 && next > t.Max {
		return nil, ErrRequestBudgetExceeded
	}
	return baseOf(t.Base).RoundTrip(req)
}

// Remaining reports how many requests are left, or -1 when uncapped.
func (t *RequestBudgetTransport) Remaining() int64 {
	if t.Max <= 0 {
		return -1
	}
	return max(t.Max-t.requested.Load(), 0)
}

func baseOf(rt http.RoundTripper) http.RoundTripper {
	if rt == nil {
		return http.DefaultTransport
	}
	return rt
}
