package hosting

import (
	"net/http"
	"sync"
	"time"
)

// RateLimitTransport wraps an http.RoundTripper with an outbound request
// rate. Responses, 429 included, are returned as-is; nothing is retried.
type RateLimitTransport struct {
	ReqPerSec float64           // 0 = unlimited
	Base      http.RoundTripper // nil = http.DefaultTransport

	once    sync.Once
	limiter chan struct{}
}

// NewClient returns an http.Client that sends every request through a
// RateLimitTransport.
func NewClient(reqPerSec float64) *http.Client {
	return &http.Client{
		Transport: &RateLimitTransport{ReqPerSec: reqPerSec},
	}
}

func (t *RateLimitTransport) init() {
	if t.ReqPerSec > 0 {
		t.limiter = make(chan struct{}, 1)
		interval := time.Duration(float64(time.Second) / t.ReqPerSec)
		go func() {
			ticker := time.NewTicker(interval)
			defer ticker.Stop()
			for range ticker.C {
				select {
				case t.limiter <- struct{}{}:
				default:
				}
			}
		}()
	}
}

func (t *RateLimitTransport) base() http.RoundTripper {
	if t.Base != nil {
		return t.Base
	}
	return http.DefaultTransport
}

// RoundTrip implements http.RoundTripper.
func (t *RateLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	t.once.Do(t.init)

	if t.limiter != nil {
		select {
		case <-req.Context().Done():
			return nil, req.Context().Err()
		case <-t.limiter:
		}
	}
	return t.base().RoundTrip(req)
}
