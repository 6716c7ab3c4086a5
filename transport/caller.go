package transport

import (
	"context"
	"net/http"
	"time"

	"github.com/zoobzio/pipz"

	"itinera/log"
)

// Policy bounds a remote exchange. Timeout applies per attempt; zero
// disables it. Retries counts extra attempts after a transport failure.
type Policy struct {
	Timeout time.Duration
	Retries int
}

// RequestFunc builds a fresh request for every attempt so bodies can be
// replayed.
type RequestFunc func(ctx context.Context) (*http.Request, error)

type exchange struct {
	build    RequestFunc
	response *Response
	attempts int
}

// Caller performs one logical exchange. A non-2xx status is returned as a
// response, never retried; only transport failures are.
type Caller struct {
	name     string
	client   *TracedClient
	pipeline pipz.Chainable[*exchange]
}

func NewCaller(name string, policy Policy) *Caller {
	c := &Caller{name: name, client: NewTracedClient()}

	var p pipz.Chainable[*exchange] = pipz.Apply(
		pipz.NewIdentity(name+"-http-call", "one HTTP exchange with the "+name+" endpoint"), c.attempt)
	if policy.Timeout > 0 {
		p = pipz.NewTimeout(pipz.NewIdentity(name+"-timeout", "per-attempt deadline"), p, policy.Timeout)
	}
	if policy.Retries > 0 {
		p = pipz.NewRetry(pipz.NewIdentity(name+"-retry", "retries transport failures"), p, policy.Retries+1)
	}
	c.pipeline = p
	return c
}

func (c *Caller) attempt(ctx context.Context, ex *exchange) (*exchange, error) {
	ex.attempts++
	req, err := ex.build(ctx)
	if err != nil {
		return ex, err
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return ex, err
	}
	ex.response = resp
	return ex, nil
}

func (c *Caller) Do(ctx context.Context, build RequestFunc) (*Response, error) {
	ex := &exchange{build: build}
	if _, err := c.pipeline.Process(ctx, ex); err != nil {
		log.Warnf("%s: %d attempt(s) failed: %v", c.name, ex.attempts, err)
		return nil, err
	}

	resp := ex.response
	m := resp.Metrics
	log.RemoteCall(log.CallMetrics{
		Endpoint:   c.name,
		Status:     resp.StatusCode,
		Attempts:   ex.attempts,
		DNSMs:      float64(m.DNS.Milliseconds()),
		TLSMs:      float64(m.TLS.Milliseconds()),
		TTFBMs:     float64(m.TTFB.Milliseconds()),
		TotalMs:    float64(m.Total.Milliseconds()),
		ConnReused: m.ConnReused,
	})
	return resp, nil
}
