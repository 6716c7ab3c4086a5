package route

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"itinera/transport"
)

var ErrResolveFailed = errors.New("route resolution failed")

// Client resolves one sentence against the route service.
type Client struct {
	caller *transport.Caller
	url    string
}

func NewClient(url string, policy transport.Policy) *Client {
	return &Client{
		caller: transport.NewCaller("route", policy),
		url:    url,
	}
}

func (c *Client) Resolve(ctx context.Context, text string) (*Response, error) {
	body, err := json.Marshal(struct {
		Text string `json:"text"`
	}{text})
	if err != nil {
		return nil, err
	}

	resp, err := c.caller.Do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("Accept", "application/json")
		return req, nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrResolveFailed, err)
	}
	if !resp.OK() {
		return nil, fmt.Errorf("%w: status %d: %s", ErrResolveFailed, resp.StatusCode, strings.TrimSpace(string(resp.Body)))
	}

	r, err := Decode(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%w: response parse error: %v", ErrResolveFailed, err)
	}
	return r, nil
}
