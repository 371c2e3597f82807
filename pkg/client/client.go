// Package client provides the Go SDK for the carbonledger HTTP API.
// It is deliberately dependency-free so importing it does not pull the
// server stack into callers.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIError is a rejected ledger operation. Code carries the service's
// numeric failure code (400 InvalidEmission, 403 Unauthorized, 404
// ProfileNotFound, 409 DuplicateProfile/DuplicateEntry).
type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"error"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("carbonledger: %s (code %d)", e.Message, e.Code)
}

// CreateProfileResult is the response to CreateProfile.
type CreateProfileResult struct {
	Actor   string `json:"actor"`
	Created bool   `json:"created"`
}

// LogEmissionResult is the response to LogEmission. LogicalTime is the block
// tick the emission was recorded at.
type LogEmissionResult struct {
	Accepted    bool   `json:"accepted"`
	Actor       string `json:"actor"`
	LogicalTime uint64 `json:"logical_time"`
}

// ActorTotal is the response shape shared by TotalEmissions and
// EmissionHistory. History carries the running total only; the service does
// not return itemized records.
type ActorTotal struct {
	Actor          string `json:"actor"`
	TotalEmissions uint64 `json:"total_emissions"`
}

// CategoryTotal is the response to EmissionsByCategory. The service
// currently always reports 0; the per-category breakdown is a known gap.
type CategoryTotal struct {
	Actor          string `json:"actor"`
	Category       string `json:"category"`
	TotalEmissions uint64 `json:"total_emissions"`
}

// Profile is an actor's aggregate state.
type Profile struct {
	Actor          string `json:"actor"`
	TotalEmissions uint64 `json:"total_emissions"`
	EmissionCount  uint64 `json:"emission_count"`
}

// Client is the carbonledger SDK entry point.
type Client struct {
	baseURL     string
	httpClient  *http.Client
	bearerToken string
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithHTTPClient sets a custom http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithBearerToken attaches an actor token to every request. Required for
// CreateProfile and LogEmission; queries are public.
func WithBearerToken(token string) Option {
	return func(c *Client) { c.bearerToken = token }
}

// New creates a Client connected to baseURL.
//
//	c := client.New("http://localhost:8080",
//	    client.WithBearerToken(token),
//	)
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// CreateProfile registers the calling actor's profile. Fails with an
// *APIError of code 409 if the profile already exists.
func (c *Client) CreateProfile(ctx context.Context) (*CreateProfileResult, error) {
	var out CreateProfileResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/profiles", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// LogEmission records an emission for the calling actor at the service's
// current block tick. category accepts a name ("energy") or its numeric
// form ("2").
func (c *Client) LogEmission(ctx context.Context, units uint64, category string) (*LogEmissionResult, error) {
	payload := map[string]any{"units": units, "category": category}
	var out LogEmissionResult
	if err := c.do(ctx, http.MethodPost, "/api/v1/emissions", payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// TotalEmissions returns actor's running total; 0 for an unknown actor.
func (c *Client) TotalEmissions(ctx context.Context, actor string) (*ActorTotal, error) {
	var out ActorTotal
	if err := c.do(ctx, http.MethodGet, "/api/v1/actors/"+actor+"/total", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EmissionHistory returns actor's running total (see ActorTotal note).
func (c *Client) EmissionHistory(ctx context.Context, actor string) (*ActorTotal, error) {
	var out ActorTotal
	if err := c.do(ctx, http.MethodGet, "/api/v1/actors/"+actor+"/history", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// EmissionsByCategory returns actor's total for one category (currently
// always 0, see CategoryTotal note).
func (c *Client) EmissionsByCategory(ctx context.Context, actor, category string) (*CategoryTotal, error) {
	var out CategoryTotal
	if err := c.do(ctx, http.MethodGet, "/api/v1/actors/"+actor+"/categories/"+category, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetProfile returns actor's aggregate state, or an *APIError of code 404.
func (c *Client) GetProfile(ctx context.Context, actor string) (*Profile, error) {
	var out Profile
	if err := c.do(ctx, http.MethodGet, "/api/v1/actors/"+actor, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do sends one API request and decodes the JSON response into out.
// Non-2xx responses are returned as *APIError when the body carries the
// service's error shape.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.bearerToken != "" {
		req.Header.Set("Authorization", "Bearer "+c.bearerToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		apiErr := &APIError{}
		if json.Unmarshal(raw, apiErr) == nil && apiErr.Message != "" {
			if apiErr.Code == 0 {
				apiErr.Code = resp.StatusCode
			}
			return apiErr
		}
		return fmt.Errorf("%s %s: unexpected status %d", method, path, resp.StatusCode)
	}

	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}
