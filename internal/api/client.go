// Package api implements the client for the managed-security findings API:
// OAuth client-credentials token exchange plus the accounts and findings
// endpoints.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/pkg/logger"
)

// ErrPermissionDenied is returned when the findings endpoint answers 403.
// Callers surface it as a warning and continue with an empty findings list.
var ErrPermissionDenied = errors.New("permission denied to fetch findings")

// Client talks to the findings API. It is not safe for concurrent use while
// authenticating; authenticate once, then read.
type Client struct {
	httpClient *http.Client
	logger     logger.Logger

	authURL  string
	baseURL  string
	audience string

	clientID     string
	clientSecret string

	token string
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client. Tests use this to point
// at an httptest server.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithLogger sets the client logger.
func WithLogger(log logger.Logger) Option {
	return func(c *Client) {
		c.logger = log
	}
}

// NewClient creates a findings API client from configuration. Credentials are
// validated here so the missing-secret case surfaces before any network call.
func NewClient(cfg config.APIConfig, opts ...Option) (*Client, error) {
	id, secret, err := cfg.Credentials()
	if err != nil {
		return nil, err
	}

	c := &Client{
		httpClient:   &http.Client{Timeout: cfg.Timeout},
		logger:       logger.GetGlobalLogger(),
		authURL:      cfg.AuthURL,
		baseURL:      cfg.BaseURL,
		audience:     cfg.Audience,
		clientID:     id,
		clientSecret: secret,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c, nil
}

type tokenRequest struct {
	GrantType    string `json:"grant_type"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Audience     string `json:"audience"`
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type,omitempty"`
	ExpiresIn   int    `json:"expires_in,omitempty"`
}

// Authenticate exchanges the client credentials for a bearer token and stores
// it for subsequent calls.
func (c *Client) Authenticate(ctx context.Context) error {
	payload, err := json.Marshal(tokenRequest{
		GrantType:    "client_credentials",
		ClientID:     c.clientID,
		ClientSecret: c.clientSecret,
		Audience:     c.audience,
	})
	if err != nil {
		return fmt.Errorf("encoding token request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.authURL, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("building token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting token: %w", err)
	}
	defer drainAndClose(resp.Body)

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token endpoint returned %s", resp.Status)
	}

	var tok tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return fmt.Errorf("decoding token response: %w", err)
	}
	if tok.AccessToken == "" {
		return errors.New("token response missing access_token")
	}

	c.token = tok.AccessToken
	c.logger.Debug("Acquired access token", "audience", c.audience)
	return nil
}

// ListAccounts fetches the managed MSP accounts.
func (c *Client) ListAccounts(ctx context.Context) ([]models.Account, error) {
	var accounts []models.Account
	if err := c.getData(ctx, "/msp/accounts", &accounts); err != nil {
		return nil, fmt.Errorf("fetching accounts: %w", err)
	}
	return accounts, nil
}

// ListFindings fetches findings across all accounts. A 403 response maps to
// ErrPermissionDenied so callers can degrade to an empty list with a warning.
func (c *Client) ListFindings(ctx context.Context) ([]models.Finding, error) {
	var findings []models.Finding
	err := c.getData(ctx, "/msp/accounts/findings", &findings)
	if err != nil {
		if errors.Is(err, ErrPermissionDenied) {
			return nil, ErrPermissionDenied
		}
		return nil, fmt.Errorf("fetching findings: %w", err)
	}
	return findings, nil
}

// dataEnvelope is the {"data": [...]} wrapper every list endpoint uses.
type dataEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// getData performs a bearer-authorized GET and unwraps the data envelope into
// out, which must be a pointer to a slice.
func (c *Client) getData(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("requesting %s: %w", path, err)
	}
	defer drainAndClose(resp.Body)

	switch {
	case resp.StatusCode == http.StatusForbidden:
		return ErrPermissionDenied
	case resp.StatusCode != http.StatusOK:
		return fmt.Errorf("%s returned %s", path, resp.Status)
	}

	var envelope dataEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return fmt.Errorf("decoding %s response: %w", path, err)
	}
	if len(envelope.Data) == 0 {
		return nil
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decoding %s data: %w", path, err)
	}
	return nil
}

func drainAndClose(body io.ReadCloser) {
	_, _ = io.Copy(io.Discard, body)
	_ = body.Close()
}
