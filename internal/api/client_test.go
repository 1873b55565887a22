package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joshsymonds/beacon/internal/config"
	"github.com/joshsymonds/beacon/internal/models"
	"github.com/joshsymonds/beacon/pkg/logger"
)

func testConfig(authURL, baseURL string) config.APIConfig {
	return config.APIConfig{
		AuthURL:      authURL,
		BaseURL:      baseURL,
		Audience:     "public-api",
		ClientID:     "test-id",
		ClientSecret: "test-secret",
		Timeout:      5 * time.Second,
	}
}

func newTestClient(t *testing.T, handler http.Handler) (*Client, *logger.MockLogger) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	log := logger.NewMockLogger()
	c, err := NewClient(testConfig(srv.URL+"/oauth/token", srv.URL), WithLogger(log))
	require.NoError(t, err)
	return c, log
}

func TestNewClientMissingCredentials(t *testing.T) {
	t.Setenv(config.EnvClientID, "")
	t.Setenv(config.EnvClientSecret, "")

	_, err := NewClient(config.APIConfig{AuthURL: "x", BaseURL: "y"})
	assert.ErrorIs(t, err, config.ErrMissingCredentials)
}

func TestAuthenticate(t *testing.T) {
	var gotPayload map[string]string

	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		_ = json.NewEncoder(w).Encode(map[string]any{"access_token": "tok-123", "expires_in": 3600})
	})

	c, _ := newTestClient(t, mux)
	require.NoError(t, c.Authenticate(context.Background()))

	assert.Equal(t, map[string]string{
		"grant_type":    "client_credentials",
		"client_id":     "test-id",
		"client_secret": "test-secret",
		"audience":      "public-api",
	}, gotPayload)
	assert.Equal(t, "tok-123", c.token)
}

func TestAuthenticateFailures(t *testing.T) {
	tests := []struct {
		name    string
		handler http.HandlerFunc
	}{
		{
			name: "non-200 status",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusUnauthorized)
			},
		},
		{
			name: "missing access token",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`{}`))
			},
		},
		{
			name: "garbage body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(`not json`))
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, _ := newTestClient(t, tt.handler)
			assert.Error(t, c.Authenticate(context.Background()))
		})
	}
}

func TestListAccounts(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /msp/accounts", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		_, _ = w.Write([]byte(`{"data": [{"org_id": "org-1", "name": "Acme"}, {"org_id": "org-2", "name": "Globex"}]}`))
	})

	c, _ := newTestClient(t, mux)
	c.token = "tok-123"

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Acme", accounts[0].Name)
	assert.Equal(t, "org-2", accounts[1].OrgID)
}

func TestListFindings(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /msp/accounts/findings", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [
			{"finding_id": "f-1", "org_id": "org-1", "org_name": "Acme",
			 "name": "Suspicious login", "priority": 1, "status_name": "Open",
			 "type_name": "Threat", "created": "2024-01-15T10:00:00Z",
			 "modified": "2024-01-15 12:00:00"}
		]}`))
	})

	c, _ := newTestClient(t, mux)

	findings, err := c.ListFindings(context.Background())
	require.NoError(t, err)
	require.Len(t, findings, 1)

	f := findings[0]
	assert.Equal(t, models.PriorityCritical, f.Priority)
	assert.Equal(t, "Suspicious login", f.Name)
	assert.False(t, f.Created.IsZero())
	assert.False(t, f.Modified.IsZero())
}

func TestListFindingsPermissionDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /msp/accounts/findings", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	c, _ := newTestClient(t, mux)

	_, err := c.ListFindings(context.Background())
	assert.ErrorIs(t, err, ErrPermissionDenied)
}

func TestFetchSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "tok"}`))
	})
	mux.HandleFunc("GET /msp/accounts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"org_id": "org-1", "name": "Acme"}]}`))
	})
	mux.HandleFunc("GET /msp/accounts/findings", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"finding_id": "f-1", "org_id": "org-1", "priority": 2}]}`))
	})

	c, _ := newTestClient(t, mux)

	snap, err := c.FetchSnapshot(context.Background())
	require.NoError(t, err)
	assert.NotEmpty(t, snap.ID)
	assert.False(t, snap.FetchedAt.IsZero())
	assert.Len(t, snap.Accounts, 1)
	assert.Len(t, snap.Findings, 1)
	assert.False(t, snap.PermissionDenied)
}

func TestFetchSnapshotFindingsDenied(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "tok"}`))
	})
	mux.HandleFunc("GET /msp/accounts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"data": [{"org_id": "org-1", "name": "Acme"}]}`))
	})
	mux.HandleFunc("GET /msp/accounts/findings", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	})

	c, log := newTestClient(t, mux)

	snap, err := c.FetchSnapshot(context.Background())
	require.NoError(t, err, "403 on findings degrades, it does not fail the session")
	assert.Empty(t, snap.Findings)
	assert.True(t, snap.PermissionDenied)
	assert.True(t, log.HasMessageContaining("WARN", "Permission denied"))
}

func TestFetchSnapshotAccountsFailure(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /oauth/token", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"access_token": "tok"}`))
	})
	mux.HandleFunc("GET /msp/accounts", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	c, _ := newTestClient(t, mux)

	_, err := c.FetchSnapshot(context.Background())
	assert.Error(t, err)
}

func TestGetDataEmptyEnvelope(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /msp/accounts", func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	})

	c, _ := newTestClient(t, mux)

	accounts, err := c.ListAccounts(context.Background())
	require.NoError(t, err)
	assert.Empty(t, accounts)
}
