package auth_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shortlyapp/shortly/internal/auth"
)

func TestGenerateState_Unique(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 100; i++ {
		state, err := auth.GenerateState()
		require.NoError(t, err)
		assert.Len(t, state, 64)
		assert.False(t, seen[state])
		seen[state] = true
	}
}

func TestGoogleProvider_LoginURL(t *testing.T) {
	p := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:    "client-id",
		RedirectURL: "http://localhost:8080/auth/users/google/callback",
	})

	raw := p.LoginURL("state123")
	parsed, err := url.Parse(raw)
	require.NoError(t, err)

	q := parsed.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state123", q.Get("state"))
	assert.Equal(t, "code", q.Get("response_type"))
	assert.Contains(t, q.Get("scope"), "email")
}

func TestGoogleProvider_Exchange(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authcode", r.Form.Get("code"))
		assert.Equal(t, "authorization_code", r.Form.Get("grant_type"))
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-1", "token_type": "Bearer"})
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer at-1", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{"sub": "g-123", "email": "a@b.com", "name": "Alice"})
	}))
	defer userServer.Close()

	p := auth.NewGoogleProvider(auth.GoogleConfig{
		ClientID:     "client-id",
		ClientSecret: "client-secret",
		TokenURL:     tokenServer.URL,
		UserInfoURL:  userServer.URL,
	})

	info, err := p.Exchange(context.Background(), "authcode")
	require.NoError(t, err)
	assert.Equal(t, "g-123", info.ProviderUserID)
	assert.Equal(t, "a@b.com", info.Email)
	assert.Equal(t, "Alice", info.Name)
	assert.Equal(t, "google", info.Provider)
}

func TestGoogleProvider_Exchange_TokenError(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"invalid_grant"}`, http.StatusBadRequest)
	}))
	defer tokenServer.Close()

	p := auth.NewGoogleProvider(auth.GoogleConfig{TokenURL: tokenServer.URL})

	_, err := p.Exchange(context.Background(), "bad-code")
	assert.Error(t, err)
}

func TestGitHubProvider_Exchange_ProfileEmail(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-2", "token_type": "bearer"})
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 77, "login": "bob", "name": "Bob", "email": "bob@example.com"})
	}))
	defer userServer.Close()

	p := auth.NewGitHubProvider(auth.GitHubConfig{
		TokenURL: tokenServer.URL,
		UserURL:  userServer.URL,
	})

	info, err := p.Exchange(context.Background(), "authcode")
	require.NoError(t, err)
	assert.Equal(t, "77", info.ProviderUserID)
	assert.Equal(t, "bob@example.com", info.Email)
	assert.Equal(t, "Bob", info.Name)
	assert.Equal(t, "github", info.Provider)
}

func TestGitHubProvider_Exchange_EmailFromEmailsAPI(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-3"})
	}))
	defer tokenServer.Close()

	// Profile hides the email; the emails API has it.
	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 88, "login": "carol"})
	}))
	defer userServer.Close()

	emailsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{
			{"email": "secondary@example.com", "primary": false, "verified": true},
			{"email": "carol@example.com", "primary": true, "verified": true},
		})
	}))
	defer emailsServer.Close()

	p := auth.NewGitHubProvider(auth.GitHubConfig{
		TokenURL:  tokenServer.URL,
		UserURL:   userServer.URL,
		EmailsURL: emailsServer.URL,
	})

	info, err := p.Exchange(context.Background(), "authcode")
	require.NoError(t, err)
	assert.Equal(t, "carol@example.com", info.Email)
	// Login stands in when the display name is unset.
	assert.Equal(t, "carol", info.Name)
}

func TestGitHubProvider_Exchange_NoEmail(t *testing.T) {
	tokenServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"access_token": "at-4"})
	}))
	defer tokenServer.Close()

	userServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"id": 99, "login": "dave"})
	}))
	defer userServer.Close()

	emailsServer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]map[string]any{})
	}))
	defer emailsServer.Close()

	p := auth.NewGitHubProvider(auth.GitHubConfig{
		TokenURL:  tokenServer.URL,
		UserURL:   userServer.URL,
		EmailsURL: emailsServer.URL,
	})

	_, err := p.Exchange(context.Background(), "authcode")
	assert.ErrorIs(t, err, auth.ErrNoEmail)
}
