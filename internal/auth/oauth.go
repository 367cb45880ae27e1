// Package auth provides bearer tokens, password hashing and the OAuth
// provider clients.
package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
)

// ErrNoEmail is returned when a provider profile carries no usable email
// address, which the account model requires.
var ErrNoEmail = errors.New("email not provided by oauth profile")

// UserInfo is the provider profile reduced to what account creation needs.
type UserInfo struct {
	ProviderUserID string
	Email          string
	Name           string
	Provider       string // "google" or "github"
}

// Provider is an OAuth 2.0 identity provider.
type Provider interface {
	// Name identifies the provider ("google", "github").
	Name() string
	// LoginURL builds the authorization URL the browser is redirected to.
	LoginURL(state string) string
	// Exchange trades an authorization code for the user's profile.
	Exchange(ctx context.Context, code string) (*UserInfo, error)
}

// GenerateState returns a cryptographically random state parameter for the
// redirect round trip.
func GenerateState() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
