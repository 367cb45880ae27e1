package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

const (
	defaultGitHubAuthURL   = "https://github.com/login/oauth/authorize"
	defaultGitHubTokenURL  = "https://github.com/login/oauth/access_token"
	defaultGitHubUserURL   = "https://api.github.com/user"
	defaultGitHubEmailsURL = "https://api.github.com/user/emails"
)

// GitHubConfig configures the GitHub OAuth client. The endpoint URLs are
// overridable for tests.
type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string

	AuthURL   string
	TokenURL  string
	UserURL   string
	EmailsURL string
}

type GitHubProvider struct {
	config GitHubConfig
}

func NewGitHubProvider(config GitHubConfig) *GitHubProvider {
	if config.AuthURL == "" {
		config.AuthURL = defaultGitHubAuthURL
	}
	if config.TokenURL == "" {
		config.TokenURL = defaultGitHubTokenURL
	}
	if config.UserURL == "" {
		config.UserURL = defaultGitHubUserURL
	}
	if config.EmailsURL == "" {
		config.EmailsURL = defaultGitHubEmailsURL
	}
	return &GitHubProvider{config: config}
}

func (p *GitHubProvider) Name() string {
	return "github"
}

func (p *GitHubProvider) LoginURL(state string) string {
	params := url.Values{
		"client_id":    {p.config.ClientID},
		"redirect_uri": {p.config.RedirectURL},
		"scope":        {"user:email"},
		"state":        {state},
	}
	return p.config.AuthURL + "?" + params.Encode()
}

type githubTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type githubUser struct {
	ID    int64  `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

type githubEmail struct {
	Email    string `json:"email"`
	Primary  bool   `json:"primary"`
	Verified bool   `json:"verified"`
}

// Exchange trades the authorization code for the GitHub profile. GitHub may
// hide the account email on the profile itself, so the emails API is consulted
// as a fallback; a profile with no email at all is rejected.
func (p *GitHubProvider) Exchange(ctx context.Context, code string) (*UserInfo, error) {
	tokenResp, err := p.exchangeToken(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("failed to exchange token: %w", err)
	}

	user, err := p.fetchUser(ctx, tokenResp.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user: %w", err)
	}

	email := user.Email
	if email == "" {
		email, err = p.fetchPrimaryEmail(ctx, tokenResp.AccessToken)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch user emails: %w", err)
		}
	}
	if email == "" {
		return nil, ErrNoEmail
	}

	name := user.Name
	if name == "" {
		name = user.Login
	}

	return &UserInfo{
		ProviderUserID: strconv.FormatInt(user.ID, 10),
		Email:          email,
		Name:           name,
		Provider:       "github",
	}, nil
}

func (p *GitHubProvider) exchangeToken(ctx context.Context, code string) (*githubTokenResponse, error) {
	data := url.Values{
		"code":          {code},
		"client_id":     {p.config.ClientID},
		"client_secret": {p.config.ClientSecret},
		"redirect_uri":  {p.config.RedirectURL},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.config.TokenURL, strings.NewReader(data.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token exchange failed with status %d: %s", resp.StatusCode, string(body))
	}

	var tokenResp githubTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("failed to parse token response: %w", err)
	}

	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("empty access token in response")
	}

	return &tokenResp, nil
}

func (p *GitHubProvider) fetchUser(ctx context.Context, accessToken string) (*githubUser, error) {
	body, err := p.apiGet(ctx, p.config.UserURL, accessToken)
	if err != nil {
		return nil, err
	}

	var user githubUser
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("failed to parse user response: %w", err)
	}

	if user.ID == 0 {
		return nil, fmt.Errorf("empty id in user response")
	}

	return &user, nil
}

func (p *GitHubProvider) fetchPrimaryEmail(ctx context.Context, accessToken string) (string, error) {
	body, err := p.apiGet(ctx, p.config.EmailsURL, accessToken)
	if err != nil {
		return "", err
	}

	var emails []githubEmail
	if err := json.Unmarshal(body, &emails); err != nil {
		return "", fmt.Errorf("failed to parse emails response: %w", err)
	}

	for _, e := range emails {
		if e.Primary {
			return e.Email, nil
		}
	}
	if len(emails) > 0 {
		return emails[0].Email, nil
	}

	return "", nil
}

func (p *GitHubProvider) apiGet(ctx context.Context, apiURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("request failed with status %d: %s", resp.StatusCode, string(body))
	}

	return body, nil
}

var _ Provider = (*GitHubProvider)(nil)
