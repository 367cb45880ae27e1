package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/models"
	"github.com/shortlyapp/shortly/internal/repository"
)

// ErrInvalidState means the callback presented a state parameter that was
// never issued or already consumed.
var ErrInvalidState = errors.New("invalid oauth state")

// oauthSessionTTL bounds the time between the provider redirect and the
// callback.
const oauthSessionTTL = 10 * time.Minute

type OAuthService interface {
	// Begin stores the return URL under a fresh state and returns the
	// provider's authorization URL.
	Begin(ctx context.Context, provider auth.Provider, returnTo string) (string, error)
	// Callback validates the state, exchanges the code and returns a bearer
	// token along with the return URL stored at Begin.
	Callback(ctx context.Context, provider auth.Provider, state, code string) (token, returnTo string, err error)
}

type oauthService struct {
	userRepo    repository.UserRepository
	sessionRepo repository.SessionRepository
	tokens      *auth.TokenManager
	logger      *zap.Logger
}

func NewOAuthService(
	userRepo repository.UserRepository,
	sessionRepo repository.SessionRepository,
	tokens *auth.TokenManager,
	logger *zap.Logger,
) OAuthService {
	return &oauthService{
		userRepo:    userRepo,
		sessionRepo: sessionRepo,
		tokens:      tokens,
		logger:      logger,
	}
}

func (s *oauthService) Begin(ctx context.Context, provider auth.Provider, returnTo string) (string, error) {
	state, err := auth.GenerateState()
	if err != nil {
		return "", fmt.Errorf("failed to generate state: %w", err)
	}

	session := &repository.OAuthSession{
		Provider: provider.Name(),
		ReturnTo: returnTo,
	}
	if err := s.sessionRepo.Set(ctx, state, session, oauthSessionTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth session: %w", err)
	}

	return provider.LoginURL(state), nil
}

func (s *oauthService) Callback(ctx context.Context, provider auth.Provider, state, code string) (string, string, error) {
	session, err := s.sessionRepo.Take(ctx, state)
	if err != nil {
		if errors.Is(err, repository.ErrSessionNotFound) {
			return "", "", ErrInvalidState
		}
		return "", "", err
	}
	if session.Provider != provider.Name() {
		return "", "", ErrInvalidState
	}

	info, err := provider.Exchange(ctx, code)
	if err != nil {
		return "", "", fmt.Errorf("failed to exchange oauth code: %w", err)
	}

	user, err := s.findOrCreateUser(ctx, info)
	if err != nil {
		return "", "", err
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", "", fmt.Errorf("failed to generate token: %w", err)
	}

	return token, session.ReturnTo, nil
}

// findOrCreateUser matches the provider identity to a local account, creating
// one on first login and refreshing the stored display name on subsequent
// logins.
func (s *oauthService) findOrCreateUser(ctx context.Context, info *auth.UserInfo) (*models.User, error) {
	user, err := s.userRepo.GetByProviderID(ctx, info.Provider, info.ProviderUserID)
	if err == nil {
		if info.Name != "" && info.Name != user.Username {
			user.Username = info.Name
			if err := s.userRepo.Update(ctx, user); err != nil {
				return nil, fmt.Errorf("failed to refresh username: %w", err)
			}
		}
		s.logger.Info("existing user logged in via oauth",
			zap.String("user_id", user.ID),
			zap.String("provider", info.Provider),
		)
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{
		ID:       uuid.NewString(),
		Email:    info.Email,
		Username: info.Name,
	}
	switch info.Provider {
	case "google":
		user.GoogleID = &info.ProviderUserID
	case "github":
		user.GitHubID = &info.ProviderUserID
	default:
		return nil, fmt.Errorf("unknown oauth provider %q", info.Provider)
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create oauth user: %w", err)
	}

	s.logger.Info("new user created via oauth",
		zap.String("user_id", user.ID),
		zap.String("email", user.Email),
		zap.String("provider", info.Provider),
	)
	return user, nil
}
