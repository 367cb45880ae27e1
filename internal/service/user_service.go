package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/models"
	"github.com/shortlyapp/shortly/internal/repository"
)

var (
	ErrEmailExists        = errors.New("user already exists")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrUserNotFound       = errors.New("user not found")
)

type UserService interface {
	Register(ctx context.Context, input *models.RegisterInput) (*models.User, error)
	// Login verifies the password and returns a signed bearer token.
	Login(ctx context.Context, input *models.LoginInput) (string, error)
	GetAll(ctx context.Context) ([]models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	Update(ctx context.Context, id string, input *models.UpdateUserInput) (*models.User, error)
	Delete(ctx context.Context, id string) error
}

type userService struct {
	userRepo repository.UserRepository
	tokens   *auth.TokenManager
	logger   *zap.Logger
}

func NewUserService(userRepo repository.UserRepository, tokens *auth.TokenManager, logger *zap.Logger) UserService {
	return &userService{
		userRepo: userRepo,
		tokens:   tokens,
		logger:   logger,
	}
}

func (s *userService) Register(ctx context.Context, input *models.RegisterInput) (*models.User, error) {
	hash, err := auth.HashPassword(input.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		ID:           uuid.NewString(),
		Email:        input.Email,
		Username:     input.Username,
		PasswordHash: hash,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrEmailExists) {
			return nil, ErrEmailExists
		}
		return nil, err
	}

	s.logger.Info("user registered", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return user, nil
}

// Login reports the same failure for an unknown email and a wrong password,
// so the endpoint does not reveal which emails are registered.
func (s *userService) Login(ctx context.Context, input *models.LoginInput) (string, error) {
	user, err := s.userRepo.GetByEmail(ctx, input.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return "", ErrInvalidCredentials
		}
		return "", err
	}

	if user.PasswordHash == "" || !auth.CheckPassword(user.PasswordHash, input.Password) {
		return "", ErrInvalidCredentials
	}

	token, err := s.tokens.Generate(user)
	if err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}

	return token, nil
}

func (s *userService) GetAll(ctx context.Context) ([]models.User, error) {
	return s.userRepo.List(ctx)
}

func (s *userService) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}
	return user, nil
}

func (s *userService) Update(ctx context.Context, id string, input *models.UpdateUserInput) (*models.User, error) {
	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	if input.Email != "" {
		user.Email = input.Email
	}
	if input.Username != "" {
		user.Username = input.Username
	}
	if input.Password != "" {
		hash, err := auth.HashPassword(input.Password)
		if err != nil {
			return nil, fmt.Errorf("failed to hash password: %w", err)
		}
		user.PasswordHash = hash
	}

	if err := s.userRepo.Update(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrUserNotFound):
			return nil, ErrUserNotFound
		case errors.Is(err, repository.ErrEmailExists):
			return nil, ErrEmailExists
		}
		return nil, err
	}

	return user, nil
}

// Delete removes the account. Owned links are removed by the database
// cascade, not by this layer.
func (s *userService) Delete(ctx context.Context, id string) error {
	if err := s.userRepo.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	s.logger.Info("user deleted", zap.String("user_id", id))
	return nil
}
