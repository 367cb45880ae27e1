package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/models"
	"github.com/shortlyapp/shortly/internal/repository"
)

var (
	ErrLinkNotFound = errors.New("link not found")
	// ErrCodeSpaceExhausted means repeated collisions on freshly generated
	// codes, which at 6 hex-ish characters indicates something worse than
	// bad luck.
	ErrCodeSpaceExhausted = errors.New("could not generate a unique short code")
)

const (
	codeLength      = 6
	maxCodeAttempts = 5
)

type LinkService interface {
	Shorten(ctx context.Context, userID, longURL string) (*models.Link, error)
	// Resolve is public: no ownership check, and every successful call
	// increments the click counter.
	Resolve(ctx context.Context, code string) (*models.Link, error)
	List(ctx context.Context, userID string) ([]models.Link, error)
	Update(ctx context.Context, code, userID, longURL string) (*models.Link, error)
	Delete(ctx context.Context, code, userID string) error
	Stats(ctx context.Context, code, userID string) (*models.LinkStats, error)
}

type linkService struct {
	linkRepo repository.LinkRepository
	logger   *zap.Logger
}

func NewLinkService(linkRepo repository.LinkRepository, logger *zap.Logger) LinkService {
	return &linkService{
		linkRepo: linkRepo,
		logger:   logger,
	}
}

// Shorten creates a link under a fresh 6-character code. A truncated UUID can
// collide, so the unique index is the arbiter and creation retries with a new
// code on conflict.
func (s *linkService) Shorten(ctx context.Context, userID, longURL string) (*models.Link, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		link := &models.Link{
			ID:        uuid.NewString(),
			ShortCode: generateShortCode(),
			LongURL:   longURL,
			UserID:    userID,
		}

		err := s.linkRepo.Create(ctx, link)
		if err == nil {
			return link, nil
		}
		if !errors.Is(err, repository.ErrCodeExists) {
			return nil, err
		}

		s.logger.Warn("short code collision, retrying",
			zap.String("short_code", link.ShortCode),
			zap.Int("attempt", attempt+1),
		)
	}

	return nil, ErrCodeSpaceExhausted
}

func (s *linkService) Resolve(ctx context.Context, code string) (*models.Link, error) {
	link, err := s.linkRepo.ResolveAndCount(ctx, code)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return link, nil
}

func (s *linkService) List(ctx context.Context, userID string) ([]models.Link, error) {
	return s.linkRepo.ListByUser(ctx, userID)
}

func (s *linkService) Update(ctx context.Context, code, userID, longURL string) (*models.Link, error) {
	link, err := s.linkRepo.UpdateLongURL(ctx, code, userID, longURL)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return link, nil
}

func (s *linkService) Delete(ctx context.Context, code, userID string) error {
	if err := s.linkRepo.Delete(ctx, code, userID); err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return ErrLinkNotFound
		}
		return err
	}
	return nil
}

func (s *linkService) Stats(ctx context.Context, code, userID string) (*models.LinkStats, error) {
	stats, err := s.linkRepo.Stats(ctx, code, userID)
	if err != nil {
		if errors.Is(err, repository.ErrLinkNotFound) {
			return nil, ErrLinkNotFound
		}
		return nil, err
	}
	return stats, nil
}

// generateShortCode takes the first 6 characters of a random UUID.
func generateShortCode() string {
	return uuid.NewString()[:codeLength]
}
