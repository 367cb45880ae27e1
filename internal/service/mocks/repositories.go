// Package mocks provides in-memory repository implementations for service
// tests.
package mocks

import (
	"context"
	"sync"
	"time"

	"github.com/shortlyapp/shortly/internal/models"
	"github.com/shortlyapp/shortly/internal/repository"
)

// MockUserRepository is an in-memory UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*models.User // id -> user
}

func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{users: make(map[string]*models.User)}
}

func (m *MockUserRepository) Create(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, u := range m.users {
		if u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}

	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) GetByID(_ context.Context, id string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if u, ok := m.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) GetByEmail(_ context.Context, email string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		if u.Email == email {
			copied := *u
			return &copied, nil
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) GetByProviderID(_ context.Context, provider, providerID string) (*models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, u := range m.users {
		switch provider {
		case "google":
			if u.GoogleID != nil && *u.GoogleID == providerID {
				copied := *u
				return &copied, nil
			}
		case "github":
			if u.GitHubID != nil && *u.GitHubID == providerID {
				copied := *u
				return &copied, nil
			}
		}
	}
	return nil, repository.ErrUserNotFound
}

func (m *MockUserRepository) List(_ context.Context) ([]models.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	users := []models.User{}
	for _, u := range m.users {
		users = append(users, *u)
	}
	return users, nil
}

func (m *MockUserRepository) Update(_ context.Context, user *models.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	existing, ok := m.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}

	for id, u := range m.users {
		if id != user.ID && u.Email == user.Email {
			return repository.ErrEmailExists
		}
	}

	user.CreatedAt = existing.CreatedAt
	user.UpdatedAt = time.Now()
	stored := *user
	m.users[user.ID] = &stored
	return nil
}

func (m *MockUserRepository) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; !ok {
		return repository.ErrUserNotFound
	}
	delete(m.users, id)
	return nil
}

// MockLinkRepository is an in-memory LinkRepository. FailCreates injects
// short-code collisions for retry tests.
type MockLinkRepository struct {
	mu    sync.Mutex
	links map[string]*models.Link // short_code -> link

	// FailCreates makes the next N Create calls fail with ErrCodeExists.
	FailCreates int
	// CreateCalls counts Create invocations.
	CreateCalls int
}

func NewMockLinkRepository() *MockLinkRepository {
	return &MockLinkRepository{links: make(map[string]*models.Link)}
}

func (m *MockLinkRepository) Create(_ context.Context, link *models.Link) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls++
	if m.FailCreates > 0 {
		m.FailCreates--
		return repository.ErrCodeExists
	}

	if _, exists := m.links[link.ShortCode]; exists {
		return repository.ErrCodeExists
	}

	now := time.Now()
	link.CreatedAt = now
	link.UpdatedAt = now
	stored := *link
	m.links[link.ShortCode] = &stored
	return nil
}

func (m *MockLinkRepository) ResolveAndCount(_ context.Context, code string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok {
		return nil, repository.ErrLinkNotFound
	}

	link.Clicks++
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) ListByUser(_ context.Context, userID string) ([]models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	links := []models.Link{}
	for _, l := range m.links {
		if l.UserID == userID {
			links = append(links, *l)
		}
	}
	return links, nil
}

func (m *MockLinkRepository) UpdateLongURL(_ context.Context, code, userID, longURL string) (*models.Link, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok || link.UserID != userID {
		return nil, repository.ErrLinkNotFound
	}

	link.LongURL = longURL
	link.UpdatedAt = time.Now()
	copied := *link
	return &copied, nil
}

func (m *MockLinkRepository) Delete(_ context.Context, code, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok || link.UserID != userID {
		return repository.ErrLinkNotFound
	}
	delete(m.links, code)
	return nil
}

func (m *MockLinkRepository) Stats(_ context.Context, code, userID string) (*models.LinkStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	link, ok := m.links[code]
	if !ok || link.UserID != userID {
		return nil, repository.ErrLinkNotFound
	}

	return &models.LinkStats{
		ShortCode: link.ShortCode,
		LongURL:   link.LongURL,
		Clicks:    link.Clicks,
		CreatedAt: link.CreatedAt,
		UpdatedAt: link.UpdatedAt,
	}, nil
}

// MockSessionRepository is an in-memory SessionRepository. TTLs are ignored.
type MockSessionRepository struct {
	mu       sync.Mutex
	sessions map[string]*repository.OAuthSession
}

func NewMockSessionRepository() *MockSessionRepository {
	return &MockSessionRepository{sessions: make(map[string]*repository.OAuthSession)}
}

func (m *MockSessionRepository) Set(_ context.Context, state string, session *repository.OAuthSession, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	stored := *session
	m.sessions[state] = &stored
	return nil
}

func (m *MockSessionRepository) Take(_ context.Context, state string) (*repository.OAuthSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	session, ok := m.sessions[state]
	if !ok {
		return nil, repository.ErrSessionNotFound
	}
	delete(m.sessions, state)
	return session, nil
}
