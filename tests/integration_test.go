package tests

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"

	"github.com/shortlyapp/shortly/internal/auth"
	"github.com/shortlyapp/shortly/internal/config"
	"github.com/shortlyapp/shortly/internal/handler"
	"github.com/shortlyapp/shortly/internal/middleware"
	"github.com/shortlyapp/shortly/internal/repository"
	"github.com/shortlyapp/shortly/internal/service"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// TestEnv holds the containers and wiring shared by the integration tests.
type TestEnv struct {
	router         *gin.Engine
	dbContainer    testcontainers.Container
	redisContainer testcontainers.Container
	db             *repository.PostgresDB
	redis          *repository.RedisDB
}

// fakeProvider stands in for Google/GitHub so the OAuth flow can run without
// external calls.
type fakeProvider struct {
	name string
	info *auth.UserInfo
}

func (p *fakeProvider) Name() string { return p.name }

func (p *fakeProvider) LoginURL(state string) string {
	return "https://provider.example.com/authorize?state=" + state
}

func (p *fakeProvider) Exchange(_ context.Context, _ string) (*auth.UserInfo, error) {
	return p.info, nil
}

func setupTestEnv(t *testing.T) *TestEnv {
	ctx := t.Context()

	dbContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("shortly"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)

	redisContainer, err := redis.Run(ctx,
		"redis:7-alpine",
	)
	require.NoError(t, err)

	dbHost, err := dbContainer.Host(ctx)
	require.NoError(t, err)
	dbPort, err := dbContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	redisHost, err := redisContainer.Host(ctx)
	require.NoError(t, err)
	redisPort, err := redisContainer.MappedPort(ctx, "6379")
	require.NoError(t, err)

	dbCfg := config.DBConfig{
		Host:     dbHost,
		Port:     dbPort.Port(),
		User:     "user",
		Password: "password",
		Name:     "shortly",
	}
	require.NoError(t, repository.RunMigrations(dbCfg))

	db, err := repository.NewPostgresDB(dbCfg)
	require.NoError(t, err)

	redisClient, err := repository.NewRedisClient(config.RedisConfig{
		Host: redisHost,
		Port: redisPort.Port(),
	})
	require.NoError(t, err)

	userRepo := repository.NewUserRepository(db)
	linkRepo := repository.NewLinkRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient)

	tokens := auth.NewTokenManager("integration-test-secret")
	logger := zap.NewNop()

	router := handler.NewRouter(handler.RouterConfig{
		UserService:  service.NewUserService(userRepo, tokens, logger),
		LinkService:  service.NewLinkService(linkRepo, logger),
		OAuthService: service.NewOAuthService(userRepo, sessionRepo, tokens, logger),
		Tokens:       tokens,
		Google: &fakeProvider{
			name: "google",
			info: &auth.UserInfo{ProviderUserID: "g-1", Email: "g@example.com", Name: "G", Provider: "google"},
		},
		GitHub: &fakeProvider{
			name: "github",
			info: &auth.UserInfo{ProviderUserID: "42", Email: "gh@example.com", Name: "gh", Provider: "github"},
		},
		ClientURL: "https://app.example.com",
		CSRF:      middleware.CSRFConfig{Enforce: false},
		Logger:    logger,
	})

	return &TestEnv{
		router:         router,
		dbContainer:    dbContainer,
		redisContainer: redisContainer,
		db:             db,
		redis:          redisClient,
	}
}

func (env *TestEnv) teardown(t *testing.T) {
	env.db.Close()
	env.redis.Close()

	ctx := t.Context()
	if env.dbContainer != nil {
		env.dbContainer.Terminate(ctx)
	}
	if env.redisContainer != nil {
		env.redisContainer.Terminate(ctx)
	}
}

func (env *TestEnv) do(method, path, token string, payload any) *httptest.ResponseRecorder {
	var body bytes.Buffer
	if payload != nil {
		json.NewEncoder(&body).Encode(payload)
	}
	req, _ := http.NewRequest(method, path, &body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	return w
}

func envelope(t *testing.T, w *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func (env *TestEnv) registerAndLogin(t *testing.T, email, password, username string) string {
	t.Helper()

	w := env.do("POST", "/auth/users", "", gin.H{
		"email": email, "password": password, "username": username,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = env.do("POST", "/auth/users/login", "", gin.H{"email": email, "password": password})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	return envelope(t, w)["data"].(map[string]any)["token"].(string)
}

func TestIntegration_AccountLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	t.Run("register and login", func(t *testing.T) {
		w := env.do("POST", "/auth/users", "", gin.H{
			"email": "a@b.com", "password": "abcdef", "username": "a",
		})
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		data := envelope(t, w)["data"].(map[string]any)
		assert.Equal(t, "a@b.com", data["email"])
		assert.NotContains(t, data, "password")

		w = env.do("POST", "/auth/users/login", "", gin.H{"email": "a@b.com", "password": "abcdef"})
		require.Equal(t, http.StatusOK, w.Code)
		assert.NotEmpty(t, envelope(t, w)["data"].(map[string]any)["token"])
	})

	t.Run("duplicate email is rejected", func(t *testing.T) {
		w := env.do("POST", "/auth/users", "", gin.H{
			"email": "a@b.com", "password": "other-pass", "username": "other",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "User already exists", envelope(t, w)["message"])
	})

	t.Run("wrong password is rejected", func(t *testing.T) {
		w := env.do("POST", "/auth/users/login", "", gin.H{"email": "a@b.com", "password": "wrongpw"})
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}

func TestIntegration_LinkLifecycle(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	token := env.registerAndLogin(t, "owner@b.com", "abcdef", "owner")

	w := env.do("POST", "/urls/shorten", token, gin.H{"long_url": "https://example.com/target"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := envelope(t, w)["data"].(map[string]any)
	shortCode := created["short_code"].(string)
	require.Len(t, shortCode, 6)

	t.Run("public resolution counts clicks", func(t *testing.T) {
		w := env.do("GET", "/urls/"+shortCode, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		data := envelope(t, w)["data"].(map[string]any)
		assert.Equal(t, "https://example.com/target", data["long_url"])
		assert.Equal(t, float64(1), data["clicks"])

		w = env.do("GET", "/urls/"+shortCode, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, float64(2), envelope(t, w)["data"].(map[string]any)["clicks"])
	})

	t.Run("stats reflect resolution", func(t *testing.T) {
		w := env.do("GET", "/urls/stats/"+shortCode, token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		assert.Equal(t, float64(2), envelope(t, w)["data"].(map[string]any)["clicks"])
	})

	t.Run("update changes the target", func(t *testing.T) {
		w := env.do("PUT", "/urls/"+shortCode, token, gin.H{"long_url": "https://example.com/changed"})
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = env.do("GET", "/urls/"+shortCode, "", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, "https://example.com/changed", envelope(t, w)["data"].(map[string]any)["long_url"])
	})

	t.Run("another user cannot touch the link", func(t *testing.T) {
		otherToken := env.registerAndLogin(t, "other@b.com", "abcdef", "other")

		w := env.do("DELETE", "/urls/"+shortCode, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)

		w = env.do("GET", "/urls/stats/"+shortCode, otherToken, nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("owner deletes the link", func(t *testing.T) {
		w := env.do("DELETE", "/urls/"+shortCode, token, nil)
		require.Equal(t, http.StatusOK, w.Code)

		w = env.do("GET", "/urls/"+shortCode, "", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestIntegration_UserDeleteCascades(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	token := env.registerAndLogin(t, "gone@b.com", "abcdef", "gone")

	w := env.do("POST", "/urls/shorten", token, gin.H{"long_url": "https://example.com"})
	require.Equal(t, http.StatusCreated, w.Code)
	shortCode := envelope(t, w)["data"].(map[string]any)["short_code"].(string)

	w = env.do("GET", "/auth/users", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	userID := envelope(t, w)["data"].([]any)[0].(map[string]any)["id"].(string)

	w = env.do("DELETE", "/auth/users/"+userID, token, nil)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// The FK cascade removes the user's links with the account
	w = env.do("GET", "/urls/"+shortCode, "", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestIntegration_OAuthFlow(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	env := setupTestEnv(t)
	defer env.teardown(t)

	w := env.do("GET", "/auth/users/google", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	location := w.Header().Get("Location")
	require.Contains(t, location, "state=")
	state := location[len("https://provider.example.com/authorize?state="):]

	// The state round-trips through Redis; replaying it must fail
	w = env.do("GET", "/auth/users/google/callback?state="+state+"&code=auth-code", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "token=")

	w = env.do("GET", "/auth/users/google/callback?state="+state+"&code=auth-code", "", nil)
	require.Equal(t, http.StatusFound, w.Code)
	assert.Contains(t, w.Header().Get("Location"), "error=google_auth_failed")
}
