package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	App   AppConfig
	DB    DBConfig
	Redis RedisConfig
	JWT   JWTConfig
	OAuth OAuthConfig
}

type AppConfig struct {
	Port string
	Env  string // "development" or "production"
	// ClientURL is the front-end base URL used as the default OAuth return
	// target.
	ClientURL string
}

type DBConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

type RedisConfig struct {
	Host string
	Port string
}

type JWTConfig struct {
	Secret string
}

type OAuthProviderConfig struct {
	ClientID     string
	ClientSecret string
}

type OAuthConfig struct {
	Google OAuthProviderConfig
	GitHub OAuthProviderConfig
	// RedirectBaseURL is the externally reachable base URL of this service,
	// used to build provider callback URLs.
	RedirectBaseURL string
}

func Load() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.AutomaticEnv()

	// The .env file is optional; environment variables alone are enough.
	_ = viper.ReadInConfig()

	var cfg Config
	cfg.App.Port = getOrDefault("APP_PORT", "8080")
	cfg.App.Env = getOrDefault("APP_ENV", "development")
	cfg.App.ClientURL = getOrDefault("CLIENT_URL", "http://localhost:3000")

	cfg.DB.Host = viper.GetString("DB_HOST")
	cfg.DB.Port = viper.GetString("DB_PORT")
	cfg.DB.User = viper.GetString("DB_USER")
	cfg.DB.Password = viper.GetString("DB_PASSWORD")
	cfg.DB.Name = viper.GetString("DB_NAME")
	cfg.Redis.Host = viper.GetString("REDIS_HOST")
	cfg.Redis.Port = viper.GetString("REDIS_PORT")

	// No fallback secret: refusing to start beats silently signing tokens
	// with a known key.
	cfg.JWT.Secret = viper.GetString("JWT_SECRET")
	if cfg.JWT.Secret == "" {
		return nil, errors.New("JWT_SECRET must be set")
	}

	cfg.OAuth.Google.ClientID = viper.GetString("GOOGLE_CLIENT_ID")
	cfg.OAuth.Google.ClientSecret = viper.GetString("GOOGLE_CLIENT_SECRET")
	cfg.OAuth.GitHub.ClientID = viper.GetString("GITHUB_CLIENT_ID")
	cfg.OAuth.GitHub.ClientSecret = viper.GetString("GITHUB_CLIENT_SECRET")
	cfg.OAuth.RedirectBaseURL = getOrDefault("OAUTH_REDIRECT_BASE_URL", "http://localhost:"+cfg.App.Port)

	return &cfg, nil
}

// IsProduction reports whether production cookie and CSRF settings apply.
func (c *Config) IsProduction() bool {
	return c.App.Env == "production"
}

func getOrDefault(key, fallback string) string {
	if v := viper.GetString(key); v != "" {
		return v
	}
	return fallback
}
