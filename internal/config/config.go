package config

import (
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/viper"
)

const (
	AuthProviderFirebase = "firebase"
	AuthProviderJWT      = "jwt"
)

// Config holds application configuration (env + Viper).
type Config struct {
	Env      string
	Port     string
	LogLevel string

	DatabaseURL string
	RedisURL    string

	AuthProvider            string // firebase | jwt
	FirebaseProjectID       string
	FirebaseCredentialsFile string
	JWTSecret               string
	JWTIssuer               string

	SupabaseURL       string // storage sign URLs and public URLs
	SupabaseSecretKey string // must be the service_role key, not anon

	FrontendURLEndsWith string
	DevPassword         string
	HealthAdminKey      string

	StoreTimeout  time.Duration
	AuthTimeout   time.Duration
	SlugMaxSuffix int
	DraftTTL      time.Duration
}

// Load loads config from env and optional .env file.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig()

	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	v.SetDefault("PORT", "8080")
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("AUTH_PROVIDER", AuthProviderFirebase)
	v.SetDefault("JWT_ISSUER", "marketplace")
	v.SetDefault("STORE_TIMEOUT", "5s")
	v.SetDefault("AUTH_TIMEOUT", "5s")
	v.SetDefault("SLUG_MAX_SUFFIX", 1000)
	v.SetDefault("DRAFT_TTL", "24h")

	cfg := &Config{
		Env:                     v.GetString("APP_ENV"),
		Port:                    v.GetString("PORT"),
		LogLevel:                v.GetString("LOG_LEVEL"),
		DatabaseURL:             v.GetString("DATABASE_URL"),
		RedisURL:                v.GetString("REDIS_URL"),
		AuthProvider:            strings.ToLower(strings.TrimSpace(v.GetString("AUTH_PROVIDER"))),
		FirebaseProjectID:       v.GetString("FIREBASE_PROJECT_ID"),
		FirebaseCredentialsFile: v.GetString("FIREBASE_CREDENTIALS_FILE"),
		JWTSecret:               v.GetString("JWT_SECRET"),
		JWTIssuer:               v.GetString("JWT_ISSUER"),
		SupabaseURL:             v.GetString("SUPABASE_URL"),
		SupabaseSecretKey:       v.GetString("SUPABASE_SECRET_KEY"),
		FrontendURLEndsWith:     v.GetString("FRONTEND_URL_ENDS_WITH"),
		DevPassword:             v.GetString("DEV_PASSWORD"),
		HealthAdminKey:          v.GetString("HEALTH_ADMIN_KEY"),
		StoreTimeout:            v.GetDuration("STORE_TIMEOUT"),
		AuthTimeout:             v.GetDuration("AUTH_TIMEOUT"),
		SlugMaxSuffix:           v.GetInt("SLUG_MAX_SUFFIX"),
		DraftTTL:                v.GetDuration("DRAFT_TTL"),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks the settings that would otherwise fail on first request.
func (c *Config) Validate() error {
	switch c.AuthProvider {
	case AuthProviderFirebase:
		if c.FirebaseProjectID == "" && c.FirebaseCredentialsFile == "" {
			return errors.New("config: FIREBASE_PROJECT_ID or FIREBASE_CREDENTIALS_FILE is required when AUTH_PROVIDER=firebase")
		}
	case AuthProviderJWT:
		if c.JWTSecret == "" {
			return errors.New("config: JWT_SECRET is required when AUTH_PROVIDER=jwt")
		}
	default:
		return errors.Errorf("config: unknown AUTH_PROVIDER %q", c.AuthProvider)
	}
	if c.StoreTimeout <= 0 || c.AuthTimeout <= 0 || c.DraftTTL <= 0 {
		return errors.New("config: STORE_TIMEOUT, AUTH_TIMEOUT and DRAFT_TTL must be positive durations")
	}
	if c.SlugMaxSuffix < 1 {
		return errors.New("config: SLUG_MAX_SUFFIX must be at least 1")
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}
