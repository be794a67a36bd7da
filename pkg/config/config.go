package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

const (
	EnvPrefix = "HOMEPAGE"

	AppEnvDev  = "development"
	AppEnvProd = "production"

	EnvAppEnv             = "HOMEPAGE_APP_ENV"
	EnvPort               = "HOMEPAGE_APP_PORT"
	EnvLogLevel           = "HOMEPAGE_LOG_LEVEL"
	EnvWishlistDataPath   = "HOMEPAGE_WISHLIST_DATA_PATH"
	EnvWishlistListPolicy = "HOMEPAGE_WISHLIST_LIST_FAILURE_POLICY"
	EnvArtPath            = "HOMEPAGE_ART_PATH"
	EnvAdminPasswordHash  = "HOMEPAGE_ADMIN_PASSWORD_HASH"
	EnvAdminJWTSecret     = "HOMEPAGE_ADMIN_JWT_SECRET"
	EnvRedisURL           = "HOMEPAGE_REDIS_URL"
	EnvSpotifyClientID    = "HOMEPAGE_SPOTIFY_CLIENT_ID"
	EnvSpotifySecret      = "HOMEPAGE_SPOTIFY_CLIENT_SECRET"
	EnvSpotifyRefresh     = "HOMEPAGE_SPOTIFY_REFRESH_TOKEN"
	EnvSteamAPIKey        = "HOMEPAGE_STEAM_API_KEY"
	EnvSteamID            = "HOMEPAGE_STEAM_ID"
	EnvPrinterStatusURL   = "HOMEPAGE_PRINTER_STATUS_URL"
	EnvCORSOrigins        = "HOMEPAGE_CORS_ALLOWED_ORIGINS"

	ListFailureSoft = "soft"
	ListFailureHard = "hard"
)

type Config struct {
	App            AppConfig
	Wishlist       WishlistConfig
	Art            ArtConfig
	Activity       ActivityConfig
	Static         StaticConfig
	CORS           CORSConfig
	Admin          AdminConfig
	Password       PasswordConfig
	LoginRateLimit LoginRateLimitConfig
	Redis          RedisConfig
	Upstream       UpstreamConfig
	Spotify        SpotifyConfig
	Steam          SteamConfig
	Printer        PrinterConfig
	Chat           ChatConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	policy := strings.ToLower(strings.TrimSpace(c.Wishlist.ListFailurePolicy))
	switch policy {
	case ListFailureSoft, ListFailureHard:
		c.Wishlist.ListFailurePolicy = policy
	default:
		return fmt.Errorf("%s must be %q or %q, got %q", EnvWishlistListPolicy, ListFailureSoft, ListFailureHard, c.Wishlist.ListFailurePolicy)
	}
	if strings.TrimSpace(c.Wishlist.DataPath) == "" {
		return fmt.Errorf("%s is required", EnvWishlistDataPath)
	}
	if c.Admin.Enabled() && strings.TrimSpace(c.Admin.JWTSecret) == "" {
		return fmt.Errorf("%s is required when %s is set", EnvAdminJWTSecret, EnvAdminPasswordHash)
	}
	return nil
}

type AppConfig struct {
	Env             string        `envconfig:"HOMEPAGE_APP_ENV" default:"development"`
	Port            string        `envconfig:"HOMEPAGE_APP_PORT" default:"3000"`
	LogLevel        string        `envconfig:"HOMEPAGE_LOG_LEVEL" default:"info"`
	LogWarnStack    bool          `envconfig:"HOMEPAGE_LOG_WARN_STACK" default:"false"`
	ShutdownTimeout time.Duration `envconfig:"HOMEPAGE_SHUTDOWN_TIMEOUT" default:"10s"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev) || strings.EqualFold(a.Env, "dev")
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd) || strings.EqualFold(a.Env, "prod")
}

type WishlistConfig struct {
	DataPath          string `envconfig:"HOMEPAGE_WISHLIST_DATA_PATH" default:"wishlist/wishlist-data.json"`
	ListFailurePolicy string `envconfig:"HOMEPAGE_WISHLIST_LIST_FAILURE_POLICY" default:"soft"`
}

// FailSoftList reports whether List should degrade to an empty collection on read errors.
func (w WishlistConfig) FailSoftList() bool {
	return !strings.EqualFold(w.ListFailurePolicy, ListFailureHard)
}

type ArtConfig struct {
	Path string `envconfig:"HOMEPAGE_ART_PATH" default:"data/art.json"`
}

type ActivityConfig struct {
	Default string `envconfig:"HOMEPAGE_ACTIVITY_DEFAULT" default:"Just vibing."`
}

type StaticConfig struct {
	WebRoot string `envconfig:"HOMEPAGE_WEB_ROOT"`
}

type CORSConfig struct {
	AllowedOrigins []string `envconfig:"HOMEPAGE_CORS_ALLOWED_ORIGINS" default:"http://localhost:3000"`
}

type AdminConfig struct {
	PasswordHash string        `envconfig:"HOMEPAGE_ADMIN_PASSWORD_HASH"`
	JWTSecret    string        `envconfig:"HOMEPAGE_ADMIN_JWT_SECRET"`
	JWTIssuer    string        `envconfig:"HOMEPAGE_ADMIN_JWT_ISSUER" default:"homepage"`
	TokenTTL     time.Duration `envconfig:"HOMEPAGE_ADMIN_TOKEN_TTL" default:"12h"`
}

// Enabled reports whether admin-only routes require a token.
func (a AdminConfig) Enabled() bool {
	return strings.TrimSpace(a.PasswordHash) != ""
}

// PasswordConfig tunes the argon2id parameters used by homepagectl hash-password.
type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"HOMEPAGE_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"HOMEPAGE_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"HOMEPAGE_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"HOMEPAGE_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"HOMEPAGE_ARGON_KEY_LEN" default:"32"`
}

type LoginRateLimitConfig struct {
	Window time.Duration `envconfig:"HOMEPAGE_LOGIN_RATE_LIMIT_WINDOW" default:"1m"`
	Limit  int           `envconfig:"HOMEPAGE_LOGIN_RATE_LIMIT" default:"5"`
}

type RedisConfig struct {
	URL          string        `envconfig:"HOMEPAGE_REDIS_URL"`
	DB           int           `envconfig:"HOMEPAGE_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"HOMEPAGE_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"HOMEPAGE_REDIS_MIN_IDLE_CONNS" default:"1"`
	DialTimeout  time.Duration `envconfig:"HOMEPAGE_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"HOMEPAGE_REDIS_READ_TIMEOUT" default:"3s"`
	WriteTimeout time.Duration `envconfig:"HOMEPAGE_REDIS_WRITE_TIMEOUT" default:"3s"`
}

// Enabled reports whether a Redis URL was supplied.
func (r RedisConfig) Enabled() bool {
	return strings.TrimSpace(r.URL) != ""
}

type UpstreamConfig struct {
	Timeout                 time.Duration `envconfig:"HOMEPAGE_UPSTREAM_TIMEOUT" default:"5s"`
	BreakerFailureThreshold uint32        `envconfig:"HOMEPAGE_UPSTREAM_BREAKER_FAILURES" default:"5"`
	BreakerOpenTimeout      time.Duration `envconfig:"HOMEPAGE_UPSTREAM_BREAKER_TIMEOUT" default:"30s"`
}

type SpotifyConfig struct {
	ClientID     string        `envconfig:"HOMEPAGE_SPOTIFY_CLIENT_ID"`
	ClientSecret string        `envconfig:"HOMEPAGE_SPOTIFY_CLIENT_SECRET"`
	RefreshToken string        `envconfig:"HOMEPAGE_SPOTIFY_REFRESH_TOKEN"`
	TokenURL     string        `envconfig:"HOMEPAGE_SPOTIFY_TOKEN_URL" default:"https://accounts.spotify.com/api/token"`
	APIBaseURL   string        `envconfig:"HOMEPAGE_SPOTIFY_API_BASE_URL" default:"https://api.spotify.com/v1"`
	CacheTTL     time.Duration `envconfig:"HOMEPAGE_SPOTIFY_CACHE_TTL" default:"5s"`
}

// Enabled reports whether all Spotify credentials are present.
func (s SpotifyConfig) Enabled() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RefreshToken != ""
}

type SteamConfig struct {
	APIKey     string        `envconfig:"HOMEPAGE_STEAM_API_KEY"`
	SteamID    string        `envconfig:"HOMEPAGE_STEAM_ID"`
	APIBaseURL string        `envconfig:"HOMEPAGE_STEAM_API_BASE_URL" default:"https://api.steampowered.com"`
	CacheTTL   time.Duration `envconfig:"HOMEPAGE_STEAM_CACHE_TTL" default:"2m"`
}

// Enabled reports whether the Steam key and account id are present.
func (s SteamConfig) Enabled() bool {
	return s.APIKey != "" && s.SteamID != ""
}

type PrinterConfig struct {
	StatusURL string        `envconfig:"HOMEPAGE_PRINTER_STATUS_URL"`
	CacheTTL  time.Duration `envconfig:"HOMEPAGE_PRINTER_CACHE_TTL" default:"10s"`
}

func (p PrinterConfig) Enabled() bool {
	return strings.TrimSpace(p.StatusURL) != ""
}

type ChatConfig struct {
	Enabled          bool `envconfig:"HOMEPAGE_CHAT_ENABLED" default:"true"`
	MaxMessageLength int  `envconfig:"HOMEPAGE_CHAT_MAX_MESSAGE_LENGTH" default:"500"`
	HistorySize      int  `envconfig:"HOMEPAGE_CHAT_HISTORY_SIZE" default:"20"`
	// AccountsPath points at a JSON array of {"name","hash"} entries; argon2 hashes
	// contain commas, so they cannot live in a plain env list.
	AccountsPath string        `envconfig:"HOMEPAGE_CHAT_ACCOUNTS_PATH"`
	PingInterval time.Duration `envconfig:"HOMEPAGE_CHAT_PING_INTERVAL" default:"54s"`
}
