package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds process-wide settings. It is built once at startup and passed
// by value to the components that need it.
type Config struct {
	Port    string
	BaseURL string

	MongoURI        string
	DBName          string
	UseTransactions bool

	AccessTokenSecret  string
	AccessTokenTTL     time.Duration
	RefreshTokenSecret string
	RefreshTokenTTL    time.Duration
	BcryptCost         int

	CookieSecure   bool
	CookieSameSite string
	CORSOrigins    []string

	ResendAPIKey string
	FromEmail    string

	S3Bucket        string
	S3Region        string
	S3Endpoint      string
	S3AccessKey     string
	S3SecretKey     string
	S3PublicBaseURL string
	UploadDir       string
	MaxUploadBytes  int64

	LoginRatePerMinute int

	LogLevel  string
	LogFormat string

	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

// Load reads a .env file if one is present and then the process environment.
func Load() Config {
	// Missing .env is fine, production sets vars directly.
	_ = godotenv.Load()

	return Config{
		Port:    envString("PORT", "8000"),
		BaseURL: envString("BASE_URL", "http://127.0.0.1:8000"),

		MongoURI:        envString("MONGODB_URI", ""),
		DBName:          envString("DB_NAME", "campus_openings"),
		UseTransactions: envBool("MONGODB_TRANSACTIONS", false),

		AccessTokenSecret:  envString("ACCESS_TOKEN_SECRET", ""),
		AccessTokenTTL:     envDuration("ACCESS_TOKEN_EXPIRY", 15*time.Minute),
		RefreshTokenSecret: envString("REFRESH_TOKEN_SECRET", ""),
		RefreshTokenTTL:    envDuration("REFRESH_TOKEN_EXPIRY", 10*24*time.Hour),
		BcryptCost:         envInt("BCRYPT_COST", 10),

		CookieSecure:   envBool("COOKIE_SECURE", true),
		CookieSameSite: envString("COOKIE_SAMESITE", "lax"),
		CORSOrigins:    envList("CORS_ORIGINS", []string{"*"}),

		ResendAPIKey: envString("RESEND_API_KEY", ""),
		FromEmail:    envString("FROM_EMAIL", ""),

		S3Bucket:        envString("S3_BUCKET", ""),
		S3Region:        envString("S3_REGION", "us-east-1"),
		S3Endpoint:      envString("S3_ENDPOINT", ""),
		S3AccessKey:     envString("S3_ACCESS_KEY", ""),
		S3SecretKey:     envString("S3_SECRET_KEY", ""),
		S3PublicBaseURL: envString("S3_PUBLIC_BASE_URL", ""),
		UploadDir:       envString("UPLOAD_DIR", os.TempDir()),
		MaxUploadBytes:  int64(envInt("MAX_UPLOAD_BYTES", 10<<20)),

		LoginRatePerMinute: envInt("LOGIN_RATE_PER_MINUTE", 10),

		LogLevel:  envString("LOG_LEVEL", "info"),
		LogFormat: envString("LOG_FORMAT", "json"),

		ReadTimeout:     envDuration("HTTP_READ_TIMEOUT", 15*time.Second),
		WriteTimeout:    envDuration("HTTP_WRITE_TIMEOUT", 30*time.Second),
		IdleTimeout:     envDuration("HTTP_IDLE_TIMEOUT", 60*time.Second),
		ShutdownTimeout: envDuration("HTTP_SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate reports settings the server cannot start without.
func (c Config) Validate() error {
	var errs []error
	if c.MongoURI == "" {
		errs = append(errs, errors.New("MONGODB_URI is required"))
	}
	if c.AccessTokenSecret == "" {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET is required"))
	}
	if c.RefreshTokenSecret == "" {
		errs = append(errs, errors.New("REFRESH_TOKEN_SECRET is required"))
	}
	if c.AccessTokenSecret != "" && c.AccessTokenSecret == c.RefreshTokenSecret {
		errs = append(errs, errors.New("ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must differ"))
	}
	return errors.Join(errs...)
}

// StorageEnabled reports whether an object storage bucket is configured.
func (c Config) StorageEnabled() bool {
	return c.S3Bucket != ""
}

func envString(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envBool(key string, def bool) bool {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

func envInt(key string, def int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func envDuration(key string, def time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return def
	}
	return d
}

func envList(key string, def []string) []string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	var out []string
	for _, part := range strings.Split(v, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	if len(out) == 0 {
		return def
	}
	return out
}
