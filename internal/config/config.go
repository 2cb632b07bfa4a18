package config

import (
	"fmt"
	"log"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	AppStage string
	LogLevel string

	DatabaseURL string

	JWTSecret        []byte
	JWTRefreshSecret []byte
	AccessTTL        time.Duration
	RefreshTTL       time.Duration
	BcryptCost       int

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string

	RedisAddr string
	CacheTTL  time.Duration

	GeminiAPIKey string
}

func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	accessTTL, err := ParseTTL(EnvDefault("JWT_EXPIRES_IN", "1h"))
	if err != nil {
		return nil, fmt.Errorf("JWT_EXPIRES_IN: %w", err)
	}
	refreshTTL, err := ParseTTL(EnvDefault("JWT_REFRESH_EXPIRES_IN", "7d"))
	if err != nil {
		return nil, fmt.Errorf("JWT_REFRESH_EXPIRES_IN: %w", err)
	}
	cacheTTL, err := ParseTTL(EnvDefault("CACHE_TTL", "1m"))
	if err != nil {
		return nil, fmt.Errorf("CACHE_TTL: %w", err)
	}

	cfg := &Config{
		Port:     EnvIntDefault("PORT", 8080),
		AppStage: EnvDefault("APP_STAGE", "development"),
		LogLevel: EnvDefault("LOG_LEVEL", "info"),

		DatabaseURL: os.Getenv("DATABASE_URL"),

		JWTSecret:        []byte(os.Getenv("JWT_SECRET")),
		JWTRefreshSecret: []byte(os.Getenv("JWT_REFRESH_SECRET")),
		AccessTTL:        accessTTL,
		RefreshTTL:       refreshTTL,
		BcryptCost:       EnvIntDefault("BCRYPT_ROUNDS", 10),

		KafkaBrokers: CSV(os.Getenv("KAFKA_BROKERS")),

		ESURL:      os.Getenv("ES_URL"),
		ESUser:     os.Getenv("ES_USER"),
		ESPassword: os.Getenv("ES_PASSWORD"),

		RedisAddr: os.Getenv("REDIS_ADDR"),
		CacheTTL:  cacheTTL,

		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
	}

	return cfg, nil
}

// IsProduction gates error detail exposure in responses.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.AppStage, "production")
}

var ttlRe = regexp.MustCompile(`^(\d+)([smhdw])$`)

// ParseTTL parses expiry strings like "30s", "15m", "1h", "7d", "2w".
// time.ParseDuration has no day or week unit, which token lifetimes are
// usually written in.
func ParseTTL(v string) (time.Duration, error) {
	m := ttlRe.FindStringSubmatch(v)
	if m == nil {
		return 0, fmt.Errorf("invalid time format: %q", v)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("invalid time format: %q", v)
	}
	switch m[2] {
	case "s":
		return time.Duration(n) * time.Second, nil
	case "m":
		return time.Duration(n) * time.Minute, nil
	case "h":
		return time.Duration(n) * time.Hour, nil
	case "d":
		return time.Duration(n) * 24 * time.Hour, nil
	case "w":
		return time.Duration(n) * 7 * 24 * time.Hour, nil
	}
	return 0, fmt.Errorf("invalid time format: %q", v)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func MustNonEmptyBytes(value []byte, envName string) {
	if len(value) == 0 {
		log.Fatalf("missing required env %s", envName)
	}
}

func MustNonEmpty(value, envName string) {
	if value == "" {
		log.Fatalf("missing required env %s", envName)
	}
}
