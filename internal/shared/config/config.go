package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds application configuration.
type Config struct {
	Port            string
	Env             string
	DatabaseURL     string
	CORSAllowOrigin []string
	RedisURL        string
	LockTTL         time.Duration
	Extractions     ExtractionConfig
	RateLimit       RateLimitConfig
}

// ExtractionConfig tunes the extraction ledger.
type ExtractionConfig struct {
	CreateMaxAttempts int
	RetryBaseDelay    time.Duration
	// RenumberOnDelete shifts higher versions down after a delete so the
	// sequence stays contiguous. Off by default: gaps are kept.
	RenumberOnDelete bool
	SchemaFile       string
}

// RateLimitConfig is a per-client token bucket.
type RateLimitConfig struct {
	RPS   float64
	Burst int
}

// Load reads configuration from environment variables with sensible defaults.
// Values from CONFIG_FILE (YAML) fill in keys the environment leaves unset.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	src := source{file: map[string]string{}}
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		values, err := loadYAMLFile(path)
		if err != nil {
			log.Printf("config: ignoring %s: %v", path, err)
		} else {
			src.file = values
		}
	}
	return src.build()
}

type source struct {
	file map[string]string
}

func (s source) build() Config {
	env := normalizeEnv(s.get("ENV", "dev"))
	dbURL := s.get("DATABASE_URL", "")

	if env == "production" && dbURL == "" {
		log.Printf("DATABASE_URL is required in production")
	}

	return Config{
		Port:            s.get("PORT", "8080"),
		Env:             env,
		DatabaseURL:     dbURL,
		CORSAllowOrigin: splitAndTrim(s.get("CORS_ALLOW_ORIGINS", "http://localhost:5173")),
		RedisURL:        s.get("REDIS_URL", ""),
		LockTTL:         s.duration("LOCK_TTL", 10*time.Second),
		Extractions: ExtractionConfig{
			CreateMaxAttempts: s.int("EXTRACTION_CREATE_MAX_ATTEMPTS", 3),
			RetryBaseDelay:    s.duration("EXTRACTION_RETRY_BASE_DELAY", 50*time.Millisecond),
			RenumberOnDelete:  s.bool("EXTRACTION_RENUMBER_ON_DELETE", false),
			SchemaFile:        s.get("EXTRACTION_SCHEMA_FILE", ""),
		},
		RateLimit: RateLimitConfig{
			RPS:   s.float("RATE_LIMIT_RPS", 10),
			Burst: s.int("RATE_LIMIT_BURST", 20),
		},
	}
}

func (s source) get(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	if val := s.file[key]; val != "" {
		return val
	}
	return def
}

func (s source) int(key string, def int) int {
	raw := strings.TrimSpace(s.get(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		log.Printf("config %s invalid int: %v", key, err)
		return def
	}
	return v
}

func (s source) float(key string, def float64) float64 {
	raw := strings.TrimSpace(s.get(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		log.Printf("config %s invalid float: %v", key, err)
		return def
	}
	return v
}

func (s source) bool(key string, def bool) bool {
	raw := strings.TrimSpace(s.get(key, ""))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		log.Printf("config %s invalid bool: %v", key, err)
		return def
	}
	return v
}

func (s source) duration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(s.get(key, ""))
	if raw == "" {
		return def
	}
	v, err := time.ParseDuration(raw)
	if err != nil {
		log.Printf("config %s invalid duration: %v", key, err)
		return def
	}
	return v
}

func splitAndTrim(raw string) []string {
	parts := strings.Split(raw, ",")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	case "test":
		return "test"
	default:
		return "dev"
	}
}

// IsDevLike reports whether env tolerates in-memory fallbacks.
func IsDevLike(env string) bool {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "dev", "local", "test":
		return true
	default:
		return false
	}
}
