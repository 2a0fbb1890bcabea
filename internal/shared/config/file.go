package config

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the environment keys in YAML form.
type fileConfig struct {
	Port        string   `yaml:"port"`
	Env         string   `yaml:"env"`
	DatabaseURL string   `yaml:"database_url"`
	CORSOrigins []string `yaml:"cors_allow_origins"`
	RedisURL    string   `yaml:"redis_url"`
	LockTTL     string   `yaml:"lock_ttl"`
	Extractions struct {
		CreateMaxAttempts int    `yaml:"create_max_attempts"`
		RetryBaseDelay    string `yaml:"retry_base_delay"`
		RenumberOnDelete  *bool  `yaml:"renumber_on_delete"`
		SchemaFile        string `yaml:"schema_file"`
	} `yaml:"extractions"`
	RateLimit struct {
		RPS   float64 `yaml:"rps"`
		Burst int     `yaml:"burst"`
	} `yaml:"rate_limit"`
}

func loadYAMLFile(path string) (map[string]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return nil, fmt.Errorf("parsing YAML: %w", err)
	}
	return fc.toEnv(), nil
}

func (fc fileConfig) toEnv() map[string]string {
	out := map[string]string{
		"PORT":                        fc.Port,
		"ENV":                         fc.Env,
		"DATABASE_URL":                fc.DatabaseURL,
		"CORS_ALLOW_ORIGINS":          strings.Join(fc.CORSOrigins, ","),
		"REDIS_URL":                   fc.RedisURL,
		"LOCK_TTL":                    fc.LockTTL,
		"EXTRACTION_RETRY_BASE_DELAY": fc.Extractions.RetryBaseDelay,
		"EXTRACTION_SCHEMA_FILE":      fc.Extractions.SchemaFile,
	}
	if fc.Extractions.CreateMaxAttempts > 0 {
		out["EXTRACTION_CREATE_MAX_ATTEMPTS"] = strconv.Itoa(fc.Extractions.CreateMaxAttempts)
	}
	if fc.Extractions.RenumberOnDelete != nil {
		out["EXTRACTION_RENUMBER_ON_DELETE"] = strconv.FormatBool(*fc.Extractions.RenumberOnDelete)
	}
	if fc.RateLimit.RPS > 0 {
		out["RATE_LIMIT_RPS"] = strconv.FormatFloat(fc.RateLimit.RPS, 'f', -1, 64)
	}
	if fc.RateLimit.Burst > 0 {
		out["RATE_LIMIT_BURST"] = strconv.Itoa(fc.RateLimit.Burst)
	}
	return out
}

// loadEnvFiles loads simple KEY=VALUE pairs from the given files if they exist.
// Keys already present in the environment are left alone.
func loadEnvFiles(paths ...string) {
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			continue
		}
		scanner := bufio.NewScanner(f)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			key, val, ok := strings.Cut(line, "=")
			if !ok {
				continue
			}
			key = strings.TrimSpace(key)
			val = strings.Trim(strings.TrimSpace(val), `"`)
			if key == "" {
				continue
			}
			if _, exists := os.LookupEnv(key); !exists {
				os.Setenv(key, val)
			}
		}
		_ = f.Close()
	}
}
