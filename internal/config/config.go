package config

import (
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

type Config struct {
	HTTPAddr  string `yaml:"http_addr"`
	PublicURL string `yaml:"public_url"`

	DBDriver string `yaml:"db_driver"`
	DBDSN    string `yaml:"db_dsn"`

	BlobBasePath string `yaml:"blob_base_path"`

	AuthSecret    string `yaml:"auth_secret"`
	TokenTTLHours int    `yaml:"token_ttl_hours"`

	CORSOrigins []string `yaml:"cors_origins"`

	BillingEnabled bool   `yaml:"billing_enabled"`
	BillingBaseURL string `yaml:"billing_base_url"`
	BillingAPIKey  string `yaml:"billing_api_key"`

	// StaleSessionHours: in-progress sessions older than this are marked
	// abandoned by the nightly job.
	StaleSessionHours int `yaml:"stale_session_hours"`
}

func FromEnv() Config {
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	return Config{
		HTTPAddr:          addr,
		PublicURL:         os.Getenv("PUBLIC_URL"),
		DBDriver:          envOr("DB_DRIVER", "sqlite"),
		DBDSN:             envOr("DB_DSN", ""),
		BlobBasePath:      envOr("BLOB_BASE_PATH", "./data"),
		AuthSecret:        envOr("AUTH_HMAC_SECRET", "supersecret-dev-key"),
		TokenTTLHours:     envInt("TOKEN_TTL_HOURS", 8),
		CORSOrigins:       csvOr("CORS_ORIGINS", "http://localhost:3000,http://localhost:19006"),
		BillingEnabled:    envBool("BILLING_ENABLED", false),
		BillingBaseURL:    os.Getenv("BILLING_BASE_URL"),
		BillingAPIKey:     os.Getenv("BILLING_API_KEY"),
		StaleSessionHours: envInt("STALE_SESSION_HOURS", 24),
	}
}

// Load builds the config from the environment, then overlays the YAML file at
// path when one is given.
func Load(path string) (Config, error) {
	cfg := FromEnv()
	if path == "" {
		return cfg, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()
	if err := yaml.NewDecoder(f).Decode(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func envOr(k, def string) string {
	v := os.Getenv(k)
	if v == "" {
		return def
	}
	return v
}

func envBool(k string, def bool) bool {
	switch os.Getenv(k) {
	case "1", "true", "TRUE", "yes", "YES":
		return true
	case "0", "false", "FALSE", "no", "NO":
		return false
	default:
		return def
	}
}

func envInt(k string, def int) int {
	if v, err := strconv.Atoi(os.Getenv(k)); err == nil && v > 0 {
		return v
	}
	return def
}

func csvOr(k, def string) []string {
	v := envOr(k, def)
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
