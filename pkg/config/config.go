// Package config provides environment-derived service configuration.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smarterbotcl/smarterhub/pkg/types"
)

// DefaultBackendURL is the production provisioning backend.
const DefaultBackendURL = "https://api.smarterbot.cl"

type Config struct {
	// Enabled gates the entire invocation surface.
	Enabled bool
	// BackendURL is the base URL for the proxy tools.
	BackendURL string
	// LogInvocations enables persisted invocation records.
	LogInvocations bool
	// RateWindow and RateMax parameterize the per-caller limiter.
	RateWindow time.Duration
	RateMax    int
}

func Default() Config {
	return Config{
		Enabled:        false,
		BackendURL:     DefaultBackendURL,
		LogInvocations: false,
		RateWindow:     types.DefaultRateWindow,
		RateMax:        types.DefaultRateMax,
	}
}

// FromEnv applies SMARTERHUB_* overrides from environ on top of the
// defaults. Pass os.Environ() in production.
func FromEnv(environ []string) (Config, error) {
	cfg := Default()
	values := envMap(environ)

	if value, ok := values["SMARTERHUB_MCP_ENABLED"]; ok {
		parsed, err := parseBoolEnv("SMARTERHUB_MCP_ENABLED", value)
		if err != nil {
			return cfg, err
		}
		cfg.Enabled = parsed
	}
	if value, ok := values["SMARTERHUB_BACKEND_URL"]; ok && value != "" {
		cfg.BackendURL = value
	}
	if value, ok := values["SMARTERHUB_MCP_LOG_DB"]; ok {
		parsed, err := parseBoolEnv("SMARTERHUB_MCP_LOG_DB", value)
		if err != nil {
			return cfg, err
		}
		cfg.LogInvocations = parsed
	}
	if value, ok := values["SMARTERHUB_RATE_WINDOW_MS"]; ok {
		parsed, err := parseIntEnv("SMARTERHUB_RATE_WINDOW_MS", value)
		if err != nil {
			return cfg, err
		}
		cfg.RateWindow = time.Duration(parsed) * time.Millisecond
	}
	if value, ok := values["SMARTERHUB_RATE_MAX"]; ok {
		parsed, err := parseIntEnv("SMARTERHUB_RATE_MAX", value)
		if err != nil {
			return cfg, err
		}
		cfg.RateMax = int(parsed)
	}

	if cfg.RateWindow <= 0 {
		return cfg, fmt.Errorf("rate window must be positive, got %s", cfg.RateWindow)
	}
	if cfg.RateMax <= 0 {
		return cfg, fmt.Errorf("rate max must be positive, got %d", cfg.RateMax)
	}

	return cfg, nil
}

func envMap(environ []string) map[string]string {
	values := make(map[string]string, len(environ))
	for _, entry := range environ {
		key, value, found := strings.Cut(entry, "=")
		if !found {
			continue
		}
		values[key] = value
	}
	return values
}

func parseBoolEnv(name, value string) (bool, error) {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "yes":
		return true, nil
	case "false", "0", "no", "":
		return false, nil
	default:
		return false, fmt.Errorf("%s: invalid boolean %q", name, value)
	}
}

func parseIntEnv(name, value string) (int64, error) {
	parsed, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%s: invalid integer %q", name, value)
	}
	return parsed, nil
}
