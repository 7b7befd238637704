package config

import (
	"os"
	"strconv"
	"time"
)

// Server captures process-wide configuration. It is built once at startup
// and passed into components explicitly; tests construct fresh values
// instead of mutating shared state.
type Server struct {
	Addr        string
	MetricsAddr string

	ScoringAPIURL    string
	ScoringAPISecret string
	MonitoringMode   bool

	SessionSigningKey string
	SessionTTL        time.Duration

	BreakerFailureThreshold int
	BreakerCooldown         time.Duration
}

// FromEnv builds a Server config from environment variables so main stays lean.
func FromEnv() Server {
	cfg := Server{
		Addr:                    envOr("RISKGATE_ADDR", ":8080"),
		MetricsAddr:             envOr("RISKGATE_METRICS_ADDR", ":9090"),
		ScoringAPIURL:           envOr("RISKGATE_SCORING_URL", "https://api.scoring.example.com"),
		ScoringAPISecret:        os.Getenv("RISKGATE_SCORING_SECRET"),
		MonitoringMode:          os.Getenv("RISKGATE_MONITORING_MODE") == "true",
		SessionSigningKey:       envOr("RISKGATE_SESSION_KEY", "dev-secret-key-change-in-production"),
		SessionTTL:              24 * time.Hour,
		BreakerFailureThreshold: 5,
		BreakerCooldown:         30 * time.Second,
	}

	if ttl := os.Getenv("RISKGATE_SESSION_TTL"); ttl != "" {
		if duration, err := time.ParseDuration(ttl); err == nil {
			cfg.SessionTTL = duration
		}
	}
	if n := os.Getenv("RISKGATE_BREAKER_FAILURES"); n != "" {
		if parsed, err := strconv.Atoi(n); err == nil && parsed > 0 {
			cfg.BreakerFailureThreshold = parsed
		}
	}

	return cfg
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
