package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	Addr string

	// GeminiAPIKey authenticates the upstream client. When empty the server
	// still starts; live and report endpoints respond 503.
	GeminiAPIKey string

	// LiveModel serves the realtime coaching relay.
	LiveModel string
	// DraftModel serves the report drafter.
	DraftModel string

	// DatabaseURL selects the postgres store; empty means in-memory.
	DatabaseURL string

	// CORS allowlist; empty => disabled.
	CORSAllowedOrigins map[string]struct{}

	// Live WebSocket mode.
	WSWriteTimeout     time.Duration
	WSMaxSessions      int
	MaxClientFrameSize int64

	// Operational defaults.
	ReadHeaderTimeout   time.Duration
	ShutdownGracePeriod time.Duration
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                envOr("COACHD_ADDR", ":8000"),
		GeminiAPIKey:        envOr("GEMINI_API_KEY", envOr("GOOGLE_API_KEY", "")),
		LiveModel:           envOr("COACHD_LIVE_MODEL", "gemini-2.5-flash-native-audio-latest"),
		DraftModel:          envOr("COACHD_DRAFT_MODEL", "gemini-3-flash-preview"),
		DatabaseURL:         envOr("COACHD_DATABASE_URL", ""),
		CORSAllowedOrigins:  make(map[string]struct{}),
		WSWriteTimeout:      envDurationOr("COACHD_WS_WRITE_TIMEOUT", 5*time.Second),
		WSMaxSessions:       envIntOr("COACHD_WS_MAX_SESSIONS", 32),
		MaxClientFrameSize:  envInt64Or("COACHD_MAX_CLIENT_FRAME_BYTES", 1<<20), // 1 MiB
		ReadHeaderTimeout:   envDurationOr("COACHD_READ_HEADER_TIMEOUT", 10*time.Second),
		ShutdownGracePeriod: envDurationOr("COACHD_SHUTDOWN_GRACE_PERIOD", 15*time.Second),
	}

	for _, origin := range splitCSV(os.Getenv("COACHD_CORS_ORIGINS")) {
		cfg.CORSAllowedOrigins[origin] = struct{}{}
	}

	if strings.TrimSpace(cfg.LiveModel) == "" {
		return Config{}, fmt.Errorf("COACHD_LIVE_MODEL must not be empty")
	}
	if strings.TrimSpace(cfg.DraftModel) == "" {
		return Config{}, fmt.Errorf("COACHD_DRAFT_MODEL must not be empty")
	}
	if cfg.WSWriteTimeout <= 0 {
		return Config{}, fmt.Errorf("COACHD_WS_WRITE_TIMEOUT must be > 0")
	}
	if cfg.WSMaxSessions <= 0 {
		return Config{}, fmt.Errorf("COACHD_WS_MAX_SESSIONS must be > 0")
	}
	if cfg.MaxClientFrameSize <= 0 {
		return Config{}, fmt.Errorf("COACHD_MAX_CLIENT_FRAME_BYTES must be > 0")
	}
	if cfg.ReadHeaderTimeout <= 0 {
		return Config{}, fmt.Errorf("COACHD_READ_HEADER_TIMEOUT must be > 0")
	}
	if cfg.ShutdownGracePeriod <= 0 {
		return Config{}, fmt.Errorf("COACHD_SHUTDOWN_GRACE_PERIOD must be > 0")
	}

	return cfg, nil
}

func envOr(key, def string) string {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	return v
}

func envIntOr(key string, def int) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return n
}

func envInt64Or(key string, def int64) int64 {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return def
	}
	return n
}

func envDurationOr(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return def
	}
	return d
}

func splitCSV(raw string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}
