package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"COACHD_ADDR", "GEMINI_API_KEY", "GOOGLE_API_KEY",
		"COACHD_LIVE_MODEL", "COACHD_DRAFT_MODEL", "COACHD_DATABASE_URL",
		"COACHD_CORS_ORIGINS", "COACHD_WS_WRITE_TIMEOUT", "COACHD_WS_MAX_SESSIONS",
		"COACHD_MAX_CLIENT_FRAME_BYTES", "COACHD_READ_HEADER_TIMEOUT",
		"COACHD_SHUTDOWN_GRACE_PERIOD",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadFromEnv_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.Addr != ":8000" {
		t.Fatalf("Addr = %q", cfg.Addr)
	}
	if cfg.GeminiAPIKey != "" {
		t.Fatalf("GeminiAPIKey = %q, want empty", cfg.GeminiAPIKey)
	}
	if cfg.DraftModel != "gemini-3-flash-preview" {
		t.Fatalf("DraftModel = %q", cfg.DraftModel)
	}
	if cfg.WSWriteTimeout != 5*time.Second {
		t.Fatalf("WSWriteTimeout = %v", cfg.WSWriteTimeout)
	}
	if len(cfg.CORSAllowedOrigins) != 0 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
}

func TestLoadFromEnv_GoogleKeyFallback(t *testing.T) {
	clearEnv(t)
	t.Setenv("GOOGLE_API_KEY", "google-key")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.GeminiAPIKey != "google-key" {
		t.Fatalf("GeminiAPIKey = %q", cfg.GeminiAPIKey)
	}

	t.Setenv("GEMINI_API_KEY", "gemini-key")
	cfg, err = LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.GeminiAPIKey != "gemini-key" {
		t.Fatalf("GeminiAPIKey = %q, want GEMINI_API_KEY to win", cfg.GeminiAPIKey)
	}
}

func TestLoadFromEnv_CORSOrigins(t *testing.T) {
	clearEnv(t)
	t.Setenv("COACHD_CORS_ORIGINS", "https://app.example.com, https://dev.example.com,")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if len(cfg.CORSAllowedOrigins) != 2 {
		t.Fatalf("CORSAllowedOrigins = %v", cfg.CORSAllowedOrigins)
	}
	if _, ok := cfg.CORSAllowedOrigins["https://app.example.com"]; !ok {
		t.Fatal("first origin missing")
	}
}

func TestLoadFromEnv_InvalidValuesRejected(t *testing.T) {
	clearEnv(t)
	t.Setenv("COACHD_WS_WRITE_TIMEOUT", "-1s")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("negative write timeout accepted")
	}

	clearEnv(t)
	t.Setenv("COACHD_WS_MAX_SESSIONS", "0")
	if _, err := LoadFromEnv(); err == nil {
		t.Fatal("zero max sessions accepted")
	}
}

func TestEnvHelpers_IgnoreMalformedValues(t *testing.T) {
	clearEnv(t)
	t.Setenv("COACHD_WS_MAX_SESSIONS", "not-a-number")
	t.Setenv("COACHD_READ_HEADER_TIMEOUT", "soon")

	cfg, err := LoadFromEnv()
	if err != nil {
		t.Fatalf("LoadFromEnv error: %v", err)
	}
	if cfg.WSMaxSessions != 32 {
		t.Fatalf("WSMaxSessions = %d, want default", cfg.WSMaxSessions)
	}
	if cfg.ReadHeaderTimeout != 10*time.Second {
		t.Fatalf("ReadHeaderTimeout = %v, want default", cfg.ReadHeaderTimeout)
	}
}
