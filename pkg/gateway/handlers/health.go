package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/reconnect-ai/coachd/pkg/gateway/config"
)

type HealthHandler struct{}

func (h HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}

type ReadyHandler struct {
	Config config.Config
	// UpstreamReady reports whether the model client was configured.
	UpstreamReady bool
}

func (h ReadyHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	type readyResp struct {
		OK            bool     `json:"ok"`
		UpstreamReady bool     `json:"upstream_ready"`
		Persistent    bool     `json:"persistent"`
		Issues        []string `json:"issues,omitempty"`
	}

	issues := make([]string, 0, 2)
	if !h.UpstreamReady {
		issues = append(issues, "no gemini api key configured")
	}
	if h.Config.WSMaxSessions <= 0 {
		issues = append(issues, "ws max sessions must be > 0")
	}
	if h.Config.ShutdownGracePeriod <= 0 {
		issues = append(issues, "shutdown grace period must be > 0")
	}

	ok := len(issues) == 0
	status := http.StatusOK
	if !ok {
		status = http.StatusServiceUnavailable
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(readyResp{
		OK:            ok,
		UpstreamReady: h.UpstreamReady,
		Persistent:    h.Config.DatabaseURL != "",
		Issues:        issues,
	})
}
