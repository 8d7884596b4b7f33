package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/reconnect-ai/coachd/pkg/gateway/config"
	"github.com/reconnect-ai/coachd/pkg/relay"
	"github.com/reconnect-ai/coachd/pkg/session"
	"github.com/reconnect-ai/coachd/pkg/store"
	"github.com/reconnect-ai/coachd/pkg/upstream"
)

// StreamHandler upgrades GET /ws/stream/{domain} and runs a live relay until
// either side disconnects. An optional session_id query parameter ties the
// live session to a draft context started over REST.
type StreamHandler struct {
	Config    config.Config
	Connector upstream.LiveConnector
	Notes     relay.NoteSink
	Registry  *relay.Registry
	Store     store.Store
	Logger    *slog.Logger
}

func (h StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h.Connector == nil {
		writeError(w, r, http.StatusServiceUnavailable, "live coaching unavailable")
		return
	}
	if h.Registry.Len() >= h.Config.WSMaxSessions {
		writeError(w, r, http.StatusServiceUnavailable, "session capacity reached")
		return
	}

	profile := session.ProfileFor(session.ParseDomain(r.PathValue("domain")))
	sessionID := r.URL.Query().Get("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}

	upgrader := websocket.Upgrader{
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			if origin == "" || len(h.Config.CORSAllowedOrigins) == 0 {
				return true
			}
			_, ok := h.Config.CORSAllowedOrigins[origin]
			return ok
		},
	}
	wsRaw, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Logger.Warn("websocket upgrade failed", "error", err)
		return
	}
	wsRaw.SetReadLimit(h.Config.MaxClientFrameSize)
	client := relay.NewWSConn(wsRaw, h.Config.WSWriteTimeout)

	h.Registry.Register(client)
	defer h.Registry.Unregister(client)

	logger := h.Logger.With("session_id", sessionID, "domain", profile.Domain)

	tools := relay.NewToolSet(logger,
		relay.HeartbeatTool{Logger: logger},
		relay.ClinicalNoteTool{
			SessionID: sessionID,
			Notes:     h.Notes,
			Notify: func(note, category string) error {
				return client.WriteJSON(relay.ClinicalNoteFrame(note, category))
			},
		},
	)

	up, err := h.Connector.Connect(r.Context(), upstream.LiveConfig{
		Model:              h.Config.LiveModel,
		SystemInstruction:  profile.SystemInstruction,
		ResponseModalities: profile.ResponseModalities,
		VoiceName:          profile.VoiceName,
		Tools:              tools.Declarations(),
	})
	if err != nil {
		logger.Error("upstream connect failed", "error", err)
		_ = client.Close(websocket.CloseInternalServerErr, "upstream connect failed")
		return
	}

	if err := client.WriteJSON(relay.SessionStartedFrame(sessionID)); err != nil {
		logger.Warn("session_started frame not delivered", "error", err)
		_ = client.Close(websocket.CloseInternalServerErr, "")
		_ = up.Close()
		return
	}

	logger.Info("live session connected")
	rl := relay.New(sessionID, profile, client, up, tools, h.Logger)
	_ = rl.Run(r.Context())

	// Best effort: an upstream-side failure leaves the session aborted rather
	// than completed. The request context may already be gone by now.
	if rl.Aborted() && h.Store != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Store.CompleteSession(ctx, sessionID, store.StatusAborted); err != nil {
			logger.Warn("aborted session not recorded", "error", err)
		}
	}
}
