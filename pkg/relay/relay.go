// Package relay bridges one client websocket to one live upstream session:
// inbound frames are compacted and funneled through the outbound serializer,
// model output and tool calls flow back to the client.
package relay

import (
	"context"
	"log/slog"
	"strings"
	"sync/atomic"

	"github.com/gorilla/websocket"
	"golang.org/x/sync/errgroup"

	"github.com/reconnect-ai/coachd/pkg/metrics"
	"github.com/reconnect-ai/coachd/pkg/session"
	"github.com/reconnect-ai/coachd/pkg/upstream"
)

// Relay lifecycle. breaking is a latch: once set, both loops stop at their
// next iteration and never send again.
const (
	stateOpen int32 = iota
	stateActive
	stateBreaking
	stateClosed
)

// Relay runs one live coaching session.
type Relay struct {
	sessionID string
	profile   session.Profile
	client    ClientConn
	up        upstream.LiveChannel
	out       *Serializer
	tools     *ToolSet
	logger    *slog.Logger

	state   atomic.Int32
	aborted atomic.Bool
}

// New wires a relay over an accepted client conn and a connected upstream
// channel. tools may be nil when the profile declares none.
func New(sessionID string, profile session.Profile, client ClientConn, up upstream.LiveChannel, tools *ToolSet, logger *slog.Logger) *Relay {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("session_id", sessionID)
	r := &Relay{
		sessionID: sessionID,
		profile:   profile,
		client:    client,
		up:        up,
		tools:     tools,
		logger:    logger,
	}
	r.out = NewSerializer(up, logger, func(err error) {
		if r.trip(websocket.ClosePolicyViolation, "upstream write failed") {
			r.aborted.Store(true)
		}
	})
	return r
}

// Run pumps both directions until either side fails or ctx is canceled. It
// always tears the session down before returning.
func (r *Relay) Run(ctx context.Context) error {
	r.state.Store(stateActive)
	metrics.SessionsActive.Inc()
	defer metrics.SessionsActive.Dec()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return r.out.Run(ctx) })
	g.Go(func() error { return r.clientLoop(ctx) })
	g.Go(func() error { return r.upstreamLoop(ctx) })

	err := g.Wait()
	r.shutdown()
	r.state.Store(stateClosed)
	r.logger.Info("session closed")
	return err
}

func (r *Relay) breaking() bool {
	return r.state.Load() >= stateBreaking
}

// trip latches the breaker and reports whether this call won the latch. The
// first caller closes the client with the given code; later calls are no-ops.
func (r *Relay) trip(code int, reason string) bool {
	if !r.state.CompareAndSwap(stateActive, stateBreaking) {
		return false
	}
	r.logger.Warn("session breaker tripped", "code", code, "reason", reason)
	r.out.Shutdown()
	_ = r.client.Close(code, reason)
	_ = r.up.Close()
	return true
}

// Aborted reports whether the session ended because the upstream side failed,
// as opposed to a client hangup or a server drain.
func (r *Relay) Aborted() bool {
	return r.aborted.Load()
}

// shutdown closes both sides for a non-breaker exit (client hangup, drain).
func (r *Relay) shutdown() {
	if r.state.CompareAndSwap(stateActive, stateBreaking) {
		r.out.Shutdown()
		_ = r.client.Close(websocket.CloseNormalClosure, "")
		_ = r.up.Close()
	}
}

func (r *Relay) clientLoop(ctx context.Context) error {
	for {
		if r.breaking() || ctx.Err() != nil {
			return ctx.Err()
		}

		_, raw, err := r.client.ReadMessage()
		if err != nil {
			r.logger.Info("client disconnected", "error", err)
			r.trip(websocket.ClosePolicyViolation, "client read failed")
			return nil
		}

		msg, err := DecodeClientMessage(raw)
		if err != nil {
			r.logger.Warn("malformed client frame skipped", "error", err)
			_ = r.client.WriteJSON(ErrorFrame("unrecognized message"))
			continue
		}
		r.handleClientMessage(msg)
	}
}

func (r *Relay) handleClientMessage(msg ClientMessage) {
	switch m := msg.(type) {
	case TextMessage:
		r.handleClientText(m)
	case MediaMessage:
		if strings.HasPrefix(m.MIMEType, "audio/") {
			// Audio is a passive stream; it never completes a turn.
			r.out.Enqueue(OutboundMedia(m.Data, m.MIMEType, false))
			return
		}
		r.out.Enqueue(OutboundMedia(m.Data, m.MIMEType, m.Trigger))
	case RealtimeMessage:
		for _, chunk := range m.Chunks {
			r.out.Enqueue(OutboundMedia(chunk.Data, chunk.MIMEType, false))
		}
	}
}

func (r *Relay) handleClientText(m TextMessage) {
	tag, payload, tagged := splitTag(m.Text)
	if !tagged {
		// Plain user text always solicits a response.
		r.out.Enqueue(OutboundText(m.Text, true))
		return
	}

	if tag == tagPoseData {
		compacted, err := CompactFrame([]byte(payload), r.profile.Landmarks)
		if err != nil {
			// Feedback is never dropped: forward the raw frame instead.
			r.logger.Warn("landmark compaction failed, forwarding raw", "error", err)
			r.out.Enqueue(OutboundText(m.Text, m.Trigger))
			return
		}
		r.out.Enqueue(OutboundText(compacted, m.Trigger))
		return
	}

	// Other tagged events ([EVENT], [SAFETY_STOP], ...) pass through with the
	// sender's trigger flag.
	r.logger.Debug("client event", "tag", tag, "trigger", m.Trigger)
	r.out.Enqueue(OutboundText(m.Text, m.Trigger))
}

func (r *Relay) upstreamLoop(ctx context.Context) error {
	for {
		if r.breaking() || ctx.Err() != nil {
			return ctx.Err()
		}

		ev, err := r.up.Receive()
		if err != nil {
			if r.trip(websocket.ClosePolicyViolation, "upstream receive failed") {
				r.aborted.Store(true)
			}
			return nil
		}

		for _, part := range ev.Parts {
			var frame any
			if part.Text != "" {
				frame = TextFrame(part.Text)
			} else if len(part.Audio) > 0 {
				frame = AudioFrame(part.Audio)
			} else {
				continue
			}
			if err := r.client.WriteJSON(frame); err != nil {
				// Client unreachable: nothing left to relay for.
				r.trip(websocket.ClosePolicyViolation, "client write failed")
				return nil
			}
		}

		// Each tool call gets its response enqueued before the next upstream
		// event is read, so the model never interleaves unanswered calls.
		for _, call := range ev.ToolCalls {
			resp := r.dispatchTool(ctx, call)
			r.out.Enqueue(OutboundToolResponse([]upstream.ToolResponse{resp}))
		}
	}
}

func (r *Relay) dispatchTool(ctx context.Context, call upstream.ToolCall) upstream.ToolResponse {
	if r.tools == nil {
		r.logger.Warn("tool call with no tool set", "tool", call.Name)
		return upstream.ToolResponse{
			ID:     call.ID,
			Name:   call.Name,
			Result: map[string]any{"error": "no tools configured"},
		}
	}
	return r.tools.Dispatch(ctx, call)
}
