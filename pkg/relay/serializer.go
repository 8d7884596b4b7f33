package relay

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/reconnect-ai/coachd/pkg/metrics"
	"github.com/reconnect-ai/coachd/pkg/upstream"
)

type outboundKind int

const (
	outboundText outboundKind = iota
	outboundMedia
	outboundToolResponse
	outboundSentinel
)

// Outbound is one queued upstream write.
type Outbound struct {
	kind      outboundKind
	text      string
	endOfTurn bool
	data      []byte
	mimeType  string
	responses []upstream.ToolResponse
}

// OutboundText queues a text send. endOfTurn solicits a model response.
func OutboundText(text string, endOfTurn bool) Outbound {
	return Outbound{kind: outboundText, text: text, endOfTurn: endOfTurn}
}

// OutboundMedia queues a media chunk. endOfTurn only applies to non-audio
// media.
func OutboundMedia(data []byte, mimeType string, endOfTurn bool) Outbound {
	return Outbound{kind: outboundMedia, data: data, mimeType: mimeType, endOfTurn: endOfTurn}
}

// OutboundToolResponse queues tool-call answers.
func OutboundToolResponse(responses []upstream.ToolResponse) Outbound {
	return Outbound{kind: outboundToolResponse, responses: responses}
}

// Serializer funnels all upstream writes for one session through a single
// worker so at most one write is ever in flight. The queue is unbounded;
// Enqueue never blocks the caller's read loop.
type Serializer struct {
	ch      upstream.LiveChannel
	logger  *slog.Logger
	onFatal func(error)

	mu     sync.Mutex
	queue  []Outbound
	closed bool
	wake   chan struct{}

	inFlight atomic.Int32
}

// NewSerializer builds a serializer over ch. onFatal is invoked once when a
// write error indicates the upstream channel is unusable.
func NewSerializer(ch upstream.LiveChannel, logger *slog.Logger, onFatal func(error)) *Serializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Serializer{
		ch:      ch,
		logger:  logger,
		onFatal: onFatal,
		wake:    make(chan struct{}, 1),
	}
}

// Enqueue appends msg to the queue. It never blocks and never fails; messages
// enqueued after Shutdown are dropped.
func (s *Serializer) Enqueue(msg Outbound) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.queue = append(s.queue, msg)
	s.mu.Unlock()

	metrics.OutboundQueueDepth.Inc()
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Shutdown stops the worker after it drains everything queued so far.
// Idempotent.
func (s *Serializer) Shutdown() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.queue = append(s.queue, Outbound{kind: outboundSentinel})
	s.mu.Unlock()

	select {
	case s.wake <- struct{}{}:
	default:
	}
}

// Run processes the queue until the sentinel is reached, ctx is canceled, or
// a fatal write error occurs. Exactly one Run per serializer.
func (s *Serializer) Run(ctx context.Context) error {
	for {
		msg, ok := s.pop()
		if !ok {
			select {
			case <-ctx.Done():
				s.flush()
				return ctx.Err()
			case <-s.wake:
			}
			continue
		}

		if msg.kind == outboundSentinel {
			return nil
		}
		metrics.OutboundQueueDepth.Dec()

		s.inFlight.Add(1)
		err := s.write(ctx, msg)
		s.inFlight.Add(-1)

		if err == nil {
			metrics.OutboundWritesTotal.Inc()
			continue
		}
		metrics.OutboundWriteFailuresTotal.Inc()
		if isFatalUpstreamErr(err) {
			s.logger.Error("fatal upstream write error", "error", err)
			if s.onFatal != nil {
				s.onFatal(err)
			}
			s.flush()
			return err
		}
		s.logger.Warn("upstream write failed, message skipped", "error", err)
	}
}

// flush drops whatever is still queued on an abnormal Run exit and settles
// the depth gauge; the sentinel path drains naturally and never needs it.
func (s *Serializer) flush() {
	s.mu.Lock()
	dropped := 0
	for _, m := range s.queue {
		if m.kind != outboundSentinel {
			dropped++
		}
	}
	s.queue = nil
	s.closed = true
	s.mu.Unlock()
	if dropped > 0 {
		metrics.OutboundQueueDepth.Sub(float64(dropped))
	}
}

func (s *Serializer) pop() (Outbound, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.queue) == 0 {
		return Outbound{}, false
	}
	msg := s.queue[0]
	s.queue = s.queue[1:]
	return msg, true
}

func (s *Serializer) write(ctx context.Context, msg Outbound) error {
	switch msg.kind {
	case outboundText:
		return s.ch.SendText(ctx, msg.text, msg.endOfTurn)
	case outboundMedia:
		return s.ch.SendMedia(ctx, msg.data, msg.mimeType, msg.endOfTurn)
	case outboundToolResponse:
		return s.ch.SendToolResponse(ctx, msg.responses)
	}
	return nil
}

// isFatalUpstreamErr classifies write errors that mean the channel is dead:
// protocol violations (close code 1007), closed sockets, and connection-level
// failures. Everything else is treated as a transient per-message failure.
func isFatalUpstreamErr(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, upstream.ErrUpstreamClosed) {
		return true
	}
	text := strings.ToLower(err.Error())
	return strings.Contains(text, "1007") ||
		strings.Contains(text, "closed") ||
		strings.Contains(text, "connection")
}
