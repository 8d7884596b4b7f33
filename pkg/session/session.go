// Package session holds the shared session model: exercise domains, the
// session lifecycle, and the per-domain coaching profiles consumed by the
// relay and the report drafter.
package session

import "strings"

// Domain identifies the exercise modality of a session.
type Domain string

const (
	DomainBody Domain = "BODY"
	DomainFace Domain = "FACE"
	DomainHand Domain = "HAND"
)

// ParseDomain maps a caller-supplied domain or legacy module name onto the
// closed domain set. Unknown values fall back to DomainBody.
func ParseDomain(raw string) Domain {
	switch strings.ToUpper(strings.TrimSpace(raw)) {
	case string(DomainBody), "RECONNECT":
		return DomainBody
	case string(DomainFace), "HARMONY":
		return DomainFace
	case string(DomainHand), "ASL":
		return DomainHand
	default:
		return DomainBody
	}
}

// State is the session lifecycle.
type State int32

const (
	StateStarted State = iota
	StateActive
	StateFinalizing
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateStarted:
		return "started"
	case StateActive:
		return "active"
	case StateFinalizing:
		return "finalizing"
	case StateClosed:
		return "closed"
	default:
		return "unknown"
	}
}
