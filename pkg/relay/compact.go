package relay

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// landmark is one skeletal point as produced by the client-side tracker.
// Missing fields decode to zero.
type landmark struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// CompactFrame rewrites a raw landmark-array JSON payload into the compact
// text form sent upstream: "[POSE] index:x,y|index:x,y|...". Only indices in
// the relevance set are kept, and coordinates are rounded to two decimals.
// Callers fall back to forwarding the raw payload when this errors.
func CompactFrame(raw []byte, relevant map[int]struct{}) (string, error) {
	var frame []landmark
	if err := json.Unmarshal(raw, &frame); err != nil {
		return "", fmt.Errorf("decoding landmark frame: %w", err)
	}

	var b strings.Builder
	b.WriteString("[POSE] ")
	first := true
	for i, lm := range frame {
		if _, ok := relevant[i]; !ok {
			continue
		}
		if !first {
			b.WriteByte('|')
		}
		first = false
		b.WriteString(strconv.Itoa(i))
		b.WriteByte(':')
		b.WriteString(strconv.FormatFloat(lm.X, 'f', 2, 64))
		b.WriteByte(',')
		b.WriteString(strconv.FormatFloat(lm.Y, 'f', 2, 64))
	}
	return b.String(), nil
}
