package session

import "testing"

func TestParseDomain(t *testing.T) {
	t.Parallel()
	cases := []struct {
		in   string
		want Domain
	}{
		{"BODY", DomainBody},
		{"body", DomainBody},
		{" reconnect ", DomainBody},
		{"FACE", DomainFace},
		{"harmony", DomainFace},
		{"HAND", DomainHand},
		{"asl", DomainHand},
		{"", DomainBody},
		{"garbage", DomainBody},
	}
	for _, tc := range cases {
		if got := ParseDomain(tc.in); got != tc.want {
			t.Fatalf("ParseDomain(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestProfileFor(t *testing.T) {
	t.Parallel()
	for _, d := range []Domain{DomainBody, DomainFace, DomainHand} {
		p := ProfileFor(d)
		if p.Domain != d {
			t.Fatalf("ProfileFor(%q).Domain = %q", d, p.Domain)
		}
		if p.SystemInstruction == "" {
			t.Fatalf("ProfileFor(%q) has empty instruction", d)
		}
		if len(p.Landmarks) == 0 {
			t.Fatalf("ProfileFor(%q) has empty landmark set", d)
		}
		if p.VoiceName == "" {
			t.Fatalf("ProfileFor(%q) has no voice", d)
		}
	}

	body := ProfileFor(DomainBody)
	for _, idx := range []int{11, 12, 13, 14, 15, 16, 23, 24} {
		if _, ok := body.Landmarks[idx]; !ok {
			t.Fatalf("body landmark set missing index %d", idx)
		}
	}
	if _, ok := body.Landmarks[0]; ok {
		t.Fatal("body landmark set includes index 0")
	}

	// Unknown domains coach the body profile.
	if p := ProfileFor(Domain("OTHER")); p.Domain != DomainBody {
		t.Fatalf("unknown domain profile = %q", p.Domain)
	}
}

func TestStateString(t *testing.T) {
	t.Parallel()
	cases := map[State]string{
		StateStarted:    "started",
		StateActive:     "active",
		StateFinalizing: "finalizing",
		StateClosed:     "closed",
		State(99):       "unknown",
	}
	for s, want := range cases {
		if got := s.String(); got != want {
			t.Fatalf("State(%d).String() = %q, want %q", s, got, want)
		}
	}
}
