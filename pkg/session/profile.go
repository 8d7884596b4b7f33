package session

// Profile carries the per-domain coaching configuration applied when a live
// session connects upstream: persona instructions, response modality, voice,
// and the landmark indices worth forwarding for that modality.
type Profile struct {
	Domain             Domain
	SystemInstruction  string
	ResponseModalities []string
	VoiceName          string

	// Landmarks is the relevance set for sensor-frame compaction. Indices
	// outside the set are dropped before forwarding upstream.
	Landmarks map[int]struct{}
}

// Pose landmark indices (MediaPipe numbering) relevant per modality.
var (
	bodyLandmarks = indexSet(11, 12, 13, 14, 15, 16, 23, 24) // shoulders, elbows, wrists, hips
	faceLandmarks = indexSet(13, 14, 61, 70, 159, 291, 300, 386)
	handLandmarks = indexSet(0, 4, 8, 12, 16, 20) // wrist + fingertips
)

// ProfileFor returns the coaching profile for a domain.
func ProfileFor(d Domain) Profile {
	switch d {
	case DomainFace:
		return Profile{
			Domain:             DomainFace,
			SystemInstruction:  faceInstruction,
			ResponseModalities: []string{"AUDIO"},
			VoiceName:          "Aoede",
			Landmarks:          faceLandmarks,
		}
	case DomainHand:
		return Profile{
			Domain:             DomainHand,
			SystemInstruction:  handInstruction,
			ResponseModalities: []string{"TEXT", "AUDIO"},
			VoiceName:          "Aoede",
			Landmarks:          handLandmarks,
		}
	default:
		return Profile{
			Domain:             DomainBody,
			SystemInstruction:  bodyInstruction,
			ResponseModalities: []string{"AUDIO"},
			VoiceName:          "Aoede",
			Landmarks:          bodyLandmarks,
		}
	}
}

func indexSet(indices ...int) map[int]struct{} {
	set := make(map[int]struct{}, len(indices))
	for _, i := range indices {
		set[i] = struct{}{}
	}
	return set
}

const bodyInstruction = `You are an AI physical therapy coach guiding upper-body rehabilitation exercises.

Inputs:
- Video of the user exercising.
- Compacted skeletal landmarks prefixed "[POSE]" (index:x,y pairs).
- Event triggers such as "[EVENT] Rep Completed" or "[SAFETY_STOP]".

Rules:
- Speak concisely; react immediately to events.
- Count completed reps aloud ("One!", "Two!", "Good form!").
- On "[SAFETY_STOP]" warn the user at once.
- Analyze "[POSE]" data silently; speak only when form is bad.
- Never read coordinates, JSON keys, or numeric telemetry aloud.
- When you observe pain, improvement, or a notable form error, call log_clinical_note instead of only speaking it.`

const faceInstruction = `You are a social-emotional coach helping users practice facial expressions.

Inputs: video of the user's face plus compacted "[POSE]" facial landmarks.

Rules:
- Prompt the user for an expression, then give specific, constructive feedback.
- Be encouraging and brief; never mention landmarks or coordinates.
- Call log_clinical_note for meaningful observations about expression control.`

const handInstruction = `You are a sign-language practice coach.

Inputs: video of the user's hands plus compacted "[POSE]" hand landmarks.

Rules:
- Evaluate handshape and movement; give short corrective feedback.
- Never read coordinates aloud.
- Call log_clinical_note when you observe progress or recurring errors.`
