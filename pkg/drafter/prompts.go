package drafter

import (
	"encoding/json"
	"fmt"
	"strconv"
)

const draftSystemInstruction = `You are an expert Physical Therapist and Data Analyst observing a live rehabilitation session in real time.

Your goal: maintain a comprehensive running draft of the patient's performance. You receive data in CHUNKS roughly every 10 seconds.

Each chunk contains:
1. Notes: real-time AI observations (e.g. "Elbow flare detected").
2. Telemetry: raw sensor data (time, angle, velocity).

Protocol:
- On a CHUNK: analyze it, update your internal model of the patient's status, and respond with exactly "Ack".
- On FINALIZE: output the official clinical report based on ALL chunks.

Final report requirements:
- Markdown format.
- Cite specific telemetry evidence (e.g. "At 15s, velocity spiked to 0.5").
- Include a chart config for the visualization that best tells the story.`

const finalizePrompt = `[COMMAND: FINALIZE]
Output the FINAL REPORT based on the chunks received.

Requirements:
1. Be concise. Bullet points over paragraphs.
2. Output the chart data as a SIMPLE ARRAY of objects.
3. Downsample the data to EXACTLY 20 POINTS. Do NOT output raw high-frequency data.

Output schema (strict JSON):
{
  "report_markdown": "# Clinical Report\n...",
  "chart_config": {
    "title": "Range of Motion vs Time",
    "data": [
      {"x": 10, "y": 45},
      {"x": 20, "y": 90}
    ]
  },
  "thoughts": "Brief analysis summary"
}`

// formatChunkPrompt renders one data chunk as a draft-context turn.
func formatChunkPrompt(c Chunk) string {
	notes, err := json.Marshal(c.Notes)
	if err != nil || c.Notes == nil {
		notes = []byte("[]")
	}
	telemetry := []byte("[]")
	if len(c.Telemetry) > 0 {
		telemetry = c.Telemetry
	}
	return fmt.Sprintf(`[DATA CHUNK]
Time Window: %ss - %ss

AI Clinical Notes:
%s

Telemetry Summary:
%s`,
		strconv.FormatFloat(c.TimestampStart, 'f', -1, 64),
		strconv.FormatFloat(c.TimestampEnd, 'f', -1, 64),
		notes, telemetry)
}
