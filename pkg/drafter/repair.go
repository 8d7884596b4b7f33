package drafter

import "strings"

// stripCodeFences removes a markdown code block wrapper the model sometimes
// puts around JSON output despite the JSON mime type.
func stripCodeFences(text string) string {
	clean := strings.TrimSpace(text)
	if strings.HasPrefix(clean, "```") {
		if idx := strings.Index(clean, "```json"); idx >= 0 {
			clean = clean[idx+len("```json"):]
		} else {
			clean = strings.TrimPrefix(clean, "```")
		}
		if end := strings.Index(clean, "```"); end >= 0 {
			clean = clean[:end]
		}
		return strings.TrimSpace(clean)
	}
	if strings.HasPrefix(clean, "`") {
		return strings.TrimSpace(strings.ReplaceAll(clean, "`", ""))
	}
	return clean
}

// repairTruncatedJSON salvages a finalize response cut off mid chart array.
// The output shape is {..., "chart_config": {..., "data": [{...}, {...}
// so truncating after the last complete point object and re-closing the
// array, chart object, and root object recovers every finished point.
func repairTruncatedJSON(text string) (string, bool) {
	idx := strings.LastIndex(text, "},")
	if idx < 0 {
		return "", false
	}
	return text[:idx+1] + "]}}", true
}
