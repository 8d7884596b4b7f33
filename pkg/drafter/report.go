package drafter

import (
	"encoding/json"
	"fmt"
)

// maxChartPoints caps the chart series; the model is instructed to
// downsample but is not trusted to.
const maxChartPoints = 20

// Report is the finalized clinical report.
type Report struct {
	Markdown      string     `json:"report_markdown"`
	Chart         *ChartSpec `json:"chart_config"`
	ClinicalNotes []string   `json:"clinical_notes"`
	Thoughts      string     `json:"thoughts,omitempty"`
	// Degraded marks a report whose JSON could not be recovered: Markdown
	// holds the raw model output and Chart is nil.
	Degraded bool `json:"-"`
}

// ChartSpec describes the session visualization.
type ChartSpec struct {
	Title  string  `json:"title"`
	XLabel string  `json:"x_label,omitempty"`
	YLabel string  `json:"y_label,omitempty"`
	Data   []Point `json:"data"`
}

// Point is one chart sample. The model sometimes emits alias keys (t/time
// for x, val/value for y); decoding accepts them and always normalizes to
// {x, y}.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func (p *Point) UnmarshalJSON(b []byte) error {
	var aux struct {
		X     *float64 `json:"x"`
		T     *float64 `json:"t"`
		Time  *float64 `json:"time"`
		Y     *float64 `json:"y"`
		Val   *float64 `json:"val"`
		Value *float64 `json:"value"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	p.X = firstOf(aux.X, aux.T, aux.Time)
	p.Y = firstOf(aux.Y, aux.Val, aux.Value)
	return nil
}

func firstOf(candidates ...*float64) float64 {
	for _, c := range candidates {
		if c != nil {
			return *c
		}
	}
	return 0
}

// ParseReport decodes a finalize response. It tries the raw text, then the
// text with markdown code fences stripped, then a truncation repair.
// repaired reports whether the repair path produced the result.
func ParseReport(raw string) (report *Report, repaired bool, err error) {
	clean := stripCodeFences(raw)

	var r Report
	if err := json.Unmarshal([]byte(clean), &r); err == nil {
		r.normalize()
		return &r, false, nil
	}

	fixed, ok := repairTruncatedJSON(clean)
	if !ok {
		return nil, false, fmt.Errorf("report JSON unparseable and unrepairable")
	}
	if err := json.Unmarshal([]byte(fixed), &r); err != nil {
		return nil, false, fmt.Errorf("decoding repaired report: %w", err)
	}
	r.normalize()
	return &r, true, nil
}

func (r *Report) normalize() {
	if r.ClinicalNotes == nil {
		r.ClinicalNotes = []string{}
	}
	if r.Chart != nil {
		r.Chart.Data = downsamplePoints(r.Chart.Data, maxChartPoints)
	}
}

// downsamplePoints reduces a series to at most max points with an even
// stride, always keeping the first and last samples.
func downsamplePoints(points []Point, max int) []Point {
	if len(points) <= max || max < 2 {
		return points
	}
	out := make([]Point, 0, max)
	step := float64(len(points)-1) / float64(max-1)
	for i := 0; i < max; i++ {
		out = append(out, points[int(float64(i)*step+0.5)])
	}
	out[max-1] = points[len(points)-1]
	return out
}
