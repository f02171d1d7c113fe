// Package histogram renders classifier confidence as terminal bar charts.
package histogram

import (
	"fmt"
	"strings"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/agrovision/pkg/advisor"
	"github.com/codeGROOVE-dev/agrovision/pkg/classifier"
)

// DefaultWidth is the bar length used for a score of 1.0.
const DefaultWidth = 40

// barColor picks a color by rank and label: green for healthy, then
// red, yellow and grey for the remaining candidates.
func barColor(rank int, label string) *color.Color {
	if advisor.IsHealthy(label) {
		return color.New(color.FgGreen)
	}
	switch rank {
	case 0:
		return color.New(color.FgRed)
	case 1:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgHiBlack)
	}
}

// DisplayLabel turns a class name like "Tomato___Late_blight" into
// "Tomato: Late blight".
func DisplayLabel(label string) string {
	crop, disease, found := strings.Cut(label, "___")
	if !found {
		return strings.ReplaceAll(label, "_", " ")
	}
	return strings.ReplaceAll(crop, "_", " ") + ": " + strings.ReplaceAll(disease, "_", " ")
}

// GenerateHistogram draws one bar per candidate, scaled so that a score of
// 1.0 fills width cells. Without candidates the prediction itself is drawn.
func GenerateHistogram(p *classifier.Prediction, width int) string {
	if width <= 0 {
		width = DefaultWidth
	}
	candidates := p.Top
	if len(candidates) == 0 {
		candidates = []classifier.Candidate{{Label: p.Label, Index: p.Index, Score: p.Confidence}}
	}

	labelWidth := 0
	for _, c := range candidates {
		labelWidth = max(labelWidth, len([]rune(DisplayLabel(c.Label))))
	}

	var output strings.Builder
	output.WriteString("📊 Prediction confidence\n")
	output.WriteString(strings.Repeat("─", 50) + "\n")

	for i, c := range candidates {
		score := min(max(c.Score, 0), 1)
		cells := int(score*float64(width) + 0.5)
		bar := strings.Repeat("█", cells)
		if cells == 0 && score > 0 {
			bar = "▏"
		}
		name := DisplayLabel(c.Label)
		padding := strings.Repeat(" ", labelWidth-len([]rune(name)))
		output.WriteString(fmt.Sprintf("%s%s │%s %5.1f%%\n", name, padding, barColor(i, c.Label).Sprint(bar), score*100))
	}
	return output.String()
}
