package histogram

import (
	"strings"
	"testing"

	"github.com/fatih/color"

	"github.com/codeGROOVE-dev/agrovision/pkg/classifier"
)

func TestDisplayLabel(t *testing.T) {
	tests := map[string]string{
		"Tomato___Late_blight":        "Tomato: Late blight",
		"Tomato_healthy":              "Tomato healthy",
		"Corn_(maize)___Common_rust_": "Corn (maize): Common rust ",
	}
	for in, want := range tests {
		if got := DisplayLabel(in); got != want {
			t.Errorf("DisplayLabel(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestGenerateHistogram(t *testing.T) {
	color.NoColor = true
	p := &classifier.Prediction{
		Label:      "Tomato___Late_blight",
		Confidence: 0.75,
		Top: []classifier.Candidate{
			{Label: "Tomato___Late_blight", Score: 0.75},
			{Label: "Tomato___healthy", Score: 0.25},
			{Label: "Tomato___Leaf_Mold", Score: 0.001},
		},
	}

	out := GenerateHistogram(p, 20)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Fatalf("got %d lines:\n%s", len(lines), out)
	}
	if !strings.Contains(lines[2], strings.Repeat("█", 15)) || !strings.HasSuffix(lines[2], " 75.0%") {
		t.Errorf("first bar = %q", lines[2])
	}
	if !strings.Contains(lines[3], strings.Repeat("█", 5)) || strings.Contains(lines[3], strings.Repeat("█", 6)) {
		t.Errorf("second bar = %q", lines[3])
	}
	if !strings.Contains(lines[4], "▏") || !strings.HasSuffix(lines[4], "  0.1%") {
		t.Errorf("tiny bar = %q", lines[4])
	}
	// Labels are padded to a common width so bars line up.
	if strings.Index(lines[2], "│") != strings.Index(lines[3], "│") {
		t.Errorf("bars not aligned:\n%s", out)
	}
}

func TestGenerateHistogramWithoutCandidates(t *testing.T) {
	color.NoColor = true
	out := GenerateHistogram(&classifier.Prediction{Label: "Potato___Early_blight", Confidence: 0.5}, 0)
	if !strings.Contains(out, "Potato: Early blight │"+strings.Repeat("█", 20)+"  50.0%") {
		t.Errorf("output:\n%s", out)
	}
}
