package normalize

import (
	"reflect"
	"strings"
	"testing"
)

func TestExtract(t *testing.T) {
	tests := []struct {
		name string
		text string
		want Object
	}{
		{
			name: "direct json",
			text: `{"translated_name":"Late Blight","common_name":null}`,
			want: Object{"translated_name": "Late Blight", "common_name": nil},
		},
		{
			name: "embedded object",
			text: `here is it: {"translated_name":"Leaf Blight"} thanks`,
			want: Object{"translated_name": "Leaf Blight"},
		},
		{
			name: "fenced json",
			text: "```json\n{\"title\": \"Treatments\", \"treatments\": [\"Remove infected leaves\"]}\n```",
			want: Object{"title": "Treatments", "treatments": []any{"Remove infected leaves"}},
		},
		{
			name: "nested braces stay greedy",
			text: `Result: {"step": {"dosage": "2 g/L"}} done`,
			want: Object{"step": map[string]any{"dosage": "2 g/L"}},
		},
		{
			name: "not json",
			text: "I cannot comply",
			want: Object{"raw": "I cannot comply"},
		},
		{
			name: "raw is trimmed",
			text: "\n  Spray neem oil weekly.  \n",
			want: Object{"raw": "Spray neem oil weekly."},
		},
		{
			name: "broken block falls back to raw",
			text: `see {"title": "oops"`,
			want: Object{"raw": `see {"title": "oops"`},
		},
		{
			name: "two objects is not one object",
			text: `{"a":1} and {"b":2}`,
			want: Object{"raw": `{"a":1} and {"b":2}`},
		},
		{
			name: "bare json string is unquoted",
			text: ` "Leaf Blight" `,
			want: Object{"raw": "Leaf Blight"},
		},
		{
			name: "bare json number stays as text",
			text: `42`,
			want: Object{"raw": "42"},
		},
		{
			name: "empty",
			text: "",
			want: Object{"raw": ""},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Extract(tt.text)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Extract(%q) = %#v, want %#v", tt.text, got, tt.want)
			}
		})
	}
}

func TestObjectLookups(t *testing.T) {
	obj := Extract(`{
		"summary": null,
		"description": "Fungal disease of leaves",
		"steps": ["Remove leaves", {"step": "Spray", "dosage": "2 g/L"}],
		"organic": "Neem oil",
		"confidence": 0.93,
		"urgent": true
	}`)

	if got, ok := obj.Text("summary", "description"); !ok || got != "Fungal disease of leaves" {
		t.Errorf("Text() should skip null and use the alternate name, got %q, %v", got, ok)
	}
	if _, ok := obj.Text("missing", "also_missing"); ok {
		t.Error("Text() on missing keys should report absence")
	}
	if got, _ := obj.Text("confidence"); got != "0.93" {
		t.Errorf("number formatting = %q", got)
	}
	if got, _ := obj.Text("urgent"); got != "true" {
		t.Errorf("bool formatting = %q", got)
	}

	steps, ok := obj.List("treatments", "steps")
	if !ok || len(steps) != 2 {
		t.Fatalf("List() = %v, %v", steps, ok)
	}

	organic, ok := obj.Strings("organic_options", "organic")
	if !ok || !reflect.DeepEqual(organic, []string{"Neem oil"}) {
		t.Errorf("scalar should become a one-element list, got %v", organic)
	}

	if obj.IsRaw() {
		t.Error("structured object reported as raw")
	}
	if !Extract("no json here").IsRaw() {
		t.Error("raw sentinel not reported as raw")
	}
}

func TestStringifyNested(t *testing.T) {
	got := Stringify(map[string]any{"step": "Spray"})
	if got != `{"step":"Spray"}` {
		t.Errorf("Stringify(map) = %q", got)
	}
}

func TestPlainText(t *testing.T) {
	if got := PlainText("  Water early in the morning.  "); got != "Water early in the morning." {
		t.Errorf("plain text changed: %q", got)
	}

	got := PlainText("<p>Use <strong>neem oil</strong> spray.</p>")
	if strings.Contains(got, "<") {
		t.Errorf("HTML not converted: %q", got)
	}
	if !strings.Contains(got, "**neem oil**") {
		t.Errorf("expected markdown emphasis, got %q", got)
	}

	if got := PlainText("Use 2 < 3 kg per acre"); got != "Use 2 < 3 kg per acre" {
		t.Errorf("comparison sign treated as HTML: %q", got)
	}
}
