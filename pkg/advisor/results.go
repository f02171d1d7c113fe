package advisor

import (
	"encoding/json"
	"strings"

	"github.com/codeGROOVE-dev/agrovision/pkg/normalize"
)

// TranslationResult is a label rendered in the user's language.
// TranslatedName is always set; the other fields are null when unknown.
type TranslationResult struct {
	CommonName     *string `json:"common_name"`
	ShortDesc      *string `json:"short_desc"`
	Raw            *string `json:"raw"`
	TranslatedName string  `json:"translated_name"`
}

// DegradedTranslation is returned when the model could not be reached.
func DegradedTranslation(label string) TranslationResult {
	return TranslationResult{TranslatedName: label}
}

func translationFrom(obj normalize.Object, label string) TranslationResult {
	result := TranslationResult{
		CommonName: optional(obj, "common_name"),
		ShortDesc:  optional(obj, "short_desc"),
		Raw:        optional(obj, normalize.RawKey),
	}
	if name, ok := obj.Text("translated_name", "common_name", "label", normalize.RawKey); ok {
		result.TranslatedName = name
	} else {
		result.TranslatedName = label
	}
	return result
}

// TreatmentStep is one treatment instruction. The model may send a plain
// string (kept in Text) or an object with step/materials/dosage/timing.
type TreatmentStep struct {
	Text      string
	Step      string
	Materials string
	Dosage    string
	Timing    string
}

type stepObject struct {
	Step      string `json:"step,omitempty"`
	Materials string `json:"materials,omitempty"`
	Dosage    string `json:"dosage,omitempty"`
	Timing    string `json:"timing,omitempty"`
}

func (s TreatmentStep) isPlain() bool {
	return s.Step == "" && s.Materials == "" && s.Dosage == "" && s.Timing == ""
}

// MarshalJSON writes plain steps back as strings and structured steps as objects.
func (s TreatmentStep) MarshalJSON() ([]byte, error) {
	if s.isPlain() {
		return json.Marshal(s.Text)
	}
	return json.Marshal(stepObject{Step: s.Step, Materials: s.Materials, Dosage: s.Dosage, Timing: s.Timing})
}

// UnmarshalJSON accepts either form.
func (s *TreatmentStep) UnmarshalJSON(data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = stepFrom(v)
	return nil
}

// String renders the step on one line.
func (s TreatmentStep) String() string {
	if s.isPlain() {
		return s.Text
	}
	var b strings.Builder
	b.WriteString(s.Step)
	for _, detail := range []struct{ name, value string }{
		{"materials", s.Materials},
		{"dosage", s.Dosage},
		{"timing", s.Timing},
	} {
		if detail.value == "" {
			continue
		}
		if b.Len() > 0 {
			b.WriteString("; ")
		}
		b.WriteString(detail.name + ": " + detail.value)
	}
	return b.String()
}

func stepFrom(v any) TreatmentStep {
	m, ok := v.(map[string]any)
	if !ok {
		return TreatmentStep{Text: normalize.Stringify(v)}
	}
	obj := normalize.Object(m)
	step := TreatmentStep{}
	step.Step, _ = obj.Text("step", "action", "name")
	if materials, ok := obj.Strings("materials"); ok {
		step.Materials = strings.Join(materials, ", ")
	}
	step.Dosage, _ = obj.Text("dosage")
	step.Timing, _ = obj.Text("timing")
	if step.isPlain() {
		// An object with none of the known fields is kept verbatim.
		step.Text = normalize.Stringify(v)
	}
	return step
}

// TreatmentResult holds treatment advice for a label. Slices are never nil.
type TreatmentResult struct {
	Summary         *string         `json:"summary"`
	Precautions     *string         `json:"precautions"`
	Raw             *string         `json:"raw"`
	Title           string          `json:"title"`
	Treatments      []TreatmentStep `json:"treatments"`
	OrganicOptions  []string        `json:"organic_options"`
	ChemicalOptions []string        `json:"chemical_options"`
}

func defaultTitle(label string) string {
	return "Treatments for " + label
}

// DegradedTreatment is returned when the model could not be reached. The
// summary carries a localized "unable to fetch suggestions" message.
func DegradedTreatment(label, langCode string) TreatmentResult {
	msg := lookupLanguage(langCode).noSuggestions
	return TreatmentResult{
		Title:           defaultTitle(label),
		Summary:         &msg,
		Treatments:      []TreatmentStep{},
		OrganicOptions:  []string{},
		ChemicalOptions: []string{},
	}
}

func treatmentFrom(obj normalize.Object, label string) TreatmentResult {
	result := TreatmentResult{
		Title:           defaultTitle(label),
		Summary:         optional(obj, "summary", "description", normalize.RawKey),
		Precautions:     optional(obj, "precautions", "safety"),
		Raw:             optional(obj, normalize.RawKey),
		Treatments:      []TreatmentStep{},
		OrganicOptions:  []string{},
		ChemicalOptions: []string{},
	}
	if title, ok := obj.Text("title"); ok {
		result.Title = title
	}

	if steps, ok := obj.List("treatments", "steps"); ok {
		for _, step := range steps {
			if step == nil {
				continue
			}
			result.Treatments = append(result.Treatments, stepFrom(step))
		}
	} else if raw, ok := obj.Raw(); ok && raw != "" {
		result.Treatments = append(result.Treatments, TreatmentStep{Text: raw})
	}

	if organic, ok := obj.Strings("organic_options", "organic"); ok {
		result.OrganicOptions = organic
	}
	if chemical, ok := obj.Strings("chemical_options", "chemical"); ok {
		result.ChemicalOptions = chemical
	}
	return result
}

func optional(obj normalize.Object, keys ...string) *string {
	s, ok := obj.Text(keys...)
	if !ok {
		return nil
	}
	return &s
}
