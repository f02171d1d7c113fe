package advisor

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/codeGROOVE-dev/agrovision/pkg/normalize"
)

// Choices offered by the yield form.
var (
	Crops      = []string{"Rice", "Wheat", "Cotton", "Sugarcane", "Maize", "Other"}
	Seasons    = []string{"Kharif", "Rabi", "Zaid"}
	Soils      = []string{"Clay", "Sandy", "Loamy", "Black", "Red"}
	Irrigation = []string{"Drip", "Sprinkler", "Flood", "Rainfed"}
)

var (
	// ErrMissingField is returned when land area or region is not filled in.
	ErrMissingField = errors.New("missing required field")
	// ErrInvalidChoice is returned for a value outside the form's choices.
	ErrInvalidChoice = errors.New("invalid choice")
)

const unparsedYield = "Unable to parse response"

// FarmParams describes a field for yield estimation.
type FarmParams struct {
	Crop             string  `json:"crop_type"`
	Season           string  `json:"season"`
	Soil             string  `json:"soil_type"`
	Irrigation       string  `json:"irrigation"`
	Region           string  `json:"region"`
	LandAreaHectares float64 `json:"land_area"`
}

// Normalize fills in the form defaults, matches choices case-insensitively
// and checks the required fields.
func (p *FarmParams) Normalize() error {
	var err error
	if p.Crop, err = choose("crop_type", p.Crop, Crops); err != nil {
		return err
	}
	if p.Season, err = choose("season", p.Season, Seasons); err != nil {
		return err
	}
	if p.Soil, err = choose("soil_type", p.Soil, Soils); err != nil {
		return err
	}
	if p.Irrigation, err = choose("irrigation", p.Irrigation, Irrigation); err != nil {
		return err
	}
	p.Region = strings.TrimSpace(p.Region)
	if p.LandAreaHectares <= 0 {
		return fmt.Errorf("%w: land_area", ErrMissingField)
	}
	if p.Region == "" {
		return fmt.Errorf("%w: region", ErrMissingField)
	}
	return nil
}

// choose returns the canonical spelling of value, or the first choice when empty.
func choose(field, value string, choices []string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return choices[0], nil
	}
	i := slices.IndexFunc(choices, func(c string) bool { return strings.EqualFold(c, value) })
	if i < 0 {
		return "", fmt.Errorf("%w: %s %q (want one of %s)", ErrInvalidChoice, field, value, strings.Join(choices, ", "))
	}
	return choices[i], nil
}

// YieldEstimate is the model's yield forecast. RawResponse is set only when
// the reply could not be parsed.
type YieldEstimate struct {
	EstimatedYield      string   `json:"estimated_yield"`
	TotalProduction     string   `json:"total_production,omitempty"`
	ConfidenceLevel     string   `json:"confidence_level,omitempty"`
	MarketValueEstimate string   `json:"market_value_estimate,omitempty"`
	RawResponse         string   `json:"raw_response,omitempty"`
	FactorsAffecting    []string `json:"factors_affecting,omitempty"`
	Recommendations     []string `json:"recommendations,omitempty"`
	BestPractices       []string `json:"best_practices,omitempty"`
	RiskFactors         []string `json:"risk_factors,omitempty"`
}

// EstimateYield asks the model for a yield forecast. Unlike the other
// operations, a gateway failure is returned to the caller.
func (s *Service) EstimateYield(ctx context.Context, params FarmParams) (YieldEstimate, error) {
	if err := params.Normalize(); err != nil {
		return YieldEstimate{}, err
	}

	text, err := s.gateway.Complete(ctx, yieldPrompt(params))
	if err != nil {
		return YieldEstimate{}, fmt.Errorf("estimate yield: %w", err)
	}
	return yieldFrom(normalize.Extract(text)), nil
}

func yieldFrom(obj normalize.Object) YieldEstimate {
	if raw, ok := obj.Raw(); ok && obj.IsRaw() {
		return YieldEstimate{EstimatedYield: unparsedYield, RawResponse: raw}
	}
	var est YieldEstimate
	est.EstimatedYield, _ = obj.Text("estimated_yield")
	est.TotalProduction, _ = obj.Text("total_production")
	est.ConfidenceLevel, _ = obj.Text("confidence_level")
	est.MarketValueEstimate, _ = obj.Text("market_value_estimate")
	est.FactorsAffecting, _ = obj.Strings("factors_affecting")
	est.Recommendations, _ = obj.Strings("recommendations")
	est.BestPractices, _ = obj.Strings("best_practices")
	est.RiskFactors, _ = obj.Strings("risk_factors")
	return est
}
