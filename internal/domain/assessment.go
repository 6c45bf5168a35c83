package domain

import (
	"sort"
	"strconv"
)

// RainfallSeries maps year (as sent upstream, string-keyed) to predicted
// rainfall in millimeters.
type RainfallSeries map[string]float64

// Years returns the series keys in ascending year order, which is the order
// the upstream service produced them in. Keys are compared numerically so
// ordering does not depend on every year having the same digit count.
func (s RainfallSeries) Years() []string {
	years := make([]string, 0, len(s))
	for y := range s {
		years = append(years, y)
	}
	sort.Slice(years, func(i, j int) bool {
		a, aerr := strconv.Atoi(years[i])
		b, berr := strconv.Atoi(years[j])
		if aerr == nil && berr == nil {
			return a < b
		}
		return years[i] < years[j]
	})
	return years
}

// CostSummary maps cost component to amount. A "total" entry carries the
// grand total when the upstream service computed one.
type CostSummary map[string]float64

// Total returns the summary total, reporting whether one was present.
func (s CostSummary) Total() (float64, bool) {
	v, ok := s["total"]
	return v, ok
}

// Components lists the summary keys alphabetically with "total" last.
func (s CostSummary) Components() []string {
	names := make([]string, 0, len(s))
	for k := range s {
		if k != "total" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	if _, ok := s["total"]; ok {
		names = append(names, "total")
	}
	return names
}

// CostBreakdown wraps the upstream cost summary envelope.
type CostBreakdown struct {
	Summary CostSummary `json:"summary"`
}

// Dimensions of a storage/recharge structure in meters. Width doubles as
// diameter for circular shapes upstream.
type Dimensions struct {
	Length   float64 `json:"length,omitempty"`
	Width    float64 `json:"width,omitempty"`
	Depth    float64 `json:"depth,omitempty"`
	Diameter float64 `json:"diameter,omitempty"`
}

// Recommendation is the system the upstream service proposes.
type Recommendation struct {
	Type         string         `json:"type"`
	Feasibility  string         `json:"feasibility,omitempty"`
	Message      string         `json:"message,omitempty"`
	StructureSVG string         `json:"structure_svg,omitempty"`
	Dimensions   *Dimensions    `json:"dimensions,omitempty"`
	Breakdown    *CostBreakdown `json:"breakdown,omitempty"`
}

// AssessmentResult is the structured response from the prediction service.
// It is opaque to the workflow except for the fields displayed or fed
// forward into custom-design costing.
type AssessmentResult struct {
	Username        string          `json:"username"`
	District        string          `json:"district"`
	Subdistrict     string          `json:"subdistrict"`
	RoofType        string          `json:"roof_type"`
	RoofArea        float64         `json:"roof_area"`
	HasOpenSpace    *bool           `json:"has_open_space,omitempty"`
	OpenArea        float64         `json:"open_area,omitempty"`
	RainfallSeries  RainfallSeries  `json:"rainfall_series"`
	MaxYear         int             `json:"max_year"`
	MaxRainMM       float64         `json:"max_rain_mm"`
	RunoffCoeff     float64         `json:"runoff_coeff"`
	HarvestedLiters float64         `json:"harvested_liters"`
	Feasibility     string          `json:"feasibility"`
	RecommendedType string          `json:"recommended_type,omitempty"`
	Recommendation  *Recommendation `json:"recommendation,omitempty"`
}

// RecommendedTotal returns the recommendation's cost total if it carries one.
func (a *AssessmentResult) RecommendedTotal() (float64, bool) {
	if a == nil || a.Recommendation == nil || a.Recommendation.Breakdown == nil {
		return 0, false
	}
	return a.Recommendation.Breakdown.Summary.Total()
}
