package results

import (
	"math"
	"strconv"

	"rainharvest-advisor/internal/domain"
)

// Display fallbacks for optional upstream fields.
const (
	// FallbackOpenArea (m²) is shown when the result carries no open
	// area but open space was not explicitly absent.
	FallbackOpenArea = 139.3545

	// FallbackRecommendedTotal stands in when the recommendation carries
	// no cost total.
	FallbackRecommendedTotal = 16800

	// FallbackRecommendationType when the upstream omitted one.
	FallbackRecommendationType = "Percolation Pit"

	infeasibleMessage = "Not suitable for recharge due to no open space, but you can store and reuse water."
)

// RainfallRow is one displayed year of the predicted series.
type RainfallRow struct {
	Year   string  `json:"year"`
	RainMM float64 `json:"rain_mm"` // rounded to two decimals
	IsMax  bool    `json:"is_max"`
}

// View is everything the results screen shows. Every figure is passed
// through or defaulted; nothing here is computed.
type View struct {
	Username    string  `json:"username"`
	District    string  `json:"district"`
	Subdistrict string  `json:"subdistrict"`
	RoofType    string  `json:"roof_type"`
	RoofArea    float64 `json:"roof_area"`
	RunoffCoeff float64 `json:"runoff_coeff"`

	// OpenSpaceAvailable is false only when the result says so
	// explicitly; an unset flag counts as available.
	OpenSpaceAvailable bool    `json:"open_space_available"`
	OpenArea           float64 `json:"open_area"`

	Rainfall        []RainfallRow `json:"rainfall"`
	MaxYear         int           `json:"max_year"`
	MaxRainMM       float64       `json:"max_rain_mm"`
	HarvestedLiters float64       `json:"harvested_liters"`

	Feasible              bool               `json:"feasible"`
	RecommendationType    string             `json:"recommendation_type"`
	RecommendationMessage string             `json:"recommendation_message,omitempty"`
	StructureSVG          string             `json:"structure_svg,omitempty"`
	Dimensions            *domain.Dimensions `json:"dimensions,omitempty"`
	CostSummary           domain.CostSummary `json:"cost_summary,omitempty"`
	RecommendedTotal      float64            `json:"recommended_total"`
}

// Present derives the results view from an assessment result.
func Present(res *domain.AssessmentResult) *View {
	v := &View{
		Username:        res.Username,
		District:        res.District,
		Subdistrict:     res.Subdistrict,
		RoofType:        res.RoofType,
		RoofArea:        res.RoofArea,
		RunoffCoeff:     res.RunoffCoeff,
		MaxYear:         res.MaxYear,
		MaxRainMM:       res.MaxRainMM,
		HarvestedLiters: res.HarvestedLiters,
		Feasible:        res.Feasibility != "NO",
	}

	v.OpenSpaceAvailable = res.HasOpenSpace == nil || *res.HasOpenSpace
	if v.OpenSpaceAvailable {
		v.OpenArea = res.OpenArea
		if v.OpenArea == 0 {
			v.OpenArea = FallbackOpenArea
		}
	}

	maxYear := strconv.Itoa(res.MaxYear)
	for _, year := range res.RainfallSeries.Years() {
		v.Rainfall = append(v.Rainfall, RainfallRow{
			Year:   year,
			RainMM: round2(res.RainfallSeries[year]),
			IsMax:  year == maxYear,
		})
	}

	v.RecommendationType = FallbackRecommendationType
	if rec := res.Recommendation; rec != nil {
		if rec.Type != "" {
			v.RecommendationType = rec.Type
		}
		v.RecommendationMessage = rec.Message
		v.StructureSVG = rec.StructureSVG
		v.Dimensions = rec.Dimensions
		if rec.Breakdown != nil {
			v.CostSummary = rec.Breakdown.Summary
		}
	}
	if !v.Feasible && v.RecommendationMessage == "" {
		v.RecommendationMessage = infeasibleMessage
	}

	v.RecommendedTotal = FallbackRecommendedTotal
	if total, ok := res.RecommendedTotal(); ok {
		v.RecommendedTotal = total
	}

	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
