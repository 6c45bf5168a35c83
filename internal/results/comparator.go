package results

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
)

// Canonical shape keys expected by the costing service.
const (
	ShapeRectangular = "rectangular"
	ShapeCircular    = "circular"
)

// Delta labels.
const (
	LabelAdditionalCost = "additional cost"
	LabelSavings        = "savings"
)

// Preference values accepted by the user_choice operation.
const (
	ChoiceRecommended = "recommended"
	ChoiceCustom      = "custom"
)

// CostingService is the slice of the upstream client the comparator needs.
type CostingService interface {
	CalculateSystem(ctx context.Context, req client.CostingRequest) (*domain.CustomDesignResult, error)
	SaveUserChoice(ctx context.Context, choice string) error
}

// Comparison reconciles a costed custom design against the recommended
// system's total.
type Comparison struct {
	Design           domain.CustomDesign        `json:"design"`
	Result           *domain.CustomDesignResult `json:"result"`
	CustomTotal      float64                    `json:"custom_total"`
	RecommendedTotal float64                    `json:"recommended_total"`
	Delta            float64                    `json:"delta"`
	DeltaLabel       string                     `json:"delta_label"`
}

// Comparator converts user-authored designs into costing requests and
// reconciles the results. It holds no per-session state; the workflow
// machine owns the last Comparison.
type Comparator struct {
	svc    CostingService
	logger *zap.Logger
}

func NewComparator(svc CostingService, logger *zap.Logger) *Comparator {
	return &Comparator{svc: svc, logger: logger}
}

// BuildCostingRequest translates a custom design into the costing-service
// request shape. A shape label mentioning "Cuboid" maps to rectangular;
// anything else is circular, with the design's length reinterpreted as
// diameter.
func BuildCostingRequest(design domain.CustomDesign, harvestedLiters float64) client.CostingRequest {
	req := client.CostingRequest{
		HarvestedLiters: harvestedLiters,
		SystemType:      design.SystemType,
		Material:        strings.ToLower(design.Material),
		Lined:           design.Lined,
	}

	if strings.Contains(design.Shape, "Cuboid") {
		req.Shape = ShapeRectangular
		req.Dimensions = domain.Dimensions{
			Length: design.Dimensions.Length,
			Width:  design.Dimensions.Width,
			Depth:  design.Dimensions.Depth,
		}
	} else {
		req.Shape = ShapeCircular
		req.Dimensions = domain.Dimensions{
			Diameter: design.Dimensions.Length,
			Depth:    design.Dimensions.Depth,
		}
	}
	return req
}

// Compare submits the design for costing and reconciles the returned total
// against the recommendation. On failure nothing is returned, so the
// caller's previous comparison survives untouched.
func (c *Comparator) Compare(ctx context.Context, design domain.CustomDesign, assessment *domain.AssessmentResult) (*Comparison, error) {
	if assessment == nil {
		return nil, fmt.Errorf("no assessment result to compare against")
	}

	req := BuildCostingRequest(design, assessment.HarvestedLiters)
	result, err := c.svc.CalculateSystem(ctx, req)
	if err != nil {
		return nil, err
	}

	customTotal, _ := result.Total()
	recommendedTotal, ok := assessment.RecommendedTotal()
	if !ok {
		recommendedTotal = FallbackRecommendedTotal
	}

	cmp := &Comparison{
		Design:           design,
		Result:           result,
		CustomTotal:      customTotal,
		RecommendedTotal: recommendedTotal,
		Delta:            abs(customTotal - recommendedTotal),
		DeltaLabel:       LabelSavings,
	}
	if customTotal > recommendedTotal {
		cmp.DeltaLabel = LabelAdditionalCost
	}

	c.logger.Info("Custom design compared",
		zap.String("system_type", design.SystemType),
		zap.Float64("custom_total", customTotal),
		zap.Float64("recommended_total", recommendedTotal),
		zap.String("delta_label", cmp.DeltaLabel),
	)

	return cmp, nil
}

// RecordChoice sends the recommended-vs-custom preference upstream. A pure
// side effect: no comparison state changes either way.
func (c *Comparator) RecordChoice(ctx context.Context, choice string) error {
	if choice != ChoiceRecommended && choice != ChoiceCustom {
		return fmt.Errorf("invalid choice %q", choice)
	}
	return c.svc.SaveUserChoice(ctx, choice)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
