package domain

// System type options for a user-authored design.
const (
	SystemStorageTank    = "Storage Tank"
	SystemRechargePit    = "Recharge Pit"
	SystemRechargeTrench = "Recharge Trench"
)

// Shape display labels as shown on the form. The comparator maps them to the
// canonical keys the costing service expects.
const (
	ShapeCuboid      = "Cuboid (L × W × H)"
	ShapeCylindrical = "Cylindrical (D × H)"
)

// Material options.
const (
	MaterialPlastic = "Plastic"
	MaterialRCC     = "RCC"
)

// DesignDimensions are the user-entered dimensions in meters. Width is only
// meaningful for cuboid shapes; for cylindrical shapes Length is
// reinterpreted as diameter.
type DesignDimensions struct {
	Length float64 `json:"length"`
	Width  float64 `json:"width"`
	Depth  float64 `json:"depth"`
}

// CustomDesign is a user-authored alternative system submitted for
// independent costing.
type CustomDesign struct {
	SystemType string           `json:"system_type"`
	Shape      string           `json:"shape"`
	Material   string           `json:"material"`
	Dimensions DesignDimensions `json:"dimensions"`
	// Lined is only meaningful for recharge structures.
	Lined bool `json:"lined"`
}

// DefaultCustomDesign mirrors the form's initial values.
func DefaultCustomDesign() CustomDesign {
	return CustomDesign{
		SystemType: SystemStorageTank,
		Shape:      ShapeCuboid,
		Material:   MaterialPlastic,
		Dimensions: DesignDimensions{Length: 2.5, Width: 2.0, Depth: 2.0},
		Lined:      true,
	}
}

// CustomDesignResult is the costing service's answer for a custom design.
type CustomDesignResult struct {
	SystemType        string         `json:"system_type"`
	RequiredCapacityL float64        `json:"required_capacity_l"`
	RemainderL        float64        `json:"remainder_l,omitempty"`
	CostBreakdown     *CostBreakdown `json:"cost_breakdown"`
	StructureSVG      string         `json:"structure_svg,omitempty"`
}

// Total returns the custom design's cost total when present.
func (r *CustomDesignResult) Total() (float64, bool) {
	if r == nil || r.CostBreakdown == nil {
		return 0, false
	}
	return r.CostBreakdown.Summary.Total()
}
