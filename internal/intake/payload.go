package intake

import (
	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
)

const (
	// DefaultRoofType is assumed for new construction and for existing
	// homes with no roof type selected.
	DefaultRoofType = "concrete"

	// FallbackNewRoofArea (m²) stands in when plan-image detection
	// produced no area for a new home.
	FallbackNewRoofArea = 100
)

// BuildPredictRequest transforms a collected intake record into the
// prediction-request body. Deterministic and side-effect-free; the home type
// tag selects one of two total construction functions.
func BuildPredictRequest(rec *domain.IntakeRecord) client.PredictRequest {
	if rec.HomeType == domain.HomeTypeNew {
		return buildNewHome(rec)
	}
	return buildExistingHome(rec)
}

func buildNewHome(rec *domain.IntakeRecord) client.PredictRequest {
	req := sharedFields(rec)
	req.RoofType = DefaultRoofType
	req.RoofArea = FallbackNewRoofArea
	if rec.RoofArea > 0 {
		req.RoofArea = rec.RoofArea
	}
	return req
}

// buildExistingHome reports only the primary (first-selected) roof type and
// its area, even when several types were selected.
func buildExistingHome(rec *domain.IntakeRecord) client.PredictRequest {
	req := sharedFields(rec)
	req.RoofType = DefaultRoofType
	if primary, ok := rec.PrimaryRoofType(); ok {
		req.RoofType = primary
		req.RoofArea = rec.RoofAreas[primary]
	}
	return req
}

func sharedFields(rec *domain.IntakeRecord) client.PredictRequest {
	district := rec.District
	subdistrict := rec.Subdivision
	if district == "" && rec.Location != nil {
		district = rec.Location.District
	}
	if subdistrict == "" && rec.Location != nil {
		subdistrict = rec.Location.Subdivision
	}

	return client.PredictRequest{
		Username:     rec.Name,
		District:     district,
		Subdistrict:  subdistrict,
		HasOpenSpace: rec.HasOpenSpace,
		OpenArea:     rec.OpenSpaceArea,
	}
}
