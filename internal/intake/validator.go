package intake

import (
	"fmt"
	"strings"

	"rainharvest-advisor/internal/domain"
)

// Field keys used in validation error maps. Per-roof-type area errors use
// RoofAreaFieldKey.
const (
	FieldName             = "name"
	FieldIdentityNumber   = "identityNumber"
	FieldAddress          = "address"
	FieldDistrict         = "district"
	FieldSubdivision      = "subdivision"
	FieldRoofTypes        = "roofTypes"
	FieldNumberOfDwellers = "numberOfDwellers"
	FieldHomePlanImage    = "homePlanImage"
	FieldOpenSpaceArea    = "openSpaceArea"
)

// RoofAreaFieldKey is the error-map key for one roof type's area.
func RoofAreaFieldKey(roofType string) string {
	return "roofArea_" + roofType
}

// Errors maps field name to error message. Empty map means the record is
// valid for submission.
type Errors map[string]string

// Validate applies the per-home-type rule set. Rules are evaluated
// independently so every violation surfaces at once; nothing short-circuits.
func Validate(rec *domain.IntakeRecord) Errors {
	errs := Errors{}

	if strings.TrimSpace(rec.Name) == "" {
		errs[FieldName] = "Name is required"
	}
	if !isTwelveDigits(rec.IdentityNumber) {
		errs[FieldIdentityNumber] = "Valid 12-digit Aadhaar number is required"
	}
	if strings.TrimSpace(rec.Address) == "" {
		errs[FieldAddress] = "Address is required"
	}
	if rec.District == "" {
		errs[FieldDistrict] = "District selection is required"
	}
	if rec.Subdivision == "" {
		errs[FieldSubdivision] = "Subdivision selection is required"
	}

	switch rec.HomeType {
	case domain.HomeTypeNew:
		if rec.HomePlanImage == "" {
			errs[FieldHomePlanImage] = "Home plan image is required"
		}
	default:
		if len(rec.RoofTypes) == 0 {
			errs[FieldRoofTypes] = "Please select at least one roof type"
		}
		for _, roofType := range rec.RoofTypes {
			if area := rec.RoofAreas[roofType]; area <= 0 {
				errs[RoofAreaFieldKey(roofType)] = fmt.Sprintf("Area is required for %s roof", roofType)
			}
		}
		if rec.NumberOfDwellers <= 0 {
			errs[FieldNumberOfDwellers] = "Number of dwellers is required"
		}
	}

	if rec.HasOpenSpace != nil && *rec.HasOpenSpace && rec.OpenSpaceArea <= 0 {
		errs[FieldOpenSpaceArea] = "Open space area is required"
	}

	return errs
}

func isTwelveDigits(s string) bool {
	if len(s) != 12 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
