package intake

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"rainharvest-advisor/internal/domain"
)

func validExistingRecord() *domain.IntakeRecord {
	rec := domain.NewIntakeRecord()
	rec.Name = "Kavitha"
	rec.IdentityNumber = "123456789012"
	rec.Address = "12 Main Street"
	rec.District = "Salem"
	rec.Subdivision = "Omalur"
	rec.SelectRoofType("tile")
	rec.SetRoofArea("tile", 45)
	rec.NumberOfDwellers = 4
	return rec
}

func TestValidate_ValidExistingHome(t *testing.T) {
	errs := Validate(validExistingRecord())
	assert.Empty(t, errs)
}

func TestValidate_AllRulesEvaluatedIndependently(t *testing.T) {
	rec := domain.NewIntakeRecord()

	errs := Validate(rec)

	// Every violated rule surfaces at once, nothing short-circuits.
	assert.Contains(t, errs, FieldName)
	assert.Contains(t, errs, FieldIdentityNumber)
	assert.Contains(t, errs, FieldAddress)
	assert.Contains(t, errs, FieldDistrict)
	assert.Contains(t, errs, FieldSubdivision)
	assert.Contains(t, errs, FieldRoofTypes)
	assert.Contains(t, errs, FieldNumberOfDwellers)
}

func TestValidate_IdentityNumber(t *testing.T) {
	cases := []struct {
		value string
		valid bool
	}{
		{"123456789012", true},
		{"12345678901", false},   // 11 digits
		{"1234567890123", false}, // 13 digits
		{"12345678901a", false},
		{"", false},
	}
	for _, tc := range cases {
		rec := validExistingRecord()
		rec.IdentityNumber = tc.value
		errs := Validate(rec)
		if tc.valid {
			assert.NotContains(t, errs, FieldIdentityNumber, "value %q", tc.value)
		} else {
			assert.Contains(t, errs, FieldIdentityNumber, "value %q", tc.value)
		}
	}
}

func TestValidate_WhitespaceOnlyNameAndAddress(t *testing.T) {
	rec := validExistingRecord()
	rec.Name = "   "
	rec.Address = "\t"

	errs := Validate(rec)

	assert.Contains(t, errs, FieldName)
	assert.Contains(t, errs, FieldAddress)
}

func TestValidate_ExistingHomeRoofAreas(t *testing.T) {
	rec := validExistingRecord()
	rec.SelectRoofType("metal")
	// metal selected but its area never entered

	errs := Validate(rec)

	require.Contains(t, errs, RoofAreaFieldKey("metal"))
	assert.NotContains(t, errs, RoofAreaFieldKey("tile"))
}

func TestValidate_NewHomeRequiresPlanImage(t *testing.T) {
	rec := validExistingRecord()
	rec.HomeType = domain.HomeTypeNew

	errs := Validate(rec)

	assert.Contains(t, errs, FieldHomePlanImage)
	// Existing-home rules do not apply to new construction.
	assert.NotContains(t, errs, FieldRoofTypes)
	assert.NotContains(t, errs, FieldNumberOfDwellers)

	rec.HomePlanImage = "plan.png"
	assert.Empty(t, Validate(rec))
}

func TestValidate_OpenSpaceArea(t *testing.T) {
	rec := validExistingRecord()

	// Never answered: no area required.
	assert.NotContains(t, Validate(rec), FieldOpenSpaceArea)

	// Explicitly no open space: still no area required.
	no := false
	rec.HasOpenSpace = &no
	assert.NotContains(t, Validate(rec), FieldOpenSpaceArea)

	// Open space confirmed but no area entered.
	yes := true
	rec.HasOpenSpace = &yes
	assert.Contains(t, Validate(rec), FieldOpenSpaceArea)

	rec.OpenSpaceArea = 120
	assert.NotContains(t, Validate(rec), FieldOpenSpaceArea)
}
