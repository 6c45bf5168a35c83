package domain

// HomeType selects the intake form and the payload-building branch downstream.
type HomeType string

const (
	HomeTypeNew      HomeType = "new"
	HomeTypeExisting HomeType = "existing"
)

// IntakeRecord is the complete set of fields collected from the user before
// submission. One record per session; replaced by a fresh empty record on
// back-navigation.
type IntakeRecord struct {
	Name           string
	IdentityNumber string // national identity number, exactly 12 digits
	Address        string

	// Device-captured or manually synthesized location (optional).
	Location *LocationData

	// Explicit selections; Subdivision is only valid relative to District.
	District    string
	Subdivision string

	HomeType HomeType

	// Existing homes: selection-ordered roof types and their areas (m²).
	// Invariant: every RoofAreas key is a member of RoofTypes.
	RoofTypes []string
	RoofAreas map[string]float64

	// New homes: machine-detected roof area (m²) and the uploaded plan
	// reference that triggered detection.
	RoofArea      float64
	HomePlanImage string

	NumberOfDwellers int

	// Tri-state: nil means the user never answered.
	HasOpenSpace  *bool
	OpenSpaceArea float64
}

// NewIntakeRecord returns the empty record created at session start.
func NewIntakeRecord() *IntakeRecord {
	return &IntakeRecord{
		HomeType:  HomeTypeExisting,
		RoofTypes: []string{},
		RoofAreas: map[string]float64{},
	}
}

// SelectRoofType appends a roof type, preserving selection order. Selecting
// an already-selected type is a no-op.
func (r *IntakeRecord) SelectRoofType(id string) {
	for _, t := range r.RoofTypes {
		if t == id {
			return
		}
	}
	r.RoofTypes = append(r.RoofTypes, id)
}

// DeselectRoofType removes a roof type and its area entry, keeping the
// RoofAreas-keys ⊆ RoofTypes invariant.
func (r *IntakeRecord) DeselectRoofType(id string) {
	kept := r.RoofTypes[:0]
	for _, t := range r.RoofTypes {
		if t != id {
			kept = append(kept, t)
		}
	}
	r.RoofTypes = kept
	delete(r.RoofAreas, id)
}

// SetRoofArea records the area for an already-selected roof type. Areas for
// unselected types are ignored so the invariant cannot be broken.
func (r *IntakeRecord) SetRoofArea(id string, area float64) {
	for _, t := range r.RoofTypes {
		if t == id {
			r.RoofAreas[id] = area
			return
		}
	}
}

// PrimaryRoofType is the first roof type selected by the user, used as the
// sole representative roof type in existing-home payloads.
func (r *IntakeRecord) PrimaryRoofType() (string, bool) {
	if len(r.RoofTypes) == 0 {
		return "", false
	}
	return r.RoofTypes[0], true
}
