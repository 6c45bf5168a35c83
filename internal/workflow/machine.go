package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
	"rainharvest-advisor/internal/intake"
	"rainharvest-advisor/internal/results"
)

// State of the intake-to-result workflow.
type State string

const (
	StateSelection    State = "selection"
	StateFormNew      State = "form-new"
	StateFormExisting State = "form-existing"
	StateResults      State = "results"
)

// ErrValidation marks a submit blocked by intake validation; the field
// errors are available from ValidationErrors.
var ErrValidation = errors.New("intake validation failed")

// PredictionService is the slice of the upstream client the machine needs
// for submission.
type PredictionService interface {
	Predict(ctx context.Context, req client.PredictRequest) (*domain.AssessmentResult, error)
}

// DetectionService uploads a plan file for area detection.
type DetectionService interface {
	DetectAreas(ctx context.Context, filename string, file io.Reader) (*client.AreaDetection, error)
}

// Machine owns one session's intake record, assessment result and custom
// design state. All access is serialized: a session is single-threaded and
// cooperative, operations run to completion in arrival order.
type Machine struct {
	mu sync.Mutex

	predictor  PredictionService
	detector   DetectionService
	comparator *results.Comparator
	logger     *zap.Logger

	state      State
	selected   domain.HomeType // "" until the user picks one
	intake     *domain.IntakeRecord
	errors     intake.Errors
	result     *domain.AssessmentResult
	comparison *results.Comparison
	choice     string
}

func NewMachine(predictor PredictionService, detector DetectionService, comparator *results.Comparator, logger *zap.Logger) *Machine {
	return &Machine{
		predictor:  predictor,
		detector:   detector,
		comparator: comparator,
		logger:     logger,
		state:      StateSelection,
		intake:     domain.NewIntakeRecord(),
		errors:     intake.Errors{},
	}
}

func (m *Machine) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SelectHomeType records the choice on the selection screen.
func (m *Machine) SelectHomeType(t domain.HomeType) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSelection {
		return fmt.Errorf("home type can only be chosen on the selection screen")
	}
	if t != domain.HomeTypeNew && t != domain.HomeTypeExisting {
		return fmt.Errorf("unknown home type %q", t)
	}
	m.selected = t
	m.intake.HomeType = t
	return nil
}

// Continue advances Selection → Form. It requires a chosen home type.
func (m *Machine) Continue() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateSelection {
		return fmt.Errorf("cannot continue from %s", m.state)
	}
	switch m.selected {
	case domain.HomeTypeNew:
		m.state = StateFormNew
	case domain.HomeTypeExisting:
		m.state = StateFormExisting
	default:
		return fmt.Errorf("choose a home type first")
	}
	return nil
}

// Back returns to the selection screen from anywhere. Intake, result and
// comparison state are all discarded; no partial state survives.
func (m *Machine) Back() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.state = StateSelection
	m.selected = ""
	m.intake = domain.NewIntakeRecord()
	m.errors = intake.Errors{}
	m.result = nil
	m.comparison = nil
	m.choice = ""
}

// Field mutators. Each clears only its own validation error; the record is
// not re-validated holistically until the next submit.

func (m *Machine) SetName(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.Name = v
	delete(m.errors, intake.FieldName)
}

func (m *Machine) SetIdentityNumber(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.IdentityNumber = v
	delete(m.errors, intake.FieldIdentityNumber)
}

func (m *Machine) SetAddress(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.Address = v
	delete(m.errors, intake.FieldAddress)
}

// SetDistrict changes the selected district. The subdivision is always
// cleared first, before any new subdivision can be chosen; this ordering is
// an invariant, not an optimization.
func (m *Machine) SetDistrict(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v != m.intake.District {
		m.intake.Subdivision = ""
	}
	m.intake.District = v
	delete(m.errors, intake.FieldDistrict)
}

func (m *Machine) SetSubdivision(v string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.Subdivision = v
	delete(m.errors, intake.FieldSubdivision)
}

func (m *Machine) SetLocation(loc *domain.LocationData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.Location = loc
}

func (m *Machine) SetNumberOfDwellers(v int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.NumberOfDwellers = v
	delete(m.errors, intake.FieldNumberOfDwellers)
}

func (m *Machine) SetHasOpenSpace(v bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.HasOpenSpace = &v
	delete(m.errors, intake.FieldOpenSpaceArea)
}

func (m *Machine) SetOpenSpaceArea(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.OpenSpaceArea = v
	delete(m.errors, intake.FieldOpenSpaceArea)
}

func (m *Machine) SelectRoofType(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.SelectRoofType(id)
	delete(m.errors, intake.FieldRoofTypes)
}

func (m *Machine) DeselectRoofType(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.DeselectRoofType(id)
	delete(m.errors, intake.FieldRoofTypes)
	delete(m.errors, intake.RoofAreaFieldKey(id))
}

func (m *Machine) SetRoofArea(id string, area float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.intake.SetRoofArea(id, area)
	delete(m.errors, intake.RoofAreaFieldKey(id))
}

// AttachHomePlan stores the uploaded plan reference and triggers area
// detection. Detection failure keeps the reference (validation only needs
// the upload) and applies nothing to the record.
func (m *Machine) AttachHomePlan(ctx context.Context, filename string, file io.Reader) (*client.AreaDetection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.intake.HomePlanImage = filename
	delete(m.errors, intake.FieldHomePlanImage)

	detection, err := m.detector.DetectAreas(ctx, filename, file)
	if err != nil {
		m.logger.Warn("Area detection failed", zap.String("filename", filename), zap.Error(err))
		return nil, err
	}

	m.intake.RoofArea = detection.RoofArea
	m.intake.OpenSpaceArea = detection.OpenArea
	hasOpen := detection.OpenArea > 0
	m.intake.HasOpenSpace = &hasOpen

	m.logger.Info("Plan areas detected",
		zap.Float64("roof_area", detection.RoofArea),
		zap.Float64("open_area", detection.OpenArea),
		zap.String("confidence", detection.Confidence),
	)
	return detection, nil
}

// Submit validates the intake record and runs the prediction. On validation
// failure or a failed remote call the machine stays in Form and the error
// is surfaced inline; on success it advances to Results.
func (m *Machine) Submit(ctx context.Context) (*domain.AssessmentResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateFormNew && m.state != StateFormExisting {
		return nil, fmt.Errorf("cannot submit from %s", m.state)
	}

	if errs := intake.Validate(m.intake); len(errs) > 0 {
		m.errors = errs
		return nil, ErrValidation
	}
	m.errors = intake.Errors{}

	req := intake.BuildPredictRequest(m.intake)
	result, err := m.predictor.Predict(ctx, req)
	if err != nil {
		return nil, err
	}

	m.result = result
	m.state = StateResults
	m.logger.Info("Assessment completed",
		zap.String("district", result.District),
		zap.String("subdistrict", result.Subdistrict),
		zap.Float64("harvested_liters", result.HarvestedLiters),
	)
	return result, nil
}

// ValidationErrors returns the field errors from the last submit attempt.
func (m *Machine) ValidationErrors() intake.Errors {
	m.mu.Lock()
	defer m.mu.Unlock()
	errs := intake.Errors{}
	for k, v := range m.errors {
		errs[k] = v
	}
	return errs
}

// Result is the last received assessment, nil before the first successful
// submit and after back-navigation.
func (m *Machine) Result() *domain.AssessmentResult {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.result
}

// CompareDesign costs a custom design against the current assessment. Only
// a successful comparison replaces the stored one.
func (m *Machine) CompareDesign(ctx context.Context, design domain.CustomDesign) (*results.Comparison, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state != StateResults {
		return nil, fmt.Errorf("no results to compare against")
	}
	cmp, err := m.comparator.Compare(ctx, design, m.result)
	if err != nil {
		return nil, err
	}
	m.comparison = cmp
	return cmp, nil
}

// Comparison is the last successful custom-design comparison, if any.
func (m *Machine) Comparison() *results.Comparison {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.comparison
}

// RecordChoice forwards the recommended-vs-custom preference upstream and
// remembers it. Nothing else changes.
func (m *Machine) RecordChoice(ctx context.Context, choice string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.comparator.RecordChoice(ctx, choice); err != nil {
		return err
	}
	m.choice = choice
	return nil
}

// Choice returns the recorded preference, empty if none.
func (m *Machine) Choice() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.choice
}

// Snapshot returns a copy of the current intake record for display.
func (m *Machine) Snapshot() domain.IntakeRecord {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec := *m.intake
	rec.RoofTypes = append([]string(nil), m.intake.RoofTypes...)
	rec.RoofAreas = make(map[string]float64, len(m.intake.RoofAreas))
	for k, v := range m.intake.RoofAreas {
		rec.RoofAreas[k] = v
	}
	return rec
}
