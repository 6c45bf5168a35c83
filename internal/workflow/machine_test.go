package workflow

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
	"rainharvest-advisor/internal/intake"
	"rainharvest-advisor/internal/results"
)

type fakePredictor struct {
	lastRequest client.PredictRequest
	result      *domain.AssessmentResult
	err         error
	calls       int
}

func (f *fakePredictor) Predict(ctx context.Context, req client.PredictRequest) (*domain.AssessmentResult, error) {
	f.calls++
	f.lastRequest = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeDetector struct {
	detection *client.AreaDetection
	err       error
}

func (f *fakeDetector) DetectAreas(ctx context.Context, filename string, file io.Reader) (*client.AreaDetection, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.detection, nil
}

type fakeCosting struct {
	result  *domain.CustomDesignResult
	err     error
	choices []string
}

func (f *fakeCosting) CalculateSystem(ctx context.Context, req client.CostingRequest) (*domain.CustomDesignResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeCosting) SaveUserChoice(ctx context.Context, choice string) error {
	f.choices = append(f.choices, choice)
	return nil
}

func assessment() *domain.AssessmentResult {
	return &domain.AssessmentResult{
		Username:        "Kavitha",
		District:        "Salem",
		HarvestedLiters: 52000,
		Feasibility:     "YES",
		Recommendation: &domain.Recommendation{
			Breakdown: &domain.CostBreakdown{Summary: domain.CostSummary{"total": 16800}},
		},
	}
}

func newTestMachine(predictor *fakePredictor, detector *fakeDetector, costing *fakeCosting) *Machine {
	if predictor == nil {
		predictor = &fakePredictor{result: assessment()}
	}
	if detector == nil {
		detector = &fakeDetector{}
	}
	if costing == nil {
		costing = &fakeCosting{}
	}
	return NewMachine(predictor, detector, results.NewComparator(costing, zap.NewNop()), zap.NewNop())
}

func fillExistingForm(m *Machine) {
	m.SetName("Kavitha")
	m.SetIdentityNumber("123456789012")
	m.SetAddress("12 Main Street")
	m.SetDistrict("Salem")
	m.SetSubdivision("Omalur")
	m.SelectRoofType("tile")
	m.SetRoofArea("tile", 45)
	m.SetNumberOfDwellers(4)
}

func TestMachine_StartsOnSelection(t *testing.T) {
	m := newTestMachine(nil, nil, nil)
	assert.Equal(t, StateSelection, m.State())
}

func TestMachine_ContinueRequiresHomeType(t *testing.T) {
	m := newTestMachine(nil, nil, nil)

	assert.Error(t, m.Continue())
	assert.Equal(t, StateSelection, m.State())

	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())
	assert.Equal(t, StateFormExisting, m.State())
}

func TestMachine_ContinueToNewHomeForm(t *testing.T) {
	m := newTestMachine(nil, nil, nil)

	require.NoError(t, m.SelectHomeType(domain.HomeTypeNew))
	require.NoError(t, m.Continue())
	assert.Equal(t, StateFormNew, m.State())
}

func TestMachine_RejectsUnknownHomeType(t *testing.T) {
	m := newTestMachine(nil, nil, nil)
	assert.Error(t, m.SelectHomeType("houseboat"))
}

func TestMachine_SubmitValidExistingHome(t *testing.T) {
	predictor := &fakePredictor{result: assessment()}
	m := newTestMachine(predictor, nil, nil)

	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())
	fillExistingForm(m)

	res, err := m.Submit(context.Background())
	require.NoError(t, err)

	assert.Equal(t, StateResults, m.State())
	assert.Equal(t, res, m.Result())
	assert.Equal(t, "tile", predictor.lastRequest.RoofType)
	assert.Equal(t, 45.0, predictor.lastRequest.RoofArea)
}

func TestMachine_SubmitValidationFailure(t *testing.T) {
	predictor := &fakePredictor{result: assessment()}
	m := newTestMachine(predictor, nil, nil)

	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())

	_, err := m.Submit(context.Background())
	require.ErrorIs(t, err, ErrValidation)

	// Machine stays on the form, no remote call was made.
	assert.Equal(t, StateFormExisting, m.State())
	assert.Zero(t, predictor.calls)
	assert.Contains(t, m.ValidationErrors(), intake.FieldName)
}

func TestMachine_FieldEditClearsOnlyItsOwnError(t *testing.T) {
	m := newTestMachine(nil, nil, nil)
	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())

	_, err := m.Submit(context.Background())
	require.ErrorIs(t, err, ErrValidation)

	m.SetName("Kavitha")

	errs := m.ValidationErrors()
	assert.NotContains(t, errs, intake.FieldName)
	// Other errors stay until the next submit re-validates.
	assert.Contains(t, errs, intake.FieldAddress)
	assert.Contains(t, errs, intake.FieldRoofTypes)
}

func TestMachine_SubmitRemoteFailureStaysOnForm(t *testing.T) {
	predictor := &fakePredictor{err: errors.New("upstream down")}
	m := newTestMachine(predictor, nil, nil)

	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())
	fillExistingForm(m)

	_, err := m.Submit(context.Background())
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrValidation)
	assert.Equal(t, StateFormExisting, m.State())
	assert.Nil(t, m.Result())

	// Nothing retries on its own; a second submit is a fresh attempt.
	predictor.err = nil
	predictor.result = assessment()
	_, err = m.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, predictor.calls)
}

func TestMachine_DistrictChangeClearsSubdivision(t *testing.T) {
	m := newTestMachine(nil, nil, nil)
	m.SetDistrict("Salem")
	m.SetSubdivision("Omalur")

	m.SetDistrict("Erode")
	assert.Empty(t, m.Snapshot().Subdivision)

	// Re-setting the same district keeps the subdivision.
	m.SetSubdivision("Bhavani")
	m.SetDistrict("Erode")
	assert.Equal(t, "Bhavani", m.Snapshot().Subdivision)
}

func TestMachine_AttachHomePlanAppliesDetection(t *testing.T) {
	detector := &fakeDetector{detection: &client.AreaDetection{
		Success:  true,
		RoofArea: 82.5,
		OpenArea: 40,
	}}
	m := newTestMachine(nil, detector, nil)

	detection, err := m.AttachHomePlan(context.Background(), "plan.png", strings.NewReader("img"))
	require.NoError(t, err)
	assert.Equal(t, 82.5, detection.RoofArea)

	rec := m.Snapshot()
	assert.Equal(t, "plan.png", rec.HomePlanImage)
	assert.Equal(t, 82.5, rec.RoofArea)
	assert.Equal(t, 40.0, rec.OpenSpaceArea)
	require.NotNil(t, rec.HasOpenSpace)
	assert.True(t, *rec.HasOpenSpace)
}

func TestMachine_AttachHomePlanDetectionFailureKeepsReference(t *testing.T) {
	detector := &fakeDetector{err: errors.New("detection unavailable")}
	m := newTestMachine(nil, detector, nil)

	_, err := m.AttachHomePlan(context.Background(), "plan.png", strings.NewReader("img"))
	require.Error(t, err)

	rec := m.Snapshot()
	// The upload reference survives so validation passes; nothing else
	// was applied.
	assert.Equal(t, "plan.png", rec.HomePlanImage)
	assert.Zero(t, rec.RoofArea)
	assert.Nil(t, rec.HasOpenSpace)
}

func TestMachine_BackDiscardsEverything(t *testing.T) {
	costing := &fakeCosting{result: &domain.CustomDesignResult{
		CostBreakdown: &domain.CostBreakdown{Summary: domain.CostSummary{"total": 20000}},
	}}
	m := newTestMachine(nil, nil, costing)

	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())
	fillExistingForm(m)
	_, err := m.Submit(context.Background())
	require.NoError(t, err)
	_, err = m.CompareDesign(context.Background(), domain.DefaultCustomDesign())
	require.NoError(t, err)
	require.NoError(t, m.RecordChoice(context.Background(), results.ChoiceCustom))

	m.Back()

	assert.Equal(t, StateSelection, m.State())
	assert.Nil(t, m.Result())
	assert.Nil(t, m.Comparison())
	assert.Empty(t, m.Choice())
	rec := m.Snapshot()
	assert.Empty(t, rec.Name)
	assert.Empty(t, rec.RoofTypes)
}

func TestMachine_CompareDesignRequiresResults(t *testing.T) {
	m := newTestMachine(nil, nil, nil)

	_, err := m.CompareDesign(context.Background(), domain.DefaultCustomDesign())
	assert.Error(t, err)
}

func TestMachine_FailedComparisonKeepsPrevious(t *testing.T) {
	costing := &fakeCosting{result: &domain.CustomDesignResult{
		CostBreakdown: &domain.CostBreakdown{Summary: domain.CostSummary{"total": 20000}},
	}}
	m := newTestMachine(nil, nil, costing)

	require.NoError(t, m.SelectHomeType(domain.HomeTypeExisting))
	require.NoError(t, m.Continue())
	fillExistingForm(m)
	_, err := m.Submit(context.Background())
	require.NoError(t, err)

	first, err := m.CompareDesign(context.Background(), domain.DefaultCustomDesign())
	require.NoError(t, err)

	costing.err = errors.New("costing down")
	_, err = m.CompareDesign(context.Background(), domain.DefaultCustomDesign())
	require.Error(t, err)

	assert.Equal(t, first, m.Comparison())
}

func TestMachine_SnapshotIsACopy(t *testing.T) {
	m := newTestMachine(nil, nil, nil)
	m.SelectRoofType("tile")
	m.SetRoofArea("tile", 45)

	rec := m.Snapshot()
	rec.RoofTypes[0] = "mutated"
	rec.RoofAreas["tile"] = 0

	fresh := m.Snapshot()
	assert.Equal(t, []string{"tile"}, fresh.RoofTypes)
	assert.Equal(t, 45.0, fresh.RoofAreas["tile"])
}
