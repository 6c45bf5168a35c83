package httpapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
	"rainharvest-advisor/internal/location"
	"rainharvest-advisor/internal/report"
	"rainharvest-advisor/internal/results"
	"rainharvest-advisor/internal/workflow"
)

const (
	sessionHeader = "X-Session-Id"
	maxJSONBody   = 1 << 20  // 1 MiB
	maxUploadBody = 16 << 20 // plan images
)

// Handler exposes the workflow over the session API.
type Handler struct {
	registry  *Registry
	resolver  *location.Resolver
	retriever *report.Retriever
	logger    *zap.Logger
}

func NewHandler(registry *Registry, resolver *location.Resolver, retriever *report.Retriever, logger *zap.Logger) *Handler {
	return &Handler{
		registry:  registry,
		resolver:  resolver,
		retriever: retriever,
		logger:    logger,
	}
}

func (h *Handler) machine(w http.ResponseWriter, r *http.Request) *workflow.Machine {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, Fail("missing "+sessionHeader+" header"))
		return nil
	}
	m := h.registry.Get(id)
	if m == nil {
		writeJSON(w, http.StatusNotFound, Fail("unknown session"))
		return nil
	}
	return m
}

// failUpstream maps the error taxonomy onto HTTP responses. Validation
// errors never reach here; they travel in a success-shaped envelope with
// their own field map.
func (h *Handler) failUpstream(w http.ResponseWriter, err error) {
	var decErr *report.DecodingError
	var reqErr *client.RequestError
	var locErr *location.LocationError

	switch {
	case errors.As(err, &decErr):
		writeJSON(w, http.StatusBadGateway, Fail("report could not be decoded; use the quick download instead"))
	case errors.As(err, &reqErr):
		writeJSON(w, http.StatusBadGateway, Fail(reqErr.Error()))
	case errors.As(err, &locErr):
		writeJSON(w, http.StatusBadRequest, Fail(locErr.Error()))
	default:
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
	}
}

// CreateSession starts a new workflow session.
func (h *Handler) CreateSession(w http.ResponseWriter, r *http.Request) {
	id, m := h.registry.Create()
	h.logger.Info("Session created", zap.String("session_id", id))
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"session_id": id,
		"state":      m.State(),
	}))
}

// EndSession drops the session from the registry. Idle sessions expire on
// their own; this is the eager path.
func (h *Handler) EndSession(w http.ResponseWriter, r *http.Request) {
	id := r.Header.Get(sessionHeader)
	if id == "" {
		writeJSON(w, http.StatusBadRequest, Fail("missing "+sessionHeader+" header"))
		return
	}
	h.registry.Remove(id)
	writeJSON(w, http.StatusOK, Ok(map[string]any{"ended": true}))
}

// GetState reports the current screen, intake snapshot and field errors.
func (h *Handler) GetState(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"state":  m.State(),
		"intake": m.Snapshot(),
		"errors": m.ValidationErrors(),
	}))
}

type homeTypeRequest struct {
	HomeType string `json:"home_type"`
}

// SelectHomeType records the home-type choice on the selection screen.
func (h *Handler) SelectHomeType(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	var req homeTypeRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := m.SelectHomeType(domain.HomeType(req.HomeType)); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"state": m.State()}))
}

// Continue advances from the selection screen to the chosen form.
func (h *Handler) Continue(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	if err := m.Continue(); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail(err.Error()))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"state": m.State()}))
}

// Back resets to the selection screen, discarding all session state.
func (h *Handler) Back(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	m.Back()
	writeJSON(w, http.StatusOK, Ok(map[string]any{"state": m.State()}))
}

type roofAreaUpdate struct {
	RoofType string  `json:"roof_type"`
	Area     float64 `json:"area"`
}

type intakeUpdate struct {
	Name             *string         `json:"name,omitempty"`
	IdentityNumber   *string         `json:"identity_number,omitempty"`
	Address          *string         `json:"address,omitempty"`
	District         *string         `json:"district,omitempty"`
	Subdivision      *string         `json:"subdivision,omitempty"`
	NumberOfDwellers *int            `json:"number_of_dwellers,omitempty"`
	HasOpenSpace     *bool           `json:"has_open_space,omitempty"`
	OpenSpaceArea    *float64        `json:"open_space_area,omitempty"`
	SelectRoofType   *string         `json:"select_roof_type,omitempty"`
	DeselectRoofType *string         `json:"deselect_roof_type,omitempty"`
	RoofArea         *roofAreaUpdate `json:"roof_area,omitempty"`
}

// UpdateIntake applies a partial field update. Every touched field clears
// its own validation error and nothing else.
func (h *Handler) UpdateIntake(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	var req intakeUpdate
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}

	if req.Name != nil {
		m.SetName(*req.Name)
	}
	if req.IdentityNumber != nil {
		m.SetIdentityNumber(*req.IdentityNumber)
	}
	if req.Address != nil {
		m.SetAddress(*req.Address)
	}
	if req.District != nil {
		m.SetDistrict(*req.District)
	}
	if req.Subdivision != nil {
		m.SetSubdivision(*req.Subdivision)
	}
	if req.NumberOfDwellers != nil {
		m.SetNumberOfDwellers(*req.NumberOfDwellers)
	}
	if req.HasOpenSpace != nil {
		m.SetHasOpenSpace(*req.HasOpenSpace)
	}
	if req.OpenSpaceArea != nil {
		m.SetOpenSpaceArea(*req.OpenSpaceArea)
	}
	if req.SelectRoofType != nil {
		m.SelectRoofType(*req.SelectRoofType)
	}
	if req.DeselectRoofType != nil {
		m.DeselectRoofType(*req.DeselectRoofType)
	}
	if req.RoofArea != nil {
		m.SetRoofArea(req.RoofArea.RoofType, req.RoofArea.Area)
	}

	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"intake": m.Snapshot(),
		"errors": m.ValidationErrors(),
	}))
}

// UploadPlanImage accepts the home-plan file and runs area detection.
func (h *Handler) UploadPlanImage(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBody)
	file, header, err := r.FormFile("cad_file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("no plan file uploaded"))
		return
	}
	defer file.Close()

	detection, err := m.AttachHomePlan(r.Context(), header.Filename, file)
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(detection))
}

// Submit validates and runs the prediction. Validation failures come back
// as a field-error map; remote failures as a blocking message. Either way
// the machine stays on the form.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	result, err := m.Submit(r.Context())
	if err != nil {
		if errors.Is(err, workflow.ErrValidation) {
			writeJSON(w, http.StatusUnprocessableEntity, Ok(map[string]any{
				"state":  m.State(),
				"errors": m.ValidationErrors(),
			}))
			return
		}
		h.failUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"state":   m.State(),
		"results": results.Present(result),
	}))
}

// GetResults renders the results screen: presented view, last comparison
// and recorded choice.
func (h *Handler) GetResults(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	res := m.Result()
	if res == nil {
		writeJSON(w, http.StatusNotFound, Fail("no assessment result yet"))
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{
		"results":    results.Present(res),
		"comparison": m.Comparison(),
		"choice":     m.Choice(),
	}))
}

// CompareDesign costs a custom design and reconciles it against the
// recommendation.
func (h *Handler) CompareDesign(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	design := domain.DefaultCustomDesign()
	if err := readBodyJSON(r, maxJSONBody, &design); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	cmp, err := m.CompareDesign(r.Context(), design)
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(cmp))
}

type choiceRequest struct {
	Choice string `json:"choice"`
}

// RecordChoice stores the recommended-vs-custom preference upstream.
func (h *Handler) RecordChoice(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	var req choiceRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	if err := m.RecordChoice(r.Context(), req.Choice); err != nil {
		h.failUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"choice": req.Choice}))
}

// DownloadReport runs the primary report pipeline and streams the decoded
// PDF. It never falls back automatically.
func (h *Handler) DownloadReport(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	artifact, err := h.retriever.Fetch(r.Context(), r.Header.Get(sessionHeader), reportUsername(m), m.Result())
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", artifact.Filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(artifact.Data)
}

// ReportFallback redirects to the direct-download URL. Explicitly
// user-triggered; no response validation.
func (h *Handler) ReportFallback(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	http.Redirect(w, r, h.retriever.FallbackURL(reportUsername(m)), http.StatusTemporaryRedirect)
}

// ExportWorkbook streams the assessment as an XLSX workbook.
func (h *Handler) ExportWorkbook(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	res := m.Result()
	if res == nil {
		writeJSON(w, http.StatusNotFound, Fail("no assessment result yet"))
		return
	}
	data, err := report.ExportWorkbook(results.Present(res))
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, Fail("workbook export failed"))
		return
	}
	w.Header().Set("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	w.Header().Set("Content-Disposition", `attachment; filename="rainwater_assessment.xlsx"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// Districts lists the reference districts.
func (h *Handler) Districts(w http.ResponseWriter, r *http.Request) {
	districts, err := h.resolver.Districts(r.Context())
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"districts": districts}))
}

// Subdivisions lists the subdivisions of the requested district.
func (h *Handler) Subdivisions(w http.ResponseWriter, r *http.Request) {
	subdivisions, err := h.resolver.Subdivisions(r.Context(), r.URL.Query().Get("district"))
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	writeJSON(w, http.StatusOK, Ok(map[string]any{"subdivisions": subdivisions}))
}

// RoofTypes lists the intake roof-type catalogue.
func (h *Handler) RoofTypes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, Ok(map[string]any{"roof_types": domain.RoofTypes}))
}

type capturedPosition struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Error     string   `json:"error,omitempty"`
}

// CurrentPosition satisfies location.Geolocator with coordinates the
// browser relayed (or the denial it reported).
func (p capturedPosition) CurrentPosition(ctx context.Context) (float64, float64, error) {
	if p.Error != "" {
		return 0, 0, errors.New(p.Error)
	}
	if p.Latitude == nil || p.Longitude == nil {
		return 0, 0, errors.New("no position reported")
	}
	return *p.Latitude, *p.Longitude, nil
}

// CaptureLocation synthesizes a location record from a device position and
// applies it to the intake record. Failure leaves the existing location
// untouched.
func (h *Handler) CaptureLocation(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	var pos capturedPosition
	if err := readBodyJSON(r, maxJSONBody, &pos); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	snapshot := m.Snapshot()
	loc, err := h.resolver.Capture(r.Context(), pos, snapshot.District, snapshot.Subdivision)
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	m.SetLocation(loc)
	writeJSON(w, http.StatusOK, Ok(loc))
}

type manualLocationRequest struct {
	AreaCode string `json:"area_code"`
}

// ManualLocation synthesizes an approximate location from a 6-digit area
// code.
func (h *Handler) ManualLocation(w http.ResponseWriter, r *http.Request) {
	m := h.machine(w, r)
	if m == nil {
		return
	}
	var req manualLocationRequest
	if err := readBodyJSON(r, maxJSONBody, &req); err != nil {
		writeJSON(w, http.StatusBadRequest, Fail("invalid request body"))
		return
	}
	snapshot := m.Snapshot()
	loc, err := h.resolver.ManualLocation(req.AreaCode, snapshot.District, snapshot.Subdivision)
	if err != nil {
		h.failUpstream(w, err)
		return
	}
	m.SetLocation(loc)
	writeJSON(w, http.StatusOK, Ok(loc))
}

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

func reportUsername(m *workflow.Machine) string {
	if res := m.Result(); res != nil && res.Username != "" {
		return res.Username
	}
	return "User"
}
