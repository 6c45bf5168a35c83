package httpapi

import (
	"net/http"

	"go.uber.org/zap"
)

// Router wraps the standard-library http.ServeMux (no third-party router
// dependency needed for a surface this size).
type Router struct {
	mux    *http.ServeMux
	logger *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{
		mux:    http.NewServeMux(),
		logger: logger,
	}
}

func (r *Router) Handle(pattern string, h http.HandlerFunc) {
	r.mux.HandleFunc(pattern, h)
}

func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.mux.ServeHTTP(w, req)
}

func methodOnly(method string, h http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		if req.Method != method {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		h(w, req)
	}
}

// RegisterWorkflowRoutes wires the session workflow surface.
func (r *Router) RegisterWorkflowRoutes(h *Handler) {
	// session lifecycle
	r.Handle("/advisor/api/v1/sessions", methodOnly(http.MethodPost, h.CreateSession))
	r.Handle("/advisor/api/v1/session", methodOnly(http.MethodDelete, h.EndSession))
	r.Handle("/advisor/api/v1/session/state", methodOnly(http.MethodGet, h.GetState))

	// screen navigation
	r.Handle("/advisor/api/v1/session/home-type", methodOnly(http.MethodPost, h.SelectHomeType))
	r.Handle("/advisor/api/v1/session/continue", methodOnly(http.MethodPost, h.Continue))
	r.Handle("/advisor/api/v1/session/back", methodOnly(http.MethodPost, h.Back))

	// intake
	r.Handle("/advisor/api/v1/session/intake", methodOnly(http.MethodPatch, h.UpdateIntake))
	r.Handle("/advisor/api/v1/session/plan-image", methodOnly(http.MethodPost, h.UploadPlanImage))
	r.Handle("/advisor/api/v1/session/submit", methodOnly(http.MethodPost, h.Submit))

	// location
	r.Handle("/advisor/api/v1/session/location/capture", methodOnly(http.MethodPost, h.CaptureLocation))
	r.Handle("/advisor/api/v1/session/location/manual", methodOnly(http.MethodPost, h.ManualLocation))

	// results
	r.Handle("/advisor/api/v1/session/results", methodOnly(http.MethodGet, h.GetResults))
	r.Handle("/advisor/api/v1/session/design/compare", methodOnly(http.MethodPost, h.CompareDesign))
	r.Handle("/advisor/api/v1/session/choice", methodOnly(http.MethodPost, h.RecordChoice))

	// report artifacts
	r.Handle("/advisor/api/v1/session/report", methodOnly(http.MethodGet, h.DownloadReport))
	r.Handle("/advisor/api/v1/session/report/fallback", methodOnly(http.MethodGet, h.ReportFallback))
	r.Handle("/advisor/api/v1/session/report/workbook", methodOnly(http.MethodGet, h.ExportWorkbook))

	// reference data
	r.Handle("/advisor/api/v1/meta/districts", methodOnly(http.MethodGet, h.Districts))
	r.Handle("/advisor/api/v1/meta/subdivisions", methodOnly(http.MethodGet, h.Subdivisions))
	r.Handle("/advisor/api/v1/meta/roof-types", methodOnly(http.MethodGet, h.RoofTypes))

	r.Handle("/health", methodOnly(http.MethodGet, h.Health))
}
