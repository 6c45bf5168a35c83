package client

import (
	"context"
	"io"
	"net/url"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	"rainharvest-advisor/internal/domain"
)

// PredictRequest is the exact body of the upstream predict operation.
type PredictRequest struct {
	Username     string  `json:"username"`
	District     string  `json:"district"`
	Subdistrict  string  `json:"subdistrict"`
	RoofType     string  `json:"roof_type"`
	RoofArea     float64 `json:"roof_area"`
	HasOpenSpace *bool   `json:"has_open_space,omitempty"`
	OpenArea     float64 `json:"open_area"`
}

// CostingRequest is the body of the calculate_system operation. Dimensions
// carry length/width/depth for rectangular shapes and diameter/depth for
// circular ones.
type CostingRequest struct {
	HarvestedLiters float64           `json:"harvested_liters"`
	SystemType      string            `json:"system_type"`
	Shape           string            `json:"shape"`
	Material        string            `json:"material"`
	Lined           bool              `json:"lined"`
	Dimensions      domain.Dimensions `json:"dimensions"`
}

// EncodedReport is the download_pdf response: a base64 payload plus filename.
type EncodedReport struct {
	Success  bool   `json:"success"`
	PDFData  string `json:"pdf_data"`
	Filename string `json:"filename"`
	Error    string `json:"error,omitempty"`
}

// AreaDetection is the detect_areas response for an uploaded plan file.
type AreaDetection struct {
	Success    bool    `json:"success"`
	RoofArea   float64 `json:"roof_area"`
	OpenArea   float64 `json:"open_area"`
	TotalArea  float64 `json:"total_area,omitempty"`
	Confidence string  `json:"confidence,omitempty"`
	Message    string  `json:"message,omitempty"`
	Error      string  `json:"error,omitempty"`
}

// Meta is the reference-data response: flat district list and the
// district→subdivision table.
type Meta struct {
	Districts    []string            `json:"districts"`
	Subdistricts map[string][]string `json:"subdistricts"`
}

type predictEnvelope struct {
	Results *domain.AssessmentResult `json:"results"`
}

type upstreamError struct {
	Error string `json:"error"`
}

// Advisor is the HTTP client for the remote prediction/costing service.
// No automatic retries: every recovery is a manual repeat action upstream of
// this client.
type Advisor struct {
	http    *resty.Client
	baseURL string
	logger  *zap.Logger
}

// NewAdvisor creates the upstream client.
func NewAdvisor(baseURL string, timeout time.Duration, logger *zap.Logger) *Advisor {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")

	return &Advisor{
		http:    httpClient,
		baseURL: baseURL,
		logger:  logger,
	}
}

// Predict runs the prediction/recommendation for a built intake payload.
func (c *Advisor) Predict(ctx context.Context, req PredictRequest) (*domain.AssessmentResult, error) {
	var out predictEnvelope
	var failure upstreamError

	c.logger.Info("Calling upstream: predict",
		zap.String("district", req.District),
		zap.String("subdistrict", req.Subdistrict),
		zap.String("roof_type", req.RoofType),
		zap.Float64("roof_area", req.RoofArea),
	)

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post("/api/predict")
	if err != nil {
		c.logger.Error("Predict call failed", zap.Error(err))
		return nil, &RequestError{Op: "predict", Err: err}
	}
	if resp.IsError() {
		c.logger.Error("Predict returned error",
			zap.Int("status", resp.StatusCode()),
			zap.String("msg", failure.Error),
		)
		return nil, &RequestError{Op: "predict", Status: resp.StatusCode(), Message: failure.Error}
	}
	if out.Results == nil {
		return nil, &RequestError{Op: "predict", Status: resp.StatusCode(), Message: "empty results"}
	}
	return out.Results, nil
}

// CalculateSystem costs a user-authored design.
func (c *Advisor) CalculateSystem(ctx context.Context, req CostingRequest) (*domain.CustomDesignResult, error) {
	var out domain.CustomDesignResult
	var failure upstreamError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(req).
		SetResult(&out).
		SetError(&failure).
		Post("/api/calculate_system")
	if err != nil {
		c.logger.Error("Costing call failed", zap.Error(err))
		return nil, &RequestError{Op: "calculate_system", Err: err}
	}
	if resp.IsError() {
		return nil, &RequestError{Op: "calculate_system", Status: resp.StatusCode(), Message: failure.Error}
	}
	return &out, nil
}

// SaveUserChoice records the recommended-vs-custom preference. Fire-and-report:
// the caller treats failures as non-fatal.
func (c *Advisor) SaveUserChoice(ctx context.Context, choice string) error {
	var failure upstreamError

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"choice": choice}).
		SetError(&failure).
		Post("/api/user_choice")
	if err != nil {
		return &RequestError{Op: "user_choice", Err: err}
	}
	if resp.IsError() {
		return &RequestError{Op: "user_choice", Status: resp.StatusCode(), Message: failure.Error}
	}
	return nil
}

// DownloadReport requests the encoded report for a username. The payload is
// returned still encoded; decoding is the retriever's job.
func (c *Advisor) DownloadReport(ctx context.Context, username string) (*EncodedReport, error) {
	var out EncodedReport

	c.logger.Info("Calling upstream: download_pdf", zap.String("username", username))

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]string{"username": username}).
		SetResult(&out).
		SetError(&out).
		Post("/api/download_pdf")
	if err != nil {
		c.logger.Error("Report call failed", zap.Error(err))
		return nil, &RequestError{Op: "download_pdf", Err: err}
	}
	if resp.IsError() {
		return nil, &RequestError{Op: "download_pdf", Status: resp.StatusCode(), Message: out.Error}
	}
	if !out.Success || out.PDFData == "" {
		return nil, &RequestError{Op: "download_pdf", Status: resp.StatusCode(), Message: "invalid report response"}
	}
	return &out, nil
}

// SimpleDownloadURL builds the fallback direct-download URL from the
// username alone. Fire-and-forget: the caller navigates to it without
// response validation.
func (c *Advisor) SimpleDownloadURL(username string) string {
	return c.baseURL + "/api/simple_pdf_download?username=" + url.QueryEscape(username)
}

// DetectAreas uploads a home-plan file for CAD-based area detection.
func (c *Advisor) DetectAreas(ctx context.Context, filename string, file io.Reader) (*AreaDetection, error) {
	var out AreaDetection

	c.logger.Info("Calling upstream: detect_areas", zap.String("filename", filename))

	resp, err := c.http.R().
		SetContext(ctx).
		SetFileReader("cad_file", filename, file).
		SetResult(&out).
		SetError(&out).
		Post("/api/detect_areas")
	if err != nil {
		c.logger.Error("Area detection call failed", zap.Error(err))
		return nil, &RequestError{Op: "detect_areas", Err: err}
	}
	if resp.IsError() {
		return nil, &RequestError{Op: "detect_areas", Status: resp.StatusCode(), Message: out.Error}
	}
	if !out.Success {
		return nil, &RequestError{Op: "detect_areas", Status: resp.StatusCode(), Message: out.Error}
	}
	return &out, nil
}

// FetchMeta loads the district→subdivision reference table.
func (c *Advisor) FetchMeta(ctx context.Context) (*Meta, error) {
	var out Meta
	var failure upstreamError

	resp, err := c.http.R().
		SetContext(ctx).
		SetResult(&out).
		SetError(&failure).
		Get("/api/meta")
	if err != nil {
		c.logger.Error("Meta call failed", zap.Error(err))
		return nil, &RequestError{Op: "meta", Err: err}
	}
	if resp.IsError() {
		return nil, &RequestError{Op: "meta", Status: resp.StatusCode(), Message: failure.Error}
	}
	return &out, nil
}
