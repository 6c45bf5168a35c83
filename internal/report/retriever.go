package report

import (
	"context"
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"rainharvest-advisor/internal/client"
	"rainharvest-advisor/internal/domain"
	"rainharvest-advisor/internal/session"
)

const fallbackFilename = "rainwater_report.pdf"

// DecodingError is a malformed encoded-report payload. Kept distinct from
// RequestError so the user is pointed at the fallback download path.
type DecodingError struct {
	Err error
}

func (e *DecodingError) Error() string {
	return fmt.Sprintf("malformed report payload: %v", e.Err)
}

func (e *DecodingError) Unwrap() error { return e.Err }

// ReportService is the slice of the upstream client the retriever needs.
type ReportService interface {
	DownloadReport(ctx context.Context, username string) (*client.EncodedReport, error)
	SimpleDownloadURL(username string) string
}

// Artifact is the decoded binary report.
type Artifact struct {
	Filename string
	Data     []byte
}

// SaveTo writes the artifact under dir and closes the file handle right
// after the write so the temporary handle never outlives the save.
func (a *Artifact) SaveTo(dir string) (string, error) {
	path := filepath.Join(dir, filepath.Base(a.Filename))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create report file: %w", err)
	}
	if _, err := f.Write(a.Data); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close report file: %w", err)
	}
	return path, nil
}

// Retriever runs the encoded-report pipeline: snapshot, request, decode.
type Retriever struct {
	svc       ReportService
	snapshots session.SnapshotStore
	logger    *zap.Logger
}

func NewRetriever(svc ReportService, snapshots session.SnapshotStore, logger *zap.Logger) *Retriever {
	return &Retriever{svc: svc, snapshots: snapshots, logger: logger}
}

// Fetch requests and decodes the report for username. The current assessment
// is snapshotted to the session store first, best-effort: a failed snapshot
// write is logged and never blocks the download. Fetch never falls through
// to the fallback path on its own.
func (r *Retriever) Fetch(ctx context.Context, sessionID, username string, assessment *domain.AssessmentResult) (*Artifact, error) {
	if assessment != nil {
		if err := r.snapshots.SaveAssessment(ctx, sessionID, assessment); err != nil {
			r.logger.Warn("Assessment snapshot write failed",
				zap.String("session_id", sessionID),
				zap.Error(err),
			)
		}
	}

	encoded, err := r.svc.DownloadReport(ctx, username)
	if err != nil {
		return nil, err
	}

	data, err := base64.StdEncoding.DecodeString(encoded.PDFData)
	if err != nil {
		r.logger.Error("Report payload decode failed", zap.Error(err))
		return nil, &DecodingError{Err: err}
	}

	filename := encoded.Filename
	if filename == "" {
		filename = fallbackFilename
	}

	r.logger.Info("Report retrieved",
		zap.String("filename", filename),
		zap.Int("size_bytes", len(data)),
	)

	return &Artifact{Filename: filename, Data: data}, nil
}

// FallbackURL is the separate, user-triggered direct-download path built
// from the username alone. No response validation happens here.
func (r *Retriever) FallbackURL(username string) string {
	return r.svc.SimpleDownloadURL(username)
}
