package analysis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/healthvault/backend/internal/ai"
	"github.com/healthvault/backend/pkg/model"
	"go.uber.org/zap"
)

// Candidate model chains, newest first. The availability resolver
// probes them in order and the first servable one wins.
var (
	vitalsModelChain = []string{"gemini-2.5-flash", "gemini-1.0-pro"}
	reportModelChain = []string{"gemini-2.5-flash", "gemini-2.0-flash-001"}
)

// Completer is the generative-AI capability the orchestrator consumes
type Completer interface {
	ResolveModel(ctx context.Context, candidates []string) (string, error)
	Generate(ctx context.Context, modelID, prompt string, attachment *ai.Attachment) (string, error)
}

// Downloader fetches report file bytes from a durable URL
type Downloader interface {
	Download(ctx context.Context, fileURL string) ([]byte, string, error)
}

// Service orchestrates the analysis pipeline: resolve model, build
// prompt, invoke model, normalize. A failure at any stage funnels to
// the deterministic fallback; callers always receive a fully-shaped
// result and can read provenance from the result's metadata.
type Service struct {
	client     Completer // nil when no AI credential is configured
	downloader Downloader
	logger     *zap.Logger
	now        func() time.Time
}

// NewService creates the analysis orchestrator. A nil client means AI
// is not configured and every request resolves to the fallback.
func NewService(client Completer, downloader Downloader, logger *zap.Logger) *Service {
	return &Service{
		client:     client,
		downloader: downloader,
		logger:     logger,
		now:        time.Now,
	}
}

// AnalyzeVitals analyzes a vitals snapshot, optionally against a
// previous one. It never returns an error: any pipeline failure is
// recovered by the rule-based fallback.
func (s *Service) AnalyzeVitals(ctx context.Context, snapshot, previous *model.VitalsSnapshot) *model.VitalsAnalysis {
	result, err := s.liveVitals(ctx, snapshot, previous)
	if err != nil {
		s.logFallback("vitals", err)
		return FallbackVitals(snapshot, s.now())
	}

	return result
}

// liveVitals runs the live pipeline and reports typed stage errors
func (s *Service) liveVitals(ctx context.Context, snapshot, previous *model.VitalsSnapshot) (*model.VitalsAnalysis, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	modelID, err := s.client.ResolveModel(ctx, vitalsModelChain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoModelAvailable, err)
	}

	prompt := BuildVitalsPrompt(snapshot, previous)

	rawText, err := s.client.Generate(ctx, modelID, prompt, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}

	result, err := NormalizeVitals(rawText, modelID, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("vitals analysis completed",
		zap.String("model", modelID),
		zap.Int("score", result.OverallAssessment.Score),
		zap.String("status", result.OverallAssessment.Status),
	)

	return result, nil
}

// AnalyzeReport analyzes an uploaded report file by URL and declared
// type. It never returns an error: any pipeline failure is recovered
// by the static report fallback.
func (s *Service) AnalyzeReport(ctx context.Context, fileURL string, reportType model.ReportType) *model.ReportAnalysis {
	result, err := s.liveReport(ctx, fileURL, reportType)
	if err != nil {
		s.logFallback("report", err)
		return FallbackReport(s.now())
	}

	return result
}

// liveReport runs the live report pipeline and reports typed stage errors
func (s *Service) liveReport(ctx context.Context, fileURL string, reportType model.ReportType) (*model.ReportAnalysis, error) {
	if s.client == nil {
		return nil, ErrNotConfigured
	}

	data, mimeType, err := s.downloader.Download(ctx, fileURL)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAttachmentDownloadFailed, err)
	}

	modelID, err := s.client.ResolveModel(ctx, reportModelChain)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoModelAvailable, err)
	}

	prompt := BuildReportPrompt(reportType)
	attachment := &ai.Attachment{
		Data:     data,
		MIMEType: mimeType,
		Filename: "report" + extensionForMIME(mimeType),
	}

	rawText, err := s.client.Generate(ctx, modelID, prompt, attachment)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelInvocationFailed, err)
	}

	result, err := NormalizeReport(rawText, modelID, s.now())
	if err != nil {
		return nil, err
	}

	s.logger.Info("report analysis completed",
		zap.String("model", modelID),
		zap.String("report_type", string(reportType)),
	)

	return result, nil
}

// logFallback records which stage degraded the result. The error never
// propagates past this point.
func (s *Service) logFallback(pipeline string, err error) {
	stage := "normalize"
	switch {
	case errors.Is(err, ErrNotConfigured):
		stage = "configuration"
	case errors.Is(err, ErrAttachmentDownloadFailed):
		stage = "download"
	case errors.Is(err, ErrNoModelAvailable):
		stage = "resolve"
	case errors.Is(err, ErrModelInvocationFailed):
		stage = "invoke"
	}

	s.logger.Warn("analysis degraded to fallback",
		zap.String("pipeline", pipeline),
		zap.String("stage", stage),
		zap.Error(err),
	)
}

func extensionForMIME(mimeType string) string {
	switch mimeType {
	case "image/png":
		return ".png"
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	default:
		return ".pdf"
	}
}
