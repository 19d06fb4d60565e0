package service

import (
	"context"
	"errors"
	"fmt"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/opportunity"
	"trendlens-backend/internal/scrapers/stock"

	"connectrpc.com/connect"
)

const (
	report_service_analyze = "trend_service.analyze"

	TrendServiceName      = "trendlens.v1.TrendService"
	AnalyzeProcedure      = "/" + TrendServiceName + "/Analyze"
	StatusMessage         = "TrendLens API is running!"
	AnalyzeRestPath       = "/api/v1/trends/analyze"
	maxKeywordsPerRequest = 100
)

// Analyzer runs the opportunity pipeline.
//
// note: fault injection point
type Analyzer interface {
	Run(ctx context.Context, keywords []string, cfg opportunity.RunConfig) (opportunity.Analysis, error)
}

type AnalyzeRequest struct {
	Keywords   []string `json:"keywords,omitempty"`
	GoldenOnly bool     `json:"golden_only,omitempty"`
}

type AnalyzeResponse struct {
	RunID    string               `json:"run_id"`
	Records  []opportunity.Record `json:"records"`
	Failures int                  `json:"failures"`
}

// TrendService implements trendlens.v1.TrendService
type TrendService struct {
	analyzer Analyzer
	keywords []string
	runCfg   opportunity.RunConfig
	tel      telemetry.API
}

// NewTrendService creates a TrendService, `keywords` is analyzed when a request does not
// name any.
func NewTrendService(analyzer Analyzer, keywords []string, runCfg opportunity.RunConfig, tel telemetry.API) TrendService {
	assert.NotNil(analyzer)
	assert.NotNil(tel)

	return TrendService{
		analyzer: analyzer,
		keywords: keywords,
		runCfg:   runCfg,
		tel:      telemetry.NewScopedAPI("service", tel),
	}
}

func isConfigError(err error) bool {
	return errors.Is(err, opportunity.ErrEmptyBatch) ||
		errors.Is(err, opportunity.ErrInvalidKeyword) ||
		errors.Is(err, stock.ErrUnknownSource)
}

func (s TrendService) analyze(ctx context.Context, req AnalyzeRequest) (AnalyzeResponse, error) {
	keywords := req.Keywords
	if len(keywords) == 0 {
		keywords = s.keywords
	}
	if len(keywords) > maxKeywordsPerRequest {
		return AnalyzeResponse{}, fmt.Errorf(
			"%w: %d keywords, at most %d per request",
			opportunity.ErrInvalidKeyword, len(keywords), maxKeywordsPerRequest,
		)
	}

	runCfg := s.runCfg
	runCfg.GoldenOnly = req.GoldenOnly

	analysis, err := s.analyzer.Run(ctx, keywords, runCfg)
	if err != nil {
		return AnalyzeResponse{}, err
	}
	s.tel.ReportDebug(report_service_analyze, analysis.RunID, len(keywords), len(analysis.Golden))

	return AnalyzeResponse{
		RunID:    analysis.RunID,
		Records:  analysis.Output(),
		Failures: len(analysis.Failures),
	}, nil
}

func (s TrendService) Analyze(ctx context.Context, req *connect.Request[AnalyzeRequest]) (*connect.Response[AnalyzeResponse], error) {
	res, err := s.analyze(ctx, *req.Msg)
	if isConfigError(err) {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	if err != nil {
		s.tel.ReportBroken(report_service_analyze, err)
		return nil, connect.NewError(connect.CodeInternal, err)
	}
	return connect.NewResponse(&res), nil
}
