package service

import (
	"encoding/json"
	"net/http"

	"trendlens-backend/pkg/serviceutil"

	"connectrpc.com/connect"
	"github.com/rs/cors"
)

func writeJson(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s TrendService) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJson(w, http.StatusOK, map[string]string{"status": StatusMessage})
}

// handleAnalyze returns the golden records of the configured keyword list.
func (s TrendService) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	res, err := s.analyze(r.Context(), AnalyzeRequest{GoldenOnly: true})
	if isConfigError(err) {
		writeJson(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}
	if err != nil {
		s.tel.ReportBroken(report_service_analyze, err)
		writeJson(w, http.StatusInternalServerError, map[string]string{"error": "analysis failed"})
		return
	}
	writeJson(w, http.StatusOK, res.Records)
}

// Handler serves the connect procedure and the plain http endpoints, any origin is allowed.
func (s TrendService) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.Handle(AnalyzeProcedure, connect.NewUnaryHandler(
		AnalyzeProcedure,
		s.Analyze,
		connect.WithCodec(jsonCodec{}),
		connect.WithInterceptors(serviceutil.NewConnectOtelInterceptor()),
	))
	mux.HandleFunc("GET /{$}", s.handleStatus)
	mux.HandleFunc("GET "+AnalyzeRestPath, s.handleAnalyze)

	return cors.AllowAll().Handler(mux)
}

// NewClient creates a connect client for the Analyze procedure at `baseUrl`.
func NewClient(httpClient connect.HTTPClient, baseUrl string) *connect.Client[AnalyzeRequest, AnalyzeResponse] {
	return connect.NewClient[AnalyzeRequest, AnalyzeResponse](
		httpClient,
		baseUrl+AnalyzeProcedure,
		connect.WithCodec(jsonCodec{}),
	)
}
