package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"fundfacts-ai/internal/contextutil"
	"fundfacts-ai/internal/ingest"
	"fundfacts-ai/internal/query"
	"fundfacts-ai/internal/retrieval"
	"fundfacts-ai/internal/service"
)

// AskHandler handles HTTP requests for question answering.
type AskHandler struct {
	answers  service.AnswerService
	pipeline Pipeline
	markdown goldmark.Markdown
}

// NewAskHandler creates a new AskHandler. pipeline may be nil, in which case
// debug responses omit coverage statistics.
func NewAskHandler(answers service.AnswerService, pipeline Pipeline) *AskHandler {
	return &AskHandler{
		answers:  answers,
		pipeline: pipeline,
		// Answer text comes from the language model, so raw HTML stays
		// escaped during rendering.
		markdown: goldmark.New(
			goldmark.WithExtensions(
				extension.GFM,
			),
		),
	}
}

// AskRequest represents the HTTP request payload for questions.
// This mirrors the service.AnswerRequest but is defined here for HTTP layer separation.
type AskRequest struct {
	Question string `json:"question"`
	K        int    `json:"k,omitempty"`
	Scheme   string `json:"scheme,omitempty"`
}

// AskResponse represents the HTTP response payload for questions.
// This mirrors the service.Answer but is defined here for HTTP layer separation.
type AskResponse struct {
	Answer     string             `json:"answer"`
	AnswerHTML string             `json:"answer_html,omitempty"`
	SourceURL  string             `json:"source_url,omitempty"`
	SourceURLs []string           `json:"source_urls,omitempty"`
	IsFactual  bool               `json:"is_factual"`
	ModelName  string             `json:"model_name"`
	Timestamp  string             `json:"timestamp"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Error      string             `json:"error,omitempty"`
	Context    string             `json:"context,omitempty"`
	Retrieval  []retrieval.Result `json:"retrieval,omitempty"`
	Debug      *DebugInfo         `json:"debug,omitempty"`
}

// DebugInfo contains debug information when debug mode is enabled.
type DebugInfo struct {
	// Classification is the analyzed form of the question.
	Classification query.Classification `json:"classification"`
	// Coverage contains indexing coverage statistics.
	Coverage *ingest.CoverageStats `json:"coverage,omitempty"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ServeHTTP handles HTTP requests for question answering.
//
// Ask a factual question about HDFC mutual fund schemes and get an answer
// grounded in the indexed fact corpus. Use the `debug=true` query parameter
// to include the query classification and indexing coverage in the response.
func (h *AskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := contextutil.LoggerFromContext(ctx)

	if r.Method != http.MethodPost {
		logger.WarnContext(ctx, "method not allowed", "method", r.Method)
		h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req AskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		logger.WarnContext(ctx, "invalid request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		logger.WarnContext(ctx, "empty question in request")
		h.writeError(w, http.StatusBadRequest, "Question is required")
		return
	}

	// Enforce bounds for user-provided K. Zero means "use the default".
	if req.K < 0 {
		req.K = 0
	}
	if req.K > service.MaxK {
		req.K = service.MaxK
	}

	// Parse debug query parameter
	debug := false
	if debugParam := r.URL.Query().Get("debug"); debugParam != "" {
		debug = strings.ToLower(debugParam) == "true" || debugParam == "1"
	}

	svcReq := service.AnswerRequest{
		Question: req.Question,
		K:        req.K,
		Scheme:   req.Scheme,
	}

	answer, err := h.answers.GenerateAnswer(ctx, svcReq)
	if err != nil {
		h.handleServiceError(w, ctx, err, "Failed to answer question")
		return
	}

	resp := AskResponse{
		Answer:     answer.Answer,
		AnswerHTML: h.renderAnswerHTML(ctx, answer.Answer),
		SourceURL:  answer.SourceURL,
		SourceURLs: answer.SourceURLs,
		IsFactual:  answer.IsFactual,
		ModelName:  answer.ModelName,
		Timestamp:  answer.Timestamp,
		ErrorKind:  answer.ErrorKind,
		Error:      answer.Error,
		Context:    answer.Context,
		Retrieval:  answer.Retrieval,
	}

	if debug {
		debugInfo := &DebugInfo{
			Classification: query.Classify(req.Question),
		}
		if h.pipeline != nil {
			coverage, err := h.pipeline.Coverage(ctx)
			if err != nil {
				logger.WarnContext(ctx, "failed to compute coverage stats", "error", err)
			} else {
				debugInfo.Coverage = coverage
			}
		}
		resp.Debug = debugInfo
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		logger.ErrorContext(ctx, "failed to encode response", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to encode response")
		return
	}
}

// renderAnswerHTML converts the answer markdown to HTML. Rendering failures
// degrade to an empty string so the plain-text answer still reaches the client.
func (h *AskHandler) renderAnswerHTML(ctx context.Context, answer string) string {
	if answer == "" {
		return ""
	}
	var buf bytes.Buffer
	if err := h.markdown.Convert([]byte(answer), &buf); err != nil {
		contextutil.LoggerFromContext(ctx).WarnContext(ctx, "failed to render answer markdown", "error", err)
		return ""
	}
	return buf.String()
}

// handleServiceError maps service errors to appropriate HTTP status codes and responses.
func (h *AskHandler) handleServiceError(w http.ResponseWriter, ctx context.Context, err error, defaultMsg string) {
	logger := contextutil.LoggerFromContext(ctx)
	logger.ErrorContext(ctx, "answer service error", "error", err)

	var validationErr *service.ValidationError
	if errors.As(err, &validationErr) {
		h.writeError(w, http.StatusBadRequest, fmt.Sprintf("Validation error: %s", validationErr.Error()))
		return
	}

	if errors.Is(err, service.ErrInvalidInput) {
		h.writeError(w, http.StatusBadRequest, "Invalid input")
		return
	}

	if errors.Is(err, service.ErrNotFound) {
		h.writeError(w, http.StatusNotFound, "Resource not found")
		return
	}

	// Vector index failures surface as retrieval search errors; report those
	// as unavailability rather than a generic upstream failure.
	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "vector store") ||
		strings.Contains(errMsg, "qdrant") ||
		strings.Contains(errMsg, "failed to search") {
		h.writeError(w, http.StatusServiceUnavailable, "Vector store unavailable")
		return
	}

	if errors.Is(err, service.ErrExternalService) {
		h.writeError(w, http.StatusBadGateway, "External service error")
		return
	}

	h.writeError(w, http.StatusInternalServerError, defaultMsg)
}

// writeError writes an error response.
func (h *AskHandler) writeError(w http.ResponseWriter, statusCode int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Error: message,
	})
}
