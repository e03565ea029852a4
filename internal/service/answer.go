package service

//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_retriever.go -package=mocks fundfacts-ai/internal/service Retriever
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_generator.go -package=mocks fundfacts-ai/internal/service Generator
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_fact_dates.go -package=mocks fundfacts-ai/internal/service FactDates
//go:generate go run go.uber.org/mock/mockgen@latest -destination=mocks/mock_answer_service.go -package=mocks -mock_names=AnswerService=MockAnswerService fundfacts-ai/internal/service AnswerService

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"fundfacts-ai/internal/assembly"
	"fundfacts-ai/internal/contextutil"
	"fundfacts-ai/internal/llm"
	"fundfacts-ai/internal/query"
	"fundfacts-ai/internal/retrieval"
	"fundfacts-ai/internal/tokens"
)

// Retriever finds chunks relevant to a query.
// This interface is defined from the service layer's perspective (consumer-first).
type Retriever interface {
	// Retrieve embeds the query and searches the vector index.
	Retrieve(ctx context.Context, query string, k int, schemeFilter string) ([]retrieval.Result, error)
}

// Generator produces answer text from a rendered prompt.
type Generator interface {
	// Generate sends the prompt to the language model and returns the reply.
	Generate(ctx context.Context, prompt string, opts llm.GenerateOptions) (string, error)
	// ModelName returns the model identifier the client is bound to.
	ModelName() string
}

// FactDates reports when the fact corpus was last refreshed.
type FactDates interface {
	// LatestExtractedAt returns the most recent extraction timestamp.
	LatestExtractedAt(ctx context.Context) (time.Time, error)
}

const (
	// DefaultK is the retrieval depth when the caller does not specify one.
	DefaultK = 5
	// MaxK bounds the retrieval depth a caller may request.
	MaxK = 20
)

const (
	// promptTokenBudget caps the estimated size of the rendered prompt.
	promptTokenBudget = 6000
	// minContextTokens matches the assembler's smallest useful entry budget;
	// context shrinking stops there.
	minContextTokens = 50

	generateAttempts = 2
	retryDelay       = 500 * time.Millisecond
	// generateTimeout bounds a single model call attempt; expiry is
	// absorbed like any other generation failure.
	generateTimeout = 30 * time.Second
)

// NoDataMessage is returned when retrieval finds nothing relevant.
const NoDataMessage = "I couldn't find relevant information to answer your question. Please try rephrasing or asking about expense ratio, minimum SIP, exit load, NAV, or tax implications for HDFC mutual fund schemes."

// AnswerRequest represents a question posed to the assistant.
type AnswerRequest struct {
	Question string
	K        int    // retrieval depth; DefaultK when <= 0, capped at MaxK
	Scheme   string // optional scheme filter overriding detection
}

// Answer is the structured result of one question/answer exchange. On the
// generation-failure path ErrorKind and Error are set and the retrieval
// payload is preserved so callers can render a fallback view.
type Answer struct {
	Answer     string             `json:"answer"`
	SourceURL  string             `json:"source_url,omitempty"`
	SourceURLs []string           `json:"source_urls,omitempty"`
	IsFactual  bool               `json:"is_factual"`
	ModelName  string             `json:"model_name"`
	Timestamp  string             `json:"timestamp"`
	ErrorKind  string             `json:"error_kind,omitempty"`
	Error      string             `json:"error,omitempty"`
	Context    string             `json:"context,omitempty"`
	Retrieval  []retrieval.Result `json:"retrieval,omitempty"`
}

// AnswerService answers user questions about mutual fund schemes.
type AnswerService interface {
	// GenerateAnswer runs the full pipeline for one question: classify,
	// retrieve, assemble context, and generate a grounded answer.
	GenerateAnswer(ctx context.Context, req AnswerRequest) (Answer, error)
}

// answerService implements AnswerService.
type answerService struct {
	retriever Retriever
	generator Generator
	dates     FactDates
	template  string
	refusal   string
	logger    *slog.Logger
}

// NewAnswerService creates a new AnswerService. template is the system
// prompt with {context} and {question} slots; refusal is the fixed message
// returned for non-factual questions.
func NewAnswerService(retriever Retriever, generator Generator, dates FactDates, template, refusal string) AnswerService {
	return &answerService{
		retriever: retriever,
		generator: generator,
		dates:     dates,
		template:  template,
		refusal:   refusal,
		logger:    slog.Default(),
	}
}

// GenerateAnswer runs the full pipeline for one question.
// Language-model failures never propagate: they are absorbed into an Answer
// carrying the error kind and the retrieval payload. Retrieval infrastructure
// failures do propagate, wrapped with ErrExternalService.
func (s *answerService) GenerateAnswer(ctx context.Context, req AnswerRequest) (Answer, error) {
	logger := contextutil.LoggerFromContext(ctx)

	question := strings.TrimSpace(req.Question)
	if question == "" {
		logger.WarnContext(ctx, "empty question in answer request")
		return Answer{}, &ValidationError{
			Field:   "question",
			Message: "cannot be empty",
		}
	}

	answer := Answer{
		IsFactual: true,
		ModelName: s.generator.ModelName(),
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	classification := query.Classify(question)
	if !classification.IsFactual {
		logger.InfoContext(ctx, "refusing non-factual question", "intent", classification.Intent)
		answer.Answer = s.refusal
		answer.IsFactual = false
		return answer, nil
	}

	k := req.K
	if k <= 0 {
		k = DefaultK
	}
	if k > MaxK {
		k = MaxK
	}

	schemeFilter := req.Scheme
	if schemeFilter == "" {
		schemeFilter = classification.DetectedScheme
	}

	results, err := s.retriever.Retrieve(ctx, classification.EnhancedQuery, k, schemeFilter)
	if err != nil {
		logger.ErrorContext(ctx, "retrieval failed", "error", err)
		return Answer{}, fmt.Errorf("failed to retrieve context: %w: %w", ErrExternalService, err)
	}

	if len(results) == 0 {
		logger.InfoContext(ctx, "no relevant chunks found", "enhanced_query", classification.EnhancedQuery)
		answer.Answer = NoDataMessage
		return answer, nil
	}

	assembled := assembly.NewAssembler(assembly.DefaultConfig()).Assemble(results)
	answer.Context = assembled.Text
	answer.Retrieval = results
	answer.SourceURLs = assembled.Sources
	if len(assembled.Sources) > 0 {
		answer.SourceURL = assembled.Sources[0]
	}

	dateStr := s.extractionDate(ctx)
	prompt := s.buildPrompt(ctx, results, assembled.Text, question, dateStr)

	text, err := s.generate(ctx, prompt)
	if err != nil {
		kind, userMsg, detail := describeGenerationFailure(err, answer.ModelName)
		logger.ErrorContext(ctx, "generation failed", "error_kind", string(kind), "error", err)
		answer.Answer = userMsg
		answer.ErrorKind = string(kind)
		answer.Error = detail
		return answer, nil
	}

	if !strings.Contains(strings.ToLower(text), "last updated") {
		text += "\n\nLast updated from sources: " + dateStr
	}
	if answer.SourceURL != "" && !strings.Contains(text, answer.SourceURL) {
		text += "\n\nSource: " + answer.SourceURL
	}
	answer.Answer = text

	logger.InfoContext(ctx, "answer generated",
		"model", answer.ModelName,
		"chunks_used", assembled.Metadata.UsedResults,
		"answer_length", len(text))
	return answer, nil
}

// buildPrompt renders the system prompt and shrinks the context section while
// the estimate exceeds the model input budget. The question and instructions
// are never shrunk.
func (s *answerService) buildPrompt(ctx context.Context, results []retrieval.Result, contextText, question, dateStr string) string {
	logger := contextutil.LoggerFromContext(ctx)

	prompt := renderPrompt(s.template, contextText, question, dateStr)

	limit := assembly.DefaultMaxContextTokens
	for tokens.Estimate(prompt) > promptTokenBudget {
		next := limit / 2
		if next <= minContextTokens {
			break
		}
		limit = next

		shrunk := assembly.NewAssembler(assembly.Config{MaxContextTokens: limit}).Assemble(results)
		logger.WarnContext(ctx, "prompt over token budget, shrinking context",
			"prompt_tokens", tokens.Estimate(prompt),
			"context_token_limit", limit)
		prompt = renderPrompt(s.template, shrunk.Text, question, dateStr)
	}

	return prompt
}

// renderPrompt substitutes the date placeholder in the template, then fills
// the {context} and {question} slots in a single pass so substituted text is
// never rescanned.
func renderPrompt(template, contextText, question, dateStr string) string {
	withDate := strings.ReplaceAll(template, "DATE_PLACEHOLDER", dateStr)
	return strings.NewReplacer("{context}", contextText, "{question}", question).Replace(withDate)
}

// generate calls the language model with bounded retry.
func (s *answerService) generate(ctx context.Context, prompt string) (string, error) {
	logger := contextutil.LoggerFromContext(ctx)

	var lastErr error
	for attempt := 1; attempt <= generateAttempts; attempt++ {
		attemptCtx, cancel := context.WithTimeout(ctx, generateTimeout)
		text, err := s.generator.Generate(attemptCtx, prompt, llm.DefaultOptions())
		cancel()
		if err == nil {
			return text, nil
		}
		lastErr = err

		if attempt < generateAttempts {
			logger.WarnContext(ctx, "generation attempt failed, retrying",
				"attempt", attempt, "error", err)
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(retryDelay):
			}
		}
	}

	return "", lastErr
}

// extractionDate resolves the date stamped into answers from the most recent
// corpus extraction. Resolution is best-effort; failures fall back to today.
func (s *answerService) extractionDate(ctx context.Context) string {
	ts, err := s.dates.LatestExtractedAt(ctx)
	if err != nil {
		contextutil.LoggerFromContext(ctx).DebugContext(ctx, "no extraction date available, using today", "error", err)
		return time.Now().UTC().Format("2006-01-02")
	}
	return ts.Format("2006-01-02")
}

// describeGenerationFailure maps a generation error to its kind, the fixed
// user-facing message, and the diagnostic detail string.
func describeGenerationFailure(err error, model string) (llm.ErrorKind, string, string) {
	var genErr *llm.GenerationError
	if !errors.As(err, &genErr) {
		detail := err.Error()
		return llm.KindUnknown, "Error generating answer: " + truncateMessage(detail, 200), detail
	}

	detail := genErr.Message
	if genErr.Err != nil {
		detail = fmt.Sprintf("%s: %v", genErr.Message, genErr.Err)
	}

	switch genErr.Kind {
	case llm.KindRateLimited:
		return genErr.Kind, "API rate limit exceeded. Please try again later.", detail
	case llm.KindNotFound:
		return genErr.Kind, fmt.Sprintf("Model %s not found. Please check model availability.", model), detail
	case llm.KindUnauthorized:
		return genErr.Kind, "Invalid API key. Please check your GOOGLE_API_KEY.", detail
	case llm.KindForbidden:
		return genErr.Kind, "API access forbidden. Please check your API key permissions.", detail
	case llm.KindSafetyBlocked:
		return genErr.Kind, "Response was blocked by safety filters. Please rephrase your question.", detail
	default:
		return genErr.Kind, "Error generating answer: " + truncateMessage(detail, 200), detail
	}
}

func truncateMessage(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit])
}
