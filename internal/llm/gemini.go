package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// GeminiClient is a client for the Gemini generateContent REST API.
type GeminiClient struct {
	BaseURL string
	APIKey  string
	Model   string
	client  *http.Client
}

// NewGeminiClient creates a new Gemini client bound to a single model.
func NewGeminiClient(baseURL, apiKey, model string) *GeminiClient {
	return &GeminiClient{
		BaseURL: baseURL,
		APIKey:  apiKey,
		Model:   model,
		client:  http.DefaultClient,
	}
}

// ModelName returns the model identifier this client is bound to.
func (c *GeminiClient) ModelName() string {
	return c.Model
}

// fallbackModels are tried in order when the configured model does not respond.
var fallbackModels = []string{
	"gemini-1.5-flash",
	"gemini-1.5-flash-latest",
	"gemini-1.5-flash-001",
	"gemini-1.5-pro",
	"gemini-pro",
}

// Part is a single text fragment in a content block.
type Part struct {
	Text string `json:"text"`
}

// Content is a role-tagged list of parts.
type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

// GenerationConfig carries the sampling parameters on the wire.
type GenerationConfig struct {
	Temperature     float32 `json:"temperature"`
	TopP            float32 `json:"topP"`
	TopK            int     `json:"topK"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

// GenerateRequest represents the request payload for content generation.
type GenerateRequest struct {
	Contents         []Content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

// Candidate represents a single candidate answer in the response.
type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

// PromptFeedback reports prompt-level safety screening.
type PromptFeedback struct {
	BlockReason string `json:"blockReason,omitempty"`
}

// GenerateResponse represents the response from the generation API.
type GenerateResponse struct {
	Candidates     []Candidate     `json:"candidates"`
	PromptFeedback *PromptFeedback `json:"promptFeedback,omitempty"`
}

// Generate sends a single generation request and returns the answer text.
// All failures are returned as *GenerationError with a classified kind.
func (c *GeminiClient) Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error) {
	opts = opts.withDefaults()

	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.BaseURL, c.Model, c.APIKey)

	payload := GenerateRequest{
		Contents: []Content{
			{
				Role:  "user",
				Parts: []Part{{Text: prompt}},
			},
		},
		GenerationConfig: GenerationConfig{
			Temperature:     opts.Temperature,
			TopP:            opts.TopP,
			TopK:            opts.TopK,
			MaxOutputTokens: opts.MaxOutputTokens,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", &GenerationError{Kind: KindUnknown, Message: "failed to marshal request", Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, "POST", url, bytes.NewBuffer(body))
	if err != nil {
		return "", &GenerationError{Kind: KindUnknown, Message: "failed to create request", Err: err}
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return "", &GenerationError{Kind: KindUnknown, Message: "failed to send request", Err: err}
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		return "", &GenerationError{
			Kind:    classifyError(resp.StatusCode, string(raw)),
			Message: fmt.Sprintf("bad status %d: %s", resp.StatusCode, string(raw)),
		}
	}

	var genResp GenerateResponse
	if err := json.NewDecoder(resp.Body).Decode(&genResp); err != nil {
		return "", &GenerationError{Kind: KindUnknown, Message: "failed to decode response", Err: err}
	}

	if genResp.PromptFeedback != nil && genResp.PromptFeedback.BlockReason != "" {
		return "", &GenerationError{
			Kind:    KindSafetyBlocked,
			Message: fmt.Sprintf("response blocked: %s", genResp.PromptFeedback.BlockReason),
		}
	}

	if len(genResp.Candidates) == 0 {
		return "", &GenerationError{Kind: KindEmpty, Message: "no candidates returned"}
	}

	candidate := genResp.Candidates[0]
	if candidate.FinishReason == "SAFETY" {
		return "", &GenerationError{Kind: KindSafetyBlocked, Message: "candidate blocked by safety filters"}
	}

	var sb strings.Builder
	for _, part := range candidate.Content.Parts {
		sb.WriteString(part.Text)
	}
	answer := strings.TrimSpace(sb.String())
	if answer == "" {
		return "", &GenerationError{Kind: KindEmpty, Message: "empty answer from model"}
	}

	return answer, nil
}

// ResolveModel tries the preferred model followed by the known fallbacks and
// returns a client bound to the first one that answers a probe request. The
// last probe error is reported when no candidate responds.
func ResolveModel(ctx context.Context, baseURL, apiKey, preferred string) (*GeminiClient, error) {
	candidates := make([]string, 0, len(fallbackModels)+1)
	if preferred != "" {
		candidates = append(candidates, preferred)
	}
	for _, model := range fallbackModels {
		if model != preferred {
			candidates = append(candidates, model)
		}
	}

	var lastErr error
	for _, model := range candidates {
		client := NewGeminiClient(baseURL, apiKey, model)
		if err := client.probe(ctx); err != nil {
			lastErr = err
			continue
		}
		return client, nil
	}

	return nil, fmt.Errorf("could not initialize any model (tried %s): %w", strings.Join(candidates, ", "), lastErr)
}

// probe sends a minimal generation request to verify the model responds.
// A well-formed empty answer still proves the model is reachable.
func (c *GeminiClient) probe(ctx context.Context) error {
	_, err := c.Generate(ctx, "test", GenerateOptions{MaxOutputTokens: 1})
	var genErr *GenerationError
	if errors.As(err, &genErr) && genErr.Kind == KindEmpty {
		return nil
	}
	return err
}
