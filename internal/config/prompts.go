package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultSystemPrompt is the answer prompt used when no prompts file
// overrides it. {context} and {question} are substituted at generation time;
// a DATE_PLACEHOLDER token, if present, is replaced with the extraction date.
const DefaultSystemPrompt = `You are a factual FAQ assistant for HDFC mutual fund schemes on Groww.

Rules:
- Answer ONLY factual queries (expense ratio, minimum SIP, exit load, NAV, tax implications)
- Keep answers ≤3 sentences
- Include source URL in every answer
- Add "Last updated from sources: [date]" at the end
- Refuse opinionated/portfolio questions
- No investment advice

Context: {context}
Question: {question}

Answer:`

// DefaultRefusalMessage is returned for non-factual questions when no
// prompts file overrides it.
const DefaultRefusalMessage = "I can only answer factual questions about HDFC mutual fund schemes (expense ratio, minimum SIP, exit load, NAV, tax implications). I cannot provide investment advice or answer portfolio-related questions."

// Prompts carries the externally configurable prompt texts.
type Prompts struct {
	SystemPrompt   string `yaml:"system_prompt"`
	RefusalMessage string `yaml:"refusal_message"`
}

// LoadPrompts reads prompt overrides from a YAML file. A missing file or an
// unset field falls back to the built-in defaults, so callers always get
// usable prompts.
func LoadPrompts(path string) (Prompts, error) {
	prompts := Prompts{
		SystemPrompt:   DefaultSystemPrompt,
		RefusalMessage: DefaultRefusalMessage,
	}

	raw, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return prompts, nil
	}
	if err != nil {
		return Prompts{}, fmt.Errorf("failed to read prompts config: %w", err)
	}

	var file Prompts
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return Prompts{}, fmt.Errorf("failed to parse prompts config: %w", err)
	}

	if strings.TrimSpace(file.SystemPrompt) != "" {
		prompts.SystemPrompt = file.SystemPrompt
	}
	if strings.TrimSpace(file.RefusalMessage) != "" {
		prompts.RefusalMessage = file.RefusalMessage
	}

	return prompts, nil
}
