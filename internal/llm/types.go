package llm

// Default generation settings, tuned for short factual answers.
const (
	DefaultTemperature     float32 = 0.1
	DefaultTopP            float32 = 0.8
	DefaultTopK            int     = 40
	DefaultMaxOutputTokens int     = 200
)

// GenerateOptions holds sampling parameters for a generation request.
// Zero-valued fields are replaced with the package defaults.
type GenerateOptions struct {
	// Temperature controls the randomness of the output.
	Temperature float32

	// TopP is the nucleus sampling probability mass.
	TopP float32

	// TopK limits sampling to the K most likely tokens.
	TopK int

	// MaxOutputTokens caps the length of the generated answer.
	MaxOutputTokens int
}

// DefaultOptions returns the standard options for factual answer generation.
func DefaultOptions() GenerateOptions {
	return GenerateOptions{
		Temperature:     DefaultTemperature,
		TopP:            DefaultTopP,
		TopK:            DefaultTopK,
		MaxOutputTokens: DefaultMaxOutputTokens,
	}
}

// withDefaults fills zero-valued fields with the package defaults.
func (o GenerateOptions) withDefaults() GenerateOptions {
	if o.Temperature == 0 {
		o.Temperature = DefaultTemperature
	}
	if o.TopP == 0 {
		o.TopP = DefaultTopP
	}
	if o.TopK == 0 {
		o.TopK = DefaultTopK
	}
	if o.MaxOutputTokens == 0 {
		o.MaxOutputTokens = DefaultMaxOutputTokens
	}
	return o
}
