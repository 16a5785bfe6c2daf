package types

// CompletionRequest is the payload sent across the model boundary, either as
// llama-server's /completion JSON body or mapped onto llama-cli arguments.
type CompletionRequest struct {
	// Required prompt text.
	// example: Write a haiku about the ocean.
	Prompt string `json:"prompt"`
	// Maximum number of new tokens to generate.
	// example: 128
	MaxTokens int `json:"n_predict,omitempty"`
	// Sampling temperature (higher = more random).
	// example: 0.7
	Temperature float64 `json:"temperature,omitempty"`
	// Nucleus sampling probability.
	// example: 0.9
	TopP float64 `json:"top_p,omitempty"`
	// Top-K sampling: limit candidates to top K tokens.
	// example: 40
	TopK int `json:"top_k,omitempty"`
	// Random seed for reproducibility; 0 or omitted lets the server choose.
	// example: 42
	Seed int64 `json:"seed,omitempty"`
	// Optional stop sequences.
	Stop []string `json:"stop,omitempty"`
}

// CompletionResponse is the parsed model output. Unknown fields from the
// external binary are ignored rather than treated as errors.
type CompletionResponse struct {
	// Generated text.
	Text string `json:"content"`
	// Number of tokens generated, when the server reports it.
	TokensPredicted int `json:"tokens_predicted,omitempty"`
	// Number of prompt tokens evaluated, when the server reports it.
	TokensEvaluated int `json:"tokens_evaluated,omitempty"`
	// How the call crossed the boundary: "server", "subprocess" or "inprocess".
	Method string `json:"-"`
}

// TokenizeRequest is llama-server's /tokenize payload.
type TokenizeRequest struct {
	Content string `json:"content"`
}

// TokenizeResponse is llama-server's /tokenize reply.
type TokenizeResponse struct {
	Tokens []int `json:"tokens"`
}

// GenerateRequest is the HTTP facade's POST /v1/generate body.
type GenerateRequest struct {
	Prompt      string  `json:"prompt"`
	MaxTokens   int     `json:"max_tokens,omitempty"`
	Temperature float64 `json:"temperature,omitempty"`
	TopP        float64 `json:"top_p,omitempty"`
	TopK        int     `json:"top_k,omitempty"`
}

// TokenizeAPIRequest is the HTTP facade's POST /v1/tokenize body.
type TokenizeAPIRequest struct {
	Text string `json:"text"`
	// count or tokenize; defaults to tokenize.
	Operation string `json:"operation,omitempty"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error"`
	// HTTP status code.
	// example: 400
	Code int `json:"code"`
}
