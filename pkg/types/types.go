package types

// Status classifies the outcome of a brick or chain invocation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// Input is the free-form payload handed to a brick. Keys are brick-specific;
// bricks document the keys they read.
type Input map[string]any

// String returns the string value under key, or "" when absent or not a string.
func (in Input) String(key string) string {
	if in == nil {
		return ""
	}
	if v, ok := in[key].(string); ok {
		return v
	}
	return ""
}

// Int returns the int value under key. JSON decoding produces float64, so both
// numeric forms are accepted.
func (in Input) Int(key string) (int, bool) {
	if in == nil {
		return 0, false
	}
	switch v := in[key].(type) {
	case int:
		return v, true
	case float64:
		return int(v), true
	}
	return 0, false
}

// Float returns the float value under key.
func (in Input) Float(key string) (float64, bool) {
	if in == nil {
		return 0, false
	}
	switch v := in[key].(type) {
	case float64:
		return v, true
	case int:
		return float64(v), true
	}
	return 0, false
}

// Clone returns a shallow copy so chains can augment inputs between bricks
// without mutating the caller's map.
func (in Input) Clone() Input {
	out := make(Input, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

// Result is the structured outcome of one brick invocation.
type Result struct {
	// Name of the brick that produced this result.
	Brick string `json:"brick"`
	// success or error.
	Status Status `json:"status"`
	// Brick-specific payload keys (text, tokens, count, config, ...).
	Data map[string]any `json:"data,omitempty"`
	// Error message when Status is error.
	Error string `json:"error,omitempty"`
}

// ChainState is the lifecycle state of a chain. Terminal states are final.
type ChainState string

const (
	ChainPending   ChainState = "pending"
	ChainRunning   ChainState = "running"
	ChainCompleted ChainState = "completed"
	ChainFailed    ChainState = "failed"
)

// ChainResult aggregates per-brick results for one chain run.
type ChainResult struct {
	Chain string `json:"chain"`
	// completed or failed.
	State ChainState `json:"state"`
	// Per-brick results in execution (Pipeline) or insertion (ParallelChain)
	// order. For a failed Pipeline this holds exactly the bricks that ran.
	Results []Result `json:"results"`
	// First failure for Pipeline/ConditionalChain; aggregate message for a
	// fully failed ParallelChain.
	Error string `json:"error,omitempty"`
}

// ResultFor returns the result recorded for the named brick.
func (cr ChainResult) ResultFor(brick string) (Result, bool) {
	for _, r := range cr.Results {
		if r.Brick == brick {
			return r, true
		}
	}
	return Result{}, false
}
