package interfaces

import "context"

// Params carries the generation parameters that are handed to the text
// generator for every request. They come straight from configuration.
type Params struct {
	MaxLength         int     `json:"max_length"`
	BeamSearches      int     `json:"beam_searches"`
	Temperature       float64 `json:"temperature"`
	TopK              int     `json:"top_k"`
	TopP              float64 `json:"top_p"`
	RepetitionPenalty float64 `json:"repetition_penalty"`
}

// Generator produces a story continuation for a prompt. Implementations must
// honor ctx cancellation; the orchestrator enforces the wall-clock deadline
// through ctx, the generator itself is not assumed to self-limit.
type Generator interface {
	Generate(ctx context.Context, prompt string, params Params) (string, error)
}
