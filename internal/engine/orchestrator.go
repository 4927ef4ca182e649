package engine

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.uber.org/atomic"

	"inklore/server/internal/filters"
	"inklore/server/internal/interfaces"
	"inklore/server/internal/story"
)

var (
	// ErrBusy is returned when a submit arrives while another turn or edit
	// is still in flight on the same story.
	ErrBusy = errors.New("a turn is already in flight")
	// ErrGenerationTimeout is returned when the generator exceeds the
	// configured wall-clock bound.
	ErrGenerationTimeout = errors.New("generation timed out")
	// ErrGeneration is returned when the generator fails for any other
	// reason.
	ErrGeneration = errors.New("generation failed")
)

// unboundedTimeout stands in for "no timeout" so every generation runs under
// the same deadline mechanism.
const unboundedTimeout = 7 * 24 * time.Hour

// Config holds the orchestrator's generation settings.
type Config struct {
	// MemoryWindow is the prompt window in interleaved entries; <= 0 means
	// the whole story.
	MemoryWindow int
	// Timeout is the generation bound in seconds; <= 0 means effectively
	// unbounded.
	Timeout float64
	// Params are passed to the generator on every request.
	Params interfaces.Params
	// Autosave triggers the save hook after every recorded turn and edit.
	Autosave bool
}

// Orchestrator drives one story's turns: it filters input, builds the
// windowed prompt, runs the generator under a deadline and records the
// outcome. A failed generation leaves the story exactly as it was; the
// submitted action is held here, never pre-appended. At most one turn or
// edit runs at a time, enforced by a single in-flight guard.
type Orchestrator struct {
	story *story.Story
	gen   interfaces.Generator
	cfg   Config
	log   zerolog.Logger

	input  []interfaces.Filter
	output []interfaces.Filter

	inFlight *atomic.Bool
	saveHook func()
}

// New creates an orchestrator for a story.
func New(st *story.Story, gen interfaces.Generator, cfg Config, input, output []interfaces.Filter, log zerolog.Logger) *Orchestrator {
	return &Orchestrator{
		story:    st,
		gen:      gen,
		cfg:      cfg,
		log:      log,
		input:    input,
		output:   output,
		inFlight: atomic.NewBool(false),
	}
}

// SetSaveHook installs the autosave callback, invoked after every recorded
// turn and applied edit when autosave is enabled.
func (o *Orchestrator) SetSaveHook(hook func()) {
	o.saveHook = hook
}

// Busy reports whether a turn or edit is currently in flight.
func (o *Orchestrator) Busy() bool {
	return o.inFlight.Load()
}

// Retire permanently claims the in-flight guard so no further turn or edit
// can start on this orchestrator. It fails while a turn is still in flight.
// The owner retires the old orchestrator before swapping in a new story, so
// a submit racing the swap fails busy instead of mutating the old story.
func (o *Orchestrator) Retire() bool {
	return o.inFlight.CompareAndSwap(false, true)
}

// Submit runs one generation turn: raw input through the input filter chain,
// the windowed prompt to the generator, the raw result through the output
// filter chain, and the completed pair into the story. Returns the recorded
// result text.
func (o *Orchestrator) Submit(ctx context.Context, raw string) (string, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer o.inFlight.Store(false)

	action := filters.Apply(o.input, raw)
	prompt := o.buildPrompt(action)

	timeout := time.Duration(o.cfg.Timeout * float64(time.Second))
	if o.cfg.Timeout <= 0 {
		timeout = unboundedTimeout
	}
	genCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	out, err := o.gen.Generate(genCtx, prompt, o.cfg.Params)
	if err != nil {
		// Classify on the error itself: a deadline that elapsed while an
		// unrelated failure was being returned is still a generation error.
		if errors.Is(err, context.DeadlineExceeded) {
			o.log.Warn().Dur("elapsed", time.Since(start)).Msg("generation timed out")
			return "", fmt.Errorf("%w after %v", ErrGenerationTimeout, timeout)
		}
		o.log.Error().Err(err).Msg("generation failed")
		return "", fmt.Errorf("%w: %v", ErrGeneration, err)
	}

	result := filters.Apply(o.output, out)
	o.story.AppendTurn(action, result)
	o.log.Info().
		Dur("elapsed", time.Since(start)).
		Int("turns", o.story.Turns()).
		Msg("turn recorded")

	o.autosave()
	return result, nil
}

// SubmitEdit writes an edited value back into the story without touching the
// generator. The edited text passes the same input filter chain as typed
// input; the output chain is not applied since there is no generation step.
// Returns the text as recorded.
func (o *Orchestrator) SubmitEdit(field story.Field, index int, raw string) (string, error) {
	if !o.inFlight.CompareAndSwap(false, true) {
		return "", ErrBusy
	}
	defer o.inFlight.Store(false)

	value := filters.Apply(o.input, raw)
	if err := o.story.SetField(field, index, value); err != nil {
		return "", err
	}
	o.log.Info().Str("field", string(field)).Int("index", index).Msg("edit applied")

	o.autosave()
	return value, nil
}

// buildPrompt assembles the generator prompt: the windowed transcript view
// with the pending action appended.
func (o *Orchestrator) buildPrompt(action string) string {
	end := o.story.StoryLen()
	window := o.cfg.MemoryWindow
	if window <= 0 || window > end {
		window = end
	}

	parts := o.story.WindowedPrompt(end-window, end)
	prompt := strings.Join(parts, " ")
	if action != "" {
		prompt += " " + action
	}
	return prompt
}

func (o *Orchestrator) autosave() {
	if o.cfg.Autosave && o.saveHook != nil {
		o.saveHook()
	}
}
