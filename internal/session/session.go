package session

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"inklore/server/internal/config"
	"inklore/server/internal/engine"
	"inklore/server/internal/filters"
	"inklore/server/internal/interfaces"
	"inklore/server/internal/storage"
	"inklore/server/internal/story"
)

// ErrNoAdventure is returned for operations that need a started game.
var ErrNoAdventure = errors.New("no adventure in progress")

// Session owns the one live story of an interactive run, together with the
// orchestrator and save store acting on it. Handlers call into the session
// from concurrent goroutines: the story/orchestrator pair is guarded by mu,
// and replacing it retires the previous orchestrator so a turn that raced
// the swap fails busy instead of landing in an orphaned story.
type Session struct {
	cfg      *config.Config
	gen      interfaces.Generator
	store    interfaces.SaveStore
	registry *filters.Registry
	display  interfaces.DisplayFilter
	log      zerolog.Logger

	mu    sync.RWMutex
	story *story.Story
	orch  *engine.Orchestrator

	// onUpdate is notified with the rendered transcript after every
	// recorded turn, edit or load.
	onUpdate func(rendered string)
}

// New wires a session from configuration. The filter chains and display
// filter are resolved from the registry by the keys the config names.
func New(cfg *config.Config, gen interfaces.Generator, store interfaces.SaveStore, registry *filters.Registry, log zerolog.Logger) (*Session, error) {
	display, err := registry.Display(cfg.Filters.Display)
	if err != nil {
		return nil, err
	}

	s := &Session{
		cfg:      cfg,
		gen:      gen,
		store:    store,
		registry: registry,
		display:  display,
		log:      log,
	}
	return s, nil
}

// SetUpdateHook installs the transcript broadcast callback.
func (s *Session) SetUpdateHook(hook func(rendered string)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.onUpdate = hook
}

// Active reports whether a game has been started or loaded.
func (s *Session) Active() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.story != nil
}

// Story returns the live story.
func (s *Session) Story() (*story.Story, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.story == nil {
		return nil, ErrNoAdventure
	}
	return s.story, nil
}

// current snapshots the live pair for one operation.
func (s *Session) current() (*story.Story, *engine.Orchestrator, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.story == nil {
		return nil, nil, ErrNoAdventure
	}
	return s.story, s.orch, nil
}

// install swaps in a fresh story. The previous orchestrator is retired
// first: a story with a turn still in flight cannot be replaced, and a
// submit that raced the swap fails busy on the retired orchestrator.
func (s *Session) install(st *story.Story, orch *engine.Orchestrator) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.orch != nil && !s.orch.Retire() {
		return engine.ErrBusy
	}
	s.story = st
	s.orch = orch
	return nil
}

// NewGame replaces the live story with a fresh one. When opening is
// non-empty it is submitted as the first action, so a new adventure starts
// with a generated scene.
func (s *Session) NewGame(ctx context.Context, name, storyContext, opening string) (string, error) {
	if name == "" {
		return "", fmt.Errorf("adventure name must not be empty")
	}

	st := story.New(name, storyContext)
	orch, err := s.buildOrchestrator(st)
	if err != nil {
		return "", err
	}
	if err := s.install(st, orch); err != nil {
		return "", err
	}
	s.log.Info().Str("name", name).Msg("new adventure started")

	if opening == "" {
		s.notify()
		return "", nil
	}
	return s.Send(ctx, opening)
}

// Send submits one action for generation and returns the recorded result.
func (s *Session) Send(ctx context.Context, text string) (string, error) {
	_, orch, err := s.current()
	if err != nil {
		return "", err
	}
	result, err := orch.Submit(ctx, text)
	if err != nil {
		return "", err
	}
	s.notify()
	return result, nil
}

// Busy reports whether a turn or edit is in flight.
func (s *Session) Busy() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.orch != nil && s.orch.Busy()
}

// Transcript returns the full transcript sequence for display.
func (s *Session) Transcript() ([]string, error) {
	st, _, err := s.current()
	if err != nil {
		return nil, err
	}
	return st.FullTranscript(), nil
}

// Rendered returns the transcript through the display filter.
func (s *Session) Rendered() (string, error) {
	entries, err := s.Transcript()
	if err != nil {
		return "", err
	}
	return s.display(entries), nil
}

// SaveGame persists the live story and returns its save key.
func (s *Session) SaveGame(ctx context.Context) (string, error) {
	st, _, err := s.current()
	if err != nil {
		return "", err
	}
	return s.persist(ctx, st)
}

// persist writes one story's snapshot under its derived key. It takes the
// story explicitly so the autosave hook keeps saving the story its turn
// recorded into, even across a concurrent swap.
func (s *Session) persist(ctx context.Context, st *story.Story) (string, error) {
	key := storage.SaveName(st.Name())
	if key == "" {
		return "", fmt.Errorf("adventure name %q yields an empty save key", st.Name())
	}
	if err := s.store.Save(ctx, key, st.Snapshot()); err != nil {
		return "", err
	}
	s.log.Info().Str("key", key).Msg("adventure saved")
	return key, nil
}

// LoadGame replaces the live story with a saved record.
func (s *Session) LoadGame(ctx context.Context, key string) error {
	rec, err := s.store.Load(ctx, key)
	if err != nil {
		return err
	}

	st := story.New(rec.Name, rec.Context)
	st.Restore(rec)
	orch, err := s.buildOrchestrator(st)
	if err != nil {
		return err
	}
	if err := s.install(st, orch); err != nil {
		return err
	}
	s.log.Info().Str("key", key).Int("turns", st.Turns()).Msg("adventure loaded")

	s.notify()
	return nil
}

// ListSaves enumerates stored save keys.
func (s *Session) ListSaves(ctx context.Context) ([]string, error) {
	return s.store.List(ctx)
}

func (s *Session) buildOrchestrator(st *story.Story) (*engine.Orchestrator, error) {
	input, err := s.registry.InputChain(s.cfg.Filters.Input)
	if err != nil {
		return nil, err
	}
	output, err := s.registry.OutputChain(s.cfg.Filters.Output)
	if err != nil {
		return nil, err
	}

	orch := engine.New(st, s.gen, engine.Config{
		MemoryWindow: s.cfg.AI.Memory,
		Timeout:      s.cfg.AI.Timeout,
		Params: interfaces.Params{
			MaxLength:         s.cfg.AI.MaxLength,
			BeamSearches:      s.cfg.AI.BeamSearches,
			Temperature:       s.cfg.AI.Temperature,
			TopK:              s.cfg.AI.TopK,
			TopP:              s.cfg.AI.TopP,
			RepetitionPenalty: s.cfg.AI.RepetitionPenalty,
		},
		Autosave: s.cfg.Game.Autosave,
	}, input, output, s.log)

	orch.SetSaveHook(func() {
		if _, err := s.persist(context.Background(), st); err != nil {
			s.log.Warn().Err(err).Msg("autosave failed")
		}
	})
	return orch, nil
}

func (s *Session) notify() {
	s.mu.RLock()
	hook := s.onUpdate
	st := s.story
	s.mu.RUnlock()

	if hook == nil || st == nil {
		return
	}
	hook(s.display(st.FullTranscript()))
}
