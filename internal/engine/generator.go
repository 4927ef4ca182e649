package engine

import (
	"fmt"
	"strings"

	"github.com/rs/zerolog"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

// NewGenerator builds the configured generator backend: "openai" for
// chat-completion APIs, "local" for self-hosted inference servers that
// accept the full sampling parameter set.
func NewGenerator(cfg config.AIConfig, log zerolog.Logger) (interfaces.Generator, error) {
	switch strings.ToLower(cfg.Backend) {
	case "openai":
		return newOpenAIGenerator(cfg, log), nil
	case "local":
		return newLocalGenerator(cfg, log), nil
	default:
		return nil, fmt.Errorf("unknown generator backend: %q", cfg.Backend)
	}
}
