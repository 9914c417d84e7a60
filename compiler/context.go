package compiler

import (
	"github.com/rs/zerolog"
)

// compilation is shared by every Compiler working on one tree.
type compilation struct {
	cfg      *config
	log      zerolog.Logger
	captures *captureAnalysis

	// Function ordinals are assigned in emission order, so the same tree
	// always yields the same numbering.
	nextFunctionID int
}

func newCompilation(cfg *config, captures *captureAnalysis) *compilation {
	return &compilation{
		cfg:      cfg,
		log:      cfg.logger.With().Str("component", "compiler").Logger(),
		captures: captures,
	}
}

func (c *compilation) newFunctionID() int {
	id := c.nextFunctionID
	c.nextFunctionID++
	return id
}
