package jsbundle

import (
	"context"

	"github.com/wippyai/jsbundle/compilation"
	"github.com/wippyai/jsbundle/graph"
)

// Bundle seals a linked graph and generates the code of every module
// included in each runtime.
func Bundle(ctx context.Context, g *graph.Graph, opts compilation.Options, options ...compilation.Option) (*compilation.Results, error) {
	c, err := compilation.New(g, opts, options...)
	if err != nil {
		return nil, err
	}
	if err := c.Seal(ctx); err != nil {
		return nil, err
	}
	return c.CodeGeneration(ctx)
}
