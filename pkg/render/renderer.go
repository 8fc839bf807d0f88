// Package render turns the state of a wizard session into a Page and hands it
// to a named Renderer (HTML, JSON).
package render

import (
	"context"
)

// Renderer converts a Page into a byte representation.
type Renderer interface {
	Name() string
	ContentType() string
	Render(ctx context.Context, page Page, options RenderOptions) ([]byte, error)
}
