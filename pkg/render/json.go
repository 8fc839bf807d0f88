package render

import (
	"context"
	"encoding/json"
	"fmt"
)

// JSONName is the registry name of the JSON renderer.
const JSONName = "json"

// JSONRenderer writes the page as indented JSON.
type JSONRenderer struct{}

var _ Renderer = JSONRenderer{}

func (JSONRenderer) Name() string        { return JSONName }
func (JSONRenderer) ContentType() string { return "application/json" }

func (JSONRenderer) Render(_ context.Context, page Page, _ RenderOptions) ([]byte, error) {
	out, err := json.MarshalIndent(page, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render: encode page: %w", err)
	}
	return append(out, '\n'), nil
}
