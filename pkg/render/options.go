package render

// RenderOptions carry per-request data that renderers use without touching
// the page itself.
type RenderOptions struct {
	// Theme and Variant pick the presentation tokens; empty means the
	// renderer default.
	Theme   string
	Variant string
	// Brand is operator supplied markup shown in the page header. Renderers
	// sanitize it before output.
	Brand string
	// BasePath prefixes every generated link and form action.
	BasePath string
}
