// Package model defines the wizard's record and the field descriptors that
// renderers consume. A FormRecord holds three sections (personal, location,
// payment) whose JSON shape is also the persisted shape: every field is a
// string and the zero value is the empty string, so a record is never
// partially undefined. Field descriptors carry the renderer-facing metadata
// (label, input type, placeholder, required flag) for each step's controls.
package model
