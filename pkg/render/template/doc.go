// Package template defines the template engine seam used by the HTML
// renderer. The pongo2 implementation lives in template/gotemplate.
package template
