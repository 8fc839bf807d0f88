// Package geo exposes the wizard's country and city lists as JSON options for
// browser controls.
//
// The handlers respond to GET and HEAD only. Countries come back as
// {"data":[{"value":"FR","label":"France"}]}, cities for ?country=FR as
// {"data":[{"value":"Lyon","label":"Lyon"}]}. Both accept q and limit.
// Lookup failures answer 502 with the user-facing message in "error".
package geo
