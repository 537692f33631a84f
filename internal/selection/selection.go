// Package selection resolves which candidate text each report section shows.
package selection

import (
	"maps"
	"slices"

	"github.com/rotisserie/eris"
)

// Chosen maps a section id to the text the operator picked.
type Chosen map[string]string

// Options maps a section id to its candidate texts.
type Options map[string][]string

// First returns the first candidate for id, or "".
func First(options Options, id string) string {
	if opts := options[id]; len(opts) > 0 {
		return opts[0]
	}
	return ""
}

// Picked returns the operator's choice for id and whether one was made.
func Picked(chosen Chosen, id string) (string, bool) {
	text, ok := chosen[id]
	return text, ok && text != ""
}

// Resolve returns the chosen text for id, falling back to the first option.
func Resolve(chosen Chosen, options Options, id string) string {
	if text, ok := Picked(chosen, id); ok {
		return text
	}
	return First(options, id)
}

// Choose returns a copy of chosen with id set to the option at index. The
// original map is left untouched.
func Choose(chosen Chosen, options Options, id string, index int) (Chosen, error) {
	opts, ok := options[id]
	if !ok {
		return nil, eris.Errorf("selection: unknown section %q", id)
	}
	if index < 0 || index >= len(opts) {
		return nil, eris.Errorf("selection: option %d out of range for section %q (%d options)", index, id, len(opts))
	}

	next := make(Chosen, len(chosen)+1)
	maps.Copy(next, chosen)
	next[id] = opts[index]
	return next, nil
}

// Index returns the position of the resolved text among the section's
// options, or -1 when the section has none.
func Index(chosen Chosen, options Options, id string) int {
	opts := options[id]
	if len(opts) == 0 {
		return -1
	}
	text := Resolve(chosen, options, id)
	if i := slices.Index(opts, text); i >= 0 {
		return i
	}
	return 0
}
