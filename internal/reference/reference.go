// Package reference resolves `@id` tokens in a Function node's expression
// against the node's actual incoming connections.
//
// Validity is derived from connectivity on every call: a token `@X` is valid
// iff an edge X -> owner exists. Nothing is cached between calls.
package reference

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/vk/flowcalc/internal/graphstore"
)

// Sigil marks a reference token.
const Sigil = "@"

// wordRegex matches a reference token or a bare identifier run.
var wordRegex = regexp.MustCompile(`@?[A-Za-z0-9_]+`)

// Resolution is the outcome of resolving one expression.
type Resolution struct {
	// Expression is the normalized text handed to the evaluator: valid tokens
	// rewritten to bare ids, invalid tokens and bare connected ids deleted.
	Expression string
	// Valid lists referenced ids backed by an incoming edge, in first-use order.
	Valid []string
	// Invalid lists referenced ids with no backing edge, in first-use order.
	Invalid []string
	// Stripped lists bare connected ids removed from the text.
	Stripped []string
}

// Err reports every invalid token as ErrInvalidReference, or nil.
func (r Resolution) Err() error {
	if len(r.Invalid) == 0 {
		return nil
	}
	errs := make([]error, 0, len(r.Invalid))
	for _, id := range r.Invalid {
		errs = append(errs, fmt.Errorf("%s%s: %w", Sigil, id, graphstore.ErrInvalidReference))
	}
	return errors.Join(errs...)
}

// Uses reports whether id is in the valid-reference set.
func (r Resolution) Uses(id string) bool {
	return slices.Contains(r.Valid, id)
}

// Resolve classifies the tokens of text against incomers and returns the
// normalized expression.
func Resolve(text string, incomers []string) Resolution {
	connected := make(map[string]struct{}, len(incomers))
	for _, id := range incomers {
		connected[id] = struct{}{}
	}

	var res Resolution
	res.Expression = wordRegex.ReplaceAllStringFunc(text, func(word string) string {
		if id, ok := strings.CutPrefix(word, Sigil); ok {
			if _, valid := connected[id]; valid {
				res.Valid = appendUnique(res.Valid, id)
				return id
			}
			res.Invalid = appendUnique(res.Invalid, id)
			return ""
		}
		if _, clash := connected[word]; clash {
			res.Stripped = appendUnique(res.Stripped, word)
			return ""
		}
		return word
	})
	return res
}

// Tokens returns the ids referenced in text, in first-use order, regardless
// of connectivity.
func Tokens(text string) []string {
	var ids []string
	for _, word := range wordRegex.FindAllString(text, -1) {
		if id, ok := strings.CutPrefix(word, Sigil); ok {
			ids = appendUnique(ids, id)
		}
	}
	return ids
}

// Candidates returns the ids offered for autocompletion: the current incomers.
func Candidates(incomers []string) []string {
	out := make([]string, 0, len(incomers))
	for _, id := range incomers {
		out = appendUnique(out, id)
	}
	return out
}

func appendUnique(list []string, id string) []string {
	if slices.Contains(list, id) {
		return list
	}
	return append(list, id)
}
