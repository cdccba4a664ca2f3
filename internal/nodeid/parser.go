// internal/nodeid/parser.go
package nodeid

import (
	"fmt"
	"regexp"
	"strconv"
)

// addressRegex splits `<prefix>_<seq>`; the prefix may itself contain underscores.
var addressRegex = regexp.MustCompile(`^([A-Za-z0-9_]+?)_(\d+)$`)

// identifierRegex is the alphabet of ids usable in `@id` reference tokens.
var identifierRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)

// Valid reports whether id can be referenced from an expression.
func Valid(id string) bool {
	return identifierRegex.MatchString(id)
}

// Validate returns a descriptive error when id is not a usable identifier.
func Validate(id string) error {
	if id == "" {
		return fmt.Errorf("identifier cannot be empty")
	}
	if !Valid(id) {
		return fmt.Errorf("invalid identifier %q: only letters, digits and underscore are allowed", id)
	}
	return nil
}

// Parse creates a new Address by parsing its canonical string representation.
func Parse(rawID string) (*Address, error) {
	if err := Validate(rawID); err != nil {
		return nil, err
	}

	matches := addressRegex.FindStringSubmatch(rawID)
	if matches == nil {
		return nil, fmt.Errorf("identifier %q has no sequence suffix", rawID)
	}

	seq, err := strconv.Atoi(matches[2])
	if err != nil {
		return nil, fmt.Errorf("invalid sequence in %q: %w", rawID, err)
	}
	if seq < 1 {
		return nil, fmt.Errorf("sequence in %q must be positive", rawID)
	}
	return New(matches[1], seq), nil
}
