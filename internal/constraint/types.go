// internal/constraint/types.go
//
// Core type definitions for the constraint engine.
// Defines:
//   - Kind: which letter set an operation targets (excluded/included).
//   - Snapshot: a display/logging view of the current constraints.
//   - Sentinel errors returned by the engine and its input parsers.

package constraint

import (
	"errors"
	"fmt"
	"strings"
)

// Wildcard marks a position with no constraint.
const Wildcard = '.'

// Kind selects the letter set an operation applies to.
type Kind int

const (
	Excluded Kind = iota // letters known to be absent
	Included             // letters known to be present somewhere
)

func (k Kind) String() string {
	switch k {
	case Excluded:
		return "exclude"
	case Included:
		return "include"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// ParseKind accepts "exclude"/"excluded" and "include"/"included" in any case.
func ParseKind(s string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "exclude", "excluded":
		return Excluded, nil
	case "include", "included":
		return Included, nil
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidKind, s)
}

var (
	ErrInvalidPosition = errors.New("position out of range")
	ErrInvalidPattern  = errors.New("invalid pattern")
	ErrInvalidLetter   = errors.New("invalid letter")
	ErrInvalidKind     = errors.New("invalid letter set")
)

// Snapshot is a read-only view of the engine's constraints.
type Snapshot struct {
	Excluded string `json:"excluded"` // sorted
	Included string `json:"included"` // sorted
	Pattern  string `json:"pattern"`  // one rune per position, '.' = unknown
}
