// internal/constraint/engine.go
//
// Constraint engine for a single hint session.
// Responsibilities:
//   - Hold the excluded/included letter sets and the per-position pattern.
//   - Filter the shared word store down to the words consistent with them.
//   - Cache the last result and refine it incrementally.
//
// Cache rules:
//   - Operations that can only shrink the match set (AddLetter, SetPosition
//     with a letter) keep the cache; the next Matches() filters the cached
//     words instead of the whole store.
//   - Operations that can grow the match set (RemoveLetter, ClearSet,
//     UnsetPosition, Reset) drop the cache. So do AddLetter when it moves a
//     letter between sets, and SetPosition when it lifts an exclusion or
//     overwrites a different fixed letter.
//
// An Engine is owned by one caller at a time and is not safe for concurrent use.

package constraint

import (
	"fmt"
	"slices"
	"strings"
	"unicode"

	"github.com/bits-and-blooms/bitset"

	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

// Engine filters a word store against the current constraints.
type Engine struct {
	store     *words.Store
	exclude   *bitset.BitSet // indexed by rune
	include   *bitset.BitSet // indexed by rune
	positions []rune         // Wildcard or a fixed letter, one per position

	matches []string // last result, valid only when cached is true
	cached  bool
}

// New constructs an engine over store with no constraints.
// The word length is taken from the store.
func New(store *words.Store) *Engine {
	e := &Engine{
		store:     store,
		exclude:   bitset.New(128),
		include:   bitset.New(128),
		positions: make([]rune, store.Length()),
	}
	e.Reset()
	return e
}

// Length reports the number of positions.
func (e *Engine) Length() int { return len(e.positions) }

// Reset clears every constraint and the cached result.
func (e *Engine) Reset() {
	e.exclude.ClearAll()
	e.include.ClearAll()
	for i := range e.positions {
		e.positions[i] = Wildcard
	}
	e.invalidate()
}

// AddLetter adds ch to the set named by kind and removes it from the other.
// Values that are not valid code points are ignored.
func (e *Engine) AddLetter(kind Kind, ch rune) {
	if !validRune(ch) {
		return
	}
	ch = unicode.ToLower(ch)
	this, other := e.sets(kind)
	if other.Test(uint(ch)) {
		e.invalidate()
	}
	other.Clear(uint(ch))
	this.Set(uint(ch))
}

// RemoveLetter removes ch from the set named by kind.
func (e *Engine) RemoveLetter(kind Kind, ch rune) {
	if !validRune(ch) {
		return
	}
	ch = unicode.ToLower(ch)
	this, _ := e.sets(kind)
	this.Clear(uint(ch))
	e.invalidate()
}

// ClearSet empties the set named by kind.
func (e *Engine) ClearSet(kind Kind) {
	this, _ := e.sets(kind)
	this.ClearAll()
	e.invalidate()
}

// ExcludedLetters returns the excluded letters in ascending order.
func (e *Engine) ExcludedLetters() []rune { return members(e.exclude) }

// IncludedLetters returns the included letters in ascending order.
func (e *Engine) IncludedLetters() []rune { return members(e.include) }

// SetPosition fixes position pos (1-based) to ch, or clears it if ch is Wildcard.
// A fixed letter is removed from both letter sets. State is unchanged on error.
func (e *Engine) SetPosition(pos int, ch rune) error {
	if pos < 1 || pos > len(e.positions) {
		return fmt.Errorf("%w: %d not in 1..%d", ErrInvalidPosition, pos, len(e.positions))
	}
	if !validRune(ch) {
		return fmt.Errorf("%w: %d is not a code point", ErrInvalidLetter, ch)
	}
	ch = unicode.ToLower(ch)
	prev := e.positions[pos-1]
	switch {
	case ch == Wildcard:
		e.invalidate()
	case e.exclude.Test(uint(ch)), prev != Wildcard && prev != ch:
		e.invalidate()
	}
	if ch != Wildcard {
		e.exclude.Clear(uint(ch))
		e.include.Clear(uint(ch))
	}
	e.positions[pos-1] = ch
	return nil
}

// UnsetPosition clears position pos (1-based).
func (e *Engine) UnsetPosition(pos int) error {
	return e.SetPosition(pos, Wildcard)
}

// Pattern renders the positions as a string, e.g. "p...e".
func (e *Engine) Pattern() string { return string(e.positions) }

// ApplyPattern sets every position from p, which must have exactly Length()
// runes; '.' leaves a position unconstrained. State is unchanged on error.
func (e *Engine) ApplyPattern(p string) error {
	rs := []rune(strings.ToLower(p))
	if len(rs) != len(e.positions) {
		return fmt.Errorf("%w: %q has %d letters, want %d", ErrInvalidPattern, p, len(rs), len(e.positions))
	}
	for _, r := range rs {
		if r != Wildcard && !unicode.IsLetter(r) {
			return fmt.Errorf("%w: %q contains %q", ErrInvalidPattern, p, r)
		}
	}
	for i, r := range rs {
		// Bounds are checked above.
		_ = e.SetPosition(i+1, r)
	}
	return nil
}

// Snapshot returns the current constraints for display.
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Excluded: string(e.ExcludedLetters()),
		Included: string(e.IncludedLetters()),
		Pattern:  e.Pattern(),
	}
}

// Matches returns the words consistent with the current constraints, in store order.
// The candidate pool is the cached result if one exists, else the whole store.
func (e *Engine) Matches() []string {
	pool := e.store.All()
	if e.cached {
		pool = e.matches
	}
	e.matches = e.filter(pool)
	e.cached = true
	return slices.Clone(e.matches)
}

// filter keeps the words in pool that pass the exclusion, inclusion and
// position checks, in that order.
func (e *Engine) filter(pool []string) []string {
	included := e.IncludedLetters()
	out := make([]string, 0, len(pool))
	for _, w := range pool {
		if e.hasExcluded(w) {
			continue
		}
		if !hasAll(w, included) {
			continue
		}
		if !e.fitsPositions(w) {
			continue
		}
		out = append(out, w)
	}
	return out
}

func (e *Engine) hasExcluded(w string) bool {
	for _, r := range w {
		if e.exclude.Test(uint(r)) {
			return true
		}
	}
	return false
}

// hasAll checks presence only; a letter seen once satisfies any count.
func hasAll(w string, letters []rune) bool {
	for _, r := range letters {
		if !strings.ContainsRune(w, r) {
			return false
		}
	}
	return true
}

func (e *Engine) fitsPositions(w string) bool {
	i := 0
	for _, r := range w {
		if i >= len(e.positions) {
			return false
		}
		if p := e.positions[i]; p != Wildcard && p != r {
			return false
		}
		i++
	}
	return true
}

func (e *Engine) invalidate() {
	e.matches = nil
	e.cached = false
}

func (e *Engine) sets(kind Kind) (this, other *bitset.BitSet) {
	if kind == Included {
		return e.include, e.exclude
	}
	return e.exclude, e.include
}

func members(b *bitset.BitSet) []rune {
	out := make([]rune, 0, b.Count())
	for i, ok := b.NextSet(0); ok; i, ok = b.NextSet(i + 1) {
		out = append(out, rune(i))
	}
	return out
}

// validRune reports whether ch can index a letter set.
func validRune(ch rune) bool { return ch >= 0 && ch <= unicode.MaxRune }
