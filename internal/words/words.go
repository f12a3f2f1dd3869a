// internal/words/words.go
//
// Word list management for the constraint engine.
//
// Responsibilities:
//   - Locate a word list among a prioritized list of candidate paths.
//   - Read it line by line, keeping only words of the configured length.
//   - Expose the loaded list as an immutable, ordered Store.
//
// Load behavior:
//   1. Probe each candidate path in order; the first one that exists wins.
//   2. If none exists → ErrNotFound.
//   3. If the chosen file cannot be opened or fully read → *IOError.
//
// Constraints:
//   • Line length is measured in characters (runes), not bytes.
//   • Lines that are not valid UTF-8 are skipped.
//   • Kept lines are lowercased; order of the source is preserved.
//   • A Store is never mutated after construction and may be shared freely.

package words

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"
	"unicode/utf8"
)

// DefaultPaths are the system dictionaries probed when nothing is configured.
var DefaultPaths = []string{
	"/usr/share/dict/words",
	"/usr/dict/words",
}

// ErrNotFound is returned by Load when none of the candidate paths exist.
var ErrNotFound = errors.New("words: unable to find a word database")

// IOError reports a word list that exists but could not be read.
type IOError struct {
	Path string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("words: read %s: %v", e.Path, e.Err)
}

func (e *IOError) Unwrap() error { return e.Err }

// Store is an ordered, immutable list of fixed-length lowercase words.
type Store struct {
	words  []string
	length int
}

// Load reads the first existing file in paths and keeps words of the given length.
func Load(paths []string, length int) (*Store, error) {
	path, err := find(paths)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer f.Close()

	s, err := Read(f, length)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return s, nil
}

// find returns the first candidate path that exists.
func find(paths []string) (string, error) {
	for _, p := range paths {
		if p == "" {
			continue
		}
		if _, err := os.Stat(p); err == nil {
			return p, nil
		}
	}
	return "", ErrNotFound
}

// Read builds a Store from one word per line.
// Lines whose character count differs from length are skipped, however long
// they are, and so are lines that are not valid UTF-8.
func Read(r io.Reader, length int) (*Store, error) {
	var out []string
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			line = strings.TrimSuffix(strings.TrimSuffix(line, "\n"), "\r")
			if w, ok := normalize(line, length); ok {
				out = append(out, w)
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
	}
	return build(out, length), nil
}

// New builds a Store from an in-memory list, applying the same filtering as Read.
func New(list []string, length int) *Store {
	out := make([]string, 0, len(list))
	for _, line := range list {
		if w, ok := normalize(line, length); ok {
			out = append(out, w)
		}
	}
	return build(out, length)
}

func build(list []string, length int) *Store {
	return &Store{words: list, length: length}
}

// normalize keeps a line only if it is valid UTF-8 with exactly length characters.
func normalize(line string, length int) (string, bool) {
	if !utf8.ValidString(line) || utf8.RuneCountInString(line) != length {
		return "", false
	}
	return strings.ToLower(line), true
}

// Words returns a copy of the stored words in source order.
func (s *Store) Words() []string { return slices.Clone(s.words) }

// Len reports the number of stored words.
func (s *Store) Len() int { return len(s.words) }

// Length reports the configured word length.
func (s *Store) Length() int { return s.length }

// All returns the backing slice without copying. Callers must not modify it.
func (s *Store) All() []string { return s.words }
