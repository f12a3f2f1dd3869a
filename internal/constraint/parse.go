package constraint

import "fmt"

// ParseLetters reads letters typed into a text entry.
// ASCII letters are kept (lowercased, in input order), ',' and ' ' separate
// them, and anything else is rejected.
func ParseLetters(s string) ([]rune, error) {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		switch {
		case r >= 'a' && r <= 'z':
			out = append(out, r)
		case r >= 'A' && r <= 'Z':
			out = append(out, r+('a'-'A'))
		case r == ',' || r == ' ':
		default:
			return nil, fmt.Errorf("%w: %q", ErrInvalidLetter, r)
		}
	}
	return out, nil
}

// ParsePosition reads a single position letter. An empty string or "."
// means Wildcard.
func ParsePosition(s string) (rune, error) {
	rs := []rune(s)
	switch {
	case len(rs) == 0:
		return Wildcard, nil
	case len(rs) > 1:
		return 0, fmt.Errorf("%w: %q is not a single letter", ErrInvalidLetter, s)
	case rs[0] == Wildcard:
		return Wildcard, nil
	}
	letters, err := ParseLetters(s)
	if err != nil || len(letters) != 1 {
		return 0, fmt.Errorf("%w: %q", ErrInvalidLetter, s)
	}
	return letters[0], nil
}
