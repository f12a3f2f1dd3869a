// internal/httpserver/ops.go
//
// Engine operations as data.
// REST handlers and the WebSocket channel both translate requests into an op
// and run it through apply, so input validation and activity logging happen
// in one place.

package httpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-hints/internal/activity"
	"github.com/robalobadob/wordle/apps/go-hints/internal/constraint"
	"github.com/robalobadob/wordle/apps/go-hints/internal/store"
)

// op is one engine operation.
//
//	add      Kind, Letters (Replace clears the set first)
//	remove   Kind, Letters
//	clear    Kind
//	set      Pos, Letter
//	unset    Pos
//	pattern  Pattern
//	reset
//	matches
//	state
type op struct {
	Op      string `json:"op"`
	Kind    string `json:"kind,omitempty"`
	Letters string `json:"letters,omitempty"`
	Replace bool   `json:"replace,omitempty"`
	Pos     int    `json:"pos,omitempty"`
	Letter  string `json:"letter,omitempty"`
	Pattern string `json:"pattern,omitempty"`
}

// stateRes is returned after every operation.
type stateRes struct {
	Snapshot constraint.Snapshot `json:"snapshot"`
	Count    *int                `json:"count,omitempty"`
	Words    []string            `json:"words,omitempty"`
}

var errUnknownOp = errors.New("unknown op")

// isBadInput reports whether err is the caller's fault.
func isBadInput(err error) bool {
	return errors.Is(err, constraint.ErrInvalidPosition) ||
		errors.Is(err, constraint.ErrInvalidPattern) ||
		errors.Is(err, constraint.ErrInvalidLetter) ||
		errors.Is(err, constraint.ErrInvalidKind) ||
		errors.Is(err, errUnknownOp)
}

// run applies o to the session's engine and logs it.
func (s *Server) run(ctx context.Context, sess *store.Session, o op) (stateRes, error) {
	var res stateRes
	err := sess.Do(func(e *constraint.Engine) error {
		withMatches, err := apply(e, o)
		if err != nil {
			return err
		}
		res.Snapshot = e.Snapshot()
		if withMatches {
			m := e.Matches()
			n := len(m)
			res.Count, res.Words = &n, m
		}
		return nil
	})
	if err != nil {
		return res, err
	}

	count := -1
	if res.Count != nil {
		count = *res.Count
	}
	s.record(ctx, activity.Entry{SessionID: sess.ID, Op: o.Op, Detail: o.detail(), MatchCount: count})
	return res, nil
}

// apply runs o against e and reports whether the caller should receive matches.
func apply(e *constraint.Engine, o op) (bool, error) {
	switch o.Op {
	case "add", "remove":
		kind, err := constraint.ParseKind(o.Kind)
		if err != nil {
			return false, err
		}
		letters, err := constraint.ParseLetters(o.Letters)
		if err != nil {
			return false, err
		}
		if o.Op == "remove" {
			for _, c := range letters {
				e.RemoveLetter(kind, c)
			}
			return true, nil
		}
		if o.Replace {
			e.ClearSet(kind)
		}
		for _, c := range letters {
			e.AddLetter(kind, c)
		}
		return true, nil

	case "clear":
		kind, err := constraint.ParseKind(o.Kind)
		if err != nil {
			return false, err
		}
		e.ClearSet(kind)
		return true, nil

	case "set", "unset":
		ch := rune(constraint.Wildcard)
		if o.Op == "set" {
			var err error
			if ch, err = constraint.ParsePosition(o.Letter); err != nil {
				return false, err
			}
		}
		return true, e.SetPosition(o.Pos, ch)

	case "pattern":
		return true, e.ApplyPattern(o.Pattern)

	case "reset":
		e.Reset()
		return false, nil

	case "matches":
		return true, nil

	case "state":
		return false, nil
	}
	return false, fmt.Errorf("%w: %q", errUnknownOp, o.Op)
}

// detail is a short human-readable description for the activity log.
func (o op) detail() string {
	var parts []string
	if o.Kind != "" {
		parts = append(parts, o.Kind)
	}
	if o.Letters != "" {
		parts = append(parts, o.Letters)
	}
	if o.Pos != 0 {
		parts = append(parts, fmt.Sprintf("%d=%s", o.Pos, o.Letter))
	}
	if o.Pattern != "" {
		parts = append(parts, o.Pattern)
	}
	return strings.Join(parts, " ")
}

// record writes to the activity log if one is configured (best effort).
func (s *Server) record(ctx context.Context, e activity.Entry) {
	if s.activity == nil {
		return
	}
	if err := s.activity.Record(ctx, e); err != nil {
		log.Warn().Err(err).Str("session", e.SessionID).Msg("record activity")
	}
}
