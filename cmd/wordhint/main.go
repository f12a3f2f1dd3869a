// Command wordhint prints dictionary words that fit the given constraints.
//
//	wordhint -include cr -exclude t -pattern '....e'
//	wordhint -i            # read constraint commands from stdin
//
// In -i mode each line is one command:
//
//	+cr      include c and r
//	-t       exclude t
//	3=a      fix position 3 (3=. clears it)
//	p...e    set the whole pattern
//	?        list matches
//	reset    clear everything
package main

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/robalobadob/wordle/apps/go-hints/assets"
	"github.com/robalobadob/wordle/apps/go-hints/internal/constraint"
	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

type options struct {
	files       []string
	length      int
	include     string
	exclude     string
	pattern     string
	interactive bool
}

func main() {
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	var o options
	files := flag.String("words", strings.Join(words.DefaultPaths, ","), "Comma-separated dictionary files, first existing one wins")
	flag.IntVar(&o.length, "length", 5, "Word length")
	flag.StringVar(&o.include, "include", "", "Letters that must appear")
	flag.StringVar(&o.exclude, "exclude", "", "Letters that must not appear")
	flag.StringVar(&o.pattern, "pattern", "", "Known positions, '.' for unknown")
	flag.BoolVar(&o.interactive, "i", false, "Read commands from stdin")
	flag.Parse()
	o.files = strings.Split(*files, ",")

	if err := run(o, os.Stdin, os.Stdout); err != nil {
		log.Fatal().Err(err).Msg("wordhint")
	}
}

func run(o options, in io.Reader, out io.Writer) error {
	ws, err := loadWords(o.files, o.length)
	if err != nil {
		return err
	}
	e := constraint.New(ws)

	if err := applyFlags(e, o); err != nil {
		return err
	}
	if !o.interactive {
		printMatches(out, e)
		return nil
	}
	return repl(e, in, out)
}

func loadWords(files []string, length int) (*words.Store, error) {
	ws, err := words.Load(files, length)
	if errors.Is(err, words.ErrNotFound) && length == 5 {
		log.Warn().Msg("no dictionary found, using bundled word list")
		f, err := assets.OpenWords()
		if err != nil {
			return nil, err
		}
		defer f.Close()
		return words.Read(f, length)
	}
	return ws, err
}

func applyFlags(e *constraint.Engine, o options) error {
	if o.pattern != "" {
		if err := e.ApplyPattern(o.pattern); err != nil {
			return err
		}
	}
	for _, set := range []struct {
		kind    constraint.Kind
		letters string
	}{{constraint.Included, o.include}, {constraint.Excluded, o.exclude}} {
		letters, err := constraint.ParseLetters(set.letters)
		if err != nil {
			return err
		}
		for _, c := range letters {
			e.AddLetter(set.kind, c)
		}
	}
	return nil
}

func printMatches(out io.Writer, e *constraint.Engine) {
	for _, w := range e.Matches() {
		fmt.Fprintln(out, w)
	}
}

func repl(e *constraint.Engine, in io.Reader, out io.Writer) error {
	sc := bufio.NewScanner(in)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if err := command(e, line, out); err != nil {
			fmt.Fprintln(out, "error:", err)
			continue
		}
		s := e.Snapshot()
		fmt.Fprintf(out, "%s  +%s -%s  (%d)\n", s.Pattern, s.Included, s.Excluded, len(e.Matches()))
	}
	return sc.Err()
}

func command(e *constraint.Engine, line string, out io.Writer) error {
	switch {
	case line == "?":
		printMatches(out, e)
		return nil
	case line == "reset":
		e.Reset()
		return nil
	case line[0] == '+' || line[0] == '-':
		kind := constraint.Included
		if line[0] == '-' {
			kind = constraint.Excluded
		}
		letters, err := constraint.ParseLetters(line[1:])
		if err != nil {
			return err
		}
		for _, c := range letters {
			e.AddLetter(kind, c)
		}
		return nil
	case strings.Contains(line, "="):
		p, l, _ := strings.Cut(line, "=")
		pos, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return fmt.Errorf("%w: %q", constraint.ErrInvalidPosition, p)
		}
		ch, err := constraint.ParsePosition(strings.TrimSpace(l))
		if err != nil {
			return err
		}
		return e.SetPosition(pos, ch)
	}
	return e.ApplyPattern(line)
}
