package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dict(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "words")
	require.NoError(t, os.WriteFile(p, []byte("crane\ntrace\ngrape\nplane\nplace\nabsolutely\n"), 0o644))
	return p
}

func TestRun_Flags(t *testing.T) {
	var out bytes.Buffer
	err := run(options{files: []string{dict(t)}, length: 5, include: "c,r", exclude: "t"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "crane\n", out.String())

	out.Reset()
	err = run(options{files: []string{dict(t)}, length: 5, pattern: "p...e"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "plane\nplace\n", out.String())
}

func TestRun_BadFlags(t *testing.T) {
	err := run(options{files: []string{dict(t)}, length: 5, include: "c1"}, nil, &bytes.Buffer{})
	assert.Error(t, err)

	err = run(options{files: []string{dict(t)}, length: 5, pattern: "p.e"}, nil, &bytes.Buffer{})
	assert.Error(t, err)
}

func TestRun_BundledFallback(t *testing.T) {
	var out bytes.Buffer
	err := run(options{files: []string{filepath.Join(t.TempDir(), "missing")}, length: 5, pattern: "crane"}, nil, &out)
	require.NoError(t, err)
	assert.Equal(t, "crane\n", out.String())
}

func TestRun_Interactive(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"+cr",
		"-t",
		"?",
		"reset",
		"1=p",
		"9=x",
		"5=e",
		"?",
	}, "\n"))
	var out bytes.Buffer
	err := run(options{files: []string{dict(t)}, length: 5, interactive: true}, in, &out)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out.String()), "\n")
	assert.Equal(t, []string{
		".....  +cr -  (2)",
		".....  +cr -t  (1)",
		"crane",
		".....  +cr -t  (1)",
		".....  + -  (5)",
		"p....  + -  (2)",
		"error: position out of range: 9 not in 1..5",
		"p...e  + -  (2)",
		"plane",
		"place",
		"p...e  + -  (2)",
	}, lines)
}
