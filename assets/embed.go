package assets

import (
	"embed"
	"io/fs"
)

//go:embed words.txt
var wordsFS embed.FS

//go:embed sql/*.sql
var sqlFS embed.FS

// WordsFile is the name of the bundled fallback word list.
const WordsFile = "words.txt"

// OpenWords opens the bundled five-letter word list.
// The caller closes it.
func OpenWords() (fs.File, error) {
	return wordsFS.Open(WordsFile)
}

// Migrations returns the SQL migration files rooted at the migrations directory.
func Migrations() fs.FS {
	sub, err := fs.Sub(sqlFS, "sql")
	if err != nil {
		// "sql" is embedded above; Sub only fails on an invalid path.
		panic(err)
	}
	return sub
}
