// internal/config/config.go
//
// Runtime configuration for the hint server.
// Values come from the process environment; a local .env file (if present)
// is loaded first via godotenv and never overrides variables already set.
//
// Environment variables:
//   PORT=5175
//   LOG_LEVEL=info                  zerolog level name
//   LOG_FORMAT=json                 json | console
//   WORD_LENGTH=5
//   WORDS_FILES=/usr/share/dict/words,/usr/dict/words
//   WORDS_EMBEDDED_FALLBACK=true    use the bundled list when no file exists
//   DB_PATH=./data/hints.db         "off" disables the activity log
//   SESSION_SECRET=...              session token signing secret
//   SESSION_TTL=2h                  idle sessions are dropped after this
//   CLIENT_ORIGIN=http://localhost:5173
//   NODE_ENV=production             secure cookies

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"github.com/robalobadob/wordle/apps/go-hints/internal/words"
)

// DevSecret is used when SESSION_SECRET is unset.
const DevSecret = "dev_secret_change_me"

// Config holds every setting the server reads at startup.
type Config struct {
	Port             string
	LogLevel         string
	LogFormat        string
	WordLength       int
	WordFiles        []string
	EmbeddedFallback bool
	DBPath           string
	SessionSecret    string
	SessionTTL       time.Duration
	ClientOrigin     string
	Production       bool
}

// Load reads .env (if present) and the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()
	return FromEnv(os.Getenv)
}

// FromEnv builds a Config from a lookup function (os.Getenv in production).
func FromEnv(getenv func(string) string) (*Config, error) {
	get := func(k, def string) string {
		if v := getenv(k); v != "" {
			return v
		}
		return def
	}

	c := &Config{
		Port:          get("PORT", "5175"),
		LogLevel:      get("LOG_LEVEL", "info"),
		LogFormat:     get("LOG_FORMAT", "json"),
		DBPath:        get("DB_PATH", "./data/hints.db"),
		SessionSecret: get("SESSION_SECRET", DevSecret),
		ClientOrigin:  get("CLIENT_ORIGIN", "http://localhost:5173"),
		Production:    getenv("NODE_ENV") == "production",
		WordFiles:     splitList(get("WORDS_FILES", strings.Join(words.DefaultPaths, ","))),
	}
	if c.DBPath == "off" {
		c.DBPath = ""
	}

	var err error
	if c.WordLength, err = strconv.Atoi(get("WORD_LENGTH", "5")); err != nil || c.WordLength < 1 {
		return nil, fmt.Errorf("config: WORD_LENGTH must be a positive integer, got %q", getenv("WORD_LENGTH"))
	}
	if c.EmbeddedFallback, err = strconv.ParseBool(get("WORDS_EMBEDDED_FALLBACK", "true")); err != nil {
		return nil, fmt.Errorf("config: WORDS_EMBEDDED_FALLBACK: %w", err)
	}
	if c.SessionTTL, err = time.ParseDuration(get("SESSION_TTL", "2h")); err != nil {
		return nil, fmt.Errorf("config: SESSION_TTL: %w", err)
	}
	if c.Production && c.SessionSecret == DevSecret {
		return nil, fmt.Errorf("config: SESSION_SECRET must be set in production")
	}
	return c, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
