package config

import (
	"fmt"
	"os"
	"strings"
)

// Store is a string key/value property store. Get returns "" for unset keys.
type Store interface {
	Get(key string) string
}

// Map is a Store backed by a plain map, e.g. the properties: block of the config file.
type Map map[string]string

func (m Map) Get(key string) string { return m[key] }

// Env reads properties from the process environment.
type Env struct{}

func (Env) Get(key string) string { return os.Getenv(key) }

// FileRef resolves KEY through a KEY_FILE entry in Base, reading the
// trimmed content of the referenced file.
type FileRef struct {
	Base Store
}

func (f FileRef) Get(key string) string {
	path := f.Base.Get(key + "_FILE")
	if path == "" {
		return ""
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(data))
}

// Layered returns the first non-empty value among its stores.
type Layered []Store

func (l Layered) Get(key string) string {
	for _, s := range l {
		if v := s.Get(key); v != "" {
			return v
		}
	}
	return ""
}

// Require returns the value of key or an error wrapping ErrMissing.
func Require(s Store, key string) (string, error) {
	v := strings.TrimSpace(s.Get(key))
	if v == "" {
		return "", fmt.Errorf("%s: %w", key, ErrMissing)
	}
	return v, nil
}

// SanitizeToken strips whitespace, zero-width spaces and byte order marks
// around a pasted token, then at most one quote character at each end.
func SanitizeToken(raw string) string {
	t := strings.Trim(raw, " \t\r\n\u200b\ufeff")
	if t != "" && strings.ContainsAny(t[:1], `"'`) {
		t = t[1:]
	}
	if t != "" && strings.ContainsAny(t[len(t)-1:], `"'`) {
		t = t[:len(t)-1]
	}
	return t
}
