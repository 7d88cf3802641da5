// # internal/shared/util/util.go
package util

import (
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
)

// NormalizePatternPath cleans and normalizes paths for matcher/pattern usage.
func NormalizePatternPath(s string) string {
	trimmed := strings.TrimSpace(strings.ReplaceAll(s, "\\", "/"))
	clean := path.Clean(trimmed)
	if clean == "." {
		return ""
	}
	return strings.TrimPrefix(clean, "./")
}

// SortedStringKeys returns the map's keys in sorted order.
func SortedStringKeys[T any](m map[string]T) []string {
	keys := make([]string, 0, len(m))
	for key := range m {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// WriteFileWithDirs creates parent directories (0755) and writes the file with perm.
func WriteFileWithDirs(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, perm)
}

// SplitPatternList splits a comma-separated pattern list. Commas inside
// double quotes do not split; the quotes themselves are dropped. Empty
// tokens are skipped.
func SplitPatternList(value string) []string {
	if value == "" {
		return nil
	}
	var patterns []string
	var current strings.Builder
	inQuotes := false
	flush := func() {
		token := strings.TrimSpace(current.String())
		if token != "" {
			patterns = append(patterns, token)
		}
		current.Reset()
	}
	for _, ch := range value {
		switch {
		case ch == '"':
			inQuotes = !inQuotes
		case ch == ',' && !inQuotes:
			flush()
		default:
			current.WriteRune(ch)
		}
	}
	flush()
	return patterns
}
