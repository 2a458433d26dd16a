package catalog

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// LoadEntries reads one set's catalog file into raw entries, preserving file
// order. Blank lines and #-comments are skipped; everything else is handed
// back untouched for the caller to normalize.
func LoadEntries(set Set) ([]Entry, error) {
	f, err := os.Open(set.File)
	if err != nil {
		return nil, fmt.Errorf("open catalog %s: %w", set.File, err)
	}
	defer f.Close()

	var entries []Entry
	sc := bufio.NewScanner(f)
	lineNo := 0
	for sc.Scan() {
		lineNo++
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		entries = append(entries, Entry{Set: set, Line: line, LineNo: lineNo})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", set.File, err)
	}
	return entries, nil
}
