package report

import (
	"fmt"
	"os"
	"strings"
)

// Marker lines bounding the README block the renderer owns. Everything
// between them is replaced on splice; everything outside is left alone.
const (
	MarkerStart = "<!-- cardvariants:start -->"
	MarkerEnd   = "<!-- cardvariants:end -->"
)

// SpliceReadme replaces the marked block in the document at path with
// section. Both markers must be present, start before end; otherwise the
// document is left untouched and an error is returned.
func SpliceReadme(path, section string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	content := string(raw)

	start := strings.Index(content, MarkerStart)
	end := strings.Index(content, MarkerEnd)
	switch {
	case start < 0 || end < 0:
		return fmt.Errorf("%s: variant report markers not found", path)
	case end < start:
		return fmt.Errorf("%s: variant report markers out of order", path)
	}

	var b strings.Builder
	b.WriteString(content[:start+len(MarkerStart)])
	b.WriteString("\n")
	b.WriteString(strings.TrimRight(section, "\n"))
	b.WriteString("\n")
	b.WriteString(content[end:])

	if err := os.WriteFile(path, []byte(b.String()), 0o600); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}
