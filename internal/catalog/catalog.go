// Package catalog turns raw card-list lines into stable product slugs and
// the candidate URLs probed by the scanner.
package catalog

import (
	"fmt"
	"strings"
)

// Set describes one expansion: display name, the code stamped into slugs,
// the catalog file on disk, and an optional URL path segment.
type Set struct {
	Name string
	Code string
	File string
	Path string
}

// Entry is one raw catalog row, kept with its provenance so malformed lines
// can be reported precisely.
type Entry struct {
	Set    Set
	Line   string
	LineNo int
}

// Card is a normalized catalog entry. Slug is the stable key used across
// runs; Number is the card's ordinal within its set.
type Card struct {
	Slug   string
	Name   string
	Number int
	Set    Set
}

// URL returns the bare product page for the card under base, with no
// version token.
func (c Card) URL(base string) string {
	return joinURL(base, c.Set.Path, c.Slug)
}

// VariantURL returns the version-n candidate page for the card under base.
// The token sits immediately before the trailing {CODE}{NNN} segment.
func (c Card) VariantURL(base string, n int) string {
	suffix := fmt.Sprintf("%s%03d", c.Set.Code, c.Number)
	stem := strings.TrimSuffix(c.Slug, "-"+suffix)
	return joinURL(base, c.Set.Path, fmt.Sprintf("%s-V%d-%s", stem, n, suffix))
}

// joinURL joins non-empty segments onto base with single slashes.
func joinURL(base string, segments ...string) string {
	out := strings.TrimRight(base, "/")
	for _, s := range segments {
		s = strings.Trim(s, "/")
		if s == "" {
			continue
		}
		out += "/" + s
	}
	return out
}
