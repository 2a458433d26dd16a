package catalog

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	annotationPattern = regexp.MustCompile(`\([^)]*\)|\[[^\]]*\]`)
	disallowedRunes   = regexp.MustCompile(`[^a-z0-9-]+`)
	hyphenRuns        = regexp.MustCompile(`-{2,}`)
)

// ErrMalformedLine marks catalog lines the normalizer cannot turn into a
// card. Callers skip and log these rather than aborting the batch.
var ErrMalformedLine = errors.New("malformed catalog line")

// Normalize turns one raw catalog line into a Card with a deterministic
// slug. Lines look like "7 Pikachu" or "12 Mewtwo (Holo)": the first token
// is the card's ordinal within the set, the rest is its display name.
// Bracketed annotations are dropped, leftover punctuation removed, hyphens
// collapsed, and the set code plus zero-padded ordinal appended, so
// "12 Mewtwo (Holo)" under code SVI becomes "mewtwo-SVI012".
func Normalize(set Set, line string) (Card, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return Card{}, fmt.Errorf("%w: %q needs an ordinal and a name", ErrMalformedLine, line)
	}
	number, err := strconv.Atoi(fields[0])
	if err != nil || number < 1 || number > 999 {
		return Card{}, fmt.Errorf("%w: ordinal %q is not in 1..999", ErrMalformedLine, fields[0])
	}
	name := strings.Join(fields[1:], " ")

	cleaned := annotationPattern.ReplaceAllString(name, "")
	cleaned = strings.ToLower(cleaned)
	cleaned = strings.ReplaceAll(cleaned, " ", "-")
	cleaned = disallowedRunes.ReplaceAllString(cleaned, "")
	cleaned = hyphenRuns.ReplaceAllString(cleaned, "-")
	cleaned = strings.Trim(cleaned, "-")
	if cleaned == "" {
		return Card{}, fmt.Errorf("%w: %q leaves no usable name", ErrMalformedLine, line)
	}

	return Card{
		Slug:   fmt.Sprintf("%s-%s%03d", cleaned, set.Code, number),
		Name:   name,
		Number: number,
		Set:    set,
	}, nil
}
