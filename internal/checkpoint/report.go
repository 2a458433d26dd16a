package checkpoint

import (
	"regexp"
	"sort"
	"strconv"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/catalog"
)

// ReportEntry is one card's row in the derived variant report: the alternate
// prints found for it, V1 excluded since every ok record has one.
type ReportEntry struct {
	Card       string   `json:"card"`
	Collection string   `json:"collection"`
	Variants   []string `json:"variants"`
}

var slugOrdinal = regexp.MustCompile(`(\d{3})$`)

// DeriveReport projects the ledger into the variant report. Only ok records
// with at least one variant beyond V1 appear. The scan order that produced
// the records is not recoverable from a bare mapping, so entries are ordered
// canonically instead: collections lexically, cards by ordinal within each
// collection, variants by ascending version. Pure function; re-running it on
// an unchanged ledger yields an identical report.
func DeriveReport(ledger Ledger) []ReportEntry {
	var entries []ReportEntry
	for slug, rec := range ledger {
		if rec.Status != StatusOK {
			continue
		}
		var extras []string
		for _, u := range rec.Variants {
			if v, ok := catalog.Version(u); ok && v >= 2 {
				extras = append(extras, u)
			}
		}
		if len(extras) == 0 {
			continue
		}
		sort.Slice(extras, func(i, j int) bool {
			vi, _ := catalog.Version(extras[i])
			vj, _ := catalog.Version(extras[j])
			return vi < vj
		})
		entries = append(entries, ReportEntry{
			Card:       slug,
			Collection: rec.Collection,
			Variants:   extras,
		})
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Collection != entries[j].Collection {
			return entries[i].Collection < entries[j].Collection
		}
		ni, nj := slugNumber(entries[i].Card), slugNumber(entries[j].Card)
		if ni != nj {
			return ni < nj
		}
		return entries[i].Card < entries[j].Card
	})
	return entries
}

// slugNumber extracts the card ordinal from the trailing digits of a slug.
// Slugs without one sort first.
func slugNumber(slug string) int {
	m := slugOrdinal.FindStringSubmatch(slug)
	if m == nil {
		return 0
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0
	}
	return n
}
