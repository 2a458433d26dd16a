package report

import (
	"fmt"
	"io"
	"strings"

	"github.com/nao1215/markdown"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/catalog"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
)

// RenderSection builds the markdown block spliced into the README: one
// heading per collection in entry order, one bullet per card listing its
// alternate prints as version links. V1 is implicit and never rendered; the
// derivation already excluded it.
func RenderSection(entries []checkpoint.ReportEntry) string {
	md := markdown.NewMarkdown(io.Discard)
	md.H2("Cards with variant prints")
	md.PlainText("")

	if len(entries) == 0 {
		md.PlainText("No variant prints found yet.")
		return md.String()
	}

	collection := ""
	var bullets []string
	flush := func() {
		if len(bullets) == 0 {
			return
		}
		md.BulletList(bullets...)
		md.PlainText("")
		bullets = nil
	}
	for _, entry := range entries {
		if entry.Collection != collection {
			flush()
			collection = entry.Collection
			md.H3(collection)
			md.PlainText("")
		}
		bullets = append(bullets, cardBullet(entry))
	}
	flush()
	return md.String()
}

// cardBullet renders "slug: [V2](url) [V3](url)" for one entry.
func cardBullet(entry checkpoint.ReportEntry) string {
	links := make([]string, 0, len(entry.Variants))
	for _, u := range entry.Variants {
		label := "V?"
		if v, ok := catalog.Version(u); ok {
			label = fmt.Sprintf("V%d", v)
		}
		links = append(links, fmt.Sprintf("[%s](%s)", label, u))
	}
	return fmt.Sprintf("%s: %s", entry.Card, strings.Join(links, " "))
}
