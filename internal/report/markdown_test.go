package report

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/checkpoint"
)

func TestRenderSectionGroupsByCollection(t *testing.T) {
	t.Parallel()

	section := RenderSection([]checkpoint.ReportEntry{
		{
			Card:       "pikachu-SVI039",
			Collection: "Scarlet & Violet",
			Variants: []string{
				"https://cards.test/pikachu-V2-SVI039",
				"https://cards.test/pikachu-V4-SVI039",
			},
		},
		{
			Card:       "mewtwo-SVI079",
			Collection: "Scarlet & Violet",
			Variants:   []string{"https://cards.test/mewtwo-V3-SVI079"},
		},
		{
			Card:       "eevee-SWSH042",
			Collection: "Sword & Shield Promo",
			Variants:   []string{"https://cards.test/eevee-V2-SWSH042"},
		},
	})

	require.Contains(t, section, "## Cards with variant prints")
	require.Contains(t, section, "### Scarlet & Violet")
	require.Contains(t, section, "### Sword & Shield Promo")
	require.Contains(t, section,
		"- pikachu-SVI039: [V2](https://cards.test/pikachu-V2-SVI039) [V4](https://cards.test/pikachu-V4-SVI039)")
	require.Contains(t, section, "- mewtwo-SVI079: [V3](https://cards.test/mewtwo-V3-SVI079)")
	require.Contains(t, section, "- eevee-SWSH042: [V2](https://cards.test/eevee-V2-SWSH042)")

	// Collections render in entry order.
	require.Less(t,
		strings.Index(section, "### Scarlet & Violet"),
		strings.Index(section, "### Sword & Shield Promo"))
}

func TestRenderSectionEmptyReport(t *testing.T) {
	t.Parallel()

	section := RenderSection(nil)
	require.Contains(t, section, "## Cards with variant prints")
	require.Contains(t, section, "No variant prints found yet.")
}
