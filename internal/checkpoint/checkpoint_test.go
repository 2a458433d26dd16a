package checkpoint

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLedgerSkip(t *testing.T) {
	t.Parallel()

	ledger := Ledger{
		"pikachu-SVI007": {Status: StatusOK, Variants: []string{"https://x/pikachu-V1-SVI007"}},
		"mewtwo-SVI012":  {Status: StatusError},
	}

	require.True(t, ledger.Skip("pikachu-SVI007", false))
	require.True(t, ledger.Skip("mewtwo-SVI012", false))
	require.False(t, ledger.Skip("charizard-SVI004", false))

	// retry-errors keeps error records eligible, nothing else.
	require.True(t, ledger.Skip("pikachu-SVI007", true))
	require.False(t, ledger.Skip("mewtwo-SVI012", true))
	require.False(t, ledger.Skip("charizard-SVI004", true))
}

func TestLedgerSlugsSorted(t *testing.T) {
	t.Parallel()

	ledger := Ledger{
		"c-SVI003": {Status: StatusOK},
		"a-SVI001": {Status: StatusOK},
		"b-SVI002": {Status: StatusError},
	}
	require.Equal(t, []string{"a-SVI001", "b-SVI002", "c-SVI003"}, ledger.Slugs())
}

func TestRecordEqual(t *testing.T) {
	t.Parallel()

	base := Record{
		Status:     StatusOK,
		Variants:   []string{"https://x/p-V1-SVI007", "https://x/p-V2-SVI007"},
		Collection: "Scarlet & Violet",
	}

	same := Record{
		Status:     StatusOK,
		Variants:   []string{"https://x/p-V1-SVI007", "https://x/p-V2-SVI007"},
		Collection: "Scarlet & Violet",
	}
	require.True(t, base.Equal(same))

	differentOrder := same
	differentOrder.Variants = []string{"https://x/p-V2-SVI007", "https://x/p-V1-SVI007"}
	require.False(t, base.Equal(differentOrder))

	extraVariant := same
	extraVariant.Variants = append([]string{}, same.Variants...)
	extraVariant.Variants = append(extraVariant.Variants, "https://x/p-V3-SVI007")
	require.False(t, base.Equal(extraVariant))

	otherStatus := same
	otherStatus.Status = StatusError
	require.False(t, base.Equal(otherStatus))
}
