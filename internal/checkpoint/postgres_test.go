package checkpoint

import (
	"context"
	"errors"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestPostgresStoreRejectsBadTableName(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	_, err = NewPostgresStoreWithPool(mock, "card-records; DROP TABLE", zap.NewNop())
	require.Error(t, err)

	_, err = NewPostgresStoreWithPool(nil, "card_records", zap.NewNop())
	require.Error(t, err)
}

func TestPostgresStoreSaveUpsertsChangedKeys(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "card_records", zap.NewNop())
	require.NoError(t, err)

	ledger := Ledger{
		"pikachu-SVI007": {
			Status:     StatusOK,
			Variants:   []string{"https://x/pikachu-V1-SVI007", "https://x/pikachu-V2-SVI007"},
			Collection: "Scarlet & Violet",
		},
		"untouched-SVI001": {Status: StatusNoVariants},
	}

	mock.ExpectExec("INSERT INTO card_records").
		WithArgs(
			"pikachu-SVI007",
			"ok",
			"Scarlet & Violet",
			[]byte(`["https://x/pikachu-V1-SVI007","https://x/pikachu-V2-SVI007"]`),
		).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))

	require.NoError(t, store.Save(context.Background(), ledger, "pikachu-SVI007"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreSaveDeletesRemovedKey(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "card_records", zap.NewNop())
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM card_records WHERE slug").
		WithArgs("gone-SVI009").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))

	require.NoError(t, store.Save(context.Background(), Ledger{}, "gone-SVI009"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLoadBuildsLedger(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "card_records", zap.NewNop())
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"slug", "status", "collection", "variants"}).
		AddRow("pikachu-SVI007", "ok", "Scarlet & Violet", []byte(`["https://x/pikachu-V1-SVI007"]`)).
		AddRow("mewtwo-SVI012", "error", "Scarlet & Violet", []byte(`[]`))
	mock.ExpectQuery("SELECT slug, status, collection, variants FROM card_records").
		WillReturnRows(rows)

	ledger, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Len(t, ledger, 2)
	require.Equal(t, StatusOK, ledger["pikachu-SVI007"].Status)
	require.Equal(t, []string{"https://x/pikachu-V1-SVI007"}, ledger["pikachu-SVI007"].Variants)
	require.Equal(t, StatusError, ledger["mewtwo-SVI012"].Status)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreLoadFailureRecoversEmpty(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "card_records", zap.NewNop())
	require.NoError(t, err)

	mock.ExpectQuery("SELECT slug, status, collection, variants FROM card_records").
		WillReturnError(errors.New("connection refused"))

	ledger, err := store.Load(context.Background())
	require.NoError(t, err)
	require.Empty(t, ledger)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStoreWipe(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	store, err := NewPostgresStoreWithPool(mock, "card_records", zap.NewNop())
	require.NoError(t, err)

	mock.ExpectExec("DELETE FROM card_records").
		WillReturnResult(pgxmock.NewResult("DELETE", 3))

	require.NoError(t, store.Wipe(context.Background()))
	require.NoError(t, mock.ExpectationsWereMet())
}
