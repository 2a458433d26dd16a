package api

import (
	"bufio"
	"context"
	"encoding/json"
	"net"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/metrics"
	"github.com/FedeDC512/pokemon-cardvariant-finder/internal/progress/sinks"
)

func TestServer_Healthz(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ok")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestServer_Readyz(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/readyz", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "ready")
}

func TestServer_Progress_ReturnsSnapshot(t *testing.T) {
	t.Parallel()

	source := &fakeSource{snap: sinks.Snapshot{
		RunID:         "5f3c7d0e-aaaa-bbbb-cccc-0123456789ab",
		Running:       true,
		ItemsOK:       3,
		ItemsNoVar:    1,
		VariantsFound: 7,
		LastSlug:      "pikachu-TST039",
		LastStatus:    "ok",
	}}
	server := newTestServer(source)

	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var got sinks.Snapshot
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	require.True(t, got.Running)
	require.Equal(t, int64(3), got.ItemsOK)
	require.Equal(t, int64(7), got.VariantsFound)
	require.Equal(t, "pikachu-TST039", got.LastSlug)
}

func TestServer_Progress_NoSource(t *testing.T) {
	t.Parallel()

	server := newTestServer(nil)
	req := httptest.NewRequest(http.MethodGet, "/progress", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	require.Contains(t, rec.Body.String(), "progress source unavailable")
}

func TestServer_Metrics_Exposition(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), "cardscan_variants_found_total")
}

func TestServer_UnknownRoute(t *testing.T) {
	t.Parallel()

	server := newTestServer(&fakeSource{})
	req := httptest.NewRequest(http.MethodGet, "/nope", nil)
	rec := httptest.NewRecorder()

	server.Handler().ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
}

func TestServer_RecoverMiddleware(t *testing.T) {
	t.Parallel()

	s := &Server{logger: zap.NewNop()}
	h := s.recoverMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.Contains(t, rec.Body.String(), "internal server error")
}

func TestServer_Start_StopsOnContextCancel(t *testing.T) {
	t.Parallel()
	metrics.Init()

	server := NewServer(0, &fakeSource{}, zap.NewNop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- server.Start(ctx)
	}()
	cancel()

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("status server did not stop after cancel")
	}
}

func TestResponseWriterHijackBehavior(t *testing.T) {
	t.Parallel()

	rw := &responseWriter{ResponseWriter: httptest.NewRecorder()}
	_, _, err := rw.Hijack()
	require.EqualError(t, err, "hijacker not supported")

	h := &hijackableRecorder{ResponseRecorder: httptest.NewRecorder()}
	rw = &responseWriter{ResponseWriter: h}
	conn, buf, err := rw.Hijack()
	require.NoError(t, err)
	require.NotNil(t, buf)
	require.NoError(t, conn.Close())
	require.NoError(t, h.client.Close())
}

// --- helpers/fakes ---

type fakeSource struct {
	snap sinks.Snapshot
}

func (f *fakeSource) Snapshot() sinks.Snapshot {
	return f.snap
}

type hijackableRecorder struct {
	*httptest.ResponseRecorder
	client net.Conn
}

func (h *hijackableRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	server, client := net.Pipe()
	h.client = client
	return server, bufio.NewReadWriter(bufio.NewReader(client), bufio.NewWriter(client)), nil
}

func newTestServer(source ProgressSource) *Server {
	metrics.Init()
	return NewServer(8080, source, zap.NewNop())
}
