package diagnostics

import (
	"bytes"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/csbrady-warwick/h5vfs/internal/archive"
	"github.com/csbrady-warwick/h5vfs/internal/logging"
	"github.com/csbrady-warwick/h5vfs/internal/pathresolver"
	"github.com/csbrady-warwick/h5vfs/internal/vfs"
)

func testDashboard(t *testing.T, out io.Writer) *Dashboard {
	t.Helper()

	path := filepath.Join(t.TempDir(), "archive.h5")

	c, err := archive.Create(path, 1700000000)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	r := pathresolver.New(c, pathresolver.Options{})
	rbuf := logging.NewRingBuffer(10, out)
	fsys := vfs.New(c, r, "/mnt/h5vfs", rbuf)

	dash, err := New(fsys, rbuf, "gotests")
	require.NoError(t, err)

	return dash
}

func Test_New_NilFilesystem_Error(t *testing.T) {
	_, err := New(nil, logging.NewRingBuffer(1, io.Discard), "v")
	require.Error(t, err)
}

func Test_New_NilRingBuffer_Error(t *testing.T) {
	path := filepath.Join(t.TempDir(), "archive.h5")
	c, err := archive.Create(path, 1700000000)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() })

	r := pathresolver.New(c, pathresolver.Options{})
	fsys := vfs.New(c, r, "/mnt/h5vfs", logging.NewRingBuffer(1, io.Discard))

	_, err = New(fsys, nil, "v")
	require.Error(t, err)
}

func Test_Serve_Success(t *testing.T) {
	t.Parallel()
	dash := testDashboard(t, io.Discard)

	srv := dash.Serve("127.0.0.1:0")
	require.NotNil(t, srv)
	require.NotEmpty(t, srv.Addr)

	defer srv.Close()
}

func Test_dashboardMux_Success(t *testing.T) {
	t.Parallel()
	dash := testDashboard(t, io.Discard)

	router := dash.dashboardMux()

	testCases := []struct {
		path   string
		method string
	}{
		{"/", http.MethodGet},
		{"/metrics.json", http.MethodGet},
		{"/reset-metrics", http.MethodPost},
	}

	for _, tc := range testCases {
		req := httptest.NewRequest(tc.method, tc.path, nil)
		w := httptest.NewRecorder()

		router.ServeHTTP(w, req)

		require.NotEqual(t, http.StatusNotFound, w.Code, "route %s should exist", tc.path)
	}
}

func Test_dashboardHandler_Success(t *testing.T) {
	t.Parallel()
	dash := testDashboard(t, io.Discard)

	dash.version = "test-version"
	dash.rbuf.Println("test log entry")
	dash.fsys.Metrics.OpenFiles.Store(5)
	dash.fsys.Metrics.TotalOpens.Store(100)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()

	dash.dashboardHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)

	body := w.Body.String()
	require.Contains(t, body, "test-version")
	require.Contains(t, body, "test log entry")
	require.Contains(t, body, "100")
}

func Test_metricsHandler_Success(t *testing.T) {
	t.Parallel()
	dash := testDashboard(t, io.Discard)

	dash.version = "test-metrics-version"
	dash.fsys.Metrics.RawOffsetReads.Store(3)
	dash.fsys.Metrics.FullDecodeReads.Store(1)

	req := httptest.NewRequest(http.MethodGet, "/metrics.json", nil)
	w := httptest.NewRecorder()

	dash.metricsHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	body := w.Body.String()
	require.Contains(t, body, "test-metrics-version")
	require.Contains(t, body, "75.00%")
}

func Test_resetMetricsHandler_Success(t *testing.T) {
	t.Parallel()
	buf := &bytes.Buffer{}
	dash := testDashboard(t, buf)

	dash.fsys.Metrics.TotalOpens.Store(10)
	dash.fsys.Metrics.TotalReleases.Store(9)
	dash.fsys.Metrics.RawOffsetReads.Store(5)
	dash.fsys.Metrics.FullDecodeReads.Store(1)

	req := httptest.NewRequest(http.MethodPost, "/reset-metrics", nil)
	w := httptest.NewRecorder()

	dash.resetMetricsHandler(w, req)

	resp := w.Result()
	defer resp.Body.Close()

	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/plain; charset=utf-8", resp.Header.Get("Content-Type"))
	require.Contains(t, w.Body.String(), "Metrics reset")

	require.Zero(t, dash.fsys.Metrics.TotalOpens.Load())
	require.Zero(t, dash.fsys.Metrics.TotalReleases.Load())
	require.Zero(t, dash.fsys.Metrics.RawOffsetReads.Load())
	require.Zero(t, dash.fsys.Metrics.FullDecodeReads.Load())

	logs := dash.rbuf.Lines()
	require.NotEmpty(t, logs)
}

func Test_rawOffsetRatio(t *testing.T) {
	require.Equal(t, "0.00%", rawOffsetRatio(0, 0))
	require.Equal(t, "100.00%", rawOffsetRatio(4, 0))
	require.Equal(t, "50.00%", rawOffsetRatio(1, 1))
}
