package statushttp

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"tanteplot/internal/plot"
)

type staticReports struct {
	report *plot.Report
}

func (s staticReports) Latest() (plot.Report, bool) {
	if s.report == nil {
		return plot.Report{}, false
	}
	return *s.report, true
}

func get(t *testing.T, s *Server, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestNewServerRequiresReports(t *testing.T) {
	_, err := NewServer(ServerConfig{})
	assert.Error(t, err)
}

func TestHealthzAndLatest(t *testing.T) {
	s, err := NewServer(ServerConfig{Reports: staticReports{}})
	require.NoError(t, err)
	assert.Equal(t, ":9992", s.Addr())

	rec := get(t, s, "/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", gjson.Get(rec.Body.String(), "status").String())

	rec = get(t, s, "/api/runs/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s, err = NewServer(ServerConfig{Reports: staticReports{report: &plot.Report{
		RunID: "run-1",
		Targets: []plot.Result{
			{Plot: "account_data_graph", OutputPath: "a/account_data_1.png", Status: plot.StatusRendered},
			{Plot: "account_data_graph", OutputPath: "a/account_data_2.png", Status: plot.StatusExists},
		},
	}}})
	require.NoError(t, err)
	rec = get(t, s, "/api/runs/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	body := rec.Body.String()
	assert.Equal(t, "run-1", gjson.Get(body, "run_id").String())
	assert.EqualValues(t, 2, gjson.Get(body, "targets.#").Int())
	assert.Equal(t, "exists", gjson.Get(body, "targets.1.status").String())
}

func TestServePlots(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "runs"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs", "account_data_1.json"), []byte(`{"title":"x"}`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs", "account_data_1.csv"), []byte("date\n"), 0o644))

	s, err := NewServer(ServerConfig{Reports: staticReports{}, PlotsDir: dir})
	require.NoError(t, err)

	rec := get(t, s, "/plots/runs/account_data_1.json")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "x", gjson.Get(rec.Body.String(), "title").String())

	assert.Equal(t, http.StatusNotFound, get(t, s, "/plots/runs/account_data_1.csv").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/plots/runs/missing.png").Code)
	assert.Equal(t, http.StatusNotFound, get(t, s, "/plots/runs/").Code)
}
