package app

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"

	"tanteplot/internal/config"
	"tanteplot/internal/plot"
	"tanteplot/internal/render"
	"tanteplot/internal/simlog"
)

func writeFixture(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		"runs/operations_4.csv": "# state: 4\n# max_open_positions: 1\n# n_assets: 1\n" +
			"sim_seq_id,position_i,type,fraction,sim_skipped,dt,sim_pos_value,sim_pos_total_gain,sim_pos_total_cost\n" +
			"1,0,OP_BUY_ALL,,,2020-01-01,100,0,100\n" +
			"2,0,OP_SKIP,,SIM_SKIPPED,2020-01-02,,,\n" +
			"1,0,OP_SELL_ALL,,,2020-01-03,0,0,100\n",
		"runs/account_data_4.csv": "# state_i: 4\n# n_states: 9\n# energy: 2.5\n" +
			"date,total_value,total_fees,cash\n2020-01-01,100,0,0\n2020-01-03,0,1,99\n",
		"prices.csv": "Date,Close\n2020-01-01,10\n2020-01-02,11\n2020-01-03,9\n",
		"log.csv":    "state_i,temperature,energy\n0,1,5\n4,0.5,2.5\n",
	}
	for name, body := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

func fixtureConfig(dir string) *config.Config {
	return &config.Config{
		App: config.AppConfig{LogLevel: "info"},
		EnergyGraph: config.EnergyGraphConfig{
			InputPath:  filepath.Join(dir, "log.csv"),
			OutputPath: filepath.Join(dir, "energy.json"),
		},
		AccountDataGraph: config.AccountGraphConfig{
			FontSize: 10, Width: 1200, Height: 800, Scale: 1,
			LogPath:              filepath.Join(dir, "log.csv"),
			SecurityDataPath:     filepath.Join(dir, "prices.csv"),
			SecurityName:         "ACME",
			SearchDir:            dir,
			AccountDataPathRegex: `.*/account_data_[0-9]+\.csv`,
			OperationsPathRegex:  `.*/operations_[0-9]+\.csv`,
			OutputExtension:      "json",
			CompressedSize:       1000,
		},
	}
}

func TestAppOneShotRun(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	var out bytes.Buffer
	a, err := NewAppBuilder(fixtureConfig(dir), WithRenderer(render.New()), WithOutput(&out)).Build(context.Background())
	require.NoError(t, err)

	require.NoError(t, a.Run(context.Background()))

	raw, err := os.ReadFile(filepath.Join(dir, "runs", "account_data_4.json"))
	require.NoError(t, err)
	doc := gjson.ParseBytes(raw)
	assert.Equal(t, "gen: 4/9, fitness: 2.5", doc.Get("title").String())
	assert.EqualValues(t, 5, doc.Get("panels.#").Int(), "one position panel, profit, trades, total, energy")
	assert.Equal(t, "ACME", doc.Get("panels.2.traces.0.name").String())
	assert.Equal(t, "#f87171", doc.Get("panels.2.traces.1.color").String(), "10 -> 9 is a losing trade")
	assert.FileExists(t, filepath.Join(dir, "energy.json"))

	latest, ok := a.Pipeline().Latest()
	require.True(t, ok)
	require.Len(t, latest.Targets, 1)
	assert.Equal(t, plot.StatusRendered, latest.Targets[0].Status)
	assert.Contains(t, out.String(), "STARTUP SUMMARY")
	assert.Contains(t, out.String(), "rendered=1 exists=0 missing=0")

	out.Reset()
	require.NoError(t, a.Run(context.Background()))
	assert.Contains(t, out.String(), "rendered=0 exists=1 missing=0")
}

func TestAppRunFailsOnInconsistentLogs(t *testing.T) {
	dir := t.TempDir()
	writeFixture(t, dir)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "runs", "account_data_4.csv"),
		[]byte("# state_i: 5\n# n_states: 9\n# energy: 2.5\ndate,total_value,total_fees,cash\n2020-01-01,100,0,0\n"), 0o644))

	var out bytes.Buffer
	a, err := NewAppBuilder(fixtureConfig(dir), WithRenderer(render.New()), WithOutput(&out)).Build(context.Background())
	require.NoError(t, err)
	err = a.Run(context.Background())
	assert.ErrorIs(t, err, simlog.ErrConsistency)
	assert.Contains(t, out.String(), "error:")
	assert.NoFileExists(t, filepath.Join(dir, "runs", "account_data_4.json"))
}

func TestBuildWithWatchAndHTTP(t *testing.T) {
	dir := t.TempDir()
	cfg := fixtureConfig(dir)
	cfg.App.Watch = true
	cfg.App.HTTPAddr = "127.0.0.1:0"
	a, err := NewAppBuilder(cfg).Build(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, a.watcher)
	assert.NotNil(t, a.statusHTTP)

	cfg.AccountDataGraph.AccountDataPathRegex = "("
	_, err = NewAppBuilder(cfg).Build(context.Background())
	assert.Error(t, err)
}

func TestNewAppRejectsNilConfig(t *testing.T) {
	_, err := NewApp(nil)
	assert.Error(t, err)
}
