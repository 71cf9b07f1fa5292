package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, name, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

const minimalJSON = `{
  "plot_result": {
    "account_data_graph": {
      "log_path": "results/log.csv",
      "security_data_path": "data/security.csv",
      "account_data_path_regex": ".*/account_data_[0-9]+\\.csv",
      "operations_path_regex": ".*/operations_[0-9]+\\.csv",
      "output_extension": "png"
    }
  },
  "other": {"account_data_graph": {}}
}`

func TestLoadAppliesDefaults(t *testing.T) {
	cfg, err := Load(writeConfig(t, "config.json", minimalJSON), DefaultSection)
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.App.LogLevel)
	assert.Equal(t, 2000, cfg.App.DebounceMS)
	g := cfg.AccountDataGraph
	assert.Equal(t, 10, g.FontSize)
	assert.Equal(t, 1920, g.Width)
	assert.Equal(t, 1080, g.Height)
	assert.Equal(t, 1.0, g.Scale)
	assert.Equal(t, ".", g.SearchDir)
	assert.Equal(t, "security", g.SecurityName)
	assert.Equal(t, 1000, g.CompressedSize)
	assert.Equal(t, "png", g.OutputExtension)
	assert.Equal(t, "results/log.csv", g.LogPath)
	assert.False(t, cfg.Watching())
}

func TestLoadYAMLSection(t *testing.T) {
	body := `
plot_result:
  app:
    watch: true
    debounce_ms: 500
  energy_graph:
    input_path: log.csv
    output_path: energy.html
  account_data_graph:
    width: 800
    height: "600"
    scale: 2
    search_dir: results
    log_path: log.csv
    security_data_path: prices.csv
    account_data_path_regex: '.*/account_data_[0-9]+\.csv'
    operations_path_regex: '.*/operations_[0-9]+\.csv'
    output_extension: html
    price_sma_period: 20
`
	_, err := Load(writeConfig(t, "config.yaml", body), DefaultSection)
	require.Error(t, err, "height must be an integer per schema")

	body = `
plot_result:
  app:
    watch: true
    debounce_ms: 500
  energy_graph:
    input_path: log.csv
    output_path: energy.html
  account_data_graph:
    width: 800
    height: 600
    scale: 2
    search_dir: results
    log_path: log.csv
    security_data_path: prices.csv
    account_data_path_regex: '.*/account_data_[0-9]+\.csv'
    operations_path_regex: '.*/operations_[0-9]+\.csv'
    output_extension: html
    price_sma_period: 20
`
	cfg, err := Load(writeConfig(t, "config.yaml", body), DefaultSection)
	require.NoError(t, err)
	assert.True(t, cfg.Watching())
	assert.Equal(t, 500, cfg.App.DebounceMS)
	assert.Equal(t, "energy.html", cfg.EnergyGraph.OutputPath)
	assert.Equal(t, 800, cfg.AccountDataGraph.Width)
	assert.Equal(t, 2.0, cfg.AccountDataGraph.Scale)
	assert.Equal(t, "results", cfg.AccountDataGraph.SearchDir)
	assert.Equal(t, 20, cfg.AccountDataGraph.PriceSMAPeriod)
}

func TestLoadSectionErrors(t *testing.T) {
	path := writeConfig(t, "config.json", minimalJSON)

	_, err := Load(path, "missing_section")
	assert.ErrorContains(t, err, "not found")

	_, err = Load(path, "other")
	assert.ErrorContains(t, err, "schema")

	_, err = Load(writeConfig(t, "bad.json", "{not json"), DefaultSection)
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "absent.json"), DefaultSection)
	assert.Error(t, err)

	_, err = Load("", DefaultSection)
	assert.Error(t, err)
}

func TestLoadRejectsUnknownExtension(t *testing.T) {
	body := `{"plot_result": {"account_data_graph": {
      "log_path": "l", "security_data_path": "s",
      "account_data_path_regex": "a", "operations_path_regex": "o",
      "output_extension": "svg"}}}`
	_, err := Load(writeConfig(t, "config.json", body), DefaultSection)
	assert.ErrorContains(t, err, "schema")
}

func TestValidate(t *testing.T) {
	base := func() *Config {
		return &Config{AccountDataGraph: AccountGraphConfig{
			SearchDir:            ".",
			AccountDataPathRegex: ".*",
			OperationsPathRegex:  ".*",
			CompressedSize:       10,
		}}
	}
	assert.NoError(t, validate(base()))

	c := base()
	c.AccountDataGraph.AccountDataPathRegex = "("
	assert.Error(t, validate(c))

	c = base()
	c.AccountDataGraph.PriceSMAPeriod = -1
	assert.Error(t, validate(c))

	c = base()
	c.EnergyGraph.OutputPath = "energy.png"
	assert.ErrorContains(t, validate(c), "input_path")

	c = base()
	c.App.Watch = true
	c.AccountDataGraph.SearchDir = ""
	assert.Error(t, validate(c))
}

func TestRepositoryConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "configs", "config.json"), DefaultSection)
	require.NoError(t, err)
	assert.Equal(t, "results", cfg.AccountDataGraph.SearchDir)
	assert.Equal(t, "png", cfg.AccountDataGraph.OutputExtension)
}
