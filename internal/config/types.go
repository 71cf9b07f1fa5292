package config

import "strings"

// Config 是 tanteplot 的主配置载体，对应配置文件中的一个 section（默认 plot_result）。
type Config struct {
	App              AppConfig          `toml:"app"`
	EnergyGraph      EnergyGraphConfig  `toml:"energy_graph"`
	AccountDataGraph AccountGraphConfig `toml:"account_data_graph"`
}

type AppConfig struct {
	LogLevel   string `toml:"log_level"`
	LogPath    string `toml:"log_path"`
	Watch      bool   `toml:"watch"`
	HTTPAddr   string `toml:"http_addr"`
	DebounceMS int    `toml:"debounce_ms"`
}

// EnergyGraphConfig 控制独立的能量/温度曲线图。output_path 为空时不生成。
type EnergyGraphConfig struct {
	InputPath  string `toml:"input_path"`
	OutputPath string `toml:"output_path"`
}

// AccountGraphConfig 控制 account_data 系列图的发现与渲染。
type AccountGraphConfig struct {
	FontSize int     `toml:"font_size"`
	Height   int     `toml:"height"`
	Width    int     `toml:"width"`
	Scale    float64 `toml:"scale"`

	// LogPath 指向能量日志（state_i, temperature, energy）。
	LogPath          string `toml:"log_path"`
	SecurityDataPath string `toml:"security_data_path"`
	SecurityName     string `toml:"security_name"`
	// FXDataPath 与 SecurityNameInAccountCurrency 目前仅透传，价格序列已按账户货币计价。
	FXDataPath                    string `toml:"fx_data_path"`
	SecurityNameInAccountCurrency string `toml:"security_name_in_account_currency"`

	SearchDir            string `toml:"search_dir"`
	AccountDataPathRegex string `toml:"account_data_path_regex"`
	OperationsPathRegex  string `toml:"operations_path_regex"`
	OutputExtension      string `toml:"output_extension"`

	CompressedSize int `toml:"compressed_size"`
	PriceSMAPeriod int `toml:"price_sma_period"`
}

// Watching reports whether the file watcher should run after the first pass.
func (c *Config) Watching() bool {
	return c != nil && c.App.Watch
}

type keySet map[string]struct{}

func (k keySet) mark(path string) {
	path = strings.ToLower(strings.TrimSpace(path))
	if path == "" {
		return
	}
	k[path] = struct{}{}
}

func (k keySet) isSet(path string) bool {
	if len(k) == 0 {
		return false
	}
	_, ok := k[strings.ToLower(strings.TrimSpace(path))]
	return ok
}
