package config

import "strings"

// 默认值常量
const (
	defaultAppLogLevel     = "info"
	defaultAppDebounceMS   = 2000
	defaultFontSize        = 10
	defaultWidth           = 1920
	defaultHeight          = 1080
	defaultScale           = 1.0
	defaultSearchDir       = "."
	defaultSecurityName    = "security"
	defaultCompressedSize  = 1000
	defaultOutputExtension = "png"
)

// applyDefaults 为所有子配置应用默认值。
func (c *Config) applyDefaults(keys keySet) {
	c.App.applyDefaults(keys)
	c.AccountDataGraph.applyDefaults(keys)
}

func (a *AppConfig) applyDefaults(keys keySet) {
	if a == nil {
		return
	}
	applyFieldDefaults(keys,
		stringFieldDefault("app.log_level", &a.LogLevel, defaultAppLogLevel),
		intFieldDefault("app.debounce_ms", &a.DebounceMS, defaultAppDebounceMS),
	)
}

func (g *AccountGraphConfig) applyDefaults(keys keySet) {
	if g == nil {
		return
	}
	applyFieldDefaults(keys,
		intFieldDefault("account_data_graph.font_size", &g.FontSize, defaultFontSize),
		intFieldDefault("account_data_graph.width", &g.Width, defaultWidth),
		intFieldDefault("account_data_graph.height", &g.Height, defaultHeight),
		intFieldDefault("account_data_graph.compressed_size", &g.CompressedSize, defaultCompressedSize),
		stringFieldDefault("account_data_graph.search_dir", &g.SearchDir, defaultSearchDir),
		stringFieldDefault("account_data_graph.security_name", &g.SecurityName, defaultSecurityName),
		stringFieldDefault("account_data_graph.output_extension", &g.OutputExtension, defaultOutputExtension),
		fieldDefault{
			key:   "account_data_graph.scale",
			need:  func() bool { return g.Scale <= 0 },
			apply: func() { g.Scale = defaultScale },
		},
	)
	g.OutputExtension = strings.TrimPrefix(strings.ToLower(strings.TrimSpace(g.OutputExtension)), ".")
}

// Helper functions

type fieldDefault struct {
	key   string
	need  func() bool
	apply func()
}

func applyFieldDefaults(keys keySet, defs ...fieldDefault) {
	for _, def := range defs {
		if def.apply == nil {
			continue
		}
		if def.key != "" && keys.isSet(def.key) {
			continue
		}
		if def.need != nil && !def.need() {
			continue
		}
		def.apply()
	}
}

func stringFieldDefault(key string, target *string, def string) fieldDefault {
	return fieldDefault{
		key: key,
		need: func() bool {
			return target != nil && strings.TrimSpace(*target) == ""
		},
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}

func intFieldDefault(key string, target *int, def int) fieldDefault {
	return fieldDefault{
		key:  key,
		need: func() bool { return target != nil && *target <= 0 },
		apply: func() {
			if target != nil {
				*target = def
			}
		},
	}
}
