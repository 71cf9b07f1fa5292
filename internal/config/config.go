package config

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/mitchellh/mapstructure"
	"github.com/santhosh-tekuri/jsonschema/v5"
	"github.com/spf13/viper"
	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// DefaultSection 是配置文件中默认读取的 section。
const DefaultSection = "plot_result"

//go:embed schema.json
var schemaJSON []byte

// Load 读取配置文件中的指定 section，经 JSON schema 校验后解码并补齐默认值。
// section 为空时使用整个文档。
func Load(path, section string) (*Config, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("config path cannot be empty")
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file failed (%s): %w", path, err)
	}
	doc, err := extractSection(path, raw, section)
	if err != nil {
		return nil, err
	}
	if err := validateSchema(doc); err != nil {
		return nil, fmt.Errorf("config schema validation failed (%s): %w", path, err)
	}
	v := viper.New()
	v.SetConfigType("json")
	if err := v.ReadConfig(bytes.NewReader(doc)); err != nil {
		return nil, fmt.Errorf("reading config section failed: %w", err)
	}
	var cfg Config
	if err := v.Unmarshal(&cfg, func(dc *mapstructure.DecoderConfig) {
		dc.TagName = "toml"
		dc.WeaklyTypedInput = true
	}); err != nil {
		return nil, fmt.Errorf("parsing config failed: %w", err)
	}
	setKeys := make(keySet)
	collectSettingsKeys(v.AllSettings(), setKeys)
	cfg.applyDefaults(setKeys)
	if err := validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// extractSection 统一转成 JSON 后按 section 取子文档。
func extractSection(path string, raw []byte, section string) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var node any
		if err := yaml.Unmarshal(raw, &node); err != nil {
			return nil, fmt.Errorf("parsing yaml config failed (%s): %w", path, err)
		}
		converted, err := json.Marshal(node)
		if err != nil {
			return nil, fmt.Errorf("converting yaml config failed (%s): %w", path, err)
		}
		raw = converted
	}
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("config file is not valid json (%s)", path)
	}
	section = strings.TrimSpace(section)
	if section == "" {
		return raw, nil
	}
	res := gjson.GetBytes(raw, section)
	if !res.Exists() {
		return nil, fmt.Errorf("config section %q not found in %s", section, path)
	}
	if !res.IsObject() {
		return nil, fmt.Errorf("config section %q must be an object", section)
	}
	return []byte(res.Raw), nil
}

func validateSchema(doc []byte) error {
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("schema.json", bytes.NewReader(schemaJSON)); err != nil {
		return err
	}
	schema, err := compiler.Compile("schema.json")
	if err != nil {
		return err
	}
	var inst any
	if err := json.Unmarshal(doc, &inst); err != nil {
		return err
	}
	return schema.Validate(inst)
}

func collectSettingsKeys(settings map[string]any, dest keySet) {
	if dest == nil || len(settings) == 0 {
		return
	}
	flattenConfigKeys("", settings, dest)
}

func flattenConfigKeys(prefix string, node any, dest keySet) {
	switch val := node.(type) {
	case map[string]any:
		for k, v := range val {
			next := strings.ToLower(strings.TrimSpace(k))
			if next == "" {
				continue
			}
			if prefix != "" {
				next = prefix + "." + next
			}
			flattenConfigKeys(next, v, dest)
		}
	case []any:
		if prefix != "" {
			dest.mark(prefix)
		}
		for _, item := range val {
			flattenConfigKeys(prefix, item, dest)
		}
	default:
		if prefix != "" {
			dest.mark(prefix)
		}
	}
}
