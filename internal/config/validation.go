package config

import (
	"fmt"
	"regexp"
	"strings"
)

// validate 对配置进行基础校验；结构性约束已由 schema.json 覆盖。
func validate(c *Config) error {
	if err := c.EnergyGraph.validate(); err != nil {
		return err
	}
	if err := c.AccountDataGraph.validate(); err != nil {
		return err
	}
	if c.App.Watch && strings.TrimSpace(c.AccountDataGraph.SearchDir) == "" {
		return fmt.Errorf("app.watch requires account_data_graph.search_dir")
	}
	return nil
}

func (e *EnergyGraphConfig) validate() error {
	if strings.TrimSpace(e.OutputPath) != "" && strings.TrimSpace(e.InputPath) == "" {
		return fmt.Errorf("energy_graph.input_path is required when output_path is set")
	}
	return nil
}

func (g *AccountGraphConfig) validate() error {
	if _, err := regexp.Compile(g.AccountDataPathRegex); err != nil {
		return fmt.Errorf("account_data_graph.account_data_path_regex invalid: %w", err)
	}
	if _, err := regexp.Compile(g.OperationsPathRegex); err != nil {
		return fmt.Errorf("account_data_graph.operations_path_regex invalid: %w", err)
	}
	if g.PriceSMAPeriod < 0 {
		return fmt.Errorf("account_data_graph.price_sma_period must be >= 0")
	}
	if g.CompressedSize <= 0 {
		return fmt.Errorf("account_data_graph.compressed_size must be > 0")
	}
	return nil
}
