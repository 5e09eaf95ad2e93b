// Package config loads and writes the ftrack.yaml project configuration.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/CasperKristiansson/Finance-Tracker-sub000/internal/suggest"
)

// Filename is the default configuration file name in a project directory.
const Filename = "ftrack.yaml"

// Config represents the top-level ftrack.yaml configuration.
type Config struct {
	Database DatabaseConfig           `yaml:"database"`
	Ledger   LedgerConfig             `yaml:"ledger"`
	Logging  LoggingConfig            `yaml:"logging"`
	Keywords []suggest.KeywordMapping `yaml:"keywords,omitempty"`
}

// DatabaseConfig locates the sqlite database file.
type DatabaseConfig struct {
	Path string `yaml:"path"`
}

// LedgerConfig names the internal counterparty account used for
// single-sided statement rows.
type LedgerConfig struct {
	OffsetAccount string `yaml:"offset_account"`
}

// LoggingConfig controls log output.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// Load reads an ftrack.yaml file from disk.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config: %w", err)
	}
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Ledger.OffsetAccount == "" {
		cfg.Ledger.OffsetAccount = "Import Offset"
	}
	return &cfg, nil
}

// Save writes a Config to a YAML file.
func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

// Default returns a Config with sensible defaults for a new project. The
// keyword table is ordered; the first matching keyword wins, so the more
// specific entries come first.
func Default() *Config {
	return &Config{
		Database: DatabaseConfig{Path: "ftrack.db"},
		Ledger:   LedgerConfig{OffsetAccount: "Import Offset"},
		Logging:  LoggingConfig{Level: "info"},
		Keywords: []suggest.KeywordMapping{
			{Keyword: "ica", Category: "Groceries"},
			{Keyword: "coop", Category: "Groceries"},
			{Keyword: "willys", Category: "Groceries"},
			{Keyword: "hemköp", Category: "Groceries"},
			{Keyword: "systembolaget", Category: "Alcohol"},
			{Keyword: "circle k", Category: "Fuel"},
			{Keyword: "okq8", Category: "Fuel"},
			{Keyword: "apotek", Category: "Health"},
			{Keyword: "hyra", Category: "Housing"},
			{Keyword: "lön", Category: "Salary"},
			{Keyword: "swish", Category: "Transfers"},
		},
	}
}
