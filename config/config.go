// Package config loads and validates the HCL configuration for the
// exploration pipeline.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config holds all configuration blocks.
type Config struct {
	Model       *ModelConfig       `hcl:"model,block"`
	Exploration *ExplorationConfig `hcl:"exploration,block"`
	Storage     *StorageConfig     `hcl:"storage,block"`
	Agent       *AgentConfig       `hcl:"agent,block"`
	Bridge      *BridgeConfig      `hcl:"bridge,block"`
	Prompts     *PromptsConfig     `hcl:"prompts,block"`
}

// Load reads config from a file, or merges all *.hcl files when path is a
// directory.
func Load(path string) (*Config, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}

func LoadFile(filename string) (*Config, error) {
	return loadFromFiles([]string{filename})
}

func LoadDir(dir string) (*Config, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.hcl"))
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files in %s", dir)
	}
	return loadFromFiles(files)
}

// LoadAndValidate loads the config, fills defaults, and validates it.
func LoadAndValidate(path string) (*Config, error) {
	cfg, err := Load(path)
	if err != nil {
		return nil, err
	}

	cfg.Defaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns a usable config without reading any file.
func Default() *Config {
	cfg := &Config{}
	cfg.Defaults()
	return cfg
}

func loadFromFiles(files []string) (*Config, error) {
	parser := hclparse.NewParser()
	merged := &Config{}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("parse %s: %w", file, diags)
		}

		var cfg Config
		if diags := gohcl.DecodeBody(hclFile.Body, nil, &cfg); diags.HasErrors() {
			return nil, fmt.Errorf("decode %s: %w", file, diags)
		}
		merged.merge(&cfg)
	}

	return merged, nil
}

// merge takes any block set in other. Later files win.
func (c *Config) merge(other *Config) {
	if other.Model != nil {
		c.Model = other.Model
	}
	if other.Exploration != nil {
		c.Exploration = other.Exploration
	}
	if other.Storage != nil {
		c.Storage = other.Storage
	}
	if other.Agent != nil {
		c.Agent = other.Agent
	}
	if other.Bridge != nil {
		c.Bridge = other.Bridge
	}
	if other.Prompts != nil {
		c.Prompts = other.Prompts
	}
}

// Defaults fills in default values for any unset blocks and fields.
func (c *Config) Defaults() {
	if c.Model == nil {
		c.Model = &ModelConfig{}
	}
	c.Model.Defaults()

	if c.Exploration == nil {
		c.Exploration = &ExplorationConfig{}
	}
	c.Exploration.Defaults()

	if c.Storage == nil {
		c.Storage = &StorageConfig{}
	}
	c.Storage.Defaults()

	if c.Agent == nil {
		c.Agent = &AgentConfig{}
	}
	c.Agent.Defaults()

	if c.Bridge == nil {
		c.Bridge = &BridgeConfig{}
	}

	if c.Prompts == nil {
		c.Prompts = &PromptsConfig{}
	}
}

// Validate checks every block.
func (c *Config) Validate() error {
	if err := c.Model.Validate(); err != nil {
		return fmt.Errorf("model: %w", err)
	}
	if err := c.Exploration.Validate(); err != nil {
		return fmt.Errorf("exploration: %w", err)
	}
	if err := c.Storage.Validate(); err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	if err := c.Agent.Validate(); err != nil {
		return fmt.Errorf("agent: %w", err)
	}
	return nil
}

// PromptsConfig points at an optional directory of prompt template
// overrides.
type PromptsConfig struct {
	Dir string `hcl:"dir,optional"`
}
