// Package config loads the HCL runtime configuration of the hierarchy
// manager. Everything is optional, a missing file yields the defaults.
package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/voodooEntity/rackdaw/src/system/integrity"
)

type Config struct {
	Ident      string      `hcl:"ident,optional"`
	LogLevel   string      `hcl:"log_level,optional"`
	DebugLevel int         `hcl:"debug_level,optional"`
	MaxDepth   int         `hcl:"max_depth,optional"`
	Demo       *DemoConfig `hcl:"demo,block"`
}

// DemoConfig drives the demo build of the cli: how many racks to create,
// how many chains per rack, which plugins to cycle through and which rack
// gets a nested one.
type DemoConfig struct {
	Racks         int      `hcl:"racks,optional"`
	ChainsPerRack int      `hcl:"chains_per_rack,optional"`
	Plugins       []string `hcl:"plugins,optional"`
	NestInto      int      `hcl:"nest_into,optional"`
}

func Default() *Config {
	return &Config{
		Ident:      "rackdaw",
		LogLevel:   "info",
		DebugLevel: 0,
		MaxDepth:   integrity.DefaultMaxDepth,
	}
}

// Load parses the given HCL file over the defaults. A missing path or a
// missing file is not an error, the defaults apply then.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return cfg, nil
	}
	parser := hclparse.NewParser()
	hclFile, diags := parser.ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to parse config file %s: %w", path, diags)
	}
	diags = gohcl.DecodeBody(hclFile.Body, nil, cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("failed to decode config file %s: %w", path, diags)
	}
	if cfg.Ident == "" {
		cfg.Ident = "rackdaw"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	if cfg.MaxDepth <= 0 {
		cfg.MaxDepth = integrity.DefaultMaxDepth
	}
	return cfg, nil
}
