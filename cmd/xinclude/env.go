package main

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// envConfig holds the flag defaults read from the environment.
type envConfig struct {
	Root      string `env:"XINCLUDE_ROOT" envDefault:"."`
	Catalog   string `env:"XINCLUDE_CATALOG"`
	MaxDepth  int    `env:"XINCLUDE_MAX_DEPTH" envDefault:"0"`
	BaseFixup bool   `env:"XINCLUDE_BASE_FIXUP" envDefault:"false"`
	Verbose   bool   `env:"XINCLUDE_VERBOSE" envDefault:"false"`
}

func loadEnv() (envConfig, error) {
	var cfg envConfig
	if err := env.Parse(&cfg); err != nil {
		return envConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}
