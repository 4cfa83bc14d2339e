package main

import (
	"github.com/BurntSushi/toml"
	"github.com/pkg/errors"

	"github.com/kforge/kforge/spirv"
)

// fileConfig is the TOML shape loaded by --config: default spirv.Options
// for every compile invocation, so a build system driving kforgec
// repeatedly doesn't need to repeat flags (spec.md §6).
type fileConfig struct {
	SPIRV struct {
		VersionMajor uint8    `toml:"version_major"`
		VersionMinor uint8    `toml:"version_minor"`
		Capabilities []uint32 `toml:"capabilities"`
		Debug        *bool    `toml:"debug"`
		Validation   *bool    `toml:"validation"`
	} `toml:"spirv"`
}

func loadConfig(path string) (spirv.Options, error) {
	opts := spirv.DefaultOptions()
	if path == "" {
		return opts, nil
	}

	var cfg fileConfig
	if _, err := toml.DecodeFile(path, &cfg); err != nil {
		return opts, errors.Wrapf(err, "loading config %q", path)
	}

	if cfg.SPIRV.VersionMajor != 0 {
		opts.Version = spirv.Version{Major: cfg.SPIRV.VersionMajor, Minor: cfg.SPIRV.VersionMinor}
	}
	if len(cfg.SPIRV.Capabilities) > 0 {
		caps := make([]spirv.Capability, len(cfg.SPIRV.Capabilities))
		for i, c := range cfg.SPIRV.Capabilities {
			caps[i] = spirv.Capability(c)
		}
		opts.Capabilities = caps
	}
	if cfg.SPIRV.Debug != nil {
		opts.Debug = *cfg.SPIRV.Debug
	}
	if cfg.SPIRV.Validation != nil {
		opts.Validation = *cfg.SPIRV.Validation
	}
	return opts, nil
}
