// Package vmconfig loads the ambient knobs the CLI's positional grammar has
// no room for: log verbosity and the startup preallocation size. It is a
// viper-backed YAML file with mapstructure tags, optional and additive — it
// can never override a value the CLI grammar defines, only supply defaults
// for the knobs the grammar doesn't carry.
package vmconfig

import (
	"errors"
	"os"

	"github.com/spf13/viper"
)

// Config is the ambient configuration shape for vmemsim.
type Config struct {
	Log struct {
		Level string `mapstructure:"level"`
	} `mapstructure:"log"`
	Simulator struct {
		PreallocatedFrames int  `mapstructure:"preallocated_frames"`
		TLBReporting       bool `mapstructure:"tlb_reporting"`
	} `mapstructure:"simulator"`
}

// Defaults returns the configuration used when no file is present.
func Defaults() Config {
	c := Config{}
	c.Log.Level = "info"
	c.Simulator.PreallocatedFrames = 8
	c.Simulator.TLBReporting = true
	return c
}

// Load reads path as YAML via viper and merges it over Defaults(). A
// missing file is not an error: Defaults() is returned unchanged.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, err
	}

	v := viper.New()
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	v.SetDefault("log.level", cfg.Log.Level)
	v.SetDefault("simulator.preallocated_frames", cfg.Simulator.PreallocatedFrames)
	v.SetDefault("simulator.tlb_reporting", cfg.Simulator.TLBReporting)

	if err := v.ReadInConfig(); err != nil {
		return cfg, err
	}
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}
