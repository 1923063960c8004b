// Package config loads the simulator's runtime configuration: the
// instruction step limit, event buffer depth, and logging verbosity.
// Values come from (in increasing priority) a config file, environment
// variables prefixed VONSIM_, and CLI flags bound by cmd/vonsim.
package config

import (
	"errors"
	"io/fs"
	"strings"

	"github.com/spf13/viper"

	"github.com/vonsim/vonsim-core/vonsim"
)

// Config is the subset of Simulator/CLI knobs a user can override outside
// of a source file's own ORG/EQU directives.
type Config struct {
	StepLimit      int
	EventBufferLen int
	Debug          bool
}

// Load reads configuration from an optional file at path (searched in the
// current directory as "vonsim.yaml" if path is empty), environment
// variables, and returns defaults when neither is set.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("VONSIM")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	def := vonsim.DefaultSimulatorConfig()
	v.SetDefault("step_limit", def.StepLimit)
	v.SetDefault("event_buffer_len", def.EventBufferLen)
	v.SetDefault("debug", false)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("vonsim")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
	}
	if err := v.ReadInConfig(); err != nil {
		_, notFound := err.(viper.ConfigFileNotFoundError)
		if !notFound && !errors.Is(err, fs.ErrNotExist) && path != "" {
			return Config{}, err
		}
	}

	return Config{
		StepLimit:      v.GetInt("step_limit"),
		EventBufferLen: v.GetInt("event_buffer_len"),
		Debug:          v.GetBool("debug"),
	}, nil
}

// SimulatorConfig converts Config into the shape vonsim.NewSimulator wants.
func (c Config) SimulatorConfig() vonsim.SimulatorConfig {
	sc := vonsim.DefaultSimulatorConfig()
	sc.StepLimit = c.StepLimit
	sc.EventBufferLen = c.EventBufferLen
	return sc
}
