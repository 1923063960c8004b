// Command vonsim is the CLI front-end over the vonsim library: assemble
// a source file, run it headless to completion, or drive it interactively
// with a terminal keyboard feed and a styled register/flags/screen panel.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vonsim/vonsim-core/internal/config"
)

func main() {
	var cfgPath string
	var debug bool

	root := &cobra.Command{
		Use:   "vonsim",
		Short: "Assembler and simulator for the VonSim 8088 instruction subset",
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "", "path to a vonsim.yaml config file")
	root.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	root.AddCommand(
		newAssembleCmd(),
		newRunCmd(&cfgPath, &debug),
		newDebugCmd(&cfgPath, &debug),
		newStateCmd(&cfgPath, &debug),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func loadConfig(path string, debug bool) config.Config {
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
	}
	if debug {
		cfg.Debug = true
	}
	return cfg
}

func readSource(path string) (string, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", path, err)
	}
	return string(b), nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
