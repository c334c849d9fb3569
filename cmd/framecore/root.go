package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/hupe1980/framecore"
	"github.com/spf13/cobra"
)

var (
	version = "dev"
	commit  = "none"
)

// globalFlags are shared by every subcommand.
type globalFlags struct {
	configPath string
	logLevel   string
	logJSON    bool
	jsonOut    bool
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}

	cmd := &cobra.Command{
		Use:   "framecore",
		Short: "Run and inspect the framecore runtime primitives",
		Long: `framecore drives the engine runtime layer: arena memory with per-frame
rewind, growable arrays, string-keyed hash tables, and the lock-free work
queue with its worker pool.`,
		Version:       fmt.Sprintf("%s (%s)", version, commit),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVarP(&g.configPath, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "Override the configured log level")
	cmd.PersistentFlags().BoolVar(&g.logJSON, "log-json", false, "Write logs as JSON")
	cmd.PersistentFlags().BoolVar(&g.jsonOut, "json", false, "Output in JSON format")

	cmd.AddCommand(
		newConfigCmd(g),
		newScenarioCmd(g),
		newRunCmd(g),
	)
	return cmd
}

func execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// loadConfig returns the effective configuration: defaults, then the config
// file, then flag overrides.
func (g *globalFlags) loadConfig() (framecore.Config, error) {
	cfg := framecore.DefaultConfig()
	if g.configPath != "" {
		var err error
		if cfg, err = framecore.LoadConfig(g.configPath); err != nil {
			return framecore.Config{}, err
		}
	}
	if g.logLevel != "" {
		cfg.LogLevel = g.logLevel
	}
	return cfg, cfg.Validate()
}

func (g *globalFlags) logger(cfg framecore.Config) *framecore.Logger {
	level, _ := framecore.ParseLevel(cfg.LogLevel)
	if g.logJSON {
		return framecore.NewJSONLogger(level)
	}
	return framecore.NewTextLogger(level)
}

// printJSON outputs data as JSON
func printJSON(w io.Writer, v any) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}
