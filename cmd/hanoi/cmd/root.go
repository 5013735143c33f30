// Package cmd implements the ambient hanoi CLI: a thin cobra front door
// over ir/lower/vm/htest, not the real grammar-driven CLI of §6.4.
package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-yaml"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "hanoi",
	Short: "Run, dump, and test hanoi IR libraries",
	Long: `hanoi is a front door onto the ir/lower/vm/htest packages.

It consumes gob-encoded ir.Library files rather than source text: there is
no grammar or parser behind this CLI, only the stack machine and its test
driver.`,
	// main.go reports errors itself, through exitlog.Logger, the way the
	// teacher's own main.go does.
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().Bool("trace", false, "enable VM trace logging")
	rootCmd.PersistentFlags().Uint64("step-limit", 0, "bound the number of VM steps (0: unbounded)")
	rootCmd.PersistentFlags().Duration("timeout", 0, "bound wall-clock execution time (0: unbounded)")
}

// config is the optional hanoi.yaml sidecar, overridable by the flags
// above. Flags that were explicitly set on the command line always win.
type config struct {
	Trace     bool   `yaml:"trace"`
	StepLimit uint64 `yaml:"step_limit"`
	Timeout   string `yaml:"timeout"`
}

// loadConfig reads hanoi.yaml beside libPath, if present, then overlays
// any flags the user actually passed on the command line.
func loadConfig(cmd *cobra.Command, libPath string) (config, error) {
	var cfg config

	cfgPath := filepath.Join(filepath.Dir(libPath), "hanoi.yaml")
	if data, err := os.ReadFile(cfgPath); err == nil {
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("hanoi.yaml: %w", err)
		}
	} else if !os.IsNotExist(err) {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("trace") {
		cfg.Trace, _ = flags.GetBool("trace")
	}
	if flags.Changed("step-limit") {
		cfg.StepLimit, _ = flags.GetUint64("step-limit")
	}
	if flags.Changed("timeout") {
		d, _ := flags.GetDuration("timeout")
		cfg.Timeout = d.String()
	}

	return cfg, nil
}

// timeout parses cfg.Timeout, treating "" as no limit.
func (cfg config) timeout() (time.Duration, error) {
	if cfg.Timeout == "" {
		return 0, nil
	}
	return time.ParseDuration(cfg.Timeout)
}
