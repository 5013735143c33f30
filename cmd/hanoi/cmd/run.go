package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanoi-lang/hanoi/internal/exitlog"
	"github.com/hanoi-lang/hanoi/vm"
)

var runCmd = &cobra.Command{
	Use:   "run <file.gob>",
	Short: "Run a library's main entry point to its next trap",
	Args:  cobra.ExactArgs(1),
	RunE:  runRun,
}

func init() { rootCmd.AddCommand(runCmd) }

func runRun(cmd *cobra.Command, args []string) error {
	libPath := args[0]
	cfg, err := loadConfig(cmd, libPath)
	if err != nil {
		return err
	}

	lib, err := loadLibrary(libPath)
	if err != nil {
		return err
	}

	var opts []vm.Option
	if cfg.Trace {
		var traceLog exitlog.Logger
		traceLog.SetOutput(nopCloser{cmd.ErrOrStderr()})
		opts = append(opts, vm.WithLogFunc(traceLog.Leveledf("TRACE")))
	}
	if cfg.StepLimit > 0 {
		opts = append(opts, vm.WithStepLimit(cfg.StepLimit))
	}

	m, err := vm.New(lib, opts...)
	if err != nil {
		return err
	}

	ctx := context.Background()
	if d, err := cfg.timeout(); err != nil {
		return err
	} else if d > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, d)
		defer cancel()
	}

	values, err := m.Run(ctx)
	if err != nil {
		return err
	}

	dumper := vm.Dumper{Lib: lib}
	for _, v := range values {
		fmt.Fprintln(cmd.OutOrStdout(), dumper.FormatValue(v))
	}
	return nil
}
