package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/hanoi-lang/hanoi/htest"
	"github.com/hanoi-lang/hanoi/ir"
	"github.com/hanoi-lang/hanoi/vm"
)

var testCmd = &cobra.Command{
	Use:   "test <file.gob>",
	Short: "Enumerate and run every test bound under the library's tests namespace",
	Args:  cobra.ExactArgs(1),
	RunE:  runTest,
}

func init() { rootCmd.AddCommand(testCmd) }

func runTest(cmd *cobra.Command, args []string) error {
	libPath := args[0]
	cfg, err := loadConfig(cmd, libPath)
	if err != nil {
		return err
	}

	lib, err := loadLibrary(libPath)
	if err != nil {
		return err
	}

	v, ok := lib.Lookup(ir.RootNamespace, "tests")
	if !ok || v.Kind != ir.KindNamespace {
		return fmt.Errorf("%s: root namespace has no tests namespace", libPath)
	}

	var opts []vm.Option
	if cfg.StepLimit > 0 {
		opts = append(opts, vm.WithStepLimit(cfg.StepLimit))
	}
	d := &htest.Driver{Lib: lib, Opts: opts}

	ctx := context.Background()
	if timeout, err := cfg.timeout(); err != nil {
		return err
	} else if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	results, err := d.RunAll(ctx, v.NS)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	failed := 0
	for _, r := range results {
		status := "PASS"
		if r.Err != nil {
			status = "ERROR"
		} else if !r.Passed {
			status = "FAIL"
		}
		if status != "PASS" {
			failed++
		}
		fmt.Fprintf(out, "%-6s %s\n", status, r.Name)
		if r.Err != nil {
			fmt.Fprintf(out, "       %v\n", r.Err)
		}
	}

	if failed > 0 {
		return fmt.Errorf("%d/%d tests did not pass", failed, len(results))
	}
	return nil
}
