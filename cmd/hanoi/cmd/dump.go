package cmd

import (
	"github.com/spf13/cobra"

	"github.com/hanoi-lang/hanoi/vm"
)

var dumpCmd = &cobra.Command{
	Use:   "dump <file.gob>",
	Short: "Pretty-print every sentence and namespace in a library",
	Args:  cobra.ExactArgs(1),
	RunE:  runDump,
}

func init() { rootCmd.AddCommand(dumpCmd) }

func runDump(cmd *cobra.Command, args []string) error {
	lib, err := loadLibrary(args[0])
	if err != nil {
		return err
	}
	vm.Dumper{Lib: lib, Out: cmd.OutOrStdout()}.Dump(nil)
	return nil
}
