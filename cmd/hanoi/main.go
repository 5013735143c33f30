// Command hanoi is a minimal front door over ir/lower/vm/htest: run, dump,
// and test gob-encoded Library files. It is ambient scaffolding for the
// core packages, not the grammar-driven CLI or TUI debugger.
package main

import (
	"os"

	"github.com/hanoi-lang/hanoi/cmd/hanoi/cmd"
	"github.com/hanoi-lang/hanoi/internal/exitlog"
)

func main() {
	log := exitlog.Logger{}
	log.SetOutput(os.Stderr)
	defer func() { os.Exit(log.ExitCode()) }()

	log.ErrorIf(cmd.Execute())
}
