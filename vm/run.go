package vm

import (
	"context"

	"github.com/hanoi-lang/hanoi/internal/panicrec"
	"github.com/hanoi-lang/hanoi/ir"
)

// Run drives RunToTrap inside panicrec.Recover, so an internal VM bug
// surfaces as an ordinary error return rather than crashing the host.
func (vm *VM) Run(ctx context.Context) ([]ir.Value, error) {
	var values []ir.Value
	err := panicrec.Recover("vm", func() error {
		v, err := vm.RunToTrap(ctx)
		values = v
		return err
	})
	return values, err
}
