package vm

// Option configures a VM at construction time, in the flattening
// functional-options style: Options(...) collapses nested option lists
// into a single value so New only ever applies one thing.
type Option interface{ apply(vm *VM) }

// Options flattens opts into a single Option.
func Options(opts ...Option) Option {
	var res options
	for _, opt := range opts {
		switch impl := opt.(type) {
		case nil, noption:
		case options:
			res = append(res, impl...)
		default:
			res = append(res, opt)
		}
	}
	switch len(res) {
	case 0:
		return noption{}
	case 1:
		return res[0]
	default:
		return res
	}
}

type noption struct{}

func (noption) apply(*VM) {}

type options []Option

func (opts options) apply(vm *VM) {
	for _, opt := range opts {
		if opt != nil {
			opt.apply(vm)
		}
	}
}

type logfOption func(string, ...interface{})

func (logf logfOption) apply(vm *VM) { vm.log.Logf = logf }

// WithLogFunc attaches a trace sink, called once per executed word.
func WithLogFunc(logf func(string, ...interface{})) Option { return logfOption(logf) }

type stepLimitOption uint64

func (lim stepLimitOption) apply(vm *VM) { vm.stepLimit = uint64(lim) }

// WithStepLimit bounds the number of Step calls before RunToTrap errors
// out, guarding against runaway user programs. 0 means unbounded.
func WithStepLimit(n uint64) Option { return stepLimitOption(n) }
