// Package panicrec isolates host-visible calls from internal panics and
// runtime.Goexit calls, turning both into ordinary error returns.
package panicrec

// Recover runs f in a new goroutine, recovering any abnormal exit or panic
// as a non-nil error return instead of letting it escape to the caller.
func Recover(name string, f func() error) error {
	errch := make(chan error, 1)
	go func() {
		defer close(errch)
		defer recoverExitError(name, errch)
		defer recoverPanicError(name, errch)
		errch <- f()
	}()
	return <-errch
}
