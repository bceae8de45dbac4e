package engine

import "fmt"

// ProgrammerError marks an invariant violation that indicates a bug in the
// core rather than a condition any caller can recover from (§7:
// "Programmer error... reading a non-host-readable buffer... These are
// assertions and should abort; they indicate a bug in the core"). Callers
// let it propagate as a panic rather than wrapping it as a returned error.
type ProgrammerError struct {
	Msg string
}

func (e ProgrammerError) Error() string { return fmt.Sprintf("programmer error: %s", e.Msg) }

// Assertf panics with a ProgrammerError if cond is false.
func Assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(ProgrammerError{Msg: fmt.Sprintf(format, args...)})
	}
}
