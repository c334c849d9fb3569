package contract

import "fmt"

// Violation is the panic value raised by a failed assertion.
type Violation struct {
	Msg string
}

func (v *Violation) Error() string {
	return "contract violation: " + v.Msg
}

// Assert panics with a *Violation when checks are enabled and cond is false.
func Assert(cond bool, format string, args ...any) {
	if Enabled && !cond {
		panic(&Violation{Msg: fmt.Sprintf(format, args...)})
	}
}

// Fail panics with a *Violation when checks are enabled.
func Fail(format string, args ...any) {
	if Enabled {
		panic(&Violation{Msg: fmt.Sprintf(format, args...)})
	}
}
