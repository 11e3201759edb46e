package u

import (
	"fmt"
)

func fmtArgs(args ...any) string {
	if len(args) == 0 {
		return ""
	}
	s := fmt.Sprintf("%s", args[0])
	if len(args) > 1 {
		s = fmt.Sprintf(s, args[1:]...)
	}
	return s
}

// PanicIf panics if cond is true. args is an optional format string
// followed by its arguments.
func PanicIf(cond bool, args ...any) {
	if !cond {
		return
	}
	s := "condition failed"
	if len(args) > 0 {
		s = fmtArgs(args...)
	}
	panic(s)
}

// FirstErr returns the first non-nil error
func FirstErr(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
