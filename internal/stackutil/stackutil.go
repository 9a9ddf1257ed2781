package stackutil

import (
	"fmt"
	"runtime"
	"strings"
)

// GetStack returns up to depth frames, starting skip frames above the
// caller of GetStack.
func GetStack(depth, skip int) []runtime.Frame {
	pc := make([]uintptr, depth)

	// runtime.Callers and GetStack itself
	n := runtime.Callers(skip+2, pc)
	if n == 0 {
		return nil
	}

	frames := runtime.CallersFrames(pc[:n])

	a := make([]runtime.Frame, 0, n)
	for {
		frame, more := frames.Next()
		a = append(a, frame)

		if !more {
			break
		}
	}

	return a
}

// WithoutFunctions drops frames whose function name starts with any of the
// prefixes.
func WithoutFunctions(a []runtime.Frame, prefixes ...string) []runtime.Frame {
	var r []runtime.Frame

outer:
	for _, e := range a {
		for _, prefix := range prefixes {
			if strings.HasPrefix(e.Function, prefix) {
				continue outer
			}
		}

		r = append(r, e)
	}

	return r
}

func FormatStack(a []runtime.Frame) []string {
	r := make([]string, len(a))
	for i, e := range a {
		r[i] = FormatStackFrame(e)
	}
	return r
}

func FormatStackFrame(f runtime.Frame) string {
	return fmt.Sprintf("%s:%d: %s", f.File, f.Line, f.Function)
}
