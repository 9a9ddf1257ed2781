package catchpanic

import (
	"fmt"
	"runtime"

	"fknsrs.biz/p/ytinfo/internal/stackutil"
)

// PanicError holds a recovered value and the stack at the point it was
// recovered.
type PanicError struct {
	Value interface{}
	Stack []runtime.Frame
}

func (e *PanicError) Error() string {
	if err, ok := e.Value.(error); ok {
		return "panic: " + err.Error()
	}

	return fmt.Sprintf("panic: %v", e.Value)
}

func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}

	return nil
}

// FormattedStack is suitable for log fields.
func (e *PanicError) FormattedStack() []string {
	return stackutil.FormatStack(e.Stack)
}

func Catch(fn func()) (err error) {
	defer func() {
		if ex := recover(); ex != nil {
			// skip the deferred func and runtime.gopanic
			err = fmt.Errorf("catchpanic.Catch: %w", &PanicError{Value: ex, Stack: stackutil.GetStack(32, 2)})
		}
	}()

	fn()

	return
}

// CatchErr1 runs fn, turning a panic into a *PanicError. The zero T is
// returned alongside a recovered panic.
func CatchErr1[T any](fn func() (T, error)) (T, error) {
	var res T
	var err error

	if err1 := Catch(func() { res, err = fn() }); err1 != nil {
		err = err1
	}

	return res, err
}
