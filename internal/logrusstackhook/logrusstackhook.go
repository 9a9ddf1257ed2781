package logrusstackhook

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/stackutil"
)

const maximumDepth = 32

var (
	DefaultLevels = []logrus.Level{logrus.DebugLevel, logrus.TraceLevel}
	// frames from these are noise in a log line
	DefaultIgnoredFunctions = []string{
		"github.com/sirupsen/logrus.",
		"fknsrs.biz/p/ytinfo/internal/logrusstackhook.",
		"runtime.",
	}
)

// StackHook attaches the caller's stack to entries at the configured levels,
// one field per frame: stack.00, stack.01, and so on.
type StackHook struct {
	levels  []logrus.Level
	ignored []string
}

func NewStackHook(levels []logrus.Level, ignored []string) *StackHook {
	if levels == nil {
		levels = DefaultLevels
	}
	if ignored == nil {
		ignored = DefaultIgnoredFunctions
	}

	return &StackHook{levels: levels, ignored: ignored}
}

func (h *StackHook) Levels() []logrus.Level { return h.levels }

func (h *StackHook) Fire(e *logrus.Entry) error {
	frames := stackutil.WithoutFunctions(stackutil.GetStack(maximumDepth, 0), h.ignored...)

	for i, frame := range frames {
		e.Data[fmt.Sprintf("stack.%02d", i)] = stackutil.FormatStackFrame(frame)
	}

	return nil
}
