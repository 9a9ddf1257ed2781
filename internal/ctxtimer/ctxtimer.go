package ctxtimer

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ctxclock"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
)

var (
	ErrNoTimer = fmt.Errorf("ctxtimer.ErrNoTimer: no timer found with this name")
)

// Timer keeps named start times. Times come from the caller so that tests
// can drive it with ctxclock.
type Timer struct {
	m     sync.RWMutex
	start map[string]time.Time
}

func NewTimer() *Timer {
	return &Timer{start: make(map[string]time.Time)}
}

func (t *Timer) Mark(name string, at time.Time) {
	t.m.Lock()
	defer t.m.Unlock()

	t.start[name] = at
}

func (t *Timer) Elapsed(name string, at time.Time) (time.Duration, error) {
	t.m.RLock()
	defer t.m.RUnlock()

	start, ok := t.start[name]
	if !ok {
		return 0, fmt.Errorf("ctxtimer.Timer.Elapsed: %q: %w", name, ErrNoTimer)
	}

	return at.Sub(start), nil
}

// context registration

var timerKey int

func WithTimer(ctx context.Context, t *Timer) context.Context {
	if t == nil {
		t = NewTimer()
	}

	return context.WithValue(ctx, &timerKey, t)
}

func GetTimer(ctx context.Context) *Timer {
	if v := ctx.Value(&timerKey); v != nil {
		return v.(*Timer)
	}

	return nil
}

func MarkNow(ctx context.Context, name string) error {
	t := GetTimer(ctx)
	if t == nil {
		return fmt.Errorf("ctxtimer.MarkNow: no timer in context")
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return fmt.Errorf("ctxtimer.MarkNow: %w", err)
	}

	t.Mark(name, now)

	return nil
}

func ElapsedNow(ctx context.Context, name string) (time.Duration, error) {
	t := GetTimer(ctx)
	if t == nil {
		return 0, fmt.Errorf("ctxtimer.ElapsedNow: no timer in context")
	}

	now, err := ctxclock.Now(ctx)
	if err != nil {
		return 0, fmt.Errorf("ctxtimer.ElapsedNow: %w", err)
	}

	d, err := t.Elapsed(name, now)
	if err != nil {
		return 0, fmt.Errorf("ctxtimer.ElapsedNow: %w", err)
	}

	return d, nil
}

// Start times a single operation against the context clock. The returned
// func reports zero if the clock fails.
func Start(ctx context.Context) func() time.Duration {
	start, err := ctxclock.Now(ctx)
	if err != nil {
		return func() time.Duration { return 0 }
	}

	return func() time.Duration {
		now, err := ctxclock.Now(ctx)
		if err != nil {
			return 0
		}

		return now.Sub(start)
	}
}

// middleware

const requestTimerName = "ctxtimer.request"

// Register gives every request its own timer.
func Register() func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(WithTimer(r.Context(), NewTimer())))
	}
}

// AddLoggerHooks adds http.duration to the "finished" request log line.
func AddLoggerHooks() func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(ctxlogger.AddHookPair(
			r.Context(),
			func(rw http.ResponseWriter, r *http.Request, l logrus.FieldLogger) logrus.FieldLogger {
				if err := MarkNow(r.Context(), requestTimerName); err != nil {
					l.WithError(err).Warn("could not mark request start")
				}

				return l
			},
			func(rw http.ResponseWriter, r *http.Request, l logrus.FieldLogger) logrus.FieldLogger {
				d, err := ElapsedNow(r.Context(), requestTimerName)
				if err != nil {
					l.WithError(err).Warn("could not measure request duration")
					return l
				}

				return l.WithField("http.duration", d)
			},
		)))
	}
}
