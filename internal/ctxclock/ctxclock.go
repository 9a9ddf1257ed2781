package ctxclock

import (
	"context"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
)

// context registration

var clockKey int

func WithClock(ctx context.Context, c Clock) context.Context {
	if c == nil {
		c = RealClock
	}

	return context.WithValue(ctx, &clockKey, c)
}

// GetClock never returns nil; without a registered clock it reads the wall
// clock.
func GetClock(ctx context.Context) Clock {
	if v := ctx.Value(&clockKey); v != nil {
		return v.(Clock)
	}

	return RealClock
}

func Now(ctx context.Context) (time.Time, error) {
	t, err := GetClock(ctx).Now()
	if err != nil {
		return time.Time{}, fmt.Errorf("ctxclock.Now: %w", err)
	}

	return t, nil
}

// middleware

func Register(c Clock) func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(WithClock(r.Context(), c)))
	}
}

func timestampHook(field string) ctxlogger.HookFunc {
	return func(rw http.ResponseWriter, r *http.Request, l logrus.FieldLogger) logrus.FieldLogger {
		now, err := Now(r.Context())
		if err != nil {
			l.WithError(err).WithField("clock.field", field).Error("could not read clock")
			return l
		}

		return l.WithField(field, now.UTC().Format(time.RFC3339Nano))
	}
}

// AddLoggerHooks stamps the request start and response end onto the request
// log entries.
func AddLoggerHooks() func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(ctxlogger.AddHookPair(
			r.Context(),
			timestampHook("http.request_start"),
			timestampHook("http.response_end"),
		)))
	}
}

// public interface

var (
	ErrNoTimesLeft = fmt.Errorf("ctxclock.ErrNoTimesLeft: no times left")
)

type Clock interface {
	Now() (time.Time, error)
}

type ClockFunc func() (time.Time, error)

func (fn ClockFunc) Now() (time.Time, error) { return fn() }

var RealClock Clock = ClockFunc(func() (time.Time, error) { return time.Now(), nil })

func NewStaticClock(t time.Time) Clock {
	return ClockFunc(func() (time.Time, error) { return t, nil })
}

// testing clock

type TestClockResult struct {
	Time  time.Time
	Error error
}

type testClock struct {
	m sync.Mutex
	a []TestClockResult
}

// NewTestClock replays results in order, then fails with ErrNoTimesLeft.
func NewTestClock(results []TestClockResult) Clock {
	return &testClock{a: results}
}

func (c *testClock) Now() (time.Time, error) {
	c.m.Lock()
	defer c.m.Unlock()

	if len(c.a) == 0 {
		return time.Time{}, fmt.Errorf("ctxclock.testClock.Now: %w", ErrNoTimesLeft)
	}

	r := c.a[0]
	c.a = c.a[1:]

	return r.Time, r.Error
}
