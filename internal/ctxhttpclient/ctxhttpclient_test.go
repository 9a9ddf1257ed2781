package ctxhttpclient

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/ytinfo/internal/ctxclock"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
)

func TestGetHTTPClientDefault(t *testing.T) {
	a := assert.New(t)

	a.Same(DefaultClient, GetHTTPClient(context.Background()))

	c := &http.Client{}
	a.Same(c, GetHTTPClient(WithHTTPClient(context.Background(), c)))
	a.Same(DefaultClient, GetHTTPClient(WithHTTPClient(context.Background(), nil)))
}

func TestDo(t *testing.T) {
	a := assert.New(t)

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.WriteHeader(http.StatusTeapot)
		io.WriteString(rw, "short and stout")
	}))
	defer srv.Close()

	l, hook := test.NewNullLogger()
	l.SetLevel(logrus.DebugLevel)

	start := time.Date(2023, 7, 1, 12, 0, 0, 0, time.UTC)

	ctx := ctxlogger.WithLogger(context.Background(), l)
	ctx = ctxclock.WithClock(ctx, ctxclock.NewTestClock([]ctxclock.TestClockResult{
		{Time: start},
		{Time: start.Add(time.Millisecond * 250)},
	}))
	ctx = WithHTTPClient(ctx, srv.Client())

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/teapot", nil)
	a.NoError(err)

	res, err := Do(ctx, req)
	if a.NoError(err) {
		defer res.Body.Close()

		a.Equal(http.StatusTeapot, res.StatusCode)

		body, err := io.ReadAll(res.Body)
		a.NoError(err)
		a.Equal("short and stout", string(body))
	}

	if e := hook.LastEntry(); a.NotNil(e) {
		a.Equal("outbound request finished", e.Message)
		a.Equal(http.StatusTeapot, e.Data["http.outbound_status"])
		a.Equal(srv.URL+"/teapot", e.Data["http.outbound_url"])
		a.Equal(time.Millisecond*250, e.Data["http.fetch_duration"])
	}
}

func TestDoTransportError(t *testing.T) {
	a := assert.New(t)

	srv := httptest.NewServer(http.NotFoundHandler())
	srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	a.NoError(err)

	_, err = Do(context.Background(), req)
	a.ErrorContains(err, "ctxhttpclient.Do: ")
}
