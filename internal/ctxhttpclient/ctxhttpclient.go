package ctxhttpclient

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/ctxtimer"
)

// DefaultClient is used when nothing was registered.
var DefaultClient = &http.Client{Timeout: time.Second * 30}

// context registration

var httpClientKey int

func WithHTTPClient(ctx context.Context, httpClient *http.Client) context.Context {
	return context.WithValue(ctx, &httpClientKey, httpClient)
}

func GetHTTPClient(ctx context.Context) *http.Client {
	if v, ok := ctx.Value(&httpClientKey).(*http.Client); ok && v != nil {
		return v
	}

	return DefaultClient
}

// middleware

func Register(httpClient *http.Client) func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	return func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		next(rw, r.WithContext(WithHTTPClient(r.Context(), httpClient)))
	}
}

// Do sends req, bound to ctx, with the context's client and logs the
// outcome at debug level. The caller closes the body.
func Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	elapsed := ctxtimer.Start(ctx)

	res, err := GetHTTPClient(ctx).Do(req.WithContext(ctx))

	l := ctxlogger.GetLogger(ctx).WithFields(logrus.Fields{
		"http.outbound_method": req.Method,
		"http.outbound_url":    req.URL.String(),
		"http.fetch_duration":  elapsed(),
	})

	if err != nil {
		l.WithError(err).Debug("outbound request failed")
		return nil, fmt.Errorf("ctxhttpclient.Do: %w", err)
	}

	l.WithField("http.outbound_status", res.StatusCode).Debug("outbound request finished")

	return res, nil
}
