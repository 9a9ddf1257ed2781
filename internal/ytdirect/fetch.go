package ytdirect

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ctxhttpclient"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
)

const (
	DefaultMinimumBodySize = 1024
	MaximumBodySize        = 16 << 20
)

// requestHeaders make the request look like a desktop browser that has
// already accepted the consent interstitial.
var requestHeaders = []struct{ name, value string }{
	{"User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"},
	{"Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"},
	{"Accept-Language", "en-US,en;q=0.9"},
	{"Cookie", "CONSENT=YES+; SOCS=CAI"},
}

func SetRequestHeaders(req *http.Request) {
	for _, h := range requestHeaders {
		req.Header.Set(h.name, h.value)
	}
}

// ParseVideoURL accepts absolute http and https URLs with a host.
func ParseVideoURL(rawURL string) (*url.URL, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, InvalidInput("URL is required", nil)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, InvalidInput("Invalid URL", fmt.Errorf("ytdirect.ParseVideoURL: %w", err))
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, InvalidInput("Invalid URL", fmt.Errorf("ytdirect.ParseVideoURL: expected absolute http(s) url; got %q", rawURL))
	}

	return u, nil
}

func minimumBodySize(ctx context.Context) int {
	if n := ctxconfig.GetConfig(ctx).FetchMinimumBodySize; n > 0 {
		return n
	}

	return DefaultMinimumBodySize
}

// FetchPage performs a single GET with the context's HTTP client. There is
// no retry.
func FetchPage(ctx context.Context, rawURL string) (*Page, error) {
	u, err := ParseVideoURL(rawURL)
	if err != nil {
		return nil, err
	}

	l := ctxlogger.GetLogger(ctx).WithField("youtube.url", u.String())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, InvalidInput("Invalid URL", fmt.Errorf("ytdirect.FetchPage: %w", err))
	}
	SetRequestHeaders(req)

	res, err := ctxhttpclient.Do(ctx, req)
	if err != nil {
		l.WithError(err).Warn("could not fetch video page")
		return nil, FetchFailed(0, "Failed to fetch video page", fmt.Errorf("ytdirect.FetchPage: %w", err))
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return nil, FetchFailed(res.StatusCode, "Failed to fetch video page", fmt.Errorf("ytdirect.FetchPage: status code: %d", res.StatusCode))
	}

	body, err := io.ReadAll(io.LimitReader(res.Body, MaximumBodySize+1))
	if err != nil {
		return nil, FetchFailed(0, "Failed to read video page", fmt.Errorf("ytdirect.FetchPage: %w", err))
	}

	if len(body) > MaximumBodySize {
		l.WithField("youtube.max_body_size", MaximumBodySize).Warn("video page truncated")
		body = body[:MaximumBodySize]
	}

	if minSize := minimumBodySize(ctx); len(body) < minSize {
		return nil, FetchFailed(0, "Video page was unexpectedly short", fmt.Errorf("ytdirect.FetchPage: body was %d bytes; expected at least %d", len(body), minSize))
	}

	l.WithFields(logrus.Fields{
		"http.status_code":  res.StatusCode,
		"youtube.body_size": len(body),
	}).Debug("fetched video page")

	page, err := NewPage(u, body)
	if err != nil {
		return nil, FetchFailed(0, "Failed to parse video page", fmt.Errorf("ytdirect.FetchPage: %w", err))
	}

	return page, nil
}
