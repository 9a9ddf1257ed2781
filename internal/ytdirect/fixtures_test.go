package ytdirect

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"

	"fknsrs.biz/p/ytinfo/internal/ctxhttpclient"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
)

const testVideoID = "dQw4w9WgXcQ"

const boilerplate = "Enjoy the videos and music you love, upload original content, and share it all with friends, family, and the world on YouTube."

const playerResponseScript = `var ytInitialPlayerResponse = {
	"videoDetails": {
		"videoId": "dQw4w9WgXcQ",
		"title": "Player Title",
		"shortDescription": "Player description",
		"lengthSeconds": "200",
		"thumbnail": {"thumbnails": [
			{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/default.jpg", "width": 120, "height": 90},
			{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg", "width": 480, "height": 360},
			{"url": "https://i.ytimg.com/vi/dQw4w9WgXcQ/mqdefault.jpg", "width": 320, "height": 180}
		]}
	},
	"streamingData": {
		"formats": [{"itag": 18, "approxDurationMs": "212091"}],
		"adaptiveFormats": [{"itag": 137, "approxDurationMs": "212121"}, {"itag": 140, "approxDurationMs": "211000"}]
	}
};var meta = document.querySelector('meta');`

const initialDataScript = `var ytInitialData = {
	"currentVideoEndpoint": {"watchEndpoint": {"videoId": "dQw4w9WgXcQ"}},
	"contents": {"twoColumnWatchNextResults": {"results": {"results": {"contents": [
		{"videoPrimaryInfoRenderer": {"title": {"runs": [{"text": "Initial "}, {"text": "Title"}]}}},
		{"videoSecondaryInfoRenderer": {"attributedDescription": {"content": "Short description"}}}
	]}}}},
	"playerOverlays": {"playerOverlayRenderer": {"videoDetails": {"playerOverlayVideoDetailsRenderer": {
		"title": {"simpleText": "Overlay Title"},
		"subtitle": {"runs": [{"text": "1.2M views"}]},
		"lengthText": {"accessibility": {"accessibilityData": {"label": "1 hour, 2 minutes, 5 seconds"}}}
	}}}},
	"engagementPanels": [
		{"engagementPanelSectionListRenderer": {"content": {"structuredDescriptionContentRenderer": {"items": [
			{"videoDescriptionHeaderRenderer": {"title": {"runs": [{"text": "Header Title"}]}}},
			{"expandableVideoDescriptionBodyRenderer": {"attributedDescriptionBodyText": {"content": "Full structured description"}}}
		]}}}},
		{"engagementPanelSectionListRenderer": {"content": {"adsEngagementPanelContentRenderer": {}}}}
	]
};`

const metaTagsHead = `<title>Meta Title - YouTube</title>
<meta property="og:title" content="Meta Title">
<meta property="og:description" content="` + boilerplate + `">
<meta name="description" content="` + boilerplate + `">
<meta itemprop="duration" content="PT4M13S">
<meta itemprop="videoId" content="dQw4w9WgXcQ">`

// makeHTML pads the document past DefaultMinimumBodySize so that fixtures
// are never rejected as interstitials.
func makeHTML(head string, scripts ...string) string {
	var b strings.Builder

	b.WriteString("<!DOCTYPE html><html><head>")
	b.WriteString(head)
	b.WriteString("</head><body>")
	b.WriteString("<!-- " + strings.Repeat("padding ", 160) + "-->")
	for _, s := range scripts {
		b.WriteString("<script>" + s + "</script>")
	}
	b.WriteString("</body></html>")

	return b.String()
}

func makePage(t *testing.T, rawURL, body string) *Page {
	t.Helper()

	u, err := url.Parse(rawURL)
	if err != nil {
		t.Fatal(err)
	}

	p, err := NewPage(u, []byte(body))
	if err != nil {
		t.Fatal(err)
	}

	return p
}

func testLogger() (*logrus.Logger, *test.Hook) {
	l, h := test.NewNullLogger()
	l.SetLevel(logrus.TraceLevel)
	return l, h
}

func testContext(l logrus.FieldLogger, client *http.Client) context.Context {
	ctx := ctxlogger.WithLogger(context.Background(), l)
	if client != nil {
		ctx = ctxhttpclient.WithHTTPClient(ctx, client)
	}
	return ctx
}

func serveHTML(status int, body string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		rw.Header().Set("content-type", "text/html; charset=utf-8")
		rw.WriteHeader(status)
		rw.Write([]byte(body))
	}))
}

func strategyNames(h *test.Hook) []string {
	var a []string
	for _, e := range h.AllEntries() {
		if s, ok := e.Data["youtube.strategy"].(string); ok {
			a = append(a, s)
		}
	}
	return a
}
