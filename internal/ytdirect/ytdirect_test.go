package ytdirect

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"fknsrs.biz/p/ytinfo/internal/config"
	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ptr"
)

func TestGetVideoInfoPlayerResponse(t *testing.T) {
	a := assert.New(t)
	l, h := testLogger()

	srv := serveHTML(http.StatusOK, makeHTML(metaTagsHead, initialDataScript, playerResponseScript))
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL+"/watch?v="+testVideoID)
	a.NoError(err)
	a.Equal(&VideoMetadata{
		Title:           "Player Title",
		Description:     "Player description",
		ThumbnailURL:    "https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg",
		Duration:        "03:32",
		DurationSeconds: 212,
		VideoID:         testVideoID,
	}, v)

	for _, name := range strategyNames(h) {
		a.Equal("player_response", name)
	}
}

func TestGetVideoInfoMetaTagsOnly(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	srv := serveHTML(http.StatusOK, makeHTML(metaTagsHead))
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL+"/watch?v="+testVideoID)
	a.NoError(err)
	if a.NotNil(v) {
		a.Equal("Meta Title", v.Title)
		a.Equal("", v.Description)
		a.Equal("04:13", v.Duration)
		a.Equal(testVideoID, v.VideoID)
		a.Equal(ThumbnailFallbackURL(testVideoID), v.ThumbnailURL)
		a.Equal("https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", v.ThumbnailURL)
	}
}

func TestGetVideoInfoMetaTagsIgnoresOpenGraphImage(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	head := metaTagsHead + `
<meta property="og:image" content="https://i.ytimg.com/vi/dQw4w9WgXcQ/hqdefault.jpg">
<meta name="twitter:image" content="https://i.ytimg.com/vi/dQw4w9WgXcQ/sddefault.jpg">`

	srv := serveHTML(http.StatusOK, makeHTML(head))
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL+"/watch?v="+testVideoID)
	a.NoError(err)
	if a.NotNil(v) {
		a.Equal("https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg", v.ThumbnailURL)
	}
}

func TestGetVideoInfoJSONShape(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	srv := serveHTML(http.StatusOK, makeHTML(metaTagsHead))
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL)
	a.NoError(err)

	d, err := json.Marshal(v)
	a.NoError(err)
	a.JSONEq(`{
		"title": "Meta Title",
		"description": "",
		"thumbnailUrl": "https://i.ytimg.com/vi/dQw4w9WgXcQ/maxresdefault.jpg",
		"duration": "04:13",
		"videoId": "dQw4w9WgXcQ"
	}`, string(d))
}

func TestGetVideoInfoUpstreamStatus(t *testing.T) {
	a := assert.New(t)
	l, h := testLogger()

	srv := serveHTML(http.StatusNotFound, makeHTML(metaTagsHead, playerResponseScript))
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL+"/watch?v="+testVideoID)
	a.Nil(v)
	a.ErrorIs(err, ErrFetchFailed)

	var e *Error
	if a.True(errors.As(err, &e)) {
		a.Equal(KindFetchFailed, e.Kind)
		a.Equal(http.StatusNotFound, e.StatusCode)
		a.Equal(http.StatusNotFound, StatusCode(err))
	}

	a.Empty(strategyNames(h))
}

func TestGetVideoInfoTransportFailure(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	srv := serveHTML(http.StatusOK, "")
	srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL)
	a.Nil(v)
	a.ErrorIs(err, ErrFetchFailed)
	a.Equal(http.StatusInternalServerError, StatusCode(err))

	var e *Error
	if a.True(errors.As(err, &e)) {
		a.Equal(0, e.StatusCode)
	}
}

func TestGetVideoInfoShortBody(t *testing.T) {
	a := assert.New(t)
	l, h := testLogger()

	srv := serveHTML(http.StatusOK, "<html><head><title>Before you continue</title></head></html>")
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL)
	a.Nil(v)
	a.ErrorIs(err, ErrFetchFailed)
	a.Equal("Video page was unexpectedly short", Message(err))
	a.Empty(strategyNames(h))
}

func TestGetVideoInfoConfiguredMinimumBodySize(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	body := makeHTML(metaTagsHead)

	srv := serveHTML(http.StatusOK, body)
	defer srv.Close()

	ctx := ctxconfig.WithConfig(testContext(l, srv.Client()), config.Config{FetchMinimumBodySize: len(body) + 1})

	v, err := GetVideoInfo(ctx, srv.URL)
	a.Nil(v)
	a.ErrorIs(err, ErrFetchFailed)
}

func TestGetVideoInfoInvalidInput(t *testing.T) {
	for _, input := range []string{"", "   ", "not a url", "/watch?v=dQw4w9WgXcQ", "ftp://www.youtube.com/watch?v=dQw4w9WgXcQ", "https://"} {
		t.Run(input, func(t *testing.T) {
			a := assert.New(t)
			l, _ := testLogger()

			v, err := GetVideoInfo(testContext(l, nil), input)
			a.Nil(v)
			a.ErrorIs(err, ErrInvalidInput)
			a.Equal(http.StatusBadRequest, StatusCode(err))
		})
	}
}

func TestFetchPageHeaders(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	var got http.Header
	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		got = r.Header.Clone()
		rw.Write([]byte(makeHTML(metaTagsHead)))
	}))
	defer srv.Close()

	p, err := FetchPage(testContext(l, srv.Client()), srv.URL)
	a.NoError(err)
	a.NotNil(p)

	a.Contains(got.Get("User-Agent"), "Mozilla/5.0")
	a.Equal("text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8", got.Get("Accept"))
	a.Equal("en-US,en;q=0.9", got.Get("Accept-Language"))
	a.True(strings.HasPrefix(got.Get("Cookie"), "CONSENT=YES+"))
}

func TestExtractVideoInfoIdempotent(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	page := makePage(t, testWatchURL, makeHTML(metaTagsHead, initialDataScript))
	ctx := testContext(l, nil)

	v1, err := ExtractVideoInfo(ctx, page, DefaultStrategies)
	a.NoError(err)
	v2, err := ExtractVideoInfo(ctx, page, DefaultStrategies)
	a.NoError(err)

	a.Equal(v1, v2)
	a.Equal("Initial Title", v1.Title)
	a.Equal("Full structured description", v1.Description)
	a.Equal("01:02", v1.Duration)
}

func TestExtractVideoInfoNoTitle(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	v, err := ExtractVideoInfo(testContext(l, nil), makePage(t, testWatchURL, makeHTML("<title>YouTube</title>")), DefaultStrategies)
	a.Nil(v)
	a.ErrorIs(err, ErrExtractionFailed)
	a.ErrorIs(err, ErrNoTitle)
	a.Equal(http.StatusInternalServerError, StatusCode(err))
	a.Equal("Video details not found: no title found", Message(err))
}

func TestExtractVideoInfoNoVideoID(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	page := makePage(t, "https://example.com/some/page", makeHTML(`<meta property="og:title" content="Something">`))

	v, err := ExtractVideoInfo(testContext(l, nil), page, DefaultStrategies)
	a.Nil(v)
	a.ErrorIs(err, ErrExtractionFailed)
	a.ErrorIs(err, ErrNoVideoID)
	a.Equal("Video details not found: no video id found", Message(err))
}

func TestExtractVideoInfoVideoIDFromOtherStrategy(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	// the winning meta tags carry no id; the player payload does
	script := `var ytInitialPlayerResponse = {"videoDetails": {"videoId": "a-b_c1D2e3F"}};`
	page := makePage(t, "https://example.com/some/page", makeHTML(`<meta property="og:title" content="Something">`, script))

	v, err := ExtractVideoInfo(testContext(l, nil), page, DefaultStrategies)
	a.NoError(err)
	if a.NotNil(v) {
		a.Equal("Something", v.Title)
		a.Equal("a-b_c1D2e3F", v.VideoID)
	}
}

func TestExtractVideoInfoVideoIDFromSuppliedStrategies(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	var calls []string
	strategies := []Strategy{
		{Name: "id_only", Func: func(l logrus.FieldLogger, p *Page) (*Candidate, error) {
			calls = append(calls, "id_only")
			return &Candidate{VideoID: ptr.String("a-b_c1D2e3F")}, nil
		}},
		{Name: "title_only", Func: func(l logrus.FieldLogger, p *Page) (*Candidate, error) {
			calls = append(calls, "title_only")
			return &Candidate{Title: ptr.String("Custom Title")}, nil
		}},
	}

	page := makePage(t, "https://example.com/some/page", makeHTML(metaTagsHead))

	v, err := ExtractVideoInfo(testContext(l, nil), page, strategies)
	a.NoError(err)
	if a.NotNil(v) {
		a.Equal("Custom Title", v.Title)
		a.Equal("a-b_c1D2e3F", v.VideoID)
	}
	a.Equal([]string{"id_only", "title_only"}, calls)
}

func TestExtractVideoInfoParseFailureLoggedOnce(t *testing.T) {
	a := assert.New(t)
	l, h := testLogger()

	// the winner has no id, so every strategy is consulted again for one
	script := `var ytInitialPlayerResponse = {"videoDetails": ;`
	page := makePage(t, "https://example.com/some/page", makeHTML(`<meta property="og:title" content="Something">`, script))

	_, err := ExtractVideoInfo(testContext(l, nil), page, DefaultStrategies)
	a.ErrorIs(err, ErrNoVideoID)

	var parseFailures int
	for _, e := range h.AllEntries() {
		if e.Message == "could not parse embedded payload" {
			parseFailures++
		}
	}
	a.Equal(1, parseFailures)
}

func TestGetVideoInfoVideoIDFromAnyWatchURL(t *testing.T) {
	a := assert.New(t)
	l, _ := testLogger()

	srv := serveHTML(http.StatusOK, makeHTML(`<meta property="og:title" content="Mirrored">`))
	defer srv.Close()

	v, err := GetVideoInfo(testContext(l, srv.Client()), srv.URL+"/watch?v="+testVideoID)
	a.NoError(err)
	if a.NotNil(v) {
		a.Equal("Mirrored", v.Title)
		a.Equal(testVideoID, v.VideoID)
	}
}

func TestFindLengthSeconds(t *testing.T) {
	a := assert.New(t)

	n, ok := FindLengthSeconds([]byte(`..."videoDetails":{"lengthSeconds":"213","title":...`))
	a.True(ok)
	a.Equal(213, n)

	_, ok = FindLengthSeconds([]byte(`{"lengthSeconds":213}`))
	a.False(ok)
}
