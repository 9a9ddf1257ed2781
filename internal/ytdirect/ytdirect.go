package ytdirect

import (
	"context"
	"fmt"
	"regexp"
	"strconv"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/catchpanic"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/ytutil"
)

// GetVideoInfo fetches rawURL and runs the default strategy chain over it.
func GetVideoInfo(ctx context.Context, rawURL string) (*VideoMetadata, error) {
	page, err := FetchPage(ctx, rawURL)
	if err != nil {
		return nil, err
	}

	return ExtractVideoInfo(ctx, page, DefaultStrategies)
}

// ExtractVideoInfo is everything after the fetch. It is deterministic for a
// given page and strategy list.
func ExtractVideoInfo(ctx context.Context, page *Page, strategies []Strategy) (*VideoMetadata, error) {
	l := ctxlogger.GetLogger(ctx)
	if page.URL != nil {
		l = l.WithField("youtube.url", page.URL.String())
	}

	strategies = rememberResults(strategies)

	c, name, err := RunStrategies(l, page, strategies)
	if err != nil {
		l.WithError(err).Warn("no extraction strategy succeeded")
		return nil, ExtractionFailed(err)
	}

	videoID, source := resolveVideoID(l, page, c, strategies)
	if videoID == "" {
		err := fmt.Errorf("ytdirect.ExtractVideoInfo: %w", ErrNoVideoID)
		l.WithError(err).WithField("youtube.strategy", name).Warn("could not resolve video id")
		return nil, ExtractionFailed(err)
	}

	v, err := Normalize(c, videoID)
	if err != nil {
		return nil, ExtractionFailed(fmt.Errorf("ytdirect.ExtractVideoInfo: %w", err))
	}

	l.WithFields(logrus.Fields{
		"youtube.strategy":        name,
		"youtube.video_id":        v.VideoID,
		"youtube.video_id_source": source,
		"youtube.duration":        v.DurationSeconds,
	}).Info("extracted video info")

	return v, nil
}

// resolveVideoID prefers the id in the requested URL, then the winning
// candidate, then whatever the other strategies found on the page.
func resolveVideoID(l logrus.FieldLogger, page *Page, c *Candidate, strategies []Strategy) (string, string) {
	if page.URL != nil {
		if id, err := ytutil.ExtractVideoID(page.URL.String()); err == nil {
			return id, "url"
		}
	}

	if c.VideoID != nil && ytutil.IsVideoID(*c.VideoID) {
		return *c.VideoID, "candidate"
	}

	for _, s := range strategies {
		other, err := catchpanic.CatchErr1(func() (*Candidate, error) { return s.Func(l, page) })
		if err != nil || other == nil || other.VideoID == nil {
			continue
		}

		if ytutil.IsVideoID(*other.VideoID) {
			return *other.VideoID, s.Name
		}
	}

	return "", ""
}

var lengthSecondsPattern = regexp.MustCompile(`"lengthSeconds"\s*:\s*"(\d+)"`)

// FindLengthSeconds is a cheap scan of the raw page for the player's
// lengthSeconds field, without decoding any payloads.
func FindLengthSeconds(body []byte) (int, bool) {
	m := lengthSecondsPattern.FindSubmatch(body)
	if m == nil {
		return 0, false
	}

	n, err := strconv.Atoi(string(m[1]))
	if err != nil {
		return 0, false
	}

	return n, true
}
