package ytoembed

import (
	"context"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ctxhttpclient"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/ytdirect"
	"fknsrs.biz/p/ytinfo/internal/ytutil"
)

const DefaultBaseURL = "https://www.youtube.com"

const maximumResponseSize = 1 << 20

type Metadata struct {
	Title           string `json:"title"`
	Author          string `json:"author"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	VideoID         string `json:"videoId"`
	Duration        int    `json:"duration"`
	DurationMinutes int    `json:"durationMinutes"`
}

func baseURL(ctx context.Context) string {
	if s := strings.TrimSpace(ctxconfig.GetConfig(ctx).YouTubeBaseURL); s != "" {
		return strings.TrimSuffix(s, "/")
	}

	return DefaultBaseURL
}

func DurationMinutes(seconds int) int {
	if seconds <= 0 {
		return 0
	}

	return int(math.Ceil(float64(seconds) / 60))
}

// GetMetadata reads title, author and thumbnail from the oEmbed endpoint,
// then scans the watch page for the video length. The length is best
// effort; a page that can't be fetched reports zero.
func GetMetadata(ctx context.Context, rawURL string) (*Metadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ytdirect.InvalidInput("URL is required", nil)
	}

	// oEmbed only knows the platform's own urls
	if !ytutil.IsVideoID(rawURL) && !ytutil.IsYouTubeURL(rawURL) {
		return nil, ytdirect.InvalidInput("Could not extract video ID from URL", fmt.Errorf("ytoembed.GetMetadata: %q is not a youtube url", rawURL))
	}

	id, err := ytutil.ExtractVideoID(rawURL)
	if err != nil {
		return nil, ytdirect.InvalidInput("Could not extract video ID from URL", fmt.Errorf("ytoembed.GetMetadata: %w", err))
	}

	base := baseURL(ctx)

	l := ctxlogger.GetLogger(ctx).WithField("youtube.video_id", id)

	j, err := fetchOEmbed(ctx, base, ytutil.WatchURL(id))
	if err != nil {
		return nil, err
	}

	title, _ := j.Path("title").Data().(string)
	if title = strings.TrimSpace(title); title == "" {
		return nil, ytdirect.ExtractionFailed(fmt.Errorf("ytoembed.GetMetadata: %w", ytdirect.ErrNoTitle))
	}

	author, _ := j.Path("author_name").Data().(string)

	thumbnailURL, _ := j.Path("thumbnail_url").Data().(string)
	if thumbnailURL = strings.TrimSpace(thumbnailURL); thumbnailURL == "" {
		thumbnailURL = ytdirect.ThumbnailFallbackURL(id)
	}

	var seconds int
	if page, err := ytdirect.FetchPage(ctx, base+"/watch?v="+url.QueryEscape(id)); err != nil {
		l.WithError(err).Warn("could not fetch watch page for duration")
	} else if n, ok := ytdirect.FindLengthSeconds(page.Body); ok {
		seconds = n
	} else {
		l.Debug("no lengthSeconds on watch page")
	}

	m := Metadata{
		Title:           title,
		Author:          strings.TrimSpace(author),
		ThumbnailURL:    thumbnailURL,
		VideoID:         id,
		Duration:        seconds,
		DurationMinutes: DurationMinutes(seconds),
	}

	l.WithFields(logrus.Fields{
		"youtube.strategy": "oembed",
		"youtube.duration": seconds,
	}).Info("extracted video metadata")

	return &m, nil
}

func fetchOEmbed(ctx context.Context, base, watchURL string) (*gabs.Container, error) {
	u := base + "/oembed?" + url.Values{"url": {watchURL}, "format": {"json"}}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, ytdirect.FetchFailed(0, "Failed to fetch video metadata", fmt.Errorf("ytoembed.fetchOEmbed: %w", err))
	}
	req.Header.Set("accept", "application/json")

	res, err := ctxhttpclient.Do(ctx, req)
	if err != nil {
		return nil, ytdirect.FetchFailed(0, "Failed to fetch video metadata", fmt.Errorf("ytoembed.fetchOEmbed: %w", err))
	}
	defer res.Body.Close()

	switch {
	case res.StatusCode == http.StatusNotFound:
		return nil, ytdirect.NotFound("Video not found")
	case res.StatusCode < 200 || res.StatusCode > 299:
		return nil, ytdirect.FetchFailed(res.StatusCode, "Failed to fetch video metadata", fmt.Errorf("ytoembed.fetchOEmbed: status code: %d", res.StatusCode))
	}

	j, err := gabs.ParseJSONBuffer(io.LimitReader(res.Body, maximumResponseSize))
	if err != nil {
		return nil, ytdirect.FetchFailed(0, "Failed to read video metadata", fmt.Errorf("ytoembed.fetchOEmbed: %w", err))
	}

	return j, nil
}
