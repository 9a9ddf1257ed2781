package ytapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ctxhttpclient"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/ptr"
	"fknsrs.biz/p/ytinfo/internal/ytdirect"
	"fknsrs.biz/p/ytinfo/internal/ytutil"
)

var (
	ErrNoAPIKey = fmt.Errorf("ytapi.ErrNoAPIKey: no api key configured")
)

var videoParts = []string{"snippet", "contentDetails"}

type Client struct {
	svc *youtube.Service
}

// NewClient builds a Data API client on top of httpClient. option.WithAPIKey
// is ignored once a client is supplied, so the key goes in via the transport.
func NewClient(ctx context.Context, httpClient *http.Client, apiKey, endpoint string) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("ytapi.NewClient: %w", ErrNoAPIKey)
	}

	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	opts := []option.ClientOption{
		option.WithHTTPClient(&http.Client{
			Transport: &transport.APIKey{Key: apiKey, Transport: httpClient.Transport},
			Timeout:   httpClient.Timeout,
		}),
	}
	if endpoint != "" {
		if !strings.HasSuffix(endpoint, "/") {
			endpoint += "/"
		}

		opts = append(opts, option.WithEndpoint(endpoint))
	}

	svc, err := youtube.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ytapi.NewClient: %w", err)
	}

	return &Client{svc: svc}, nil
}

// NewClientFromContext uses the key, endpoint and HTTP client registered on
// ctx.
func NewClientFromContext(ctx context.Context) (*Client, error) {
	cfg := ctxconfig.GetConfig(ctx)

	return NewClient(ctx, ctxhttpclient.GetHTTPClient(ctx), cfg.YouTubeAPIKey, cfg.YouTubeAPIEndpoint)
}

func (c *Client) GetVideo(ctx context.Context, rawURL string) (*ytdirect.VideoMetadata, error) {
	rawURL = strings.TrimSpace(rawURL)
	if rawURL == "" {
		return nil, ytdirect.InvalidInput("URL is required", nil)
	}

	if !ytutil.IsVideoID(rawURL) && !ytutil.IsYouTubeURL(rawURL) {
		return nil, ytdirect.InvalidInput("Invalid YouTube URL", fmt.Errorf("ytapi.Client.GetVideo: %q is not a youtube url", rawURL))
	}

	id, err := ytutil.ExtractVideoID(rawURL)
	if err != nil {
		return nil, ytdirect.InvalidInput("Invalid YouTube URL", fmt.Errorf("ytapi.Client.GetVideo: %w", err))
	}

	l := ctxlogger.GetLogger(ctx).WithField("youtube.video_id", id)

	res, err := c.svc.Videos.List(videoParts).Id(id).Context(ctx).Do()
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			if apiErr.Code == http.StatusNotFound {
				return nil, ytdirect.NotFound("Video not found")
			}

			return nil, ytdirect.FetchFailed(apiErr.Code, "Failed to fetch video details", fmt.Errorf("ytapi.Client.GetVideo: %w", err))
		}

		return nil, ytdirect.FetchFailed(0, "Failed to fetch video details", fmt.Errorf("ytapi.Client.GetVideo: %w", err))
	}

	if len(res.Items) == 0 {
		l.Debug("video not found")
		return nil, ytdirect.NotFound("Video not found")
	}

	v, err := ytdirect.Normalize(CandidateFromVideo(res.Items[0]), id)
	if err != nil {
		return nil, ytdirect.ExtractionFailed(fmt.Errorf("ytapi.Client.GetVideo: %w", err))
	}

	l.WithFields(logrus.Fields{
		"youtube.strategy": "data_api",
		"youtube.duration": v.DurationSeconds,
	}).Info("extracted video info")

	return v, nil
}

func CandidateFromVideo(v *youtube.Video) *ytdirect.Candidate {
	var c ytdirect.Candidate

	if v == nil {
		return &c
	}

	c.VideoID = ptr.NonZero(v.Id)

	if s := v.Snippet; s != nil {
		c.Title = ptr.NonZero(strings.TrimSpace(s.Title))
		c.Description = ptr.NonZero(strings.TrimSpace(s.Description))

		if s.Thumbnails != nil {
			for _, e := range []*youtube.Thumbnail{
				s.Thumbnails.Default,
				s.Thumbnails.Medium,
				s.Thumbnails.High,
				s.Thumbnails.Standard,
				s.Thumbnails.Maxres,
			} {
				if e == nil || e.Url == "" {
					continue
				}

				c.Thumbnails = append(c.Thumbnails, ytdirect.Thumbnail{
					URL:    e.Url,
					Width:  int(e.Width),
					Height: int(e.Height),
				})
			}
		}
	}

	if d := v.ContentDetails; d != nil {
		if n, ok := ytdirect.ParseISODuration(d.Duration); ok && n > 0 {
			c.DurationSeconds = ptr.Int(n)
		}
	}

	return &c
}
