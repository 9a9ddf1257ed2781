package ytdirect

import (
	"fmt"
	"strings"

	"fknsrs.biz/p/ytinfo/internal/ptr"
)

type VideoMetadata struct {
	Title           string `json:"title"`
	Description     string `json:"description"`
	ThumbnailURL    string `json:"thumbnailUrl"`
	Duration        string `json:"duration"`
	DurationSeconds int    `json:"-"`
	VideoID         string `json:"videoId"`
}

func ThumbnailFallbackURL(videoID string) string {
	return "https://i.ytimg.com/vi/" + videoID + "/maxresdefault.jpg"
}

// Normalize turns an accepted candidate into the canonical record. videoID
// has already been resolved by the caller.
func Normalize(c *Candidate, videoID string) (*VideoMetadata, error) {
	if !c.Accepted() {
		return nil, fmt.Errorf("ytdirect.Normalize: %w", ErrNoTitle)
	}

	title := strings.TrimSpace(*c.Title)
	if title == "" {
		return nil, fmt.Errorf("ytdirect.Normalize: %w", ErrNoTitle)
	}

	videoID = strings.TrimSpace(videoID)
	if videoID == "" {
		return nil, fmt.Errorf("ytdirect.Normalize: %w", ErrNoVideoID)
	}

	description := strings.TrimSpace(ptr.Deref(c.Description))
	if IsBoilerplateDescription(description) {
		description = ""
	}

	seconds := ptr.Deref(c.DurationSeconds)
	if seconds < 0 {
		seconds = 0
	}

	return &VideoMetadata{
		Title:           title,
		Description:     description,
		ThumbnailURL:    pickThumbnail(c, videoID),
		Duration:        FormatDuration(seconds),
		DurationSeconds: seconds,
		VideoID:         videoID,
	}, nil
}

func pickThumbnail(c *Candidate, videoID string) string {
	best := -1
	for i, e := range c.Thumbnails {
		if e.URL == "" || e.Width <= 0 {
			continue
		}

		if best == -1 || e.Width > c.Thumbnails[best].Width {
			best = i
		}
	}
	if best != -1 {
		return c.Thumbnails[best].URL
	}

	return ThumbnailFallbackURL(videoID)
}
