package ytdirect

import (
	"strings"

	"fknsrs.biz/p/ytinfo/internal/ptr"
)

type Thumbnail struct {
	URL    string
	Width  int
	Height int
}

// Candidate is what a single strategy managed to read. Every field is
// optional until the candidate is accepted.
type Candidate struct {
	VideoID         *string
	Title           *string
	Description     *string
	DurationSeconds *int
	Thumbnails      []Thumbnail
}

// Accepted reports whether the candidate can be promoted to a result.
func (c *Candidate) Accepted() bool {
	return c != nil && c.Title != nil && *c.Title != ""
}

func (c *Candidate) setVideoID(s string) {
	if s = strings.TrimSpace(s); c.VideoID == nil && s != "" {
		c.VideoID = ptr.String(s)
	}
}

func (c *Candidate) setTitle(s string) {
	if s = strings.TrimSpace(s); c.Title == nil && s != "" && !IsPlatformTitle(s) {
		c.Title = ptr.String(s)
	}
}

func (c *Candidate) setDescription(s string) {
	if s = strings.TrimSpace(s); c.Description == nil && s != "" && !IsBoilerplateDescription(s) {
		c.Description = ptr.String(s)
	}
}

func (c *Candidate) setDurationSeconds(n int) {
	if c.DurationSeconds == nil && n > 0 {
		c.DurationSeconds = ptr.Int(n)
	}
}

func (c *Candidate) addThumbnails(a []Thumbnail) {
	for _, e := range a {
		if e.URL == "" {
			continue
		}

		c.Thumbnails = append(c.Thumbnails, e)
	}
}

func (c *Candidate) String() string {
	if c == nil {
		return "<nil>"
	}

	var fields []string
	if c.VideoID != nil {
		fields = append(fields, "video_id")
	}
	if c.Title != nil {
		fields = append(fields, "title")
	}
	if c.Description != nil {
		fields = append(fields, "description")
	}
	if c.DurationSeconds != nil {
		fields = append(fields, "duration")
	}
	if len(c.Thumbnails) > 0 {
		fields = append(fields, "thumbnail")
	}

	return "{" + strings.Join(fields, ",") + "}"
}

const (
	platformName        = "YouTube"
	platformTitleSuffix = " - YouTube"
	boilerplateText     = "enjoy the videos and music you love, upload original content, and share it all with friends, family, and the world on youtube"
)

func IsPlatformTitle(s string) bool {
	return strings.EqualFold(strings.TrimSpace(s), platformName)
}

func IsBoilerplateDescription(s string) bool {
	return strings.Contains(strings.ToLower(s), boilerplateText)
}
