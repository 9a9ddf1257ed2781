package ytdirect

import (
	"math"
	"strconv"
	"strings"

	"github.com/Jeffail/gabs/v2"
)

// textOf reads the renderer text conventions used throughout the embedded
// payloads: a plain string, {"simpleText": ...}, {"runs": [{"text": ...}]}
// or {"content": ...}.
func textOf(j *gabs.Container) string {
	switch v := j.Data().(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(v)
	case map[string]interface{}:
		if s, ok := v["simpleText"].(string); ok {
			return strings.TrimSpace(s)
		}

		if runs := j.Path("runs").Children(); len(runs) > 0 {
			var b strings.Builder
			for _, run := range runs {
				if s, ok := run.Path("text").Data().(string); ok {
					b.WriteString(s)
				}
			}
			return strings.TrimSpace(b.String())
		}

		if s, ok := v["content"].(string); ok {
			return strings.TrimSpace(s)
		}
	}

	return ""
}

func textAt(j *gabs.Container, path string) string {
	return textOf(j.Path(path))
}

// intOf accepts JSON numbers and numeric strings. Negative and fractional
// values are rejected.
func intOf(j *gabs.Container) (int, bool) {
	switch v := j.Data().(type) {
	case float64:
		if v < 0 || v != math.Trunc(v) || v > math.MaxInt32*1000 {
			return 0, false
		}
		return int(v), true
	case string:
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			return 0, false
		}
		return n, true
	}

	return 0, false
}

func intAt(j *gabs.Container, path string) (int, bool) {
	return intOf(j.Path(path))
}

// thumbnailsAt reads a {"thumbnails": [{"url", "width", "height"}]} list.
func thumbnailsAt(j *gabs.Container, path string) []Thumbnail {
	var a []Thumbnail

	for _, e := range j.Path(path).Children() {
		u, ok := e.Path("url").Data().(string)
		if !ok || strings.TrimSpace(u) == "" {
			continue
		}

		if strings.HasPrefix(u, "//") {
			u = "https:" + u
		}

		width, _ := intAt(e, "width")
		height, _ := intAt(e, "height")

		a = append(a, Thumbnail{URL: strings.TrimSpace(u), Width: width, Height: height})
	}

	return a
}
