package ytdirect

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"fknsrs.biz/p/ytinfo/internal/timeutil"
)

// FormatDuration renders MM:SS, or HH:MM once there is at least one full
// hour. The hour form has no seconds component; existing consumers depend
// on it.
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}

	h := seconds / 3600
	m := (seconds % 3600) / 60
	s := seconds % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d", h, m)
	}

	return fmt.Sprintf("%02d:%02d", m, s)
}

var durationTextPattern = regexp.MustCompile(`^(?:(\d+):)?(\d{1,2}):(\d{2})$`)

// ParseDurationText reads "M:SS", "MM:SS" and "H:MM:SS".
func ParseDurationText(s string) (int, bool) {
	m := durationTextPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return 0, false
	}

	var total int
	for i, mul := range []int{3600, 60, 1} {
		if m[i+1] == "" {
			continue
		}

		n, err := strconv.Atoi(m[i+1])
		if err != nil {
			return 0, false
		}

		total += n * mul
	}

	return total, true
}

var durationLabelPatterns = []struct {
	re  *regexp.Regexp
	mul int
}{
	{regexp.MustCompile(`(?i)(\d+)\s*hours?\b`), 3600},
	{regexp.MustCompile(`(?i)(\d+)\s*minutes?\b`), 60},
	{regexp.MustCompile(`(?i)(\d+)\s*seconds?\b`), 1},
}

// ParseDurationLabel reads spoken durations such as "3 minutes, 25 seconds"
// or "1 hour 2 minutes".
func ParseDurationLabel(s string) (int, bool) {
	var total int
	var found bool

	for _, p := range durationLabelPatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}

		n, err := strconv.Atoi(m[1])
		if err != nil {
			continue
		}

		total += n * p.mul
		found = true
	}

	return total, found
}

// ParseISODuration reads the PT#H#M#S form used by schema.org markup and
// the Data API.
func ParseISODuration(s string) (int, bool) {
	d, err := timeutil.ParseISODuration(strings.TrimSpace(s))
	if err != nil || d < 0 {
		return 0, false
	}

	return d.Seconds(), true
}
