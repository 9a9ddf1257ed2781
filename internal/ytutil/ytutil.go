package ytutil

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"
)

const VideoIDLength = 11

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

func IsVideoID(s string) bool {
	return videoIDPattern.MatchString(s)
}

var (
	longFormHosts = map[string]bool{
		"youtube.com":       true,
		"www.youtube.com":   true,
		"m.youtube.com":     true,
		"music.youtube.com": true,
	}
	noCookieHosts = map[string]bool{
		"youtube-nocookie.com":     true,
		"www.youtube-nocookie.com": true,
	}
	shortLinkHosts = map[string]bool{
		"youtu.be":     true,
		"www.youtu.be": true,
	}
	// path prefixes whose next segment is the video id
	idPathPrefixes = []string{"shorts", "embed", "live", "v"}
)

func ExtractVideoID(urlOrID string) (string, error) {
	urlOrID = strings.TrimSpace(urlOrID)

	if IsVideoID(urlOrID) {
		return urlOrID, nil
	}

	parsed, err := parseURL(urlOrID)
	if err != nil {
		return "", fmt.Errorf("ytutil.ExtractVideoID: %w", err)
	}

	host := strings.ToLower(parsed.Hostname())
	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	switch {
	case longFormHosts[host]:
		if segments[0] == "watch" {
			id := parsed.Query().Get("v")
			if id == "" {
				return "", fmt.Errorf("ytutil.ExtractVideoID: no v query parameter in youtube.com url")
			}

			return checkVideoID(id, "v parameter in youtube.com url")
		}

		if id, ok := idFromPath(segments); ok {
			return checkVideoID(id, "path of youtube.com url")
		}

		return "", fmt.Errorf("ytutil.ExtractVideoID: no video id found in youtube.com url")
	case noCookieHosts[host]:
		if id, ok := idFromPath(segments); ok {
			return checkVideoID(id, "path of youtube-nocookie.com url")
		}

		return "", fmt.Errorf("ytutil.ExtractVideoID: no video id found in youtube-nocookie.com url")
	case shortLinkHosts[host]:
		if segments[0] != "" {
			return checkVideoID(segments[0], "youtu.be url")
		}

		return "", fmt.Errorf("ytutil.ExtractVideoID: no path content found in youtu.be url")
	}

	// mirrors and proxies often keep the watch page's query string
	if id := parsed.Query().Get("v"); id != "" {
		return checkVideoID(id, "v parameter in url")
	}

	return "", fmt.Errorf("ytutil.ExtractVideoID: invalid url or id; could not find a known pattern")
}

func parseURL(s string) (*url.URL, error) {
	parsed, err := url.Parse(s)
	if err != nil {
		return nil, err
	}

	// "youtu.be/ID" without a scheme parses as a bare path
	if parsed.Host == "" && parsed.Scheme == "" {
		if reparsed, err := url.Parse("https://" + s); err == nil && strings.Contains(reparsed.Host, ".") {
			parsed = reparsed
		}
	}

	return parsed, nil
}

func idFromPath(segments []string) (string, bool) {
	if len(segments) < 2 {
		return "", false
	}

	for _, prefix := range idPathPrefixes {
		if segments[0] == prefix && segments[1] != "" {
			return segments[1], true
		}
	}

	return "", false
}

func checkVideoID(id, where string) (string, error) {
	if !IsVideoID(id) {
		return "", fmt.Errorf("ytutil.ExtractVideoID: invalid video id for %s; should be %d characters of [A-Za-z0-9_-]", where, VideoIDLength)
	}

	return id, nil
}

// IsYouTubeURL reports whether s is a URL on one of the platform's own
// hosts. Bare ids are not URLs.
func IsYouTubeURL(s string) bool {
	s = strings.TrimSpace(s)
	if s == "" || IsVideoID(s) {
		return false
	}

	parsed, err := parseURL(s)
	if err != nil {
		return false
	}

	host := strings.ToLower(parsed.Hostname())

	return longFormHosts[host] || noCookieHosts[host] || shortLinkHosts[host]
}

func WatchURL(id string) string {
	return "https://www.youtube.com/watch?v=" + url.QueryEscape(id)
}
