package ytdirect

import (
	"github.com/Jeffail/gabs/v2"
	"github.com/sirupsen/logrus"
)

const (
	playerVideoIDPath           = "videoDetails.videoId"
	playerTitlePath             = "videoDetails.title"
	playerDescriptionPath       = "videoDetails.shortDescription"
	playerLengthSecondsPath     = "videoDetails.lengthSeconds"
	playerThumbnailsPath        = "videoDetails.thumbnail.thumbnails"
	playerMicroformatTitle      = "microformat.playerMicroformatRenderer.title"
	playerMicroformatDesc       = "microformat.playerMicroformatRenderer.description.simpleText"
	playerMicroformatLength     = "microformat.playerMicroformatRenderer.lengthSeconds"
	playerMicroformatThumbnails = "microformat.playerMicroformatRenderer.thumbnail.thumbnails"
)

var playerFormatListPaths = []string{
	"streamingData.formats",
	"streamingData.adaptiveFormats",
}

func extractPlayerResponse(l logrus.FieldLogger, p *Page) (*Candidate, error) {
	j := p.FindPayload(l, playerResponseVariable)
	if j == nil {
		return nil, nil
	}

	var c Candidate

	c.setVideoID(textAt(j, playerVideoIDPath))

	c.setTitle(textAt(j, playerTitlePath))
	c.setTitle(textAt(j, playerMicroformatTitle))

	c.setDescription(textAt(j, playerDescriptionPath))
	c.setDescription(textAt(j, playerMicroformatDesc))

	if ms, ok := maxApproxDurationMs(j); ok {
		c.setDurationSeconds(ms / 1000)
	}
	if n, ok := intAt(j, playerLengthSecondsPath); ok {
		c.setDurationSeconds(n)
	}
	if n, ok := intAt(j, playerMicroformatLength); ok {
		c.setDurationSeconds(n)
	}

	c.addThumbnails(thumbnailsAt(j, playerThumbnailsPath))
	c.addThumbnails(thumbnailsAt(j, playerMicroformatThumbnails))

	return &c, nil
}

// maxApproxDurationMs looks at every stream format's approxDurationMs; the
// formats disagree by a few milliseconds, so the largest is used.
func maxApproxDurationMs(j *gabs.Container) (int, bool) {
	var best int
	var found bool

	for _, path := range playerFormatListPaths {
		for _, format := range j.Path(path).Children() {
			n, ok := intAt(format, "approxDurationMs")
			if !ok || n <= 0 {
				continue
			}

			if !found || n > best {
				best, found = n, true
			}
		}
	}

	return best, found
}
