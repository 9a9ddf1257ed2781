package ytdirect

import (
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/sirupsen/logrus"
)

type initialDataRoot struct {
	name string
	// paths containing "*" may match several renderers
	path string

	title        []string
	description  []string
	durationText []string
	durationAria []string
	durationISO  []string
	seconds      []string
	thumbnails   []string

	// descriptions from structured roots take priority over every other
	// description field, wherever they appear in the table
	structured bool
}

const (
	watchResultsPath     = "contents.twoColumnWatchNextResults.results.results.contents.*"
	engagementItemsPath  = "engagementPanels.*.engagementPanelSectionListRenderer.content.structuredDescriptionContentRenderer.items.*"
	initialVideoIDPath   = "currentVideoEndpoint.watchEndpoint.videoId"
	reelVideoIDPath      = "currentVideoEndpoint.reelWatchEndpoint.videoId"
	lengthAriaLabelField = "lengthText.accessibility.accessibilityData.label"
)

var initialDataRoots = []initialDataRoot{
	{
		name:         "primary_info",
		path:         watchResultsPath + ".videoPrimaryInfoRenderer",
		title:        []string{"title"},
		durationText: []string{"lengthText"},
		durationAria: []string{lengthAriaLabelField},
	},
	{
		name:        "secondary_info",
		path:        watchResultsPath + ".videoSecondaryInfoRenderer",
		description: []string{"attributedDescription", "description"},
	},
	{
		name:         "player_overlay",
		path:         "playerOverlays.playerOverlayRenderer.videoDetails.playerOverlayVideoDetailsRenderer",
		title:        []string{"title"},
		durationText: []string{"lengthText"},
		durationAria: []string{lengthAriaLabelField},
	},
	{
		name:        "player_microformat",
		path:        "microformat.playerMicroformatRenderer",
		title:       []string{"title"},
		description: []string{"description"},
		seconds:     []string{"lengthSeconds"},
		thumbnails:  []string{"thumbnail.thumbnails"},
	},
	{
		name:        "microformat_data",
		path:        "microformat.microformatDataRenderer",
		title:       []string{"title"},
		description: []string{"description"},
		seconds:     []string{"videoDetails.durationSeconds"},
		durationISO: []string{"videoDetails.durationIso8601"},
		thumbnails:  []string{"thumbnail.thumbnails"},
	},
	{
		name:         "reel_header",
		path:         "overlay.reelPlayerOverlayRenderer.reelPlayerHeaderSupportedRenderers.reelPlayerHeaderRenderer",
		title:        []string{"reelTitleText"},
		durationText: []string{"lengthText"},
		durationAria: []string{lengthAriaLabelField},
	},
	{
		name:  "reel_overlay",
		path:  "overlay.reelPlayerOverlayRenderer",
		title: []string{"reelTitleText", "reelTitleOnExpandedStateText"},
	},
	{
		name:  "description_header",
		path:  engagementItemsPath + ".videoDescriptionHeaderRenderer",
		title: []string{"title"},
	},
	{
		name:        "structured_description",
		path:        engagementItemsPath + ".expandableVideoDescriptionBodyRenderer",
		description: []string{"attributedDescriptionBodyText", "descriptionBodyText"},
		structured:  true,
	},
}

func (r initialDataRoot) find(j *gabs.Container) []*gabs.Container {
	if !strings.Contains(r.path, "*") {
		if c := j.Path(r.path); c != nil && c.Data() != nil {
			return []*gabs.Container{c}
		}
		return nil
	}

	a := j.Path(r.path).Children()

	// each extra wildcard nests the matches one array deeper
	for n := strings.Count(r.path, "*"); n > 1; n-- {
		var b []*gabs.Container
		for _, e := range a {
			if _, ok := e.Data().([]interface{}); ok {
				b = append(b, e.Children()...)
			}
		}
		a = b
	}

	return a
}

func extractInitialData(l logrus.FieldLogger, p *Page) (*Candidate, error) {
	j := p.FindPayload(l, initialDataVariable)
	if j == nil {
		return nil, nil
	}

	var c Candidate
	var structured, short []string

	c.setVideoID(textAt(j, initialVideoIDPath))
	c.setVideoID(textAt(j, reelVideoIDPath))

	for _, root := range initialDataRoots {
		for _, r := range root.find(j) {
			for _, path := range root.title {
				c.setTitle(textAt(r, path))
			}

			for _, path := range root.description {
				if s := textAt(r, path); s != "" {
					if root.structured {
						structured = append(structured, s)
					} else {
						short = append(short, s)
					}
				}
			}

			for _, path := range root.seconds {
				if n, ok := intAt(r, path); ok {
					c.setDurationSeconds(n)
				}
			}

			for _, path := range root.durationText {
				if n, ok := ParseDurationText(textAt(r, path)); ok {
					c.setDurationSeconds(n)
				}
			}

			for _, path := range root.durationAria {
				if n, ok := ParseDurationLabel(textAt(r, path)); ok {
					c.setDurationSeconds(n)
				}
			}

			for _, path := range root.durationISO {
				if n, ok := ParseISODuration(textAt(r, path)); ok {
					c.setDurationSeconds(n)
				}
			}

			for _, path := range root.thumbnails {
				c.addThumbnails(thumbnailsAt(r, path))
			}
		}
	}

	for _, s := range append(structured, short...) {
		c.setDescription(s)
	}

	l.WithFields(logrus.Fields{
		"youtube.structured_descriptions": len(structured),
		"youtube.short_descriptions":      len(short),
	}).Trace("probed initial data")

	return &c, nil
}
