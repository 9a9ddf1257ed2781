package ytdirect

import (
	"strings"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ytutil"
)

var (
	metaTitleSelectors = []string{
		`meta[property="og:title"]`,
		`meta[name="title"]`,
		`meta[name="twitter:title"]`,
	}
	metaDescriptionSelectors = []string{
		`meta[property="og:description"]`,
		`meta[name="description"]`,
		`meta[itemprop="description"]`,
	}
)

func extractMetaTags(l logrus.FieldLogger, p *Page) (*Candidate, error) {
	var c Candidate

	for _, sel := range metaTitleSelectors {
		c.setTitle(p.meta(sel))
	}
	c.setTitle(strings.TrimSuffix(strings.TrimSpace(p.Document.Find("title").First().Text()), platformTitleSuffix))

	for _, sel := range metaDescriptionSelectors {
		s := p.meta(sel)
		if IsBoilerplateDescription(s) {
			l.WithField("youtube.selector", sel).Debug("skipping boilerplate description")
			continue
		}

		c.setDescription(s)
	}

	if n, ok := ParseISODuration(p.meta(`meta[itemprop="duration"]`)); ok {
		c.setDurationSeconds(n)
	}

	c.setVideoID(p.meta(`meta[itemprop="videoId"]`))
	c.setVideoID(p.meta(`meta[itemprop="identifier"]`))
	if href, ok := p.Document.Find(`link[rel="canonical"]`).First().Attr("href"); ok {
		if id, err := ytutil.ExtractVideoID(href); err == nil {
			c.setVideoID(id)
		}
	}
	if id, err := ytutil.ExtractVideoID(p.meta(`meta[property="og:url"]`)); err == nil {
		c.setVideoID(id)
	}

	return &c, nil
}
