package ytdirect

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/Jeffail/gabs/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/sirupsen/logrus"
	"golang.org/x/net/html"
)

// Page is a fetched watch page, parsed once and shared read-only by every
// strategy in the chain.
type Page struct {
	URL      *url.URL
	Body     []byte
	Document *goquery.Document
}

func NewPage(u *url.URL, body []byte) (*Page, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("ytdirect.NewPage: %w", err)
	}

	return &Page{URL: u, Body: body, Document: doc}, nil
}

// Scripts returns the text content of every inline script block, in
// document order.
func (p *Page) Scripts() []string {
	var a []string

	for _, node := range p.Document.Find("script").Nodes {
		var b strings.Builder
		for c := node.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.TextNode {
				b.WriteString(c.Data)
			}
		}

		if b.Len() == 0 {
			continue
		}

		a = append(a, b.String())
	}

	return a
}

const (
	playerResponseVariable = "ytInitialPlayerResponse"
	initialDataVariable    = "ytInitialData"
)

var assignmentPatterns = map[string]*regexp.Regexp{
	playerResponseVariable: makeAssignmentPattern(playerResponseVariable),
	initialDataVariable:    makeAssignmentPattern(initialDataVariable),
}

// matches `var x = {`, `window["x"] = {` and `x = {`; the match ends on the
// opening brace of the payload
func makeAssignmentPattern(name string) *regexp.Regexp {
	return regexp.MustCompile(`(?:var\s+|window\s*\[\s*["'])?` + regexp.QuoteMeta(name) + `(?:["']\s*\])?\s*=\s*\{`)
}

// FindPayload decodes the first parseable JSON object assigned to the named
// variable in any inline script. Blocks that fail to parse are logged and
// skipped.
func (p *Page) FindPayload(l logrus.FieldLogger, name string) *gabs.Container {
	re, ok := assignmentPatterns[name]
	if !ok {
		re = makeAssignmentPattern(name)
	}

	for i, script := range p.Scripts() {
		loc := re.FindStringIndex(script)
		if loc == nil {
			continue
		}

		// json.Decoder stops after the first value, so trailing javascript
		// (`;var meta = ...`) is ignored
		j, err := gabs.ParseJSONDecoder(json.NewDecoder(strings.NewReader(script[loc[1]-1:])))
		if err != nil {
			l.WithError(err).WithFields(logrus.Fields{
				"youtube.payload":      name,
				"youtube.script_index": i,
			}).Warn("could not parse embedded payload")
			continue
		}

		if _, ok := j.Data().(map[string]interface{}); !ok {
			continue
		}

		return j
	}

	return nil
}

// meta returns the trimmed content attribute of the first element matching
// selector.
func (p *Page) meta(selector string) string {
	return strings.TrimSpace(p.Document.Find(selector).First().AttrOr("content", ""))
}
