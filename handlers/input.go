package handlers

import (
	"fmt"
	"html/template"
	"net/http"

	"github.com/monoculum/formam"

	"fknsrs.biz/p/ytinfo/internal/ytdirect"
	"fknsrs.biz/p/ytinfo/internal/ytutil"
)

var queryDecoder = formam.NewDecoder(&formam.DecoderOptions{
	TagName:           "formam",
	IgnoreUnknownKeys: true,
})

type lookupInput struct {
	URL string `formam:"url"`
}

func decodeLookupInput(r *http.Request) (*lookupInput, error) {
	var input lookupInput

	if err := queryDecoder.Decode(r.URL.Query(), &input); err != nil {
		return nil, ytdirect.InvalidInput("Invalid query parameters", fmt.Errorf("handlers.decodeLookupInput: %w", err))
	}

	return &input, nil
}

func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"watch_url": ytutil.WatchURL,
		"first_of": func(a ...interface{}) string {
			for _, e := range a {
				if s := fmt.Sprintf("%v", e); s != "" {
					return s
				}
			}

			return ""
		},
	}
}
