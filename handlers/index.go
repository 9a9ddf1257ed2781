package handlers

import (
	"net/http"
	"strings"

	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ctxtemplate"
	"fknsrs.biz/p/ytinfo/internal/httputil"
	"fknsrs.biz/p/ytinfo/internal/ytdirect"
)

func Index(rw http.ResponseWriter, r *http.Request) {
	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, http.StatusOK, "page_index", map[string]interface{}{
		"URL":        "",
		"APIEnabled": ctxconfig.YouTubeAPIKey(r.Context()) != "",
	}); err != nil {
		panic(err)
	}
}

// Lookup is the HTML rendering of VideoInfo.
func Lookup(rw http.ResponseWriter, r *http.Request) {
	input, err := decodeLookupInput(r)
	if err != nil {
		httputil.RedirectWithError(rw, r, "/", ytdirect.Message(err))
		return
	}

	if strings.TrimSpace(input.URL) == "" {
		httputil.RedirectWithError(rw, r, "/", "URL is required")
		return
	}

	v, err := ytdirect.GetVideoInfo(r.Context(), input.URL)
	if err != nil {
		if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, ytdirect.StatusCode(err), "page_lookup", map[string]interface{}{
			"URL":   input.URL,
			"Error": ytdirect.Message(err),
		}); err != nil {
			panic(err)
		}

		return
	}

	if err := ctxtemplate.ExecuteTemplateIntoResponse(r, rw, http.StatusOK, "page_lookup", map[string]interface{}{
		"URL":   input.URL,
		"Video": v,
	}); err != nil {
		panic(err)
	}
}
