package handlers

import (
	"net/http"

	"fknsrs.biz/p/ytinfo/internal/ctxconfig"
	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/httputil"
	"fknsrs.biz/p/ytinfo/internal/ytapi"
	"fknsrs.biz/p/ytinfo/internal/ytdirect"
	"fknsrs.biz/p/ytinfo/internal/ytoembed"
)

func writeResult(rw http.ResponseWriter, r *http.Request, v interface{}) {
	if err := httputil.WriteJSON(rw, http.StatusOK, v); err != nil {
		ctxlogger.GetLogger(r.Context()).WithError(err).Warn("could not write response")
	}
}

// VideoInfo scrapes the watch page named by the url parameter. Any http(s)
// host is fetched, not only the platform's own, so the service must not be
// exposed where it can reach internal addresses.
func VideoInfo(rw http.ResponseWriter, r *http.Request) {
	input, err := decodeLookupInput(r)
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	v, err := ytdirect.GetVideoInfo(r.Context(), input.URL)
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	writeResult(rw, r, v)
}

func VideoMetadata(rw http.ResponseWriter, r *http.Request) {
	input, err := decodeLookupInput(r)
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	m, err := ytoembed.GetMetadata(r.Context(), input.URL)
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	writeResult(rw, r, m)
}

// VideoDetails asks the Data API, which needs a configured key.
func VideoDetails(rw http.ResponseWriter, r *http.Request) {
	if ctxconfig.YouTubeAPIKey(r.Context()) == "" {
		httputil.WriteErrorStatus(rw, r, http.StatusNotImplemented, "YouTube Data API is not configured")
		return
	}

	input, err := decodeLookupInput(r)
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	c, err := ytapi.NewClientFromContext(r.Context())
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	v, err := c.GetVideo(r.Context(), input.URL)
	if err != nil {
		httputil.WriteError(rw, r, err)
		return
	}

	writeResult(rw, r, v)
}
