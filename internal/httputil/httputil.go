package httputil

import (
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
	"fknsrs.biz/p/ytinfo/internal/ytdirect"
)

// ErrorResponse carries the request id when one was assigned, so a client
// report can be matched to the server's log lines.
type ErrorResponse struct {
	StatusCode int    `json:"statusCode"`
	Message    string `json:"message"`
	RequestID  string `json:"requestId,omitempty"`
}

func WriteJSON(rw http.ResponseWriter, status int, v interface{}) error {
	rw.Header().Set("content-type", "application/json; charset=utf-8")
	rw.WriteHeader(status)

	enc := json.NewEncoder(rw)
	enc.SetEscapeHTML(false)

	return enc.Encode(v)
}

// WriteError reports err as {"statusCode", "message"}. Only the mapped
// message leaves the process; the full error goes to the log.
func WriteError(rw http.ResponseWriter, r *http.Request, err error) {
	status := ytdirect.StatusCode(err)

	l := ctxlogger.GetLogger(r.Context()).WithError(err).WithField("http.status_code", status)
	if status >= 500 {
		l.Error("request failed")
	} else {
		l.Info("request rejected")
	}

	if err := WriteJSON(rw, status, ErrorResponse{StatusCode: status, Message: ytdirect.Message(err), RequestID: ctxlogger.GetRequestID(r.Context())}); err != nil {
		l.WithError(err).Warn("could not write error response")
	}
}

func WriteErrorStatus(rw http.ResponseWriter, r *http.Request, status int, message string) {
	ctxlogger.GetLogger(r.Context()).WithFields(logrus.Fields{
		"http.status_code": status,
		"http.message":     message,
	}).Info("request rejected")

	if err := WriteJSON(rw, status, ErrorResponse{StatusCode: status, Message: message, RequestID: ctxlogger.GetRequestID(r.Context())}); err != nil {
		ctxlogger.GetLogger(r.Context()).WithError(err).Warn("could not write error response")
	}
}

func RedirectWithError(rw http.ResponseWriter, r *http.Request, baseURL, message string) {
	u, err := url.Parse(baseURL)
	if err != nil {
		panic(err)
	}

	q := u.Query()
	q.Set("error", message)
	u.RawQuery = q.Encode()

	http.Redirect(rw, r, u.String(), http.StatusFound)
}

func NotFound(rw http.ResponseWriter, r *http.Request) {
	if strings.HasPrefix(r.URL.Path, "/api/") {
		WriteErrorStatus(rw, r, http.StatusNotFound, "Not found")
		return
	}

	http.Error(rw, "Not found", http.StatusNotFound)
}
