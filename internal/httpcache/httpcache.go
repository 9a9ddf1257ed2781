package httpcache

import (
	"bytes"
	"crypto/sha1"
	"encoding/gob"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"github.com/sirupsen/logrus"
	"go.etcd.io/bbolt"

	"fknsrs.biz/p/ytinfo/internal/ctxlogger"
)

const (
	DefaultMaxAge = time.Hour * 24
	// DefaultMaximumBodySize matches the most the page fetcher will read.
	DefaultMaximumBodySize = 16 << 20
)

type cachedResponse struct {
	UpdatedAt  time.Time
	URL        string
	Status     string
	StatusCode int
	Header     http.Header
	Body       []byte
}

func (r *cachedResponse) makeResponse(req *http.Request) *http.Response {
	return &http.Response{
		Status:        r.Status,
		StatusCode:    r.StatusCode,
		Proto:         "HTTP/1.1",
		ProtoMajor:    1,
		ProtoMinor:    1,
		Header:        r.Header.Clone(),
		Body:          io.NopCloser(bytes.NewReader(r.Body)),
		ContentLength: int64(len(r.Body)),
		Request:       req,
	}
}

type Storage interface {
	Fetch(u *url.URL) (*cachedResponse, error)
	Save(u *url.URL, res *http.Response, body []byte) (*cachedResponse, error)
}

var bboltBucketName = []byte("pages")

type BBoltStorage struct {
	db  *bbolt.DB
	now func() time.Time
}

func NewBBoltStorage(db *bbolt.DB) *BBoltStorage {
	return &BBoltStorage{db: db, now: time.Now}
}

// keys are grouped by host so that one site's entries sit together in the
// bucket
func makeBBoltKey(u *url.URL) []byte {
	h := sha1.New()
	io.WriteString(h, u.String())
	return []byte(path.Join(u.Host, hex.EncodeToString(h.Sum(nil))))
}

func (s *BBoltStorage) Fetch(u *url.URL) (*cachedResponse, error) {
	var r *cachedResponse

	if err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bboltBucketName)
		if b == nil {
			return nil
		}

		// d is only valid inside the transaction
		d := b.Get(makeBBoltKey(u))
		if d == nil {
			return nil
		}

		var cr cachedResponse
		if err := gob.NewDecoder(bytes.NewReader(d)).Decode(&cr); err != nil {
			return fmt.Errorf("could not decode cached response: %w", err)
		}

		r = &cr

		return nil
	}); err != nil {
		return nil, fmt.Errorf("httpcache.BBoltStorage.Fetch: %w", err)
	}

	return r, nil
}

func (s *BBoltStorage) Save(u *url.URL, res *http.Response, body []byte) (*cachedResponse, error) {
	r := cachedResponse{
		UpdatedAt:  s.now(),
		URL:        u.String(),
		Status:     res.Status,
		StatusCode: res.StatusCode,
		Header:     res.Header,
		Body:       body,
	}

	buf := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buf).Encode(r); err != nil {
		return nil, fmt.Errorf("httpcache.BBoltStorage.Save: could not encode response: %w", err)
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(bboltBucketName)
		if err != nil {
			return err
		}

		return b.Put(makeBBoltKey(u), buf.Bytes())
	}); err != nil {
		return nil, fmt.Errorf("httpcache.BBoltStorage.Save: %w", err)
	}

	return &r, nil
}

// Transport stores successful GET responses and replays them until they are
// older than maxAge. Upstream cache headers are ignored. Bodies shorter than
// MinimumBodySize (consent pages, interstitials) or longer than
// MaximumBodySize are passed through without being stored.
type Transport struct {
	MinimumBodySize int
	MaximumBodySize int

	transport http.RoundTripper
	storage   Storage
	maxAge    time.Duration
	now       func() time.Time
}

func NewTransport(transport http.RoundTripper, storage Storage, maxAge time.Duration) *Transport {
	if transport == nil {
		transport = http.DefaultTransport
	}

	if maxAge == 0 {
		maxAge = DefaultMaxAge
	}

	return &Transport{
		MaximumBodySize: DefaultMaximumBodySize,

		transport: transport,
		storage:   storage,
		maxAge:    maxAge,
		now:       time.Now,
	}
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req.Method != http.MethodGet {
		return t.transport.RoundTrip(req)
	}

	l := ctxlogger.GetLogger(req.Context()).WithField("http_cache.url", req.URL.String())

	cr, err := t.storage.Fetch(req.URL)
	if err != nil {
		l.WithError(err).Warn("could not read from http cache")
	} else if cr != nil {
		if age := t.now().Sub(cr.UpdatedAt); age < t.maxAge {
			l.WithField("http_cache.age", age).Debug("http cache hit")
			return cr.makeResponse(req), nil
		}
	}

	res, err := t.transport.RoundTrip(req)
	if err != nil {
		return nil, err
	}

	if res.StatusCode != http.StatusOK {
		return res, nil
	}

	d, err := io.ReadAll(io.LimitReader(res.Body, int64(t.MaximumBodySize)+1))
	if err != nil {
		res.Body.Close()
		return nil, fmt.Errorf("httpcache.Transport.RoundTrip: could not read response body: %w", err)
	}

	if len(d) > t.MaximumBodySize {
		l.WithField("http_cache.max_size", t.MaximumBodySize).Debug("http cache skipped large response")
		res.Body = struct {
			io.Reader
			io.Closer
		}{io.MultiReader(bytes.NewReader(d), res.Body), res.Body}
		return res, nil
	}

	res.Body.Close()
	res.Body = io.NopCloser(bytes.NewReader(d))

	if len(d) < t.MinimumBodySize {
		l.WithFields(logrus.Fields{
			"http_cache.size":     len(d),
			"http_cache.min_size": t.MinimumBodySize,
		}).Debug("http cache skipped short response")
		return res, nil
	}

	cr, err = t.storage.Save(req.URL, res, d)
	if err != nil {
		return nil, fmt.Errorf("httpcache.Transport.RoundTrip: %w", err)
	}

	l.WithFields(logrus.Fields{
		"http_cache.status_code": cr.StatusCode,
		"http_cache.size":        len(cr.Body),
	}).Debug("http cache stored")

	return cr.makeResponse(req), nil
}
