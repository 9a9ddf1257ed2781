package httpcache

import (
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.etcd.io/bbolt"

	"fknsrs.biz/p/ytinfo/internal/config"
)

func openTestDB(t *testing.T) *bbolt.DB {
	t.Helper()

	db, err := bbolt.Open(filepath.Join(t.TempDir(), "cache.db"), 0600, nil)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func newCountingServer(status int, body string) (*httptest.Server, *int32) {
	var hits int32

	srv := httptest.NewServer(http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		rw.Header().Set("x-test", "yes")
		rw.WriteHeader(status)
		io.WriteString(rw, body)
	}))

	return srv, &hits
}

func get(t *testing.T, c *http.Client, u string) (int, string, http.Header) {
	t.Helper()

	res, err := c.Get(u)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()

	d, err := io.ReadAll(res.Body)
	if err != nil {
		t.Fatal(err)
	}

	return res.StatusCode, string(d), res.Header
}

func TestTransportCachesSuccessfulResponses(t *testing.T) {
	a := assert.New(t)

	srv, hits := newCountingServer(http.StatusOK, "watch page")
	defer srv.Close()

	c := &http.Client{Transport: NewTransport(nil, NewBBoltStorage(openTestDB(t)), 0)}

	for i := 0; i < 3; i++ {
		status, body, header := get(t, c, srv.URL+"/watch?v=dQw4w9WgXcQ")
		a.Equal(http.StatusOK, status)
		a.Equal("watch page", body)
		a.Equal("yes", header.Get("x-test"))
	}

	a.Equal(int32(1), atomic.LoadInt32(hits))

	get(t, c, srv.URL+"/watch?v=a-b_c1D2e3F")
	a.Equal(int32(2), atomic.LoadInt32(hits))
}

func TestTransportSkipsFailedResponses(t *testing.T) {
	a := assert.New(t)

	srv, hits := newCountingServer(http.StatusNotFound, "gone")
	defer srv.Close()

	c := &http.Client{Transport: NewTransport(nil, NewBBoltStorage(openTestDB(t)), 0)}

	for i := 0; i < 2; i++ {
		status, body, _ := get(t, c, srv.URL)
		a.Equal(http.StatusNotFound, status)
		a.Equal("gone", body)
	}

	a.Equal(int32(2), atomic.LoadInt32(hits))
}

func TestTransportExpiresEntries(t *testing.T) {
	a := assert.New(t)

	srv, hits := newCountingServer(http.StatusOK, "watch page")
	defer srv.Close()

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	storage := NewBBoltStorage(openTestDB(t))
	storage.now = func() time.Time { return now }

	tr := NewTransport(nil, storage, time.Hour)
	tr.now = func() time.Time { return now }

	c := &http.Client{Transport: tr}

	get(t, c, srv.URL)
	get(t, c, srv.URL)
	a.Equal(int32(1), atomic.LoadInt32(hits))

	now = now.Add(time.Hour * 2)

	get(t, c, srv.URL)
	a.Equal(int32(2), atomic.LoadInt32(hits))
}

func TestTransportSkipsBodiesOutsideLimits(t *testing.T) {
	for _, tc := range []struct {
		name string
		body string
		min  int
		max  int
		hits int32
	}{
		{"short consent page", "consent", 1024, DefaultMaximumBodySize, 3},
		{"oversized page", strings.Repeat("x", 64), 0, 32, 3},
		{"exactly at limits", strings.Repeat("x", 32), 32, 32, 1},
	} {
		t.Run(tc.name, func(t *testing.T) {
			a := assert.New(t)

			srv, hits := newCountingServer(http.StatusOK, tc.body)
			defer srv.Close()

			tr := NewTransport(nil, NewBBoltStorage(openTestDB(t)), 0)
			tr.MinimumBodySize = tc.min
			tr.MaximumBodySize = tc.max

			c := &http.Client{Transport: tr}

			for i := 0; i < 3; i++ {
				status, body, _ := get(t, c, srv.URL)
				a.Equal(http.StatusOK, status)
				a.Equal(tc.body, body)
			}

			a.Equal(tc.hits, atomic.LoadInt32(hits))
		})
	}
}

func TestBBoltStorageMissingEntry(t *testing.T) {
	a := assert.New(t)

	srv, _ := newCountingServer(http.StatusOK, "")
	defer srv.Close()

	req, err := http.NewRequest(http.MethodGet, srv.URL, nil)
	a.NoError(err)

	cr, err := NewBBoltStorage(openTestDB(t)).Fetch(req.URL)
	a.NoError(err)
	a.Nil(cr)
}

func TestNewClient(t *testing.T) {
	a := assert.New(t)

	db := openTestDB(t)

	c, err := NewClient(nil, config.CacheModeNone, 0, time.Second*30, 0)
	a.NoError(err)
	a.Nil(c.Transport)
	a.Equal(time.Second*30, c.Timeout)

	c, err = NewClient(db, config.CacheModeSimple, time.Minute, 0, 1024)
	a.NoError(err)
	if tr, ok := c.Transport.(*Transport); a.True(ok) {
		a.Equal(time.Minute, tr.maxAge)
		a.Equal(1024, tr.MinimumBodySize)
		a.Equal(DefaultMaximumBodySize, tr.MaximumBodySize)
	}

	c, err = NewClient(db, config.CacheModeRFC, 0, 0, 0)
	a.NoError(err)
	a.NotNil(c.Transport)

	_, err = NewClient(nil, config.CacheModeSimple, 0, 0, 0)
	a.Error(err)

	_, err = NewClient(db, config.CacheMode("sometimes"), 0, 0, 0)
	a.Error(err)
}
