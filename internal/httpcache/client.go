package httpcache

import (
	"fmt"
	"net/http"
	"time"

	bxhttpcache "github.com/bxcodec/httpcache"
	"go.etcd.io/bbolt"

	"fknsrs.biz/p/ytinfo/internal/bboltstorage"
	"fknsrs.biz/p/ytinfo/internal/config"
)

// NewClient builds the outbound client for the given cache mode. db may be
// nil when mode is none. In simple mode, responses shorter than
// minimumBodySize are never stored.
func NewClient(db *bbolt.DB, mode config.CacheMode, maxAge, timeout time.Duration, minimumBodySize int) (*http.Client, error) {
	c := &http.Client{Timeout: timeout}

	switch mode {
	case "", config.CacheModeNone:
		return c, nil
	case config.CacheModeSimple:
		if db == nil {
			return nil, fmt.Errorf("httpcache.NewClient: cache mode %q needs a database", mode)
		}

		tr := NewTransport(nil, NewBBoltStorage(db), maxAge)
		tr.MinimumBodySize = minimumBodySize

		c.Transport = tr

		return c, nil
	case config.CacheModeRFC:
		if db == nil {
			return nil, fmt.Errorf("httpcache.NewClient: cache mode %q needs a database", mode)
		}

		// wraps c.Transport in place
		if _, err := bxhttpcache.NewWithCustomStorageCache(c, true, bboltstorage.New(db)); err != nil {
			return nil, fmt.Errorf("httpcache.NewClient: %w", err)
		}

		return c, nil
	default:
		return nil, fmt.Errorf("httpcache.NewClient: unrecognised cache mode %q", mode)
	}
}
