package bboltstorage

import (
	"bytes"
	"encoding/gob"
	"errors"
	"fmt"

	"github.com/bxcodec/httpcache/cache"
	"go.etcd.io/bbolt"
)

var DefaultBucketName = []byte("rfc")

// Storage keeps RFC 7234 cache entries for github.com/bxcodec/httpcache in
// a bbolt bucket.
type Storage struct {
	db     *bbolt.DB
	bucket []byte
}

var _ cache.ICacheInteractor = (*Storage)(nil)

func New(db *bbolt.DB) *Storage {
	return NewWithBucket(db, DefaultBucketName)
}

func NewWithBucket(db *bbolt.DB, bucket []byte) *Storage {
	return &Storage{db: db, bucket: bucket}
}

func (s *Storage) Set(key string, value cache.CachedResponse) error {
	buf := bytes.NewBuffer(nil)
	if err := gob.NewEncoder(buf).Encode(value); err != nil {
		return fmt.Errorf("bboltstorage.Storage.Set: could not encode value: %w", err)
	}

	if err := s.db.Update(func(tx *bbolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists(s.bucket)
		if err != nil {
			return err
		}

		if err := b.Put([]byte(key), buf.Bytes()); err != nil {
			return cache.ErrFailedToSaveToCache
		}

		return nil
	}); err != nil {
		return fmt.Errorf("bboltstorage.Storage.Set: %w", err)
	}

	return nil
}

func (s *Storage) Get(key string) (cache.CachedResponse, error) {
	var res cache.CachedResponse

	if err := s.db.View(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return cache.ErrCacheMissed
		}

		d := b.Get([]byte(key))
		if d == nil {
			return cache.ErrCacheMissed
		}

		return gob.NewDecoder(bytes.NewReader(d)).Decode(&res)
	}); err != nil {
		// callers compare against cache.ErrCacheMissed directly
		if errors.Is(err, cache.ErrCacheMissed) {
			return cache.CachedResponse{}, cache.ErrCacheMissed
		}

		return cache.CachedResponse{}, fmt.Errorf("bboltstorage.Storage.Get: %w", err)
	}

	return res, nil
}

func (s *Storage) Delete(key string) error {
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(s.bucket)
		if b == nil {
			return nil
		}

		return b.Delete([]byte(key))
	}); err != nil {
		return fmt.Errorf("bboltstorage.Storage.Delete: %w", err)
	}

	return nil
}

func (s *Storage) Flush() error {
	if err := s.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(s.bucket); err != nil && !errors.Is(err, bbolt.ErrBucketNotFound) {
			return err
		}

		return nil
	}); err != nil {
		return fmt.Errorf("bboltstorage.Storage.Flush: %w", err)
	}

	return nil
}

func (s *Storage) Origin() string {
	return "bbolt"
}
