package kvstore

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "gateway"

// BoltStore is an embedded BoltDB-backed Store. All data lives in a single
// file, so no external database process is required. Bolt serializes write
// transactions, which gives PutIfAbsent and Incr their atomicity for free.
type BoltStore struct {
	db *bolt.DB
}

// NewBolt opens (or creates) the database file at path and ensures the
// gateway bucket exists.
func NewBolt(path string) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("create bucket: %w", err)
	}

	return &BoltStore{db: db}, nil
}

func (s *BoltStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	found := false

	err := s.db.View(func(tx *bolt.Tx) error {
		raw := tx.Bucket([]byte(bucketName)).Get([]byte(key))
		if raw == nil {
			return nil
		}
		var e entry
		if err := json.Unmarshal(raw, &e); err != nil {
			return err
		}
		if e.expired(time.Now()) {
			return nil
		}
		value = append([]byte(nil), e.Value...)
		found = true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return value, found, nil
}

func (s *BoltStore) SetTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	raw, err := json.Marshal(newEntry(value, ttl, time.Now()))
	if err != nil {
		return err
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketName)).Put([]byte(key), raw)
	})
}

func (s *BoltStore) PutIfAbsent(ctx context.Context, key string, value []byte, ttl time.Duration) ([]byte, bool, error) {
	var existing []byte
	stored := false

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		now := time.Now()

		if raw := b.Get([]byte(key)); raw != nil {
			var e entry
			if err := json.Unmarshal(raw, &e); err != nil {
				return err
			}
			if !e.expired(now) {
				existing = append([]byte(nil), e.Value...)
				return nil
			}
			// Expired entries are overwritten like absent keys.
		}

		raw, err := json.Marshal(newEntry(value, ttl, now))
		if err != nil {
			return err
		}
		stored = true
		return b.Put([]byte(key), raw)
	})
	if err != nil {
		return nil, false, err
	}
	return existing, stored, nil
}

func (s *BoltStore) Incr(ctx context.Context, key string, ttl time.Duration) (int64, error) {
	var total int64

	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		now := time.Now()

		e := entry{}
		if raw := b.Get([]byte(key)); raw != nil {
			if err := json.Unmarshal(raw, &e); err != nil {
				return err
			}
			if e.expired(now) {
				e = entry{}
			}
		}

		var current int64
		if len(e.Value) > 0 {
			n, err := strconv.ParseInt(string(e.Value), 10, 64)
			if err != nil {
				return fmt.Errorf("counter %q corrupted: %w", key, err)
			}
			current = n
		}
		total = current + 1

		next := e
		next.Value = []byte(strconv.FormatInt(total, 10))
		if next.ExpiresAt == 0 && ttl > 0 {
			next.ExpiresAt = now.Add(ttl).UnixNano()
		}

		raw, err := json.Marshal(next)
		if err != nil {
			return err
		}
		return b.Put([]byte(key), raw)
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// Close releases the database file lock.
func (s *BoltStore) Close() error {
	return s.db.Close()
}
