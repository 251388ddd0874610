package idempotency

import (
	"context"
	"encoding/json"
	"time"

	bolt "github.com/boltdb/bolt"
)

const bucketName = "idempotency"

type boltEntry struct {
	Value     string    `json:"value"`
	ExpiresAt time.Time `json:"expires_at"`
}

// BoltStore keeps keys in a local BoltDB file, for single-instance
// deployments without Redis. Expired entries count as absent.
type BoltStore struct {
	db  *bolt.DB
	ttl time.Duration
	now func() time.Time
}

func NewBoltStore(path string, ttl time.Duration) (*BoltStore, error) {
	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, err
	}
	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucketName))
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &BoltStore{db: db, ttl: ttl, now: time.Now}, nil
}

func (s *BoltStore) live(raw []byte) (boltEntry, bool) {
	if raw == nil {
		return boltEntry{}, false
	}
	var e boltEntry
	if err := json.Unmarshal(raw, &e); err != nil {
		return boltEntry{}, false
	}
	return e, s.now().Before(e.ExpiresAt)
}

func (s *BoltStore) Lookup(_ context.Context, key string) (string, bool, error) {
	var (
		value string
		found bool
	)
	err := s.db.View(func(tx *bolt.Tx) error {
		e, ok := s.live(tx.Bucket([]byte(bucketName)).Get([]byte(key)))
		value, found = e.Value, ok
		return nil
	})
	return value, found, err
}

func (s *BoltStore) Remember(_ context.Context, key, value string) (bool, error) {
	stored := false
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketName))
		if _, ok := s.live(b.Get([]byte(key))); ok {
			return nil
		}
		data, err := json.Marshal(boltEntry{Value: value, ExpiresAt: s.now().Add(s.ttl)})
		if err != nil {
			return err
		}
		stored = true
		return b.Put([]byte(key), data)
	})
	return stored, err
}

func (s *BoltStore) Close() error {
	return s.db.Close()
}
