package search

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"
	bolt "go.etcd.io/bbolt"
)

const bucketItems = "items"

var ErrNotOpen = errors.New("bolt backend not open")

type BoltConfig struct {
	DBFile      string
	BoltOptions *bolt.Options
}

func NewBoltConfig(dbFile string) *BoltConfig {
	return &BoltConfig{
		DBFile: dbFile,
		BoltOptions: &bolt.Options{
			Timeout: 5 * time.Second,
		},
	}
}

// BoltBackend stores JSON-encoded items in a single bolt bucket. Queries
// scan the bucket and are evaluated in memory.
type BoltBackend struct {
	config *BoltConfig
	db     *bolt.DB
	mu     sync.Mutex
}

func NewBoltBackend(config *BoltConfig) *BoltBackend {
	return &BoltBackend{config: config}
}

func (be *BoltBackend) Open() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db != nil {
		return nil
	}

	db, err := bolt.Open(be.config.DBFile, 0600, be.config.BoltOptions)
	if err != nil {
		return errors.Wrapf(err, "opening %v", be.config.DBFile)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists([]byte(bucketItems)); err != nil {
			return errors.Wrapf(err, "creating bucket %q", bucketItems)
		}
		return nil
	}); err != nil {
		db.Close()
		return err
	}
	be.db = db
	return nil
}

func (be *BoltBackend) Close() error {
	be.mu.Lock()
	defer be.mu.Unlock()

	if be.db == nil {
		return nil
	}
	if err := be.db.Close(); err != nil {
		return err
	}
	be.db = nil
	return nil
}

// handle returns the open database, or ErrNotOpen.
func (be *BoltBackend) handle() (*bolt.DB, error) {
	be.mu.Lock()
	defer be.mu.Unlock()
	if be.db == nil {
		return nil, ErrNotOpen
	}
	return be.db, nil
}

func (be *BoltBackend) Search(ctx context.Context, q Query) (*Result, error) {
	db, err := be.handle()
	if err != nil {
		return nil, err
	}
	items := make([]*Item, 0, 100)
	err = db.View(func(tx *bolt.Tx) error {
		return tx.Bucket([]byte(bucketItems)).ForEach(func(k, v []byte) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			it := &Item{}
			if err := json.Unmarshal(v, it); err != nil {
				return errors.Wrapf(err, "decoding item %q", k)
			}
			items = append(items, it)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return Evaluate(items, q), nil
}

func (be *BoltBackend) Update(_ context.Context, items ...*Item) error {
	db, err := be.handle()
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		return putItems(tx.Bucket([]byte(bucketItems)), items)
	})
}

func putItems(b *bolt.Bucket, items []*Item) error {
	for _, it := range items {
		v, err := json.Marshal(it)
		if err != nil {
			return errors.Wrapf(err, "encoding item %q", it.ID)
		}
		if err := b.Put([]byte(it.ID), v); err != nil {
			return err
		}
	}
	return nil
}

func (be *BoltBackend) Remove(_ context.Context, ids ...string) error {
	db, err := be.handle()
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(bucketItems))
		for _, id := range ids {
			if err := b.Delete([]byte(id)); err != nil {
				return err
			}
		}
		return nil
	})
}

func (be *BoltBackend) Clear(_ context.Context) error {
	db, err := be.handle()
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		_, err := recreateBucket(tx)
		return err
	})
}

// Replace swaps the bucket contents for items in a single transaction, so
// readers see either the old or the new index.
func (be *BoltBackend) Replace(_ context.Context, items ...*Item) error {
	db, err := be.handle()
	if err != nil {
		return err
	}
	return db.Update(func(tx *bolt.Tx) error {
		b, err := recreateBucket(tx)
		if err != nil {
			return err
		}
		return putItems(b, items)
	})
}

func recreateBucket(tx *bolt.Tx) (*bolt.Bucket, error) {
	if tx.Bucket([]byte(bucketItems)) != nil {
		if err := tx.DeleteBucket([]byte(bucketItems)); err != nil {
			return nil, err
		}
	}
	return tx.CreateBucket([]byte(bucketItems))
}
