package assetidx

import (
	"context"
	"os"

	"github.com/dgraph-io/badger/v4"
	"github.com/quantmind-br/pagesync-go/internal/domain"
)

// BadgerIndex is a persistent hash -> storage-key index backed by
// BadgerDB. Bytes seen in a previous run skip the redundant upload;
// losing the index is harmless because keys are content-addressed.
type BadgerIndex struct {
	db *badger.DB
}

// Options contains options for creating a BadgerIndex
type Options struct {
	Directory string
	InMemory  bool
}

// New creates a new BadgerDB-backed asset index
func New(opts Options) (*BadgerIndex, error) {
	var badgerOpts badger.Options
	if opts.InMemory {
		badgerOpts = badger.DefaultOptions("").WithInMemory(true)
	} else {
		if err := os.MkdirAll(opts.Directory, 0755); err != nil {
			return nil, err
		}
		badgerOpts = badger.DefaultOptions(opts.Directory)
	}
	badgerOpts = badgerOpts.WithLogger(nil)

	db, err := badger.Open(badgerOpts)
	if err != nil {
		return nil, err
	}

	return &BadgerIndex{db: db}, nil
}

// Lookup returns the storage key recorded for a hash
func (i *BadgerIndex) Lookup(ctx context.Context, hash string) (string, error) {
	var key string
	err := i.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(hash))
		if err != nil {
			if err == badger.ErrKeyNotFound {
				return domain.ErrIndexMiss
			}
			return err
		}
		return item.Value(func(val []byte) error {
			key = string(val)
			return nil
		})
	})
	if err != nil {
		return "", err
	}
	return key, nil
}

// Record stores the hash -> storage key mapping
func (i *BadgerIndex) Record(ctx context.Context, hash, key string) error {
	return i.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(hash), []byte(key))
	})
}

// Close releases index resources
func (i *BadgerIndex) Close() error {
	return i.db.Close()
}
