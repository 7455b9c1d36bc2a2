// cache.go - Cross-run generation content cache
package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/syndtr/goleveldb/leveldb"
	"github.com/syndtr/goleveldb/leveldb/opt"

	"docsite-generator/pkg/logger"
)

const dataDir = "data"

// Store caches generated section content keyed by fingerprint, so an
// unchanged section costs no AI call on the next run.
type Store struct {
	db     *leveldb.DB
	path   string
	logger logger.Logger
}

// Open opens (or creates) the cache under dir. A store that fails to
// open is treated as corrupted: it is removed and recreated, since the
// cache only ever holds reproducible content.
func Open(dir string, logger logger.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory %s: %w", dir, err)
	}

	path := filepath.Join(dir, dataDir)
	db, err := openLevelDB(path)
	if err != nil {
		logger.Warn("cache open failed, recreating: %v", err)
		if removeErr := os.RemoveAll(path); removeErr != nil {
			return nil, fmt.Errorf("failed to open cache %s: %w (and failed to remove corrupted dir: %v)",
				path, err, removeErr)
		}
		db, err = openLevelDB(path)
		if err != nil {
			return nil, fmt.Errorf("failed to recreate cache %s: %w", path, err)
		}
	}

	logger.Debug("generation cache ready at %s", path)
	return &Store{db: db, path: path, logger: logger}, nil
}

func openLevelDB(path string) (*leveldb.DB, error) {
	dbOptions := &opt.Options{
		WriteBuffer:        4 * 1024 * 1024,
		BlockCacheCapacity: 8 * 1024 * 1024,
	}

	db, err := leveldb.OpenFile(path, dbOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", path, err)
	}
	return db, nil
}

// Get returns the cached content for fingerprint.
func (s *Store) Get(fingerprint string) (string, bool) {
	value, err := s.db.Get([]byte(fingerprint), nil)
	if err != nil {
		if !errors.Is(err, leveldb.ErrNotFound) {
			s.logger.Warn("cache read failed for %s: %v", fingerprint, err)
		}
		return "", false
	}
	return string(value), true
}

// Put stores content under fingerprint, replacing any previous value.
func (s *Store) Put(fingerprint, content string) error {
	if err := s.db.Put([]byte(fingerprint), []byte(content), nil); err != nil {
		return fmt.Errorf("failed to store cached content for %s: %w", fingerprint, err)
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}
