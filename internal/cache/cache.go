// Package cache is the persistent thumbnail and window-state store, backed
// by a single bbolt database opened once at startup and shared by handle
// across goroutines. bbolt commits are fsynced, so every successful write is
// durable immediately.
//
// The store is strictly best-effort: reads that fail to decode behave as
// cache misses and writes that fail are dropped. Callers never see an error.
package cache

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"runtime"
	"time"

	bolt "go.etcd.io/bbolt"
)

var (
	bucketThumbs = []byte("thumbnails")
	bucketState  = []byte("state")
	keyWindow    = []byte("window")
)

// Entry is one cached thumbnail: the raw RGBA payload plus markers describing
// the source file at the time the thumbnail was generated. The markers are
// recorded but never compared against the live file on read; a cached
// thumbnail stays valid for the lifetime of the entry.
type Entry struct {
	MTime  int64  `json:"mtime"`
	Size   int64  `json:"size"`
	Width  int    `json:"width"`
	Height int    `json:"height"`
	Pix    []byte `json:"pix"`
}

// WindowGeometry is the persisted window position and size.
type WindowGeometry struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Store is a shared handle to the on-disk database. It is safe for
// concurrent use by multiple goroutines.
type Store struct {
	db *bolt.DB
}

// DefaultPath returns the platform data path for the database file.
// Example paths:
// - macOS: ~/Library/Application Support/fastview/cache.db
// - Linux: ~/.local/share/fastview/cache.db
// - Windows: %APPDATA%/fastview/cache.db
func DefaultPath() (string, error) {
	var baseDir string

	switch runtime.GOOS {
	case "darwin":
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("failed to get home directory: %w", err)
		}
		baseDir = filepath.Join(home, "Library", "Application Support", "fastview")
	case "windows":
		appData := os.Getenv("APPDATA")
		if appData == "" {
			return "", fmt.Errorf("APPDATA environment variable not set")
		}
		baseDir = filepath.Join(appData, "fastview")
	default:
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome != "" {
			baseDir = filepath.Join(dataHome, "fastview")
		} else {
			home, err := os.UserHomeDir()
			if err != nil {
				return "", fmt.Errorf("failed to get home directory: %w", err)
			}
			baseDir = filepath.Join(home, ".local", "share", "fastview")
		}
	}

	return filepath.Join(baseDir, "cache.db"), nil
}

// Open opens (creating if necessary) the database at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	db, err := bolt.Open(path, 0600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		if _, err := tx.CreateBucketIfNotExists(bucketThumbs); err != nil {
			return err
		}
		_, err := tx.CreateBucketIfNotExists(bucketState)
		return err
	})
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create cache buckets: %w", err)
	}

	return &Store{db: db}, nil
}

// Close closes the database. Must be called exactly once at shutdown.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the entry stored under key, or false on a miss. Decode
// failures count as misses.
func (s *Store) Get(key string) (*Entry, bool) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketThumbs).Get([]byte(key)); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false
	}

	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, false
	}
	return &e, true
}

// Set stores entry under key. Failures are dropped silently; persistence is
// best effort.
func (s *Store) Set(key string, e *Entry) {
	data, err := json.Marshal(e)
	if err != nil {
		return
	}
	_ = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketThumbs).Put([]byte(key), data)
	})
}

// GetThumbnail returns the cached thumbnail for key as an RGBA image, or nil
// on a miss or an entry whose payload does not match its dimensions.
func (s *Store) GetThumbnail(key string) *image.RGBA {
	e, ok := s.Get(key)
	if !ok {
		return nil
	}
	if e.Width <= 0 || e.Height <= 0 || len(e.Pix) != e.Width*e.Height*4 {
		return nil
	}
	return &image.RGBA{
		Pix:    e.Pix,
		Stride: 4 * e.Width,
		Rect:   image.Rect(0, 0, e.Width, e.Height),
	}
}

// SetThumbnail stores img under key along with the source file markers.
func (s *Store) SetThumbnail(key string, img *image.RGBA, mtime, size int64) {
	b := img.Bounds()
	s.Set(key, &Entry{
		MTime:  mtime,
		Size:   size,
		Width:  b.Dx(),
		Height: b.Dy(),
		Pix:    img.Pix,
	})
}

// WindowGeometry returns the persisted window geometry, or false if none has
// been stored yet.
func (s *Store) WindowGeometry() (*WindowGeometry, bool) {
	var raw []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketState).Get(keyWindow); v != nil {
			raw = make([]byte, len(v))
			copy(raw, v)
		}
		return nil
	})
	if err != nil || raw == nil {
		return nil, false
	}

	var g WindowGeometry
	if err := json.Unmarshal(raw, &g); err != nil {
		return nil, false
	}
	return &g, true
}

// SetWindowGeometry persists the window geometry under its fixed key.
func (s *Store) SetWindowGeometry(g *WindowGeometry) {
	data, err := json.Marshal(g)
	if err != nil {
		return
	}
	_ = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketState).Put(keyWindow, data)
	})
}
