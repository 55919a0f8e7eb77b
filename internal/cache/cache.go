// Package cache persists search results between runs so unchanged files
// are not matched again.
package cache

import (
	"crypto/md5"
	"encoding/gob"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/gnolang/tgrit/engine"
	tt "github.com/gnolang/tgrit/types"
)

const (
	cacheFileName = "search_cache.gob"
	DefaultMaxAge = 24 * time.Hour
)

type fileMetadata struct {
	Hash         string
	LastModified time.Time
}

type Entry struct {
	Metadata     fileMetadata
	RulesHash    string
	Results      []engine.Result
	Logs         []tt.AnalysisLog
	CreatedAt    time.Time
	LastAccessed time.Time
}

// Cache maps file paths to the results of one rule set. An entry is stale
// once the file content, its modification time or the rules change.
type Cache struct {
	CacheDir  string
	rulesHash string
	entries   map[string]Entry
	mutex     sync.Mutex
	maxAge    time.Duration
}

func New(cacheDir, rulesHash string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create cache directory: %w", err)
	}

	c := &Cache{
		CacheDir:  cacheDir,
		rulesHash: rulesHash,
		entries:   make(map[string]Entry),
		maxAge:    DefaultMaxAge,
	}

	if err := c.load(); err != nil {
		return nil, fmt.Errorf("failed to load cache: %w", err)
	}

	return c, nil
}

func (c *Cache) path() string {
	return filepath.Join(c.CacheDir, cacheFileName)
}

func (c *Cache) load() error {
	file, err := os.Open(c.path())
	if os.IsNotExist(err) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to open cache file: %w", err)
	}
	defer file.Close()

	// an unreadable cache is rebuilt on the next save
	if err := gob.NewDecoder(file).Decode(&c.entries); err != nil {
		c.entries = make(map[string]Entry)
	}
	return nil
}

func (c *Cache) save() error {
	file, err := os.Create(c.path())
	if err != nil {
		return fmt.Errorf("failed to create cache file: %w", err)
	}
	defer file.Close()

	if err := gob.NewEncoder(file).Encode(c.entries); err != nil {
		return fmt.Errorf("failed to encode cache file: %w", err)
	}
	return nil
}

// Set stores the results and diagnostics of one search of filename.
func (c *Cache) Set(filename string, results []engine.Result, logs []tt.AnalysisLog) error {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	metadata, err := getFileMetadata(filename)
	if err != nil {
		return fmt.Errorf("failed to get file metadata: %w", err)
	}

	now := time.Now()
	c.entries[filename] = Entry{
		Metadata:     metadata,
		RulesHash:    c.rulesHash,
		Results:      results,
		Logs:         logs,
		CreatedAt:    now,
		LastAccessed: now,
	}

	return c.save()
}

// Get returns the stored results and diagnostics of filename while the
// entry is still valid.
func (c *Cache) Get(filename string) ([]engine.Result, []tt.AnalysisLog, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	entry, exists := c.entries[filename]
	if !exists {
		return nil, nil, false
	}

	if c.isEntryInvalid(filename, entry) {
		delete(c.entries, filename)
		return nil, nil, false
	}

	entry.LastAccessed = time.Now()
	c.entries[filename] = entry

	return entry.Results, entry.Logs, true
}

func (c *Cache) isEntryInvalid(filename string, entry Entry) bool {
	if entry.RulesHash != c.rulesHash {
		return true
	}
	if time.Since(entry.CreatedAt) > c.maxAge {
		return true
	}

	current, err := getFileMetadata(filename)
	if err != nil {
		return true
	}
	return current.Hash != entry.Metadata.Hash || !current.LastModified.Equal(entry.Metadata.LastModified)
}

func (c *Cache) SetMaxAge(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.maxAge = duration
}

func (c *Cache) Len() int {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	return len(c.entries)
}

func (c *Cache) InvalidateAll() {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.entries = make(map[string]Entry)
	_ = c.save() // manual operation, a stale file is harmless
}

func getFileMetadata(filename string) (fileMetadata, error) {
	file, err := os.Open(filename)
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	hash := md5.New()
	if _, err := io.Copy(hash, file); err != nil {
		return fileMetadata{}, fmt.Errorf("failed to calculate hash: %w", err)
	}

	info, err := file.Stat()
	if err != nil {
		return fileMetadata{}, fmt.Errorf("failed to get file info: %w", err)
	}

	return fileMetadata{
		Hash:         fmt.Sprintf("%x", hash.Sum(nil)),
		LastModified: info.ModTime(),
	}, nil
}
