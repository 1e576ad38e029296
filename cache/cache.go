package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// Store keeps rendered JSON responses on disk, one directory per user, so a
// cached response is never served to anyone but the user it was built for.
type Store struct {
	root string
	ttl  time.Duration

	// generations counts ClearUser calls per user. A response computed
	// before a clear must not be stored after it.
	mu          sync.Mutex
	generations map[uint]uint64
}

func New(root string, ttl time.Duration) *Store {
	return &Store{root: root, ttl: ttl, generations: make(map[uint]uint64)}
}

// Generation returns the user's current invalidation generation.
func (s *Store) Generation(userID uint) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generations[userID]
}

func (s *Store) TTL() time.Duration {
	return s.ttl
}

// generateHash generates an xxHash hash for the given string
func generateHash(str string) string {
	return fmt.Sprintf("%016x", xxhash.Sum64String(str))
}

func (s *Store) userDir(userID uint) string {
	return filepath.Join(s.root, fmt.Sprintf("u%d", userID))
}

// Path returns the cache file for a request key of a user.
func (s *Store) Path(userID uint, key string) string {
	return filepath.Join(s.userDir(userID), generateHash(key)+".json")
}

// Read returns the cached body if present and younger than the TTL.
func (s *Store) Read(userID uint, key string) ([]byte, bool) {
	path := s.Path(userID, key)

	info, err := os.Stat(path)
	if err != nil {
		return nil, false
	}
	if time.Since(info.ModTime()) > s.ttl {
		return nil, false
	}

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	return content, true
}

// WriteIfCurrent stores body only if the user's cache was not cleared since
// gen was taken. It reports whether the body was stored.
func (s *Store) WriteIfCurrent(userID uint, key string, body []byte, gen uint64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generations[userID] != gen {
		return false, nil
	}
	return true, s.write(userID, key, body)
}

// Write stores body under key. The file is renamed into place so readers
// never see a partial body.
func (s *Store) Write(userID uint, key string, body []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.write(userID, key, body)
}

func (s *Store) write(userID uint, key string, body []byte) error {
	dir := s.userDir(userID)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, "tmp-*")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(body); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), s.Path(userID, key))
}

// ClearUser removes every cached response of a user.
func (s *Store) ClearUser(userID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.generations[userID]++
	return os.RemoveAll(s.userDir(userID))
}

// ClearOld removes cache files older than the TTL and returns how many went.
func (s *Store) ClearOld() (int, error) {
	removed := 0
	err := filepath.Walk(s.root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) {
				return nil
			}
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}
		if time.Since(info.ModTime()) > s.ttl {
			if err := os.Remove(path); err == nil {
				removed++
			}
		}
		return nil
	})
	return removed, err
}
