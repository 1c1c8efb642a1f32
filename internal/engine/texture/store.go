package texture

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// Source reads encoded texture files.
type Source interface {
	ReadFile(path string) ([]byte, error)
}

type osSource struct{}

func (osSource) ReadFile(path string) ([]byte, error) {
	return os.ReadFile(path)
}

// StoreOptions configures a Store.
type StoreOptions struct {
	// Source reads texture files. Defaults to the local filesystem.
	Source Source
	// MagentaKey makes magenta pixels of BMP textures transparent.
	MagentaKey bool
}

// Store owns decoded textures and hands out IDs for them. Loading the same
// path twice returns the same ID. A Store is safe for concurrent use.
type Store struct {
	mu sync.RWMutex

	src        Source
	magentaKey bool

	ids    map[string]ID
	images map[ID]*Image
	paths  map[ID]string
	next   ID

	// Stats
	hits   int
	misses int
}

// NewStore creates an empty texture store.
func NewStore(opts StoreOptions) *Store {
	src := opts.Source
	if src == nil {
		src = osSource{}
	}
	return &Store{
		src:        src,
		magentaKey: opts.MagentaKey,
		ids:        make(map[string]ID),
		images:     make(map[ID]*Image),
		paths:      make(map[ID]string),
		next:       None + 1,
	}
}

// Load returns the ID of the texture at path, decoding it on first use.
// Failed loads are not cached, so a later call retries the file.
func (s *Store) Load(path string) (ID, error) {
	key := filepath.Clean(path)

	s.mu.Lock()
	if id, ok := s.ids[key]; ok {
		s.hits++
		s.mu.Unlock()
		return id, nil
	}
	s.misses++
	s.mu.Unlock()

	data, err := s.src.ReadFile(key)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return None, fmt.Errorf("%w: %s", ErrNotFound, key)
		}
		return None, fmt.Errorf("reading texture %s: %w", key, err)
	}

	img, err := Decode(key, data)
	if err != nil {
		return None, err
	}
	if s.magentaKey && strings.EqualFold(filepath.Ext(key), ".bmp") {
		img = KeyMagenta(img)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Another caller may have finished the same path first.
	if id, ok := s.ids[key]; ok {
		return id, nil
	}
	id := s.next
	s.next++
	s.ids[key] = id
	s.images[id] = img
	s.paths[id] = key
	return id, nil
}

// Get returns the decoded image for id.
func (s *Store) Get(id ID) (*Image, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	img, ok := s.images[id]
	return img, ok
}

// Lookup returns the ID already assigned to path, if any.
func (s *Store) Lookup(path string) (ID, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.ids[filepath.Clean(path)]
	return id, ok
}

// Path returns the path a texture was loaded from.
func (s *Store) Path(id ID) string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.paths[id]
}

// Evict drops the texture loaded from path. Its ID is never reused; a later
// Load of the same path assigns a fresh one.
func (s *Store) Evict(path string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := filepath.Clean(path)
	id, ok := s.ids[key]
	if !ok {
		return false
	}
	delete(s.ids, key)
	delete(s.images, id)
	delete(s.paths, id)
	return true
}

// Clear drops every texture and resets statistics.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ids = make(map[string]ID)
	s.images = make(map[ID]*Image)
	s.paths = make(map[ID]string)
	s.hits = 0
	s.misses = 0
}

// Len returns the number of textures held.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.images)
}

// Stats returns cache statistics.
func (s *Store) Stats() (hits, misses int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.hits, s.misses
}
