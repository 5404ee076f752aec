package credentials

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// storedPair is the on-disk shape. Token values are opaque strings; no shape
// validation is performed on load.
type storedPair struct {
	Access  string `json:"access"`
	Refresh string `json:"refresh"`
}

// FileStore persists the token pair to a single JSON file so the session
// survives process restarts. Every disk failure is logged and absorbed: the
// store falls back to its in-memory copy and the session simply becomes
// non-persistent.
type FileStore struct {
	mu     sync.RWMutex
	path   string
	pair   storedPair
	logger zerolog.Logger
}

var _ Store = (*FileStore)(nil)

// NewFileStore loads any previously persisted pair from path. An empty path or
// an unreadable file yields an empty, memory-only store.
func NewFileStore(path string) *FileStore {
	s := &FileStore{
		path:   path,
		logger: log.With().Str("component", "credentials").Logger(),
	}
	s.load()
	return s
}

func (s *FileStore) Save(access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = storedPair{Access: access, Refresh: refresh}
	s.persist()
}

func (s *FileStore) Access() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.Access
}

func (s *FileStore) Refresh() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.pair.Refresh
}

func (s *FileStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pair = storedPair{}
	if s.path == "" {
		return
	}
	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		s.logger.Warn().Err(err).Msg("failed to remove credentials file")
	}
}

func (s *FileStore) load() {
	if s.path == "" {
		return
	}
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn().Err(err).Msg("failed to read credentials file, starting without persisted session")
		}
		return
	}
	var pair storedPair
	if err := json.Unmarshal(data, &pair); err != nil {
		s.logger.Warn().Err(err).Msg("corrupt credentials file, starting without persisted session")
		return
	}
	// The pair is all-or-nothing; a half-written file is treated as absent.
	if pair.Access == "" || pair.Refresh == "" {
		return
	}
	s.pair = pair
}

func (s *FileStore) persist() {
	if s.path == "" {
		return
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		s.logger.Warn().Err(err).Msg("credential storage unavailable, session will not persist")
		return
	}
	data, err := json.Marshal(s.pair)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to encode credentials")
		return
	}
	if err := os.WriteFile(s.path, data, 0o600); err != nil {
		s.logger.Warn().Err(err).Msg("credential storage unavailable, session will not persist")
	}
}
