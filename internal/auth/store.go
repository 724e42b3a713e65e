package auth

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// TokenRecord is the persisted credential set. Empty strings mean absent.
type TokenRecord struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	Scope        string `json:"scope"`
}

func (r TokenRecord) HasAccessToken() bool  { return r.AccessToken != "" }
func (r TokenRecord) HasRefreshToken() bool { return r.RefreshToken != "" }

// Store persists a single [TokenRecord].
//
// Save fully replaces the previous record. Load reports false when nothing usable is stored;
// implementations log corruption rather than returning it.
type Store interface {
	Save(record TokenRecord) error
	Load() (TokenRecord, bool)
}

// FileStore keeps the record as a JSON file readable only by the owner.
type FileStore struct {
	path   string
	logger *log.Logger
	mu     sync.Mutex
}

func NewFileStore(path string, logger *log.Logger) *FileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileStore{path: path, logger: logger}
}

func (s *FileStore) Path() string { return s.path }

// Save writes the record to a temp file in the same directory and renames it over the old one.
func (s *FileStore) Save(record TokenRecord) error {
	data, err := json.MarshalIndent(record, "", "  ")
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return shared.WriteFileAtomic(s.path, data)
}

func (s *FileStore) Load() (TokenRecord, bool) {
	s.mu.Lock()
	data, err := os.ReadFile(s.path)
	s.mu.Unlock()

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			s.logger.Warn("could not read token file", "path", s.path, "error", err)
		}
		return TokenRecord{}, false
	}

	var record TokenRecord
	if err := json.Unmarshal(data, &record); err != nil {
		s.logger.Warn("token file is corrupt, treating as empty", "path", s.path, "error", err)
		return TokenRecord{}, false
	}
	return record, true
}
