package services

import (
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"

	"github.com/charmbracelet/log"

	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
)

// FileProfileStore keeps the cached [SpotifyUser] as a JSON file.
type FileProfileStore struct {
	path   string
	logger *log.Logger
	mu     sync.Mutex
}

func NewFileProfileStore(path string, logger *log.Logger) *FileProfileStore {
	if logger == nil {
		logger = log.Default()
	}
	return &FileProfileStore{path: path, logger: logger}
}

func (f *FileProfileStore) SaveProfile(profile SpotifyUser) error {
	data, err := json.MarshalIndent(profile, "", "  ")
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	return shared.WriteFileAtomic(f.path, data)
}

// LoadProfile reports false for a missing, unreadable or corrupt file.
func (f *FileProfileStore) LoadProfile() (*SpotifyUser, bool) {
	f.mu.Lock()
	data, err := os.ReadFile(f.path)
	f.mu.Unlock()

	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			f.logger.Warn("could not read profile file", "path", f.path, "error", err)
		}
		return nil, false
	}

	var profile SpotifyUser
	if err := json.Unmarshal(data, &profile); err != nil || profile.ID == "" {
		f.logger.Warn("profile file is corrupt, ignoring", "path", f.path, "error", err)
		return nil, false
	}
	return &profile, true
}
