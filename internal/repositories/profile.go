package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Carrieukie/spotify-mcp-server/internal/services"
)

// ProfileRepository implements [services.ProfileStore] on the user_profiles table.
//
// The profile is kept as its JSON payload so new fields need no migration.
type ProfileRepository struct {
	db      *sql.DB
	account string
	logger  *log.Logger
}

func NewProfileRepository(db *sql.DB, account string, logger *log.Logger) *ProfileRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &ProfileRepository{db: db, account: accountOrDefault(account), logger: logger}
}

func (r *ProfileRepository) SaveProfile(profile services.SpotifyUser) error {
	payload, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}

	query := `
		INSERT INTO user_profiles (account, user_id, display_name, payload, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET
			user_id = excluded.user_id,
			display_name = excluded.display_name,
			payload = excluded.payload,
			updated_at = excluded.updated_at
	`

	return withTx(r.db, func(tx *sql.Tx) error {
		if _, err := tx.Exec(query, r.account, profile.ID, profile.DisplayName, string(payload), time.Now().UTC()); err != nil {
			return fmt.Errorf("failed to save profile: %w", err)
		}
		return nil
	})
}

func (r *ProfileRepository) LoadProfile() (*services.SpotifyUser, bool) {
	var payload string
	err := r.db.QueryRow(`SELECT payload FROM user_profiles WHERE account = ?`, r.account).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		r.logger.Warn("could not read profile", "account", r.account, "error", err)
		return nil, false
	}

	var profile services.SpotifyUser
	if err := json.Unmarshal([]byte(payload), &profile); err != nil {
		r.logger.Warn("stored profile is corrupt, ignoring", "account", r.account, "error", err)
		return nil, false
	}
	return &profile, true
}
