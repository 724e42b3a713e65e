package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
)

// TokenRepository implements [auth.Store] on the tokens table.
type TokenRepository struct {
	db      *sql.DB
	account string
	logger  *log.Logger
	mu      sync.Mutex
}

// NewTokenRepository creates a [TokenRepository] for account (empty means [DefaultAccount]).
func NewTokenRepository(db *sql.DB, account string, logger *log.Logger) *TokenRepository {
	if logger == nil {
		logger = log.Default()
	}
	return &TokenRepository{db: db, account: accountOrDefault(account), logger: logger}
}

// Save replaces the stored record in a single transaction.
func (r *TokenRepository) Save(record auth.TokenRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `
		INSERT INTO tokens (account, access_token, refresh_token, scope, updated_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(account) DO UPDATE SET
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			scope = excluded.scope,
			updated_at = excluded.updated_at
	`

	return withTx(r.db, func(tx *sql.Tx) error {
		_, err := tx.Exec(query, r.account, nullable(record.AccessToken), nullable(record.RefreshToken), record.Scope, time.Now().UTC())
		if err != nil {
			return fmt.Errorf("failed to save tokens: %w", err)
		}
		return nil
	})
}

// Load returns the stored record. Query failures are logged and reported as absent.
func (r *TokenRepository) Load() (auth.TokenRecord, bool) {
	query := `SELECT access_token, refresh_token, scope FROM tokens WHERE account = ?`

	var access, refresh sql.NullString
	var scope string
	err := r.db.QueryRow(query, r.account).Scan(&access, &refresh, &scope)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.TokenRecord{}, false
	}
	if err != nil {
		r.logger.Warn("could not read tokens", "account", r.account, "error", err)
		return auth.TokenRecord{}, false
	}

	return auth.TokenRecord{
		AccessToken:  access.String,
		RefreshToken: refresh.String,
		Scope:        scope,
	}, true
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
