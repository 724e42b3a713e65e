// Package repositories implements SQLite persistence for the sqlite storage backend.
//
// Key Implementations:
//   - [TokenRepository] : the [auth.Store] credential record, one row per account
//   - [ProfileRepository] : the [services.ProfileStore] profile cache, kept as a JSON payload
//
// Writes are single upsert statements inside a transaction, so readers see either the old
// record or the new one. Read failures are logged and reported as absent, matching the file stores.
//
// The schema lives in the shared package's embedded migrations.
package repositories
