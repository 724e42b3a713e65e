// Package auth owns the Spotify OAuth token lifecycle.
//
// # Components
//
// A [Store] persists the single [TokenRecord]. [FileStore] writes JSON through a temp file
// and rename; the SQLite backend lives in the repositories package.
//
// The [Acquirer] runs the interactive authorization-code flow. It binds the host:port of the
// registered redirect URI, opens the consent page in a browser and waits, bounded by a timeout,
// for the single callback carrying the code.
//
// The [Exchanger] trades codes and refresh tokens for access tokens using golang.org/x/oauth2.
//
// The [Manager] ties them together. [Manager.AccessToken] loads the stored record, probes it
// against the API and refreshes exactly once when the API answers 401. Concurrent refreshes
// and authorizations are coalesced.
//
// # Errors
//
// Every failure is an [*Error] with a closed [Kind]. Errors unwrap to the matching sentinel in
// the shared package so callers can use [errors.Is].
package auth
