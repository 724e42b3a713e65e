// Package server provides the HTTP routing, middleware and callback handling behind the local OAuth redirect listener.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first).
// The [BasicRouter] implementation uses [http.ServeMux] method patterns internally.
//
// # Callback Handler
//
// [CallbackHandler] captures the authorization code Spotify appends to the redirect URI.
// It checks the state parameter, reports exactly one [CallbackResult] on its channel
// and answers the browser with a small HTML page. Exchanging the code is left to the caller.
package server
