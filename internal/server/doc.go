// Package server provides HTTP routing, middleware, and OAuth handling for the local HTTP surfaces.
//
// # Router Infrastructure
//
// The [Router] interface defines HTTP routing with middleware support.
//
// [Middleware] wraps handlers in reverse order (last added executes first), following the standard Go pattern.
//
// The [BasicRouter] implementation uses [http.ServeMux] internally with method filtering.
//
// # OAuth Callback Handler
//
// OAuthHandler implements the OAuth2 authorization code callback flow.
//
// The handler validates the state parameter (CSRF protection), exchanges the authorization code for tokens,
// and sends the result through a channel.
//
// It only processes one callback to prevent replay attacks.
//
// # Current Usage
//
// Two local servers build on this package. `spotkeys auth login` starts a
// temporary server on the configured callback address, handles the OAuth
// redirect, and shuts down after receiving the token. The spotkeys-helper
// process wires [CORSMiddleware] and [BearerMiddleware] around its protocol
// routes (/hello, /events, /config, /trigger).
//
// # Handler Interface
//
// Custom handlers implement the [Handler] interface, which wraps the stdlib handler interface and adds routes,
// allowing handlers to register multiple routes to encapsulate route definitions within the implementation.
package server
