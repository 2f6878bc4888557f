// Package helper implements the out-of-process global hotkey relay.
//
// The helper owns OS-level key capture so shortcuts keep working while
// the main application is unfocused. It serves a small loopback HTTP
// protocol that the bridge client consumes:
//
//	GET  /hello   → {"ok":true,"token":"<hex>"}  session handshake, no auth
//	GET  /events  → SSE stream; first frame {"ready":true}, thereafter
//	                {"combo":"Ctrl+Alt+1"} per physical trigger
//	POST /config  → {"combos":[...]} replaces the watched set,
//	                responds {"ok":true,"count":N}
//	POST /trigger → {"combo":"..."} synthesizes an event for a watched
//	                combo; intended for testing without a keyboard
//
// # Authentication
//
// A random token is generated at boot and returned by /hello. Every
// other endpoint requires it, either as "Authorization: Bearer <token>"
// or via the token query parameter (EventSource clients cannot set
// headers). Requests with a missing or wrong token receive
// 401 {"error":"unauthorized"}. CORS is wide open because the server
// binds to loopback only; possession of the token is the gate.
//
// # Event Stream
//
// Frames are single "data:" lines carrying JSON. A comment line
// (": keepalive") is written every 5 seconds so idle connections stay
// open. The ready frame doubles as the signal that the helper will
// accept configuration: clients must wait for it before pushing combos
// to /config.
//
// # Capture
//
// OS registration is delegated to a [Capturer]. The default
// implementation uses golang.design/x/hotkey and re-registers the whole
// set whenever /config replaces it. Combos the OS rejects, or keys with
// no portable key code (Home, End), are logged and skipped rather than
// failing the request. A held key emits one event per physical press:
// after a keydown the watcher waits for the matching keyup before
// rearming. When no Capturer is attached the server still speaks the
// full protocol, which keeps /trigger usable on hosts without capture
// support.
package helper
