// Package services defines the [Service] interface for music streaming providers and implements it for Spotify.
//
// # Service Interface
//
// All music providers implement a common abstraction covering the playback,
// playlist and library operations the binding engine consumes: the currently
// playing track, playlist listing and paging, membership checks, playlist
// appends and liked-collection writes.
//
// # Spotify Implementation
//
// [SpotifyService] uses OAuth2 for authentication with automatic token refresh.
//
// The token source refreshes expired tokens transparently; a callback set via
// [SpotifyService.SetTokenRefreshCallback] receives each new token so it can
// be persisted back to the config file. Outgoing requests pass through a rate
// limiter before reaching the API.
//
// # OAuth Service Extension
//
// The [OAuthService] interface extends Service for OAuth providers
//
// [SpotifyService] implements this for the server-side OAuth flow used by the CLI.
//
// # Response Shapes
//
// The playlist listing endpoint serves two shapes in the wild: the documented
// flat paginated list and a rootlist tree in which playlists nest inside
// folders. The body is sniffed once at the boundary and normalized per shape.
// The owner field likewise arrives either as a bare id string or as an
// object; [OwnerField] accepts both.
//
// # Error Handling
//
// Services use typed errors from shared package:
//   - [shared.ErrNotAuthenticated] : Authenticate() not called
//   - [shared.ErrTokenExpired] : OAuth token expired, reauthorization needed
//   - [shared.ErrAPIRequest] : HTTP request failed
//   - [shared.ErrPlaylistNotFound] : Playlist ID not found
//   - [shared.ErrNoCurrentTrack] : nothing is playing
//
// Remote rejections carry an [APIError] with the provider's status, message
// and reason; [APIError.IsDuplicate] and [APIError.IsPermission] classify the
// rejections the mutation engine cares about.
//
// # Track Identifiers
//
// [CanonicalTrackID] and [CanonicalPlaylistID] reduce the identifier forms
// users hand around (bare base62 ids, spotify: URIs, open.spotify.com URLs)
// to the bare id; [TrackURI] renders the URI form used by playlist appends.
package services
