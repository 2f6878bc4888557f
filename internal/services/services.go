// package services defines interface Service for interacting with music
// streaming HTTP APIs (Spotify).
package services

import (
	"context"
	"strings"

	"golang.org/x/oauth2"
)

// Service defines the interface for music service providers that expose the
// playback, playlist and library operations the binding engine consumes.
type Service interface {
	// Authenticate performs OAuth or API key authentication with the service.
	// Returns an error if authentication fails.
	Authenticate(ctx context.Context, credentials map[string]string) error

	// CurrentUser retrieves the authenticated user's profile.
	CurrentUser(ctx context.Context) (*User, error)

	// CurrentlyPlaying returns the track playing right now.
	// Returns shared.ErrNoCurrentTrack when nothing is playing.
	CurrentlyPlaying(ctx context.Context) (*Track, error)

	// GetPlaylists retrieves all playlists for the authenticated user,
	// walking pagination to the end.
	GetPlaylists(ctx context.Context) ([]Playlist, error)

	// GetPlaylist retrieves a specific playlist by ID.
	GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error)

	// UserPlaylists retrieves a single page of the user's playlists.
	UserPlaylists(ctx context.Context, limit, offset int) (*PlaylistPage, error)

	// PlaylistTracksPage retrieves one page of a playlist's tracks.
	PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error)

	// PlaylistContains checks whether each of up to 50 track IDs is
	// already in the playlist. Results are index-aligned with the input.
	PlaylistContains(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error)

	// AddToPlaylist appends tracks to a playlist by their URIs.
	AddToPlaylist(ctx context.Context, playlistID string, trackURIs []string) error

	// SaveToLiked adds tracks to the user's liked collection.
	SaveToLiked(ctx context.Context, trackIDs []string) error

	// LikedContains checks whether each of up to 50 track IDs is already
	// in the liked collection. Results are index-aligned with the input.
	LikedContains(ctx context.Context, trackIDs []string) ([]bool, error)

	// Name returns the name of the service (e.g., "Spotify")
	Name() string
}

// OAuthService extends Service for providers that authenticate with a
// browser-based OAuth2 authorization-code flow.
type OAuthService interface {
	Service

	// GetAuthURL returns the authorization URL the user visits to grant access.
	GetAuthURL(state string) string

	// GetOAuthConfig exposes the underlying OAuth2 config for the local
	// callback server.
	GetOAuthConfig() *oauth2.Config

	// OAuthenticate installs a previously obtained token.
	OAuthenticate(ctx context.Context, token *oauth2.Token) error

	// SetTokenRefreshCallback registers a hook invoked whenever the access
	// token is refreshed, so callers can persist the new token.
	SetTokenRefreshCallback(callback func(*oauth2.Token))
}

// User represents the authenticated user's profile
type User struct {
	ID          string
	DisplayName string
	Email       string
	Product     string
}

// Playlist represents a music playlist from any service
type Playlist struct {
	ID            string
	Name          string
	URI           string
	Owner         string
	TrackCount    int
	Public        bool
	Collaborative bool
}

// Track represents a music track from any service
type Track struct {
	ID           string
	Name         string
	Artist       string
	Album        string
	URI          string
	LinkedFromID string // original ID when the provider relinked the track
	Duration     int    // Duration in milliseconds
}

// Label renders the track as "Artist – Name" for display, falling back to
// whichever field is present.
func (t Track) Label() string {
	switch {
	case t.Artist != "" && t.Name != "":
		return t.Artist + " - " + t.Name
	case t.Name != "":
		return t.Name
	default:
		return t.ID
	}
}

// PlaylistPage is one page of a playlist listing.
type PlaylistPage struct {
	Items  []Playlist
	Total  int
	Limit  int
	Offset int
	Next   bool // whether the provider reported another page
}

// TrackPage is one page of a playlist's tracks.
type TrackPage struct {
	Items  []Track
	Total  int
	Limit  int
	Offset int
	Next   bool
}

// CanonicalTrackID extracts the bare track ID from any of the identifier
// forms users and the player hand around: a raw base62 ID, a
// spotify:track: URI, or an open.spotify.com URL. Returns "" when the
// input carries no recognizable ID.
func CanonicalTrackID(s string) string {
	return canonicalID(s, "track")
}

// CanonicalPlaylistID extracts the bare playlist ID from a raw ID, a
// spotify:playlist: URI, or an open.spotify.com URL.
func CanonicalPlaylistID(s string) string {
	return canonicalID(s, "playlist")
}

func canonicalID(s, kind string) string {
	s = strings.TrimSpace(s)

	if rest, ok := strings.CutPrefix(s, "spotify:"+kind+":"); ok {
		s = rest
	} else if strings.Contains(s, "open.spotify.com/") {
		marker := "/" + kind + "/"
		idx := strings.Index(s, marker)
		if idx < 0 {
			return ""
		}
		s = s[idx+len(marker):]
		if cut := strings.IndexAny(s, "?/#"); cut >= 0 {
			s = s[:cut]
		}
	}

	if !isBase62ID(s) {
		return ""
	}
	return s
}

// Spotify IDs are 22 characters of base62.
func isBase62ID(s string) bool {
	if len(s) != 22 {
		return false
	}
	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		default:
			return false
		}
	}
	return true
}

// TrackURI renders a bare track ID in URI form.
func TrackURI(id string) string {
	return "spotify:track:" + id
}
