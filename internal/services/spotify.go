// Spotify API implementation of [Service]
//
// Spotify API response types based on https://developer.spotify.com/documentation/web-api/reference/
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/desertthunder/spotkeys/internal/shared"
	"golang.org/x/oauth2"
	"golang.org/x/time/rate"
)

const (
	spotifyAuthURL  = "https://accounts.spotify.com/authorize"
	spotifyTokenURL = "https://accounts.spotify.com/api/token"
	spotifyBaseURL  = "https://api.spotify.com/v1"

	// containsBatchLimit is the largest id list the contains endpoints accept.
	containsBatchLimit = 50

	// addBatchLimit is the largest uri list a single playlist append accepts.
	addBatchLimit = 100
)

// errMalformedBody marks a 2xx response whose body did not parse as JSON.
// Most callers treat it as a failure; the liked-save endpoint is known to
// answer success with empty or junk bodies, so [SpotifyService.SaveToLiked]
// tolerates it.
var errMalformedBody = errors.New("malformed response body")

// APIError is the Spotify error envelope: {"error":{"status","message","reason"}}.
type APIError struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
	Reason  string `json:"reason"`
}

func (e *APIError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("spotify API error: %d %s (%s)", e.Status, e.Message, e.Reason)
	}
	return fmt.Sprintf("spotify API error: %d %s", e.Status, e.Message)
}

// IsDuplicate reports whether the remote rejected a write because the track
// is already present in the target collection.
func (e *APIError) IsDuplicate() bool {
	if strings.EqualFold(e.Reason, "DUPLICATE") {
		return true
	}
	message := strings.ToLower(e.Message)
	return strings.Contains(message, "already exists") || strings.Contains(message, "duplicate")
}

// IsPermission reports whether a write was refused for lack of rights,
// e.g. a playlist owned by another user.
func (e *APIError) IsPermission() bool {
	return e.Status == http.StatusForbidden
}

// apiErrorFrom decodes an error response body into an [APIError]. A 401 maps
// to [shared.ErrTokenExpired] so callers can trigger re-authentication.
func apiErrorFrom(status int, body []byte) error {
	apiErr := &APIError{Status: status, Message: http.StatusText(status)}

	var envelope struct {
		Error APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil && envelope.Error != (APIError{}) {
		apiErr = &envelope.Error
		if apiErr.Status == 0 {
			apiErr.Status = status
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(status)
		}
	}

	if status == http.StatusUnauthorized {
		return fmt.Errorf("%w: %s", shared.ErrTokenExpired, apiErr.Message)
	}

	return apiErr
}

// OwnerField tolerates both owner shapes the API serves: the bare id string
// and the object form {"id":...,"display_name":...}.
type OwnerField struct {
	ID          string
	DisplayName string
}

func (o *OwnerField) UnmarshalJSON(data []byte) error {
	var id string
	if err := json.Unmarshal(data, &id); err == nil {
		o.ID = id
		o.DisplayName = ""
		return nil
	}

	var obj struct {
		ID          string `json:"id"`
		DisplayName string `json:"display_name"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return fmt.Errorf("owner is neither a string nor an object: %w", err)
	}

	o.ID = obj.ID
	o.DisplayName = obj.DisplayName
	return nil
}

// Label returns the display name when the API provided one, otherwise the id.
func (o OwnerField) Label() string {
	if o.DisplayName != "" {
		return o.DisplayName
	}
	return o.ID
}

// Wire shapes for the subset of the API the binding engine touches.

type spotifyUser struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Email       string `json:"email"`
	Product     string `json:"product"` // premium, free, etc.
}

type spotifyArtist struct {
	Name string `json:"name"`
}

type spotifyAlbum struct {
	Name string `json:"name"`
}

type linkedFrom struct {
	ID  string `json:"id"`
	URI string `json:"uri"`
}

type spotifyTrack struct {
	ID         string          `json:"id"`
	Name       string          `json:"name"`
	Artists    []spotifyArtist `json:"artists"`
	Album      spotifyAlbum    `json:"album"`
	DurationMS int             `json:"duration_ms"`
	URI        string          `json:"uri"`
	LinkedFrom *linkedFrom     `json:"linked_from"`
}

type playlistTracks struct {
	Total int `json:"total"`
}

type spotifyPlaylist struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	URI           string         `json:"uri"`
	Owner         OwnerField     `json:"owner"`
	Public        bool           `json:"public"`
	Collaborative bool           `json:"collaborative"`
	Tracks        playlistTracks `json:"tracks"`
}

// flatPlaylistPage is the documented paginated shape of /me/playlists.
type flatPlaylistPage struct {
	Items  []spotifyPlaylist `json:"items"`
	Total  int               `json:"total"`
	Limit  int               `json:"limit"`
	Offset int               `json:"offset"`
	Next   *string           `json:"next"`
}

// rootlistNode is a row of the alternative rootlist tree shape, where
// playlists nest inside folders.
type rootlistNode struct {
	spotifyPlaylist
	Type string         `json:"type"` // "playlist" or "folder"
	Rows []rootlistNode `json:"rows"`
}

type spotifyPlaylistTrack struct {
	AddedAt string       `json:"added_at"`
	Track   spotifyTrack `json:"track"`
}

type trackPageResponse struct {
	Items  []spotifyPlaylistTrack `json:"items"`
	Total  int                    `json:"total"`
	Limit  int                    `json:"limit"`
	Offset int                    `json:"offset"`
	Next   *string                `json:"next"`
}

type currentlyPlayingResponse struct {
	IsPlaying bool          `json:"is_playing"`
	Item      *spotifyTrack `json:"item"`
}

// refreshableTokenSource wraps an [oauth2.TokenSource] and invokes a callback
// whenever the access token it yields differs from the last one seen, so
// refreshed tokens can be persisted. A panicking callback is contained and
// never fails the request that triggered the refresh.
type refreshableTokenSource struct {
	source oauth2.TokenSource

	mu       sync.Mutex
	callback func(*oauth2.Token)
	lastSeen string
}

func (r *refreshableTokenSource) Token() (*oauth2.Token, error) {
	token, err := r.source.Token()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	changed := token.AccessToken != r.lastSeen
	r.lastSeen = token.AccessToken
	callback := r.callback
	r.mu.Unlock()

	if changed && callback != nil {
		func() {
			defer func() { _ = recover() }()
			callback(token)
		}()
	}

	return token, nil
}

func (r *refreshableTokenSource) setCallback(callback func(*oauth2.Token)) {
	r.mu.Lock()
	r.callback = callback
	r.mu.Unlock()
}

// SpotifyService implements the Service interface for Spotify API interactions.
// Uses [oauth2] for authentication and rate-limits outgoing requests.
type SpotifyService struct {
	config         *oauth2.Config
	tokenSource    *refreshableTokenSource
	httpClient     *http.Client
	limiter        *rate.Limiter
	baseURL        string
	onTokenRefresh func(*oauth2.Token)
}

// NewSpotifyService creates a new Spotify service with the given OAuth2 credentials.
func NewSpotifyService(credentials map[string]string) (*SpotifyService, error) {
	clientID, ok := credentials["client_id"]
	if !ok || clientID == "" {
		return nil, fmt.Errorf("%w: missing client_id", shared.ErrMissingCredentials)
	}

	clientSecret, ok := credentials["client_secret"]
	if !ok || clientSecret == "" {
		return nil, fmt.Errorf("%w: missing client_secret", shared.ErrMissingCredentials)
	}

	redirectURI, ok := credentials["redirect_uri"]
	if !ok || redirectURI == "" {
		redirectURI = "http://localhost:8080/callback"
	}

	config := &oauth2.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		RedirectURL:  redirectURI,
		Scopes: []string{
			"user-read-private",
			"user-read-email",
			"user-read-currently-playing",
			"user-read-playback-state",
			"playlist-read-private",
			"playlist-read-collaborative",
			"playlist-modify-public",
			"playlist-modify-private",
			"user-library-read",
			"user-library-modify",
		},
		Endpoint: oauth2.Endpoint{
			AuthURL:  spotifyAuthURL,
			TokenURL: spotifyTokenURL,
		},
	}

	return &SpotifyService{
		config:     config,
		httpClient: http.DefaultClient,
		limiter:    rate.NewLimiter(rate.Limit(10), 10),
		baseURL:    spotifyBaseURL,
	}, nil
}

// Authenticate performs OAuth2 authentication with Spotify. Expects either an
// "access_token" (with optional "refresh_token" and RFC 3339 "expiry") or an
// "auth_code" in credentials.
func (s *SpotifyService) Authenticate(ctx context.Context, credentials map[string]string) error {
	if accessToken, ok := credentials["access_token"]; ok && accessToken != "" {
		token := &oauth2.Token{
			AccessToken:  accessToken,
			RefreshToken: credentials["refresh_token"],
		}
		if expiry := credentials["expiry"]; expiry != "" {
			if parsed, err := time.Parse(time.RFC3339, expiry); err == nil {
				token.Expiry = parsed
			}
		}
		s.installToken(ctx, token)
		return nil
	}

	if authCode, ok := credentials["auth_code"]; ok && authCode != "" {
		token, err := s.config.Exchange(ctx, authCode)
		if err != nil {
			return fmt.Errorf("failed to exchange auth code: %w", err)
		}
		s.installToken(ctx, token)
		return nil
	}

	return fmt.Errorf("%w: missing access_token or auth_code", shared.ErrMissingCredentials)
}

// OAuthenticate installs a previously obtained token, e.g. one loaded from
// the config file or produced by the local callback flow.
func (s *SpotifyService) OAuthenticate(ctx context.Context, token *oauth2.Token) error {
	if token == nil || (token.AccessToken == "" && token.RefreshToken == "") {
		return fmt.Errorf("%w: empty token", shared.ErrNotAuthenticated)
	}
	s.installToken(ctx, token)
	return nil
}

// installToken wires the token into a refresh-aware source. The oauth2
// machinery refreshes it transparently on expiry and the callback persists
// whatever it produces.
func (s *SpotifyService) installToken(ctx context.Context, token *oauth2.Token) {
	s.tokenSource = &refreshableTokenSource{
		source:   s.config.TokenSource(ctx, token),
		callback: s.onTokenRefresh,
	}
}

// SetTokenRefreshCallback registers a function invoked whenever the token
// source yields a new access token, so the caller can persist it.
func (s *SpotifyService) SetTokenRefreshCallback(callback func(*oauth2.Token)) {
	s.onTokenRefresh = callback
	if s.tokenSource != nil {
		s.tokenSource.setCallback(callback)
	}
}

func (s *SpotifyService) Name() string {
	return "Spotify"
}

// GetAuthURL returns the OAuth2 authorization URL for user login.
func (s *SpotifyService) GetAuthURL(state string) string {
	return s.config.AuthCodeURL(state, oauth2.AccessTypeOffline)
}

// GetOAuthConfig exposes the OAuth2 config for the local callback server.
func (s *SpotifyService) GetOAuthConfig() *oauth2.Config {
	return s.config
}

// doRequest performs an authenticated, rate-limited HTTP request to the
// Spotify API and decodes the JSON response into result. An empty 2xx body
// is accepted as-is; a non-empty body that fails to parse is reported as
// errMalformedBody.
func (s *SpotifyService) doRequest(ctx context.Context, method, endpoint string, body io.Reader, result any) error {
	if s.tokenSource == nil {
		return fmt.Errorf("%w: call Authenticate first", shared.ErrNotAuthenticated)
	}

	if err := s.limiter.Wait(ctx); err != nil {
		return err
	}

	token, err := s.tokenSource.Token()
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrTokenExpired, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseURL+endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+token.AccessToken)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", shared.ErrAPIRequest, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apiErrorFrom(resp.StatusCode, data)
	}

	if result == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}

	if err := json.Unmarshal(data, result); err != nil {
		return fmt.Errorf("%w: %v", errMalformedBody, err)
	}

	return nil
}

// CurrentUser retrieves the current authenticated user's profile.
func (s *SpotifyService) CurrentUser(ctx context.Context) (*User, error) {
	var user spotifyUser
	if err := s.doRequest(ctx, "GET", "/me", nil, &user); err != nil {
		return nil, err
	}

	return &User{
		ID:          user.ID,
		DisplayName: user.DisplayName,
		Email:       user.Email,
		Product:     user.Product,
	}, nil
}

// CurrentlyPlaying returns the track in the player right now, paused or not.
// A stopped player answers 204 with no body, which maps to
// [shared.ErrNoCurrentTrack], as does an ad or episode without a track item.
func (s *SpotifyService) CurrentlyPlaying(ctx context.Context) (*Track, error) {
	var response currentlyPlayingResponse
	if err := s.doRequest(ctx, "GET", "/me/player/currently-playing", nil, &response); err != nil {
		return nil, err
	}

	if response.Item == nil || response.Item.ID == "" {
		return nil, shared.ErrNoCurrentTrack
	}

	track := trackFromAPI(*response.Item)
	return &track, nil
}

// UserPlaylists retrieves a single page of the user's playlists. The endpoint
// serves two shapes in the wild, the flat paginated list and the rootlist
// tree, so the body is sniffed once and normalized per shape.
func (s *SpotifyService) UserPlaylists(ctx context.Context, limit, offset int) (*PlaylistPage, error) {
	if limit <= 0 || limit > 50 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}

	endpoint := fmt.Sprintf("/me/playlists?limit=%d&offset=%d", limit, offset)

	var raw json.RawMessage
	if err := s.doRequest(ctx, "GET", endpoint, nil, &raw); err != nil {
		return nil, err
	}

	return decodePlaylistPage(raw, limit, offset)
}

// decodePlaylistPage sniffs which listing shape the provider returned and
// dispatches to its normalizer. The tree shape is always complete, the flat
// shape is one page.
func decodePlaylistPage(raw []byte, limit, offset int) (*PlaylistPage, error) {
	var probe struct {
		Items json.RawMessage `json:"items"`
		Rows  json.RawMessage `json:"rows"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return nil, fmt.Errorf("%w: playlist listing: %v", shared.ErrAPIRequest, err)
	}

	switch {
	case probe.Rows != nil:
		return normalizeTree(raw)
	case probe.Items != nil:
		return normalizeFlat(raw, limit, offset)
	default:
		return nil, fmt.Errorf("%w: unrecognized playlist listing shape", shared.ErrAPIRequest)
	}
}

// normalizeFlat maps the documented paginated shape onto a [PlaylistPage].
func normalizeFlat(raw []byte, limit, offset int) (*PlaylistPage, error) {
	var page flatPlaylistPage
	if err := json.Unmarshal(raw, &page); err != nil {
		return nil, fmt.Errorf("%w: playlist page: %v", shared.ErrAPIRequest, err)
	}

	out := &PlaylistPage{
		Total:  page.Total,
		Limit:  limit,
		Offset: offset,
		Next:   page.Next != nil,
	}
	for _, item := range page.Items {
		out.Items = append(out.Items, playlistFromAPI(item))
	}

	return out, nil
}

// normalizeTree flattens the rootlist tree, descending into folders. The
// result is the complete listing, so Next is false and Total matches the
// collected rows.
func normalizeTree(raw []byte) (*PlaylistPage, error) {
	var tree struct {
		Rows []rootlistNode `json:"rows"`
	}
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, fmt.Errorf("%w: rootlist tree: %v", shared.ErrAPIRequest, err)
	}

	var items []Playlist
	var collect func(nodes []rootlistNode)
	collect = func(nodes []rootlistNode) {
		for _, node := range nodes {
			switch node.Type {
			case "folder":
				collect(node.Rows)
			case "playlist":
				items = append(items, playlistFromAPI(node.spotifyPlaylist))
			}
		}
	}
	collect(tree.Rows)

	return &PlaylistPage{
		Items: items,
		Total: len(items),
		Limit: len(items),
	}, nil
}

// GetPlaylists retrieves all playlists for the authenticated user.
//
// Some deployments omit the next cursor even when more pages exist, so the
// walk also advances on the reported total and stops on an empty page.
func (s *SpotifyService) GetPlaylists(ctx context.Context) ([]Playlist, error) {
	const pageSize = 50

	var all []Playlist
	offset := 0

	for {
		page, err := s.UserPlaylists(ctx, pageSize, offset)
		if err != nil {
			return nil, err
		}

		all = append(all, page.Items...)

		if len(page.Items) == 0 || (!page.Next && len(all) >= page.Total) {
			break
		}
		offset += pageSize
	}

	return all, nil
}

// GetPlaylist retrieves a specific playlist by ID.
func (s *SpotifyService) GetPlaylist(ctx context.Context, playlistID string) (*Playlist, error) {
	var sp spotifyPlaylist
	endpoint := fmt.Sprintf("/playlists/%s", url.PathEscape(playlistID))
	if err := s.doRequest(ctx, "GET", endpoint, nil, &sp); err != nil {
		var apiErr *APIError
		if errors.As(err, &apiErr) && apiErr.Status == http.StatusNotFound {
			return nil, fmt.Errorf("%w: %s", shared.ErrPlaylistNotFound, playlistID)
		}
		return nil, err
	}

	playlist := playlistFromAPI(sp)
	return &playlist, nil
}

// PlaylistTracksPage retrieves one page of a playlist's tracks, including
// linked-from ids for relinked markets.
func (s *SpotifyService) PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*TrackPage, error) {
	if limit <= 0 || limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks?limit=%d&offset=%d", url.PathEscape(playlistID), limit, offset)

	var response trackPageResponse
	if err := s.doRequest(ctx, "GET", endpoint, nil, &response); err != nil {
		return nil, err
	}

	page := &TrackPage{
		Total:  response.Total,
		Limit:  limit,
		Offset: offset,
		Next:   response.Next != nil,
	}
	for _, item := range response.Items {
		page.Items = append(page.Items, trackFromAPI(item.Track))
	}

	return page, nil
}

// PlaylistContains checks whether each of up to 50 track IDs is already in
// the playlist. Results are index-aligned with the input.
func (s *SpotifyService) PlaylistContains(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
	if err := validateContainsBatch(trackIDs); err != nil {
		return nil, err
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks/contains?ids=%s",
		url.PathEscape(playlistID), url.QueryEscape(strings.Join(trackIDs, ",")))

	return s.containsRequest(ctx, endpoint, len(trackIDs))
}

// LikedContains checks whether each of up to 50 track IDs is already in the
// user's liked collection.
func (s *SpotifyService) LikedContains(ctx context.Context, trackIDs []string) ([]bool, error) {
	if err := validateContainsBatch(trackIDs); err != nil {
		return nil, err
	}

	endpoint := "/me/tracks/contains?ids=" + url.QueryEscape(strings.Join(trackIDs, ","))

	return s.containsRequest(ctx, endpoint, len(trackIDs))
}

func validateContainsBatch(trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: no track ids", shared.ErrInvalidInput)
	}
	if len(trackIDs) > containsBatchLimit {
		return fmt.Errorf("%w: at most %d ids per contains call", shared.ErrInvalidInput, containsBatchLimit)
	}
	return nil
}

func (s *SpotifyService) containsRequest(ctx context.Context, endpoint string, want int) ([]bool, error) {
	var contained []bool
	if err := s.doRequest(ctx, "GET", endpoint, nil, &contained); err != nil {
		return nil, err
	}

	if len(contained) != want {
		return nil, fmt.Errorf("%w: contains returned %d results for %d ids", shared.ErrAPIRequest, len(contained), want)
	}

	return contained, nil
}

// AddToPlaylist appends tracks to a playlist by their URIs, batching to the
// endpoint's limit when given more than it accepts in one call.
func (s *SpotifyService) AddToPlaylist(ctx context.Context, playlistID string, trackURIs []string) error {
	if len(trackURIs) == 0 {
		return fmt.Errorf("%w: no track uris", shared.ErrInvalidInput)
	}

	endpoint := fmt.Sprintf("/playlists/%s/tracks", url.PathEscape(playlistID))

	for start := 0; start < len(trackURIs); start += addBatchLimit {
		end := min(start+addBatchLimit, len(trackURIs))

		payload, err := json.Marshal(map[string][]string{"uris": trackURIs[start:end]})
		if err != nil {
			return fmt.Errorf("failed to encode request body: %w", err)
		}

		var ack struct {
			SnapshotID string `json:"snapshot_id"`
		}
		if err := s.doRequest(ctx, "POST", endpoint, bytes.NewReader(payload), &ack); err != nil {
			return err
		}
	}

	return nil
}

// SaveToLiked adds tracks to the user's liked collection. The endpoint
// answers success with an empty or malformed body, so any 2xx counts.
func (s *SpotifyService) SaveToLiked(ctx context.Context, trackIDs []string) error {
	if len(trackIDs) == 0 {
		return fmt.Errorf("%w: no track ids", shared.ErrInvalidInput)
	}

	for start := 0; start < len(trackIDs); start += containsBatchLimit {
		end := min(start+containsBatchLimit, len(trackIDs))

		endpoint := "/me/tracks?ids=" + url.QueryEscape(strings.Join(trackIDs[start:end], ","))

		var ack json.RawMessage
		if err := s.doRequest(ctx, "PUT", endpoint, nil, &ack); err != nil {
			if errors.Is(err, errMalformedBody) {
				continue
			}
			return err
		}
	}

	return nil
}

// trackFromAPI maps the wire track onto the domain type, deriving the URI
// from the id when the provider omits it.
func trackFromAPI(t spotifyTrack) Track {
	names := make([]string, 0, len(t.Artists))
	for _, artist := range t.Artists {
		names = append(names, artist.Name)
	}

	track := Track{
		ID:       t.ID,
		Name:     t.Name,
		Artist:   strings.Join(names, ", "),
		Album:    t.Album.Name,
		URI:      t.URI,
		Duration: t.DurationMS,
	}

	if t.LinkedFrom != nil {
		track.LinkedFromID = t.LinkedFrom.ID
		if track.LinkedFromID == "" {
			track.LinkedFromID = CanonicalTrackID(t.LinkedFrom.URI)
		}
	}
	if track.URI == "" && track.ID != "" {
		track.URI = TrackURI(track.ID)
	}

	return track
}

// playlistFromAPI maps the wire playlist onto the domain type. Rootlist rows
// sometimes carry only the URI, so the id is recovered from it when missing.
func playlistFromAPI(p spotifyPlaylist) Playlist {
	id := p.ID
	if id == "" {
		id = CanonicalPlaylistID(p.URI)
	}

	uri := p.URI
	if uri == "" && id != "" {
		uri = "spotify:playlist:" + id
	}

	return Playlist{
		ID:            id,
		Name:          p.Name,
		URI:           uri,
		Owner:         p.Owner.Label(),
		TrackCount:    p.Tracks.Total,
		Public:        p.Public,
		Collaborative: p.Collaborative,
	}
}
