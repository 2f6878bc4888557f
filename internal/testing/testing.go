// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"sync"
	"testing"

	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// MockService is a configurable test double for [services.Service].
//
// The zero value behaves like an authenticated account with nothing playing,
// no playlists, and writes that succeed. Err short-circuits every call.
type MockService struct {
	mu sync.Mutex

	User      *services.User
	Track     *services.Track
	Playlists []services.Playlist
	Tracks    map[string][]services.Track // playlist id → held tracks
	Err       error

	Added []string // playlist ids written to, in call order
	Liked []string // track ids saved to liked
}

func (m *MockService) Authenticate(ctx context.Context, credentials map[string]string) error {
	return m.Err
}

func (m *MockService) CurrentUser(ctx context.Context) (*services.User, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.User == nil {
		return &services.User{ID: "mock-user"}, nil
	}
	return m.User, nil
}

func (m *MockService) CurrentlyPlaying(ctx context.Context) (*services.Track, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	if m.Track == nil {
		return nil, shared.ErrNoCurrentTrack
	}
	return m.Track, nil
}

func (m *MockService) GetPlaylists(ctx context.Context) ([]services.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Playlists, nil
}

func (m *MockService) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	for _, playlist := range m.Playlists {
		if playlist.ID == playlistID {
			return &playlist, nil
		}
	}
	return nil, shared.ErrPlaylistNotFound
}

func (m *MockService) UserPlaylists(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	page := &services.PlaylistPage{Total: len(m.Playlists), Limit: limit, Offset: offset}
	if offset >= len(m.Playlists) {
		return page, nil
	}

	end := offset + limit
	if end > len(m.Playlists) {
		end = len(m.Playlists)
	}
	page.Items = m.Playlists[offset:end]
	page.Next = end < len(m.Playlists)
	return page, nil
}

func (m *MockService) PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	tracks := m.Tracks[playlistID]
	page := &services.TrackPage{Total: len(tracks), Limit: limit, Offset: offset}
	if offset >= len(tracks) {
		return page, nil
	}

	end := offset + limit
	if end > len(tracks) {
		end = len(tracks)
	}
	page.Items = tracks[offset:end]
	page.Next = end < len(tracks)
	return page, nil
}

func (m *MockService) PlaylistContains(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
	if m.Err != nil {
		return nil, m.Err
	}

	held := make(map[string]struct{})
	for _, track := range m.Tracks[playlistID] {
		held[track.ID] = struct{}{}
	}

	results := make([]bool, len(trackIDs))
	for i, id := range trackIDs {
		_, results[i] = held[id]
	}
	return results, nil
}

func (m *MockService) AddToPlaylist(ctx context.Context, playlistID string, trackURIs []string) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	m.Added = append(m.Added, playlistID)
	m.mu.Unlock()
	return nil
}

func (m *MockService) SaveToLiked(ctx context.Context, trackIDs []string) error {
	if m.Err != nil {
		return m.Err
	}

	m.mu.Lock()
	m.Liked = append(m.Liked, trackIDs...)
	m.mu.Unlock()
	return nil
}

func (m *MockService) LikedContains(ctx context.Context, trackIDs []string) ([]bool, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return make([]bool, len(trackIDs)), nil
}

func (m *MockService) Name() string { return "mock" }

var _ services.Service = (*MockService)(nil)

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// LimitedWriter fails after a certain number of writes
type LimitedWriter struct {
	maxWrites int
	written   int
	target    io.Writer
}

func (l *LimitedWriter) Write(p []byte) (n int, err error) {
	if l.written >= l.maxWrites {
		return 0, errors.New("write limit exceeded")
	}
	l.written++
	return l.target.Write(p)
}

func NewLimitedWriter(maxWrites, written int, target io.Writer) LimitedWriter {
	return LimitedWriter{maxWrites: maxWrites, written: written, target: target}
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertDirExists(t *testing.T, path string) {
	t.Helper()
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		t.Errorf("Directory does not exist: %s", path)
		return
	}
	if !info.IsDir() {
		t.Errorf("Path is not a directory: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}
