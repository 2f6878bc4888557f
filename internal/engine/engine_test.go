package engine

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

const (
	testTrackID  = "4uLU6hMCjMI75M1A2tKUQC"
	testTrackURI = "spotify:track:4uLU6hMCjMI75M1A2tKUQC"
	otherTrackID = "5uLU6hMCjMI75M1A2tKUQC"
	testPlaylist = "1a2B3c4D5e6F7g8H9i0J1k"
	chillList    = "2a2B3c4D5e6F7g8H9i0J1k"
	focusList    = "3a2B3c4D5e6F7g8H9i0J1k"
)

// fakeService implements services.Service with per-method hooks and call
// counting. Hooks left nil fall back to benign defaults: nothing playing,
// nothing liked, no playlist holds anything, every write succeeds.
type fakeService struct {
	mu    sync.Mutex
	calls map[string]int

	currentlyPlayingFn   func(ctx context.Context) (*services.Track, error)
	getPlaylistsFn       func(ctx context.Context) ([]services.Playlist, error)
	getPlaylistFn        func(ctx context.Context, playlistID string) (*services.Playlist, error)
	playlistTracksPageFn func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error)
	playlistContainsFn   func(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error)
	addToPlaylistFn      func(ctx context.Context, playlistID string, trackURIs []string) error
	saveToLikedFn        func(ctx context.Context, trackIDs []string) error
	likedContainsFn      func(ctx context.Context, trackIDs []string) ([]bool, error)
}

func newFakeService() *fakeService {
	return &fakeService{calls: make(map[string]int)}
}

func (f *fakeService) record(method string) {
	f.mu.Lock()
	f.calls[method]++
	f.mu.Unlock()
}

func (f *fakeService) count(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func (f *fakeService) Authenticate(ctx context.Context, credentials map[string]string) error {
	f.record("Authenticate")
	return nil
}

func (f *fakeService) CurrentUser(ctx context.Context) (*services.User, error) {
	f.record("CurrentUser")
	return &services.User{ID: "listener"}, nil
}

func (f *fakeService) CurrentlyPlaying(ctx context.Context) (*services.Track, error) {
	f.record("CurrentlyPlaying")
	if f.currentlyPlayingFn != nil {
		return f.currentlyPlayingFn(ctx)
	}
	return nil, shared.ErrNoCurrentTrack
}

func (f *fakeService) GetPlaylists(ctx context.Context) ([]services.Playlist, error) {
	f.record("GetPlaylists")
	if f.getPlaylistsFn != nil {
		return f.getPlaylistsFn(ctx)
	}
	return nil, nil
}

func (f *fakeService) GetPlaylist(ctx context.Context, playlistID string) (*services.Playlist, error) {
	f.record("GetPlaylist")
	if f.getPlaylistFn != nil {
		return f.getPlaylistFn(ctx, playlistID)
	}
	return nil, shared.ErrPlaylistNotFound
}

func (f *fakeService) UserPlaylists(ctx context.Context, limit, offset int) (*services.PlaylistPage, error) {
	f.record("UserPlaylists")
	return &services.PlaylistPage{}, nil
}

func (f *fakeService) PlaylistTracksPage(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
	f.record("PlaylistTracksPage")
	if f.playlistTracksPageFn != nil {
		return f.playlistTracksPageFn(ctx, playlistID, limit, offset)
	}
	return &services.TrackPage{}, nil
}

func (f *fakeService) PlaylistContains(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
	f.record("PlaylistContains")
	if f.playlistContainsFn != nil {
		return f.playlistContainsFn(ctx, playlistID, trackIDs)
	}
	return make([]bool, len(trackIDs)), nil
}

func (f *fakeService) AddToPlaylist(ctx context.Context, playlistID string, trackURIs []string) error {
	f.record("AddToPlaylist")
	if f.addToPlaylistFn != nil {
		return f.addToPlaylistFn(ctx, playlistID, trackURIs)
	}
	return nil
}

func (f *fakeService) SaveToLiked(ctx context.Context, trackIDs []string) error {
	f.record("SaveToLiked")
	if f.saveToLikedFn != nil {
		return f.saveToLikedFn(ctx, trackIDs)
	}
	return nil
}

func (f *fakeService) LikedContains(ctx context.Context, trackIDs []string) ([]bool, error) {
	f.record("LikedContains")
	if f.likedContainsFn != nil {
		return f.likedContainsFn(ctx, trackIDs)
	}
	return make([]bool, len(trackIDs)), nil
}

func (f *fakeService) Name() string { return "fake" }

var _ services.Service = (*fakeService)(nil)

func newTestEngine(fake *fakeService) *Engine {
	return New(fake, log.New(io.Discard))
}

func TestEngineLookups(t *testing.T) {
	ctx := context.Background()

	t.Run("playlists are cached until invalidated", func(t *testing.T) {
		fake := newFakeService()
		fake.getPlaylistsFn = func(ctx context.Context) ([]services.Playlist, error) {
			return []services.Playlist{
				{ID: testPlaylist, Name: "Top"},
				{ID: chillList, Name: "Chill"},
			}, nil
		}
		eng := newTestEngine(fake)

		for i := 0; i < 2; i++ {
			playlists, err := eng.Playlists(ctx)
			if err != nil {
				t.Fatalf("expected playlists, got %v", err)
			}
			if len(playlists) != 2 {
				t.Fatalf("expected 2 playlists, got %d", len(playlists))
			}
		}
		if got := fake.count("GetPlaylists"); got != 1 {
			t.Errorf("expected 1 remote listing, got %d", got)
		}

		eng.Invalidate()

		if _, err := eng.Playlists(ctx); err != nil {
			t.Fatalf("expected playlists after invalidation, got %v", err)
		}
		if got := fake.count("GetPlaylists"); got != 2 {
			t.Errorf("expected a reload after invalidation, got %d calls", got)
		}
	})

	t.Run("playlist info prefers the cached listing", func(t *testing.T) {
		fake := newFakeService()
		fake.getPlaylistsFn = func(ctx context.Context) ([]services.Playlist, error) {
			return []services.Playlist{{ID: testPlaylist, Name: "Top"}}, nil
		}
		fake.getPlaylistFn = func(ctx context.Context, playlistID string) (*services.Playlist, error) {
			return &services.Playlist{ID: playlistID, Name: "Focus"}, nil
		}
		eng := newTestEngine(fake)

		if _, err := eng.Playlists(ctx); err != nil {
			t.Fatalf("expected playlists, got %v", err)
		}

		cached, err := eng.PlaylistInfo(ctx, testPlaylist)
		if err != nil {
			t.Fatalf("expected cached info, got %v", err)
		}
		if cached.Name != "Top" {
			t.Errorf("expected Top, got %s", cached.Name)
		}
		if got := fake.count("GetPlaylist"); got != 0 {
			t.Errorf("expected no remote lookup for a cached playlist, got %d", got)
		}

		fetched, err := eng.PlaylistInfo(ctx, focusList)
		if err != nil {
			t.Fatalf("expected remote info, got %v", err)
		}
		if fetched.Name != "Focus" {
			t.Errorf("expected Focus, got %s", fetched.Name)
		}
		if got := fake.count("GetPlaylist"); got != 1 {
			t.Errorf("expected 1 remote lookup, got %d", got)
		}
	})

	t.Run("current track passes through", func(t *testing.T) {
		fake := newFakeService()
		fake.currentlyPlayingFn = func(ctx context.Context) (*services.Track, error) {
			return &services.Track{ID: testTrackID, Name: "Song", URI: testTrackURI}, nil
		}
		eng := newTestEngine(fake)

		track, err := eng.CurrentTrack(ctx)
		if err != nil {
			t.Fatalf("expected a track, got %v", err)
		}
		if track.ID != testTrackID {
			t.Errorf("expected %s, got %s", testTrackID, track.ID)
		}

		idle := newTestEngine(newFakeService())
		if _, err := idle.CurrentTrack(ctx); !errors.Is(err, shared.ErrNoCurrentTrack) {
			t.Errorf("expected ErrNoCurrentTrack, got %v", err)
		}
	})
}

func TestAddToPlaylists(t *testing.T) {
	ctx := context.Background()

	t.Run("adds everywhere and saves to liked", func(t *testing.T) {
		fake := newFakeService()
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{chillList, testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if result.TrackID != testTrackID {
			t.Errorf("expected track id %s, got %s", testTrackID, result.TrackID)
		}
		if result.TrackURI != testTrackURI {
			t.Errorf("expected track uri %s, got %s", testTrackURI, result.TrackURI)
		}
		if len(result.Added) != 2 || result.Added[0] != testPlaylist || result.Added[1] != chillList {
			t.Errorf("expected both playlists added in sorted order, got %v", result.Added)
		}
		if len(result.AlreadyPresent) != 0 || len(result.Failed) != 0 {
			t.Errorf("expected clean result, got already=%v failed=%v", result.AlreadyPresent, result.Failed)
		}
		if result.LikedStatus != LikedAdded {
			t.Errorf("expected liked status added, got %s", result.LikedStatus)
		}
		if got := result.Summary(); got != "2 added; liked: added" {
			t.Errorf("unexpected summary: %s", got)
		}

		if got := fake.count("SaveToLiked"); got != 1 {
			t.Errorf("expected 1 liked save, got %d", got)
		}
		if got := fake.count("AddToPlaylist"); got != 2 {
			t.Errorf("expected 2 playlist writes, got %d", got)
		}
	})

	t.Run("accepts a bare track id", func(t *testing.T) {
		fake := newFakeService()

		var gotURIs []string
		fake.addToPlaylistFn = func(ctx context.Context, playlistID string, trackURIs []string) error {
			fake.mu.Lock()
			gotURIs = append(gotURIs, trackURIs...)
			fake.mu.Unlock()
			return nil
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackID, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.TrackURI != testTrackURI {
			t.Errorf("expected derived uri %s, got %s", testTrackURI, result.TrackURI)
		}
		if len(gotURIs) != 1 || gotURIs[0] != testTrackURI {
			t.Errorf("expected the service to receive %s, got %v", testTrackURI, gotURIs)
		}
	})

	t.Run("reports already liked without saving", func(t *testing.T) {
		fake := newFakeService()
		fake.likedContainsFn = func(ctx context.Context, trackIDs []string) ([]bool, error) {
			return []bool{true}, nil
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.LikedStatus != LikedAlready {
			t.Errorf("expected already-liked, got %s", result.LikedStatus)
		}
		if got := fake.count("SaveToLiked"); got != 0 {
			t.Errorf("expected no liked save, got %d", got)
		}
	})

	t.Run("reclassifies a duplicate liked save", func(t *testing.T) {
		fake := newFakeService()
		fake.likedContainsFn = func(ctx context.Context, trackIDs []string) ([]bool, error) {
			return nil, errors.New("contains unavailable")
		}
		fake.saveToLikedFn = func(ctx context.Context, trackIDs []string) error {
			return &services.APIError{Status: 400, Message: "Track already saved", Reason: "DUPLICATE"}
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if result.LikedStatus != LikedAlready {
			t.Errorf("expected already-liked, got %s", result.LikedStatus)
		}
	})

	t.Run("liked failure never fails the operation", func(t *testing.T) {
		fake := newFakeService()
		fake.saveToLikedFn = func(ctx context.Context, trackIDs []string) error {
			return errors.New("library service down")
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success despite liked failure, got %v", err)
		}
		if result.LikedStatus != LikedFailed {
			t.Errorf("expected liked failed, got %s", result.LikedStatus)
		}
		if !strings.Contains(result.LikedMessage, "library service down") {
			t.Errorf("expected the liked message to carry the reason, got %q", result.LikedMessage)
		}
		if len(result.Added) != 1 || result.Added[0] != testPlaylist {
			t.Errorf("expected the playlist add to proceed, got %v", result.Added)
		}
	})

	t.Run("non-canonical identifiers fail the liked step", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistTracksPageFn = func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			return &services.TrackPage{
				Items: []services.Track{{ID: otherTrackID, URI: services.TrackURI(otherTrackID)}},
				Total: 1,
			}, nil
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, "local-file-identifier", []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected the playlist add to succeed, got %v", err)
		}
		if result.LikedStatus != LikedFailed {
			t.Errorf("expected liked failed, got %s", result.LikedStatus)
		}
		if result.TrackID != "" {
			t.Errorf("expected no canonical id, got %s", result.TrackID)
		}
		if got := fake.count("LikedContains") + fake.count("SaveToLiked"); got != 0 {
			t.Errorf("expected no liked calls for a non-canonical id, got %d", got)
		}
		if got := fake.count("PlaylistContains"); got != 0 {
			t.Errorf("expected membership via page scan, got %d contains calls", got)
		}
		if len(result.Added) != 1 {
			t.Errorf("expected 1 added, got %v", result.Added)
		}
	})

	t.Run("rejects blank and empty input", func(t *testing.T) {
		eng := newTestEngine(newFakeService())

		cases := []struct {
			name      string
			track     string
			playlists []string
		}{
			{"empty track", "  ", []string{testPlaylist}},
			{"no playlists", testTrackURI, nil},
			{"only filtered targets", testTrackURI, []string{" ", "liked", "LIKED"}},
		}

		for _, tc := range cases {
			result, err := eng.AddToPlaylists(ctx, tc.track, tc.playlists)
			if !errors.Is(err, shared.ErrInvalidInput) {
				t.Errorf("%s: expected ErrInvalidInput, got %v", tc.name, err)
			}
			if result != nil {
				t.Errorf("%s: expected no result, got %+v", tc.name, result)
			}
		}
	})

	t.Run("deduplicates targets", func(t *testing.T) {
		fake := newFakeService()
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist, testPlaylist, "liked", chillList, " "})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result.Added) != 2 {
			t.Errorf("expected 2 distinct targets, got %v", result.Added)
		}
		if got := fake.count("AddToPlaylist"); got != 2 {
			t.Errorf("expected 2 writes, got %d", got)
		}
	})

	t.Run("skips the write when the playlist already holds the track", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistContainsFn = func(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
			return []bool{true}, nil
		}
		eng := newTestEngine(fake)

		for i := 0; i < 2; i++ {
			result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
			if err != nil {
				t.Fatalf("expected success, got %v", err)
			}
			if len(result.AlreadyPresent) != 1 || result.AlreadyPresent[0] != testPlaylist {
				t.Errorf("expected already present, got %+v", result)
			}
		}

		if got := fake.count("AddToPlaylist"); got != 0 {
			t.Errorf("expected no writes, got %d", got)
		}
		if got := fake.count("PlaylistContains"); got != 1 {
			t.Errorf("expected the second trigger to hit the cache, got %d contains calls", got)
		}
	})

	t.Run("reclassifies duplicate rejections as already present", func(t *testing.T) {
		fake := newFakeService()
		fake.addToPlaylistFn = func(ctx context.Context, playlistID string, trackURIs []string) error {
			return &services.APIError{Status: 400, Message: "Item already exists", Reason: "DUPLICATE"}
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result.AlreadyPresent) != 1 {
			t.Errorf("expected already present, got %+v", result)
		}
		if len(result.Failed) != 0 {
			t.Errorf("expected no failures, got %v", result.Failed)
		}

		// the rejection seeds the cache, so a repeat answers locally
		if _, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got := fake.count("AddToPlaylist"); got != 1 {
			t.Errorf("expected a single write attempt, got %d", got)
		}
	})

	t.Run("reports permission failures with the reason", func(t *testing.T) {
		fake := newFakeService()
		fake.addToPlaylistFn = func(ctx context.Context, playlistID string, trackURIs []string) error {
			if playlistID == testPlaylist {
				return &services.APIError{Status: 403, Message: "Insufficient client scope"}
			}
			return nil
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist, chillList})
		if err != nil {
			t.Fatalf("expected partial success, got %v", err)
		}
		if len(result.Added) != 1 || result.Added[0] != chillList {
			t.Errorf("expected the other playlist to succeed, got %v", result.Added)
		}

		reason, ok := result.Failed[testPlaylist]
		if !ok {
			t.Fatalf("expected a failure for %s, got %v", testPlaylist, result.Failed)
		}
		if !strings.Contains(reason, "permission denied") || !strings.Contains(reason, "Insufficient client scope") {
			t.Errorf("expected the reason to name the permission problem, got %q", reason)
		}
	})

	t.Run("fails the call only when every playlist fails", func(t *testing.T) {
		fake := newFakeService()
		fake.addToPlaylistFn = func(ctx context.Context, playlistID string, trackURIs []string) error {
			return errors.New("service unavailable")
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist, chillList})
		if !errors.Is(err, shared.ErrAllPlaylistsFailed) {
			t.Fatalf("expected ErrAllPlaylistsFailed, got %v", err)
		}
		if !strings.Contains(err.Error(), testPlaylist) || !strings.Contains(err.Error(), chillList) {
			t.Errorf("expected the error to name both playlists, got %v", err)
		}

		if result == nil {
			t.Fatal("expected a result alongside the error")
		}
		if len(result.Failed) != 2 {
			t.Errorf("expected 2 failures, got %v", result.Failed)
		}
		if result.LikedStatus != LikedAdded {
			t.Errorf("expected the liked save to still count, got %s", result.LikedStatus)
		}
	})

	t.Run("concurrent triggers of the same pair write once", func(t *testing.T) {
		fake := newFakeService()
		fake.addToPlaylistFn = func(ctx context.Context, playlistID string, trackURIs []string) error {
			time.Sleep(30 * time.Millisecond)
			return nil
		}
		eng := newTestEngine(fake)

		results := make([]*Result, 2)
		errs := make([]error, 2)

		var wg sync.WaitGroup
		for i := 0; i < 2; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				results[i], errs[i] = eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
			}(i)
		}
		wg.Wait()

		for i, err := range errs {
			if err != nil {
				t.Fatalf("trigger %d: expected success, got %v", i, err)
			}
		}
		if got := fake.count("AddToPlaylist"); got != 1 {
			t.Fatalf("expected exactly one write, got %d", got)
		}

		added := len(results[0].Added) + len(results[1].Added)
		already := len(results[0].AlreadyPresent) + len(results[1].AlreadyPresent)
		if added != 1 || already != 1 {
			t.Errorf("expected one added and one already present, got added=%d already=%d", added, already)
		}
	})

	t.Run("first scan page hit skips deeper fetches", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistContainsFn = func(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
			return nil, errors.New("contains unavailable")
		}
		fake.playlistTracksPageFn = func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			return &services.TrackPage{
				Items: []services.Track{{ID: testTrackID, URI: testTrackURI}},
				Total: 50,
			}, nil
		}
		eng := newTestEngine(fake)

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result.AlreadyPresent) != 1 {
			t.Errorf("expected already present, got %+v", result)
		}
		if got := fake.count("PlaylistTracksPage"); got != 1 {
			t.Errorf("expected a single page fetch, got %d", got)
		}
	})

	t.Run("scans later pages and matches linked-from ids", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistContainsFn = func(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
			return nil, errors.New("contains unavailable")
		}
		fake.playlistTracksPageFn = func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			pages := map[int][]services.Track{
				0: {{ID: "aaaaaaaaaaaaaaaaaaaaaa"}, {ID: "bbbbbbbbbbbbbbbbbbbbbb"}},
				2: {{ID: "cccccccccccccccccccccc"}, {ID: "dddddddddddddddddddddd"}},
				4: {{ID: otherTrackID, URI: services.TrackURI(otherTrackID), LinkedFromID: testTrackID}},
			}
			return &services.TrackPage{Items: pages[offset], Total: 5, Limit: limit, Offset: offset}, nil
		}
		eng := newTestEngine(fake)
		eng.pageSize = 2

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result.AlreadyPresent) != 1 || result.AlreadyPresent[0] != testPlaylist {
			t.Errorf("expected the relinked track to count as present, got %+v", result)
		}
		if got := fake.count("AddToPlaylist"); got != 0 {
			t.Errorf("expected no write, got %d", got)
		}
	})

	t.Run("a completed scan answers absence from the cache", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistTracksPageFn = func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			return &services.TrackPage{
				Items: []services.Track{{ID: otherTrackID, URI: services.TrackURI(otherTrackID)}},
				Total: 1,
			}, nil
		}
		eng := newTestEngine(fake)

		if _, err := eng.AddToPlaylists(ctx, "local-file-one", []string{testPlaylist}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if _, err := eng.AddToPlaylists(ctx, "local-file-two", []string{testPlaylist}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}

		if got := fake.count("PlaylistTracksPage"); got != 1 {
			t.Errorf("expected the second trigger to trust the completed scan, got %d fetches", got)
		}
		if got := fake.count("AddToPlaylist"); got != 2 {
			t.Errorf("expected both tracks written, got %d", got)
		}
	})

	t.Run("a scan never erases a write that landed while it ran", func(t *testing.T) {
		fake := newFakeService()

		scanStarted := make(chan struct{})
		releaseScan := make(chan struct{})
		var once sync.Once
		fake.playlistTracksPageFn = func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			once.Do(func() { close(scanStarted) })
			<-releaseScan
			return &services.TrackPage{
				Items: []services.Track{{ID: otherTrackID, URI: services.TrackURI(otherTrackID)}},
				Total: 1,
			}, nil
		}
		eng := newTestEngine(fake)

		// a non-canonical identifier forces the page scan
		scanDone := make(chan error, 1)
		go func() {
			_, err := eng.AddToPlaylists(ctx, "local-file-one", []string{testPlaylist})
			scanDone <- err
		}()
		<-scanStarted

		// a different track takes a different pair lock, so this write is
		// legal while the scan holds its page fetch
		if _, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist}); err != nil {
			t.Fatalf("expected the concurrent write to succeed, got %v", err)
		}

		close(releaseScan)
		if err := <-scanDone; err != nil {
			t.Fatalf("expected the scanned add to succeed, got %v", err)
		}

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if len(result.AlreadyPresent) != 1 || result.AlreadyPresent[0] != testPlaylist {
			t.Errorf("expected the earlier write to be remembered, got %+v", result)
		}
		if got := fake.count("AddToPlaylist"); got != 2 {
			t.Errorf("expected no repeat write after the scan completed, got %d", got)
		}
		if got := fake.count("PlaylistContains"); got != 1 {
			t.Errorf("expected the retrigger to answer from the cache, got %d contains calls", got)
		}
	})

	t.Run("scan errors surface on that playlist", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistContainsFn = func(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
			return nil, errors.New("contains unavailable")
		}
		fake.playlistTracksPageFn = func(ctx context.Context, playlistID string, limit, offset int) (*services.TrackPage, error) {
			if offset == 2 {
				return nil, errors.New("page fetch failed")
			}
			return &services.TrackPage{
				Items: []services.Track{{ID: "aaaaaaaaaaaaaaaaaaaaaa"}, {ID: "bbbbbbbbbbbbbbbbbbbbbb"}},
				Total: 6,
			}, nil
		}
		eng := newTestEngine(fake)
		eng.pageSize = 2

		result, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist})
		if !errors.Is(err, shared.ErrAllPlaylistsFailed) {
			t.Fatalf("expected ErrAllPlaylistsFailed, got %v", err)
		}
		if reason := result.Failed[testPlaylist]; !strings.Contains(reason, "page fetch failed") {
			t.Errorf("expected the scan error as the reason, got %q", reason)
		}
		if got := fake.count("AddToPlaylist"); got != 0 {
			t.Errorf("expected no write on unknown membership, got %d", got)
		}
	})

	t.Run("membership entries expire and trigger a recheck", func(t *testing.T) {
		fake := newFakeService()
		fake.playlistContainsFn = func(ctx context.Context, playlistID string, trackIDs []string) ([]bool, error) {
			return []bool{true}, nil
		}
		eng := newTestEngine(fake)

		base := time.Now()
		clock := base
		eng.members.now = func() time.Time { return clock }

		if _, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got := fake.count("PlaylistContains"); got != 1 {
			t.Fatalf("expected 1 contains call, got %d", got)
		}

		clock = base.Add(DefaultMembershipTTL + time.Second)

		if _, err := eng.AddToPlaylists(ctx, testTrackURI, []string{testPlaylist}); err != nil {
			t.Fatalf("expected success, got %v", err)
		}
		if got := fake.count("PlaylistContains"); got != 2 {
			t.Errorf("expected an expired entry to be rechecked, got %d contains calls", got)
		}
	})
}
