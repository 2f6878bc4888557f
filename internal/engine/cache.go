package engine

import (
	"sync"
	"time"

	"github.com/desertthunder/spotkeys/internal/services"
)

// playlistInfoCache holds the last full traversal of the user's playlists.
// It is replaced wholesale on refresh and expires as a unit.
type playlistInfoCache struct {
	mu        sync.RWMutex
	playlists []services.Playlist
	byID      map[string]services.Playlist
	fetchedAt time.Time
	ttl       time.Duration
	now       func() time.Time
}

func newPlaylistInfoCache(ttl time.Duration) *playlistInfoCache {
	return &playlistInfoCache{ttl: ttl, now: time.Now}
}

func (c *playlistInfoCache) fresh() bool {
	return c.byID != nil && c.now().Sub(c.fetchedAt) < c.ttl
}

// all returns the cached listing while it is fresh.
func (c *playlistInfoCache) all() ([]services.Playlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fresh() {
		return nil, false
	}
	return c.playlists, true
}

// get returns one cached playlist while the listing is fresh.
func (c *playlistInfoCache) get(playlistID string) (services.Playlist, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.fresh() {
		return services.Playlist{}, false
	}
	playlist, ok := c.byID[playlistID]
	return playlist, ok
}

// replace installs a new complete listing.
func (c *playlistInfoCache) replace(playlists []services.Playlist) {
	byID := make(map[string]services.Playlist, len(playlists))
	for _, playlist := range playlists {
		byID[playlist.ID] = playlist
	}

	c.mu.Lock()
	c.playlists = playlists
	c.byID = byID
	c.fetchedAt = c.now()
	c.mu.Unlock()
}

func (c *playlistInfoCache) clear() {
	c.mu.Lock()
	c.playlists = nil
	c.byID = nil
	c.mu.Unlock()
}

// membershipVerdict is the answer a cache lookup or remote check gives about
// one track's presence in one playlist.
type membershipVerdict int

const (
	membershipUnknown membershipVerdict = iota
	membershipPresent
	membershipAbsent
)

// membershipEntry records which tracks are known to be in one playlist.
// complete means the whole playlist was scanned, so absence from the sets is
// authoritative; incomplete entries only carry positives.
type membershipEntry struct {
	uris      map[string]struct{}
	ids       map[string]struct{}
	complete  bool
	fetchedAt time.Time
}

func (e *membershipEntry) holds(uri, id string) bool {
	if uri != "" {
		if _, ok := e.uris[uri]; ok {
			return true
		}
	}
	if id != "" {
		if _, ok := e.ids[id]; ok {
			return true
		}
	}
	return false
}

// membershipCache maps playlist id to its membership knowledge. Entries
// expire individually; positives merge additively under the pair lock, and a
// completed scan also merges, so positives recorded by concurrent writes on
// other pairs survive it.
type membershipCache struct {
	mu      sync.Mutex
	entries map[string]*membershipEntry
	ttl     time.Duration
	now     func() time.Time
}

func newMembershipCache(ttl time.Duration) *membershipCache {
	return &membershipCache{
		entries: make(map[string]*membershipEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// verdict answers from cache alone: present when the track is a known
// positive, absent when a fresh complete entry does not hold it, unknown
// otherwise. Expired entries are dropped on the way.
func (c *membershipCache) verdict(playlistID, uri, id string) membershipVerdict {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[playlistID]
	if !ok {
		return membershipUnknown
	}
	if c.now().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, playlistID)
		return membershipUnknown
	}

	if entry.holds(uri, id) {
		return membershipPresent
	}
	if entry.complete {
		return membershipAbsent
	}
	return membershipUnknown
}

// addPositive records one track as present without claiming completeness.
// A new entry starts its TTL now; an existing entry keeps its clock, so
// optimistic additions never extend a stale scan's lifetime.
func (c *membershipCache) addPositive(playlistID, uri, id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[playlistID]
	if !ok {
		entry = &membershipEntry{
			uris:      make(map[string]struct{}),
			ids:       make(map[string]struct{}),
			fetchedAt: c.now(),
		}
		c.entries[playlistID] = entry
	}

	if uri != "" {
		entry.uris[uri] = struct{}{}
	}
	if id != "" {
		entry.ids[id] = struct{}{}
	}
}

// mergeComplete folds the outcome of a full scan into the playlist's entry.
// The scanned tracks union with positives recorded while the scan ran; a
// legal concurrent write on another pair must not be erased, or the next
// trigger for that track would see a false absent and write again. fetchedAt
// is the scan start time, so knowledge is never dated fresher than it is.
func (c *membershipCache) mergeComplete(playlistID string, tracks []services.Track, fetchedAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[playlistID]
	if ok && c.now().Sub(entry.fetchedAt) >= c.ttl {
		delete(c.entries, playlistID)
		ok = false
	}
	if !ok {
		entry = &membershipEntry{
			uris: make(map[string]struct{}, len(tracks)),
			ids:  make(map[string]struct{}, len(tracks)),
		}
		c.entries[playlistID] = entry
	}

	for _, track := range tracks {
		if track.URI != "" {
			entry.uris[track.URI] = struct{}{}
		}
		if track.ID != "" {
			entry.ids[track.ID] = struct{}{}
		}
		if track.LinkedFromID != "" {
			entry.ids[track.LinkedFromID] = struct{}{}
		}
	}

	entry.complete = true
	entry.fetchedAt = fetchedAt
}

func (c *membershipCache) clear() {
	c.mu.Lock()
	c.entries = make(map[string]*membershipEntry)
	c.mu.Unlock()
}
