package engine

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

const (
	// DefaultPageSize is how many tracks one membership-scan page requests.
	DefaultPageSize = 100

	// DefaultScanConcurrency bounds the page fetches in flight per scan.
	DefaultScanConcurrency = 5

	// DefaultInfoTTL is how long the playlist listing stays fresh.
	DefaultInfoTTL = 5 * time.Minute

	// DefaultMembershipTTL is how long a membership entry stays fresh.
	DefaultMembershipTTL = 2 * time.Minute

	// likedPseudoID is tolerated among targets and filtered out; the liked
	// sub-step always runs regardless.
	likedPseudoID = "liked"
)

// LikedStatus is the outcome of the liked-collection sub-step.
type LikedStatus string

const (
	LikedAdded   LikedStatus = "added"
	LikedAlready LikedStatus = "already-liked"
	LikedFailed  LikedStatus = "failed"
)

// Result is the structured outcome of one AddToPlaylists call.
type Result struct {
	TrackID        string
	TrackURI       string
	Added          []string          // playlist ids the track was written to
	AlreadyPresent []string          // playlist ids that already held the track
	Failed         map[string]string // playlist id → failure reason
	LikedStatus    LikedStatus
	LikedMessage   string // reason when LikedStatus is failed
	Elapsed        time.Duration
}

// Summary renders the one-line outcome the CLI prints and the history store
// records.
func (r *Result) Summary() string {
	parts := []string{fmt.Sprintf("%d added", len(r.Added))}
	if len(r.AlreadyPresent) > 0 {
		parts = append(parts, fmt.Sprintf("%d already present", len(r.AlreadyPresent)))
	}
	if len(r.Failed) > 0 {
		parts = append(parts, fmt.Sprintf("%d failed", len(r.Failed)))
	}

	summary := strings.Join(parts, ", ")
	if r.LikedStatus != "" {
		summary += "; liked: " + string(r.LikedStatus)
	}
	return summary
}

// Engine coordinates the liked-collection write and the per-playlist
// membership checks and appends for a single track mutation. Per-pair
// ordering comes from a keyed mutex; membership knowledge is cached with a
// completeness flag so repeat triggers skip remote checks entirely.
type Engine struct {
	service services.Service
	logger  *log.Logger

	locks   *keyedMutex
	info    *playlistInfoCache
	members *membershipCache

	pageSize        int
	scanConcurrency int
}

// New creates an Engine around a remote service.
func New(service services.Service, logger *log.Logger) *Engine {
	return &Engine{
		service:         service,
		logger:          logger,
		locks:           newKeyedMutex(),
		info:            newPlaylistInfoCache(DefaultInfoTTL),
		members:         newMembershipCache(DefaultMembershipTTL),
		pageSize:        DefaultPageSize,
		scanConcurrency: DefaultScanConcurrency,
	}
}

// CurrentTrack resolves the track playing right now.
func (e *Engine) CurrentTrack(ctx context.Context) (*services.Track, error) {
	return e.service.CurrentlyPlaying(ctx)
}

// Playlists returns the user's playlists, served from the info cache while
// it is fresh.
func (e *Engine) Playlists(ctx context.Context) ([]services.Playlist, error) {
	if cached, ok := e.info.all(); ok {
		return cached, nil
	}

	playlists, err := e.service.GetPlaylists(ctx)
	if err != nil {
		return nil, err
	}

	e.info.replace(playlists)
	return playlists, nil
}

// PlaylistInfo returns one playlist, preferring the cached listing.
func (e *Engine) PlaylistInfo(ctx context.Context, playlistID string) (*services.Playlist, error) {
	if playlist, ok := e.info.get(playlistID); ok {
		return &playlist, nil
	}
	return e.service.GetPlaylist(ctx, playlistID)
}

// Invalidate drops both caches. The daemon calls it on config reload so a
// fresh session never trusts stale knowledge.
func (e *Engine) Invalidate() {
	e.info.clear()
	e.members.clear()
}

// addStatus is the per-playlist outcome of one mutation.
type addStatus int

const (
	statusFailed addStatus = iota
	statusAdded
	statusAlreadyPresent
)

// AddToPlaylists adds the track to the liked collection and to every distinct
// target playlist, concurrently across playlists and serialized per
// (playlist, track) pair.
//
// The liked sub-step never fails the operation; per-playlist failures are
// collected in the Result. Only when every target fails does the call return
// an error (wrapping shared.ErrAllPlaylistsFailed) alongside the Result.
func (e *Engine) AddToPlaylists(ctx context.Context, trackIdentifier string, playlistIDs []string) (*Result, error) {
	started := time.Now()

	if strings.TrimSpace(trackIdentifier) == "" {
		return nil, fmt.Errorf("%w: empty track identifier", shared.ErrInvalidInput)
	}

	targets := dedupeTargets(playlistIDs)
	if len(targets) == 0 {
		return nil, fmt.Errorf("%w: no target playlists", shared.ErrInvalidInput)
	}

	trackID := services.CanonicalTrackID(trackIdentifier)
	trackURI := strings.TrimSpace(trackIdentifier)
	if trackID != "" {
		trackURI = services.TrackURI(trackID)
	}

	result := &Result{
		TrackID:  trackID,
		TrackURI: trackURI,
		Failed:   make(map[string]string),
	}

	e.likeTrack(ctx, trackID, result)

	type outcome struct {
		playlistID string
		status     addStatus
		message    string
	}

	outcomes := make(chan outcome, len(targets))
	var wg sync.WaitGroup

	for _, playlistID := range targets {
		wg.Add(1)
		go func(playlistID string) {
			defer wg.Done()
			status, message := e.addToOne(ctx, playlistID, trackID, trackURI)
			outcomes <- outcome{playlistID: playlistID, status: status, message: message}
		}(playlistID)
	}

	wg.Wait()
	close(outcomes)

	for o := range outcomes {
		switch o.status {
		case statusAdded:
			result.Added = append(result.Added, o.playlistID)
		case statusAlreadyPresent:
			result.AlreadyPresent = append(result.AlreadyPresent, o.playlistID)
		case statusFailed:
			result.Failed[o.playlistID] = o.message
		}
	}

	sort.Strings(result.Added)
	sort.Strings(result.AlreadyPresent)
	result.Elapsed = time.Since(started)

	e.logger.Infof("track %s: %s", trackURI, result.Summary())

	if len(result.Added) == 0 && len(result.AlreadyPresent) == 0 {
		messages := make([]string, 0, len(targets))
		for _, playlistID := range targets {
			if message, ok := result.Failed[playlistID]; ok {
				messages = append(messages, fmt.Sprintf("%s: %s", playlistID, message))
			}
		}
		return result, fmt.Errorf("%w: %s", shared.ErrAllPlaylistsFailed, strings.Join(messages, "; "))
	}

	return result, nil
}

// dedupeTargets keeps the first occurrence of each playlist id, dropping
// blanks and the liked pseudo-target.
func dedupeTargets(playlistIDs []string) []string {
	seen := make(map[string]struct{}, len(playlistIDs))
	targets := make([]string, 0, len(playlistIDs))

	for _, id := range playlistIDs {
		id = strings.TrimSpace(id)
		if id == "" || strings.EqualFold(id, likedPseudoID) {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		targets = append(targets, id)
	}

	return targets
}

// likeTrack records the liked sub-step on the result. It logs failures but
// never propagates them.
func (e *Engine) likeTrack(ctx context.Context, trackID string, result *Result) {
	if trackID == "" {
		result.LikedStatus = LikedFailed
		result.LikedMessage = "track identifier is not canonical"
		return
	}

	if liked, err := e.service.LikedContains(ctx, []string{trackID}); err == nil && len(liked) == 1 && liked[0] {
		result.LikedStatus = LikedAlready
		return
	} else if err != nil {
		e.logger.Debugf("liked precheck failed, trying the save anyway: %v", err)
	}

	if err := e.service.SaveToLiked(ctx, []string{trackID}); err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) && apiErr.IsDuplicate() {
			result.LikedStatus = LikedAlready
			return
		}

		result.LikedStatus = LikedFailed
		result.LikedMessage = err.Error()
		e.logger.Warnf("liked save failed: %v", err)
		return
	}

	result.LikedStatus = LikedAdded
}

// addToOne performs the membership check and write for one playlist under
// the (playlist, track) pair lock.
func (e *Engine) addToOne(ctx context.Context, playlistID, trackID, trackURI string) (addStatus, string) {
	release, err := e.locks.lock(ctx, playlistID+"|"+trackURI)
	if err != nil {
		return statusFailed, err.Error()
	}
	defer release()

	verdict := e.members.verdict(playlistID, trackURI, trackID)
	if verdict == membershipUnknown {
		verdict, err = e.resolveMembership(ctx, playlistID, trackID, trackURI)
		if err != nil {
			return statusFailed, err.Error()
		}
	}

	if verdict == membershipPresent {
		return statusAlreadyPresent, ""
	}

	if err := e.service.AddToPlaylist(ctx, playlistID, []string{trackURI}); err != nil {
		var apiErr *services.APIError
		if errors.As(err, &apiErr) {
			if apiErr.IsDuplicate() {
				e.members.addPositive(playlistID, trackURI, trackID)
				return statusAlreadyPresent, ""
			}
			if apiErr.IsPermission() {
				return statusFailed, fmt.Sprintf("%v: %s", shared.ErrPermissionDenied, apiErr.Message)
			}
		}
		return statusFailed, err.Error()
	}

	e.members.addPositive(playlistID, trackURI, trackID)
	return statusAdded, ""
}

// resolveMembership answers present or absent with a remote check: the bulk
// contains endpoint when the track id is canonical, otherwise a full page
// scan. A failed contains check falls back to the scan.
func (e *Engine) resolveMembership(ctx context.Context, playlistID, trackID, trackURI string) (membershipVerdict, error) {
	if trackID != "" {
		contained, err := e.service.PlaylistContains(ctx, playlistID, []string{trackID})
		if err == nil && len(contained) == 1 {
			if contained[0] {
				e.members.addPositive(playlistID, trackURI, trackID)
				return membershipPresent, nil
			}
			return membershipAbsent, nil
		}
		e.logger.Debugf("contains check failed for %s, falling back to page scan: %v", playlistID, err)
	}

	return e.scanPlaylist(ctx, playlistID, trackID, trackURI)
}

// scanPlaylist pages through the playlist looking for the track by URI, id,
// or linked-from id, with at most scanConcurrency fetches in flight. A scan
// that covers every page merges into the membership entry as complete, dated
// at the scan's start.
func (e *Engine) scanPlaylist(ctx context.Context, playlistID, trackID, trackURI string) (membershipVerdict, error) {
	scanStart := time.Now()

	first, err := e.service.PlaylistTracksPage(ctx, playlistID, e.pageSize, 0)
	if err != nil {
		return membershipUnknown, err
	}

	if matchTrack(first.Items, trackID, trackURI) {
		e.members.addPositive(playlistID, trackURI, trackID)
		return membershipPresent, nil
	}

	if first.Total <= len(first.Items) {
		e.members.mergeComplete(playlistID, first.Items, scanStart)
		return membershipAbsent, nil
	}

	scanCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		found   bool
		scanErr error
		pages   [][]services.Track
	)

	sem := make(chan struct{}, e.scanConcurrency)
	var wg sync.WaitGroup

	for offset := e.pageSize; offset < first.Total; offset += e.pageSize {
		wg.Add(1)
		go func(offset int) {
			defer wg.Done()

			select {
			case sem <- struct{}{}:
			case <-scanCtx.Done():
				return
			}
			defer func() { <-sem }()

			page, err := e.service.PlaylistTracksPage(scanCtx, playlistID, e.pageSize, offset)
			if err != nil {
				mu.Lock()
				if scanErr == nil && scanCtx.Err() == nil {
					scanErr = err
				}
				mu.Unlock()
				cancel()
				return
			}

			mu.Lock()
			pages = append(pages, page.Items)
			if matchTrack(page.Items, trackID, trackURI) {
				found = true
			}
			done := found
			mu.Unlock()

			if done {
				cancel()
			}
		}(offset)
	}

	wg.Wait()

	if found {
		e.members.addPositive(playlistID, trackURI, trackID)
		return membershipPresent, nil
	}
	if scanErr != nil {
		return membershipUnknown, scanErr
	}
	if err := ctx.Err(); err != nil {
		return membershipUnknown, err
	}

	all := make([]services.Track, 0, first.Total)
	all = append(all, first.Items...)
	for _, items := range pages {
		all = append(all, items...)
	}

	e.members.mergeComplete(playlistID, all, scanStart)
	return membershipAbsent, nil
}

// matchTrack reports whether any item matches the track by URI, id, or
// linked-from id, so relinked regional equivalents still count as present.
func matchTrack(items []services.Track, trackID, trackURI string) bool {
	for _, item := range items {
		if trackURI != "" && item.URI == trackURI {
			return true
		}
		if trackID == "" {
			continue
		}
		if item.ID == trackID || item.LinkedFromID == trackID {
			return true
		}
	}
	return false
}
