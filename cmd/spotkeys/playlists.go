package main

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/formatter"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Playlists lists the user's playlists, optionally fuzzy-filtered by name.
func (r *Runner) Playlists(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	playlists, err := r.engine.Playlists(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
	}

	if query := cmd.String("find"); query != "" {
		names := make([]string, len(playlists))
		for i, playlist := range playlists {
			names[i] = playlist.Name
		}

		ranks := fuzzy.RankFindNormalizedFold(query, names)
		sort.Sort(ranks)

		filtered := make([]services.Playlist, 0, len(ranks))
		for _, rank := range ranks {
			filtered = append(filtered, playlists[rank.OriginalIndex])
		}
		playlists = filtered
	}

	if cmd.Bool("json") {
		return r.writeJSON(playlists, true)
	}

	return r.writePlain("%s", formatter.FormatPlaylists(playlists))
}

// resolvePlaylists maps user-supplied playlist arguments to playlists.
// Canonical IDs, URIs and URLs resolve directly without touching the API;
// anything else is matched against the playlist listing by name.
func (r *Runner) resolvePlaylists(ctx context.Context, args []string) ([]services.Playlist, error) {
	var listing []services.Playlist
	fetch := func() ([]services.Playlist, error) {
		if listing != nil {
			return listing, nil
		}
		if r.service == nil {
			return nil, fmt.Errorf("%w: resolving playlist names requires authorization (run 'spotkeys auth login')", shared.ErrServiceUnavailable)
		}
		playlists, err := r.engine.Playlists(ctx)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", shared.ErrAPIRequest, err)
		}
		listing = playlists
		return listing, nil
	}

	resolved := make([]services.Playlist, 0, len(args))
	for _, arg := range args {
		arg = strings.TrimSpace(arg)
		if arg == "" {
			return nil, fmt.Errorf("%w: empty playlist argument", shared.ErrInvalidInput)
		}

		// An explicit ID is taken at face value: collaborative playlists a
		// user can write to do not always appear in their own listing.
		if id := services.CanonicalPlaylistID(arg); id != "" {
			resolved = append(resolved, services.Playlist{ID: id})
			continue
		}

		playlists, err := fetch()
		if err != nil {
			return nil, err
		}

		playlist, err := matchPlaylist(arg, playlists)
		if err != nil {
			return nil, err
		}
		resolved = append(resolved, playlist)
	}

	return resolved, nil
}

// matchPlaylist finds the playlist an argument names: an exact
// case-insensitive name match wins, otherwise the best fuzzy rank.
func matchPlaylist(arg string, playlists []services.Playlist) (services.Playlist, error) {
	for _, playlist := range playlists {
		if strings.EqualFold(playlist.Name, arg) {
			return playlist, nil
		}
	}

	names := make([]string, len(playlists))
	for i, playlist := range playlists {
		names[i] = playlist.Name
	}

	ranks := fuzzy.RankFindNormalizedFold(arg, names)
	if len(ranks) == 0 {
		return services.Playlist{}, fmt.Errorf("%w: nothing matches %q", shared.ErrPlaylistNotFound, arg)
	}

	sort.Sort(ranks)
	return playlists[ranks[0].OriginalIndex], nil
}
