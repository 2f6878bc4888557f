package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/engine"
	"github.com/desertthunder/spotkeys/internal/formatter"
	"github.com/desertthunder/spotkeys/internal/history"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Add runs one playlist mutation outside the hotkey path: the given track
// (or the currently playing one) is saved to Liked Songs and added to each
// named playlist, and the outcome is recorded in history.
func (r *Runner) Add(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	args := cmd.Args().Slice()
	if len(args) == 0 {
		return fmt.Errorf("%w: usage: spotkeys add <playlist>...", shared.ErrMissingArgument)
	}

	resolved, err := r.resolvePlaylists(ctx, args)
	if err != nil {
		return err
	}

	identifier := cmd.String("track")
	var track *services.Track
	if identifier == "" {
		track, err = r.engine.CurrentTrack(ctx)
		if err != nil {
			return err
		}
		identifier = track.URI
		if identifier == "" {
			identifier = track.ID
		}
		r.writePlain("♪ %s\n", track.Label())
	}

	ids := make([]string, len(resolved))
	names := make(map[string]string, len(resolved))
	for i, playlist := range resolved {
		ids[i] = playlist.ID
		if playlist.Name != "" {
			names[playlist.ID] = playlist.Name
		}
	}

	result, addErr := r.engine.AddToPlaylists(ctx, identifier, ids)
	if result != nil {
		r.writePlain("%s", formatter.FormatResult(result, names))
		r.recordHistory(cmd, track, result)
	}

	return addErr
}

// recordHistory persists a one-shot result. History is informational, so
// failures are logged rather than returned.
func (r *Runner) recordHistory(cmd *cli.Command, track *services.Track, result *engine.Result) {
	config, _ := r.configTarget(cmd)

	store, err := history.Open(config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err != nil {
		r.logger.Warnf("history unavailable: %v", err)
		return
	}
	defer store.Close()

	entry := history.FromResult("", track, result)
	if err := store.Record(&entry); err != nil {
		r.logger.Warnf("history write failed: %v", err)
	}
}
