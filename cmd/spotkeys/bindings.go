package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/formatter"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Bind stores a combo → playlists binding in the config file. Playlist
// arguments are resolved by ID, URI, URL or name.
func (r *Runner) Bind(ctx context.Context, cmd *cli.Command) error {
	args := cmd.Args().Slice()
	if len(args) < 2 {
		return fmt.Errorf("%w: usage: spotkeys bind <combo> <playlist>...", shared.ErrMissingArgument)
	}

	key := combo.Normalize(args[0])
	if _, k := combo.Split(key); key == "" || k == "" {
		return fmt.Errorf("%w: %q has no non-modifier key", shared.ErrInvalidCombo, args[0])
	}

	resolved, err := r.resolvePlaylists(ctx, args[1:])
	if err != nil {
		return err
	}

	ids := make([]string, len(resolved))
	labels := make([]string, len(resolved))
	for i, playlist := range resolved {
		ids[i] = playlist.ID
		labels[i] = playlist.Name
		if labels[i] == "" {
			labels[i] = playlist.ID
		}
	}

	config, configPath := r.configTarget(cmd)
	config.SetBinding(shared.Binding{Combo: key, Playlists: ids})
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlain("✓ %s → %s\n", key, strings.Join(labels, ", "))
	return nil
}

// Unbind removes a combo binding from the config file.
func (r *Runner) Unbind(ctx context.Context, cmd *cli.Command) error {
	key := combo.Normalize(cmd.StringArg("combo"))
	if key == "" {
		return fmt.Errorf("%w: usage: spotkeys unbind <combo>", shared.ErrMissingArgument)
	}

	config, configPath := r.configTarget(cmd)
	if !config.RemoveBinding(key) {
		return fmt.Errorf("%w: %s", shared.ErrComboNotFound, key)
	}
	if err := shared.SaveConfig(configPath, config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	r.writePlain("✓ removed %s\n", key)
	return nil
}

// Bindings lists the configured bindings with playlist names where known.
func (r *Runner) Bindings(ctx context.Context, cmd *cli.Command) error {
	config, _ := r.configTarget(cmd)

	if cmd.Bool("json") {
		return r.writeJSON(config.Bindings, true)
	}

	return r.writePlain("%s", formatter.FormatBindings(config.Bindings, r.playlistNames(ctx)))
}

// playlistNames returns an id → name map for display. Lookup failures yield
// nil and callers fall back to raw ids.
func (r *Runner) playlistNames(ctx context.Context) map[string]string {
	if r.service == nil {
		return nil
	}

	playlists, err := r.engine.Playlists(ctx)
	if err != nil {
		r.logger.Debugf("playlist names unavailable: %v", err)
		return nil
	}

	names := make(map[string]string, len(playlists))
	for _, playlist := range playlists {
		names[playlist.ID] = playlist.Name
	}
	return names
}
