package main

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/formatter"
	"github.com/desertthunder/spotkeys/internal/history"
)

// History prints recent trigger outcomes from the local store.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	config, _ := r.configTarget(cmd)

	store, err := history.Open(config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	entries, err := store.Recent(cmd.Int("limit"))
	if err != nil {
		return fmt.Errorf("failed to read history: %w", err)
	}

	if cmd.Bool("json") {
		return r.writeJSON(entries, true)
	}

	return r.writePlain("%s", formatter.FormatHistory(entries))
}
