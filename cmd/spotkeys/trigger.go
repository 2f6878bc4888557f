package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/bridge"
	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Trigger asks a running helper to synthesize a combo event, exercising the
// same path an OS hotkey takes.
func (r *Runner) Trigger(ctx context.Context, cmd *cli.Command) error {
	comboText := cmd.StringArg("combo")
	if strings.TrimSpace(comboText) == "" {
		return fmt.Errorf("%w: usage: spotkeys trigger <combo>", shared.ErrMissingArgument)
	}

	config, _ := r.configTarget(cmd)
	if err := bridge.Trigger(ctx, config.Helper.URL(), comboText); err != nil {
		return err
	}

	r.writePlain("✓ triggered %s\n", combo.Normalize(comboText))
	return nil
}
