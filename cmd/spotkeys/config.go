package main

import (
	"context"
	"fmt"

	"github.com/BurntSushi/toml"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/shared"
)

// ConfigInit writes a starter configuration file with the embedded defaults.
func (r *Runner) ConfigInit(ctx context.Context, cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = shared.DefaultConfigPath()
	}

	if err := shared.CreateConfigFile(path); err != nil {
		return err
	}

	r.writePlain("✓ wrote %s\n", path)
	r.writePlain("Fill in your Spotify client_id and client_secret, then run: spotkeys auth login\n")
	return nil
}

// ConfigShow prints the effective configuration as TOML.
func (r *Runner) ConfigShow(ctx context.Context, cmd *cli.Command) error {
	config, configPath := r.configTarget(cmd)

	r.writePlain("# %s\n", configPath)
	if err := toml.NewEncoder(r.output).Encode(config); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	return nil
}
