// Command spotkeys binds global key combos to playlist mutations: when a
// bound combo fires, the currently playing track is saved to Liked Songs
// and added to the bound playlists.
package main

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

const version = "0.3.0"

func main() {
	logger := shared.NewLogger(nil)

	configPath := shared.DefaultConfigPath()
	if _, err := os.Stat("spotkeys.toml"); err == nil {
		configPath = "spotkeys.toml"
	}

	config := shared.DefaultConfig()
	if _, err := os.Stat(configPath); err == nil {
		if loaded, err := shared.LoadConfig(configPath); err == nil {
			config = loaded
		} else {
			logger.Warnf("failed to load config at %v: %v", configPath, err)
		}
	}

	var service services.Service
	if config.Credentials.Spotify.ClientID != "" && config.Credentials.Spotify.ClientSecret != "" {
		if svc, err := services.NewSpotifyService(config.Credentials.Spotify.Map()); err == nil {
			if token := config.Credentials.Spotify.Token(); token != nil {
				if err := svc.OAuthenticate(context.Background(), token); err != nil {
					logger.Warnf("stored token rejected: %v", err)
				}
			}
			service = svc
		} else {
			logger.Warnf("failed to create Spotify service: %v", err)
		}
	}

	runner := NewRunner(RunnerOpts{
		Config:     config,
		ConfigPath: configPath,
		Service:    service,
		Logger:     logger,
	})

	if oauthService, ok := service.(services.OAuthService); ok {
		oauthService.SetTokenRefreshCallback(func(token *oauth2.Token) {
			if err := runner.saveTokens(token); err != nil {
				logger.Warnf("failed to persist refreshed token: %v", err)
			}
		})
	}

	app := &cli.Command{
		Name:     "spotkeys",
		Usage:    "Save the playing track to playlists with global hotkeys",
		Version:  version,
		Commands: runner.register(),
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("application error: %v", err)
	}
}
