// Command spotkeys-helper captures global hotkeys and relays them to the
// main application over loopback HTTP. It runs as a separate process so
// combos keep firing while the application is unfocused.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.design/x/hotkey/mainthread"

	"github.com/desertthunder/spotkeys/internal/helper"
	"github.com/desertthunder/spotkeys/internal/shared"
)

const version = "0.3.0"

// Hotkey registration on macOS must run on the main OS thread; mainthread.Init
// parks it here and services the dispatch, so Register calls made from the
// HTTP handler goroutines (every /config push) still bind. Elsewhere the
// wrapper is inert.
func main() {
	mainthread.Init(run)
}

func run() {
	logger := shared.NewLogger(nil)

	app := &cli.Command{
		Name:    "spotkeys-helper",
		Usage:   "Global hotkey capture helper for spotkeys",
		Version: version,
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Address to bind",
				Value: helper.DefaultHost,
			},
			&cli.IntFlag{
				Name:    "port",
				Aliases: []string{"p"},
				Usage:   "Port to listen on",
				Value:   helper.DefaultPort,
			},
			&cli.BoolFlag{
				Name:  "no-capture",
				Usage: "Serve the protocol without registering OS hotkeys",
			},
			&cli.BoolFlag{
				Name:    "verbose",
				Aliases: []string{"v"},
				Usage:   "Enable debug logging",
			},
		},
		Action: func(ctx context.Context, cmd *cli.Command) error {
			if cmd.Bool("verbose") {
				shared.SetLogLevel(logger, log.DebugLevel)
			}

			srv, err := helper.NewServer(cmd.String("host"), cmd.Int("port"), logger)
			if err != nil {
				return err
			}

			if cmd.Bool("no-capture") {
				logger.Info("OS capture disabled, only /trigger will fire combos")
			} else {
				srv.SetCapturer(helper.NewHotkeyCapturer(srv.Broadcast, logger))
			}

			ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
			defer stop()

			return srv.Run(ctx)
		},
	}

	if err := app.Run(context.Background(), os.Args); err != nil {
		logger.Fatalf("helper error: %v", err)
	}
}
