// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

// configFlag returns a fresh --config flag; commands must not share flag instances.
func configFlag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
	}
}

// authCommand handles the OAuth2 authorization flow and its status.
func authCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "auth",
		Usage: "Manage Spotify authorization",
		Commands: []*cli.Command{
			{
				Name:   "login",
				Usage:  "Authorize with Spotify using OAuth2",
				Flags:  []cli.Flag{configFlag()},
				Action: r.AuthLogin,
			},
			{
				Name:   "status",
				Usage:  "Show who is authenticated",
				Action: r.AuthStatus,
			},
		},
	}
}

// runCommand starts the hotkey daemon.
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "run",
		Usage: "Run the hotkey daemon",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "no-helper",
				Usage: "Capture hotkeys in-process instead of connecting to the helper",
			},
		},
		Action: r.RunDaemon,
	}
}

func bindCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "bind",
		Usage:     "Bind a key combo to one or more playlists",
		ArgsUsage: "<combo> <playlist>...",
		Flags:     []cli.Flag{configFlag()},
		Action:    r.Bind,
	}
}

func unbindCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "unbind",
		Usage:     "Remove a combo binding",
		ArgsUsage: "<combo>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "combo"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Unbind,
	}
}

func bindingsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "bindings",
		Usage: "List configured bindings",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Bindings,
	}
}

// playlistsCommand lists the user's playlists.
func playlistsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "playlists",
		Usage: "List your playlists",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "find",
				Aliases: []string{"f"},
				Usage:   "Fuzzy-filter playlists by name",
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.Playlists,
	}
}

// addCommand runs one playlist mutation outside the hotkey path.
func addCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "add",
		Usage:     "Add a track to playlists and Liked Songs",
		ArgsUsage: "<playlist>...",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:    "track",
				Aliases: []string{"t"},
				Usage:   "Track ID, URI or URL (defaults to the currently playing track)",
			},
		},
		Action: r.Add,
	}
}

// triggerCommand fires a combo on a running helper, a testing aid.
func triggerCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:      "trigger",
		Usage:     "Ask a running helper to fire a combo",
		ArgsUsage: "<combo>",
		Arguments: []cli.Argument{
			&cli.StringArg{Name: "combo"},
		},
		Flags:  []cli.Flag{configFlag()},
		Action: r.Trigger,
	}
}

func historyCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "history",
		Usage: "Show recent trigger history",
		Flags: []cli.Flag{
			configFlag(),
			&cli.IntFlag{
				Name:    "limit",
				Aliases: []string{"n"},
				Usage:   "Maximum number of entries",
				Value:   20,
			},
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
		},
		Action: r.History,
	}
}

// configCommand manages the configuration file itself.
func configCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "Manage the configuration file",
		Commands: []*cli.Command{
			{
				Name:   "init",
				Usage:  "Write a starter configuration file",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigInit,
			},
			{
				Name:   "show",
				Usage:  "Print the effective configuration",
				Flags:  []cli.Flag{configFlag()},
				Action: r.ConfigShow,
			},
		},
	}
}

// tuiCommand returns the top-level TUI command for interactive binding edits.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Edit bindings interactively",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}

func versionCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "version",
		Usage:  "Print version and build info",
		Action: r.Version,
	}
}
