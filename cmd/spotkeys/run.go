package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/spotkeys/internal/bridge"
	"github.com/desertthunder/spotkeys/internal/combo"
	"github.com/desertthunder/spotkeys/internal/dispatch"
	"github.com/desertthunder/spotkeys/internal/engine"
	"github.com/desertthunder/spotkeys/internal/helper"
	"github.com/desertthunder/spotkeys/internal/history"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// RunDaemon starts the hotkey daemon. Bindings from the config file are
// registered with the dispatcher, each trigger runs the mutation engine
// against the currently playing track, and every outcome lands in the
// history store. The config file is watched so edits apply without a
// restart.
//
// Combos are captured by the external helper process when the config
// enables it; --no-helper (or helper.enabled = false) registers the OS
// hotkeys in-process instead.
func (r *Runner) RunDaemon(ctx context.Context, cmd *cli.Command) error {
	if err := r.requireService(); err != nil {
		return err
	}

	config, configPath := r.configTarget(cmd)

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := history.Open(config.Database.Path, config.Database.MaxOpenConns, config.Database.MaxIdleConns)
	if err != nil {
		return fmt.Errorf("failed to open history store: %w", err)
	}
	defer store.Close()

	useHelper := config.Helper.Enabled && !cmd.Bool("no-helper")

	d := &daemon{
		engine: r.engine,
		store:  store,
		logger: r.logger,
		config: config,
	}
	d.registry = dispatch.NewRegistry(dispatch.RegistryOpts{
		Logger:   r.logger,
		OnChange: d.comboSetChanged,
	})

	if useHelper {
		d.bridge = bridge.NewClient(bridge.Opts{
			BaseURL:  config.Helper.URL(),
			Registry: d.registry,
			Logger:   r.logger,
		})
	} else {
		d.capturer = helper.NewHotkeyCapturer(func(text string) {
			d.registry.Dispatch(ctx, text)
		}, r.logger)
		defer d.capturer.Close()
	}

	d.applyBindings(config)

	if d.bridge != nil {
		go d.bridge.Run(ctx)
	}

	go func() {
		err := shared.WatchConfig(ctx, configPath, r.logger, func(next *shared.Config) {
			d.applyBindings(next)
			d.engine.Invalidate()
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			r.logger.Warnf("config watcher stopped: %v", err)
		}
	}()

	mode := "helper"
	if !useHelper {
		mode = "in-app capture"
	}
	r.logger.Infof("daemon running (%s) with %d bindings", mode, d.registry.Len())
	r.writePlain("spotkeys daemon running, press Ctrl+C to stop\n")

	<-ctx.Done()
	d.registry.Clear()
	r.logger.Info("daemon stopped")

	return nil
}

// daemon wires the dispatcher to its trigger sources and owns the combo
// lifecycle across config reloads.
type daemon struct {
	engine   *engine.Engine
	store    *history.Store
	logger   *log.Logger
	registry *dispatch.Registry
	bridge   *bridge.Client
	capturer *helper.HotkeyCapturer

	mu     sync.Mutex
	config *shared.Config
}

// comboSetChanged reacts to registry mutations: in-app capture re-registers
// the OS hotkeys and a connected helper gets a debounced config push.
func (d *daemon) comboSetChanged(combos []string) {
	if d.capturer != nil {
		if err := d.capturer.Replace(combos); err != nil {
			d.logger.Warnf("hotkey capture: %v", err)
		}
	}
	if d.bridge != nil {
		d.bridge.RequestSync()
	}
}

// applyBindings swaps the registered combo set for the given config's
// bindings. Invalid combos are logged and skipped so one bad entry never
// takes the daemon down.
func (d *daemon) applyBindings(config *shared.Config) {
	d.mu.Lock()
	d.config = config
	bindings := make([]shared.Binding, len(config.Bindings))
	copy(bindings, config.Bindings)
	d.mu.Unlock()

	d.registry.Clear()
	for _, binding := range bindings {
		callback := d.trigger(combo.Normalize(binding.Combo), binding.Playlists)
		key, err := d.registry.Register(binding.Combo, callback)
		if err != nil {
			d.logger.Warnf("skipping binding %q: %v", binding.Combo, err)
			continue
		}
		d.logger.Infof("bound %s to %d playlists", key, len(binding.Playlists))
	}
}

// trigger builds the callback for one binding: look up the playing track,
// run the mutation, record the outcome.
func (d *daemon) trigger(comboText string, playlists []string) dispatch.Callback {
	return func(ctx context.Context) error {
		track, err := d.engine.CurrentTrack(ctx)
		if err != nil {
			if errors.Is(err, shared.ErrNoCurrentTrack) {
				d.logger.Warnf("%s: nothing is playing", comboText)
				return nil
			}
			return fmt.Errorf("current track lookup failed: %w", err)
		}

		identifier := track.URI
		if identifier == "" {
			identifier = track.ID
		}

		result, err := d.engine.AddToPlaylists(ctx, identifier, playlists)
		if result != nil {
			entry := history.FromResult(comboText, track, result)
			if recErr := d.store.Record(&entry); recErr != nil {
				d.logger.Warnf("history write failed: %v", recErr)
			}
		}

		return err
	}
}
