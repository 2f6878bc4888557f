package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"runtime/debug"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/oauth2"

	"github.com/desertthunder/spotkeys/internal/engine"
	"github.com/desertthunder/spotkeys/internal/services"
	"github.com/desertthunder/spotkeys/internal/shared"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	service    services.Service
	engine     *engine.Engine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Service    services.Service
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		service:    opts.Service,
		engine:     engine.New(opts.Service, opts.Logger),
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// SetLogger replaces the runner's logger, used when a TUI owns the terminal.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		authCommand, runCommand, bindCommand, unbindCommand, bindingsCommand,
		playlistsCommand, addCommand, triggerCommand, historyCommand,
		configCommand, tuiCommand, versionCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// requireService guards actions that need an authenticated API client.
func (r *Runner) requireService() error {
	if r.service == nil {
		return fmt.Errorf("%w: Spotify credentials not configured (run 'spotkeys config init', then 'spotkeys auth login')", shared.ErrServiceUnavailable)
	}
	return nil
}

// configTarget resolves which config file a command works against: the
// --config flag when set, otherwise the runner's preloaded config. A missing
// or unreadable file falls back to the embedded defaults so commands that
// have not been configured yet still run.
func (r *Runner) configTarget(cmd *cli.Command) (*shared.Config, string) {
	path := cmd.String("config")
	if path == "" {
		path = r.configPath
	}
	if path == "" {
		path = shared.DefaultConfigPath()
	}

	if path == r.configPath && r.config != nil {
		return r.config, path
	}

	if _, err := os.Stat(path); err == nil {
		if config, err := shared.LoadConfig(path); err == nil {
			return config, path
		}
		r.logger.Warnf("failed to load config at %v, using defaults", path)
	}

	return shared.DefaultConfig(), path
}

// saveTokens persists an OAuth token into the runner's config. With no config
// path the update stays in memory, which is what tests and ephemeral runs want.
func (r *Runner) saveTokens(token *oauth2.Token) error {
	if r.config == nil {
		return fmt.Errorf("config is nil")
	}

	if err := r.config.Credentials.Spotify.Update(token); err != nil {
		return fmt.Errorf("failed to update spotify configuration: %w", err)
	}

	if r.configPath == "" {
		return nil
	}

	if err := shared.SaveConfig(r.configPath, r.config); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}

	return nil
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	var output []byte
	var err error

	if pretty {
		output, err = json.MarshalIndent(data, "", "  ")
	} else {
		output, err = json.Marshal(data)
	}

	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// Version prints the release version plus the build's VCS revision when the
// binary was built from a checkout.
func (r *Runner) Version(ctx context.Context, cmd *cli.Command) error {
	r.writePlain("spotkeys %s\n", version)

	info, ok := debug.ReadBuildInfo()
	if !ok {
		return nil
	}

	r.writePlain("  go: %s\n", info.GoVersion)
	for _, setting := range info.Settings {
		if setting.Key == "vcs.revision" {
			r.writePlain("  commit: %s\n", setting.Value)
		}
	}

	return nil
}
