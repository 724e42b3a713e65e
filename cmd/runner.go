package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/Carrieukie/spotify-mcp-server/internal/auth"
	"github.com/Carrieukie/spotify-mcp-server/internal/repositories"
	"github.com/Carrieukie/spotify-mcp-server/internal/services"
	"github.com/Carrieukie/spotify-mcp-server/internal/shared"
	"github.com/Carrieukie/spotify-mcp-server/internal/tools"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	browser    shared.BrowserOpener
	logger     *log.Logger
	output     io.Writer
	errOutput  io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Browser    shared.BrowserOpener // defaults to [shared.OpenBrowser]
	Logger     *log.Logger
	Output     io.Writer
	ErrOutput  io.Writer // receives prompts; stdout belongs to the stdio transport
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
	if opts.ErrOutput == nil {
		opts.ErrOutput = os.Stderr
	}
	if opts.Browser == nil {
		opts.Browser = shared.OpenBrowser
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		browser:    opts.Browser,
		logger:     opts.Logger,
		output:     opts.Output,
		errOutput:  opts.ErrOutput,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		serveCommand, authCommand, setupCommand, toolsCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// Before loads the dotenv file and config.toml, then applies the log level.
//
// A missing config file is not an error: the embedded defaults plus the environment are used.
func (r *Runner) Before(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if err := shared.LoadEnv(cmd.String("env-file")); err != nil {
		return ctx, fmt.Errorf("failed to load env file: %w", err)
	}

	if path := cmd.String("config"); path != "" {
		r.configPath = path
	}
	if r.configPath != "" {
		if _, err := os.Stat(r.configPath); err == nil {
			config, err := shared.LoadConfig(r.configPath)
			if err != nil {
				return ctx, err
			}
			r.config = config
		} else {
			r.logger.Debug("config file not found, using defaults", "path", r.configPath)
		}
	}

	r.config.ApplyEnv()
	if level := cmd.String("log-level"); level != "" {
		r.config.Logging.Level = level
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(r.config.Logging.Level))
	return ctx, nil
}

// app is the object graph built for commands that talk to Spotify.
type app struct {
	backend  string
	store    auth.Store
	profiles services.ProfileStore
	prober   *services.Prober
	manager  *auth.Manager
	spotify  *services.SpotifyService
	registry *tools.Registry
	close    func() error
}

// wire builds the store, token manager, service and tool registry from the config.
func (r *Runner) wire() (*app, error) {
	cfg := r.config
	if err := cfg.Validate(); err != nil {
		return nil, auth.ConfigError("invalid configuration", err)
	}

	creds := cfg.Credentials.Spotify
	httpClient := r.httpClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: cfg.API.Timeout.Duration}
	}

	a := &app{backend: cfg.Storage.Backend, close: func() error { return nil }}
	switch cfg.Storage.Backend {
	case "sqlite":
		db, err := shared.OpenDatabase(cfg.Database)
		if err != nil {
			return nil, auth.ConfigError("could not open token database", err)
		}
		a.store = repositories.NewTokenRepository(db, repositories.DefaultAccount, shared.WithLogger(r.logger, "component", "tokens"))
		a.profiles = repositories.NewProfileRepository(db, repositories.DefaultAccount, shared.WithLogger(r.logger, "component", "profile"))
		a.close = db.Close
	default:
		a.store = auth.NewFileStore(cfg.Storage.TokenPath, shared.WithLogger(r.logger, "component", "tokens"))
		a.profiles = services.NewFileProfileStore(cfg.Storage.ProfilePath, shared.WithLogger(r.logger, "component", "profile"))
	}

	accounts := strings.TrimRight(cfg.API.AccountsURL, "/")
	var browser shared.BrowserOpener
	if cfg.Auth.OpenBrowser {
		browser = r.browser
	}

	acquirer, err := auth.NewAcquirer(auth.AcquirerConfig{
		Credentials:  creds,
		AuthorizeURL: accounts + "/authorize",
		Timeout:      cfg.Auth.AuthorizeTimeout.Duration,
		Browser:      browser,
		Notify:       r.notify,
		Logger:       shared.WithLogger(r.logger, "component", "acquirer"),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	exchanger, err := auth.NewExchanger(auth.ExchangerConfig{
		Credentials: creds,
		TokenURL:    accounts + "/api/token",
		HTTPClient:  httpClient,
		Logger:      shared.WithLogger(r.logger, "component", "exchanger"),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	apiOpts := services.ClientOptions{
		BaseURL:    cfg.API.BaseURL,
		HTTPClient: httpClient,
		RateLimit:  cfg.API.RateLimit,
		Logger:     shared.WithLogger(r.logger, "component", "spotify"),
	}

	a.prober = services.NewProber(apiOpts)
	a.manager, err = auth.NewManager(auth.ManagerOptions{
		Credentials: creds,
		Scopes:      cfg.Auth.Scopes,
		Store:       a.store,
		Acquirer:    acquirer,
		Exchanger:   exchanger,
		Prober:      a.prober,
		Logger:      shared.WithLogger(r.logger, "component", "tokens"),
	})
	if err != nil {
		a.close()
		return nil, err
	}

	if a.spotify, err = services.NewSpotifyService(a.manager, a.profiles, apiOpts); err != nil {
		a.close()
		return nil, err
	}

	a.registry, err = tools.NewRegistry(a.spotify, a.manager, tools.Options{
		Backend: a.backend,
		Logger:  shared.WithLogger(r.logger, "component", "tools"),
	})
	if err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

// notify prints the consent URL when no browser could be opened.
func (r *Runner) notify(authURL string) {
	fmt.Fprintf(r.errOutput, "Open this URL in your browser to authorize Spotify access:\n\n  %s\n\n", authURL)
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
