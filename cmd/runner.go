package main

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/vidtalk/internal/repositories"
	"github.com/desertthunder/vidtalk/internal/services"
	"github.com/desertthunder/vidtalk/internal/session"
	"github.com/desertthunder/vidtalk/internal/shared"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// Dependencies left nil in [RunnerOpts] are built from the configuration before the first action runs.
type Runner struct {
	config     *shared.Config
	configPath string
	session    *session.Manager
	store      session.TokenStore
	api        *services.APIService
	client     *services.Client
	videos     services.VideoService
	db         *sql.DB
	ownsDB     bool
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Session    *session.Manager
	API        *services.APIService
	Videos     services.VideoService
	DB         *sql.DB
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.ConfigPath == "" {
		opts.ConfigPath = "config.toml"
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		session:    opts.Session,
		api:        opts.API,
		videos:     opts.Videos,
		db:         opts.DB,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

// init loads the configuration and builds every dependency that was not injected.
func (r *Runner) init(configPath string) error {
	if r.config == nil {
		if configPath != "" {
			r.configPath = configPath
		}
		config, err := r.loadConfig(r.configPath)
		if err != nil {
			return err
		}
		r.config = config
	}

	if r.httpClient == nil {
		r.httpClient = &http.Client{Timeout: r.config.API.Timeout()}
	}

	if r.api == nil {
		r.api = services.NewAPIService(r.config.API.BaseURL, r.httpClient)
		r.api.SetRateLimit(r.config.API.RequestsPerSecond)
	}

	if r.session == nil {
		store, err := r.tokenStore()
		if err != nil {
			return err
		}
		r.store = store
		r.session = session.NewManager(r.api, store, r.logger)
	}

	if r.client == nil {
		r.client = services.NewClient(r.api, r.session)
	}
	if r.videos == nil {
		r.videos = r.client
	}

	return nil
}

// loadConfig reads path when it exists and falls back to the embedded defaults otherwise.
func (r *Runner) loadConfig(path string) (*shared.Config, error) {
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return shared.DefaultConfig(), nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return nil, err
	}
	r.logger.Debug("loaded config", "path", path)
	return config, nil
}

// tokenStore selects where the session token lives from session.store.
func (r *Runner) tokenStore() (session.TokenStore, error) {
	switch r.config.Session.Store {
	case shared.StoreMemory:
		return session.NewMemoryStore(""), nil
	case shared.StoreSQLite:
		db, err := r.database()
		if err != nil {
			return nil, err
		}
		return repositories.NewSessionRepository(db), nil
	default:
		store, err := session.NewFileStore(r.config.Session.Path)
		if err != nil {
			return nil, err
		}
		return store, nil
	}
}

// database opens the local cache on first use.
func (r *Runner) database() (*sql.DB, error) {
	if r.db != nil {
		return r.db, nil
	}

	db, err := shared.OpenCache(r.config.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache: %w", err)
	}
	r.db = db
	r.ownsDB = true
	return db, nil
}

// Close releases the cache database if the runner opened it.
func (r *Runner) Close() error {
	if r.db == nil || !r.ownsDB {
		return nil
	}
	err := r.db.Close()
	r.db = nil
	return err
}

// SetLogger swaps the logger, e.g. to keep log lines off a full-screen UI.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, videosCommand, messagesCommand, cacheCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
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

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}
