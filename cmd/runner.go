package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/bitesized/internal/identity"
	"github.com/desertthunder/bitesized/internal/kv"
	"github.com/desertthunder/bitesized/internal/repositories"
	"github.com/desertthunder/bitesized/internal/services"
	"github.com/desertthunder/bitesized/internal/session"
	"github.com/desertthunder/bitesized/internal/shared"
	"github.com/desertthunder/bitesized/internal/tasks"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	store      kv.Store
	sessions   *session.Manager
	registry   *identity.Registry
	client     *services.Client
	engine     *tasks.Engine
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	openURL    func(string) error
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	Store      kv.Store
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
//
// Local state lives in opts.Store, or in memory when none is given.
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
	if opts.Store == nil {
		opts.Store = kv.NewMemoryStore()
	}

	r := &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		store:      opts.Store,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		openURL:    shared.OpenBrowser,
	}
	r.wire()
	return r
}

// wire builds the session, repositories, client and engine over the runner's store and logger.
func (r *Runner) wire() {
	r.sessions = session.NewManager(context.Background(), r.store, shared.WithLogger(r.logger, "component", "session"))
	r.registry = identity.NewRegistry(
		repositories.NewAccountRepository(r.store), r.sessions, shared.WithLogger(r.logger, "component", "identity"),
	)
	r.client = services.NewClient(services.ClientOpts{
		BaseURL:           r.config.API.BaseURL,
		HTTPClient:        r.httpClient,
		Timeout:           time.Duration(r.config.API.TimeoutSeconds) * time.Second,
		RequestsPerSecond: r.config.API.RequestsPerSecond,
		Logger:            shared.WithLogger(r.logger, "component", "api"),
	})
	r.engine = tasks.NewEngine(
		r.client,
		r.sessions,
		repositories.NewPlaylistRepository(r.store),
		repositories.NewHistoryRepository(r.store),
		shared.WithLogger(r.logger, "component", "engine"),
	)
}

// SetLogger replaces the runner's logger and rebuilds the components that log.
func (r *Runner) SetLogger(logger *log.Logger) {
	r.logger = logger
	r.wire()
}

// applyLogLevel handles the root --log-level flag. Components hold child loggers that copied the old level,
// so they are rebuilt.
func (r *Runner) applyLogLevel(ctx context.Context, cmd *cli.Command) (context.Context, error) {
	if !cmd.IsSet("log-level") {
		return ctx, nil
	}
	shared.SetLogLevel(r.logger, shared.ParseLogLevel(cmd.String("log-level")))
	r.SetLogger(r.logger)
	return ctx, nil
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, feedCommand, learnCommand, courseCommand, uploadCommand,
		playlistCommand, historyCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// render writes data as JSON when --json is set and calls plain otherwise.
func (r *Runner) render(cmd *cli.Command, data any, plain func() error) error {
	if cmd.Bool("json") {
		return r.writeJSON(data, cmd.Bool("pretty"))
	}
	return plain()
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
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

// track returns a progress channel whose updates are logged, and a func that closes it and waits for the
// last update to be handled.
func (r *Runner) track() (chan tasks.ProgressUpdate, func()) {
	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.logger.Debug(update.Message, "phase", update.Phase, "step", update.Step, "total", update.Total)
		}
	}()
	return progressCh, func() {
		close(progressCh)
		<-done
	}
}
