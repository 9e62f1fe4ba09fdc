package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"
	"golang.org/x/term"

	"github.com/desertthunder/ecn/internal/auth"
	"github.com/desertthunder/ecn/internal/models"
	"github.com/desertthunder/ecn/internal/repositories"
	"github.com/desertthunder/ecn/internal/services"
	"github.com/desertthunder/ecn/internal/shared"
	"github.com/desertthunder/ecn/internal/ui"
	"github.com/desertthunder/ecn/internal/web"
)

// PasswordReader prompts for a password without echoing it.
type PasswordReader func(prompt string) (string, error)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	api        *services.APIService
	authSvc    *services.AuthService
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	input      *bufio.Reader
	sessions   auth.Persister
	activities web.ActivityLog
	password   PasswordReader
	prefsPath  string
	closers    []func() error
}

// RunnerOpts contains configuration options for creating a Runner.
//
// Sessions and Activities are opened from the configured database on first use when nil.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	API        *services.APIService
	Auth       *services.AuthService
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Input      io.Reader
	Sessions   auth.Persister
	Activities web.ActivityLog
	Password   PasswordReader
	PrefsPath  string
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
	if opts.Input == nil {
		opts.Input = os.Stdin
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}
	if opts.API == nil {
		opts.API = services.NewAPIService(opts.Config.API.BaseURL, opts.HTTPClient).WithLogger(opts.Logger)
	}
	if opts.Auth == nil {
		opts.Auth = services.NewAuthService(opts.API, opts.Config.API.LoginPath)
	}
	if opts.Password == nil {
		opts.Password = terminalPassword
	}
	if opts.PrefsPath == "" {
		opts.PrefsPath = ui.DefaultPrefsPath()
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		api:        opts.API,
		authSvc:    opts.Auth,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		input:      bufio.NewReader(opts.Input),
		sessions:   opts.Sessions,
		activities: opts.Activities,
		password:   opts.Password,
		prefsPath:  opts.PrefsPath,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, authCommand, membersCommand, booksCommand, activityCommand, apiCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// app builds the root command.
func (r *Runner) app() *cli.Command {
	return &cli.Command{
		Name:     "ecn",
		Usage:    "Manage committee members and the library from the terminal",
		Version:  "0.1.0",
		Commands: r.register(),
	}
}

// Close releases the database handles opened by [Runner.stores].
func (r *Runner) Close() error {
	var errs []error
	for i := len(r.closers) - 1; i >= 0; i-- {
		errs = append(errs, r.closers[i]())
	}
	r.closers = nil
	return errors.Join(errs...)
}

// stores opens the session and activity stores on first use.
//
// Activities always live in the SQLite database at database.path. Sessions follow
// database.driver, so postgres keeps them in a shared table.
func (r *Runner) stores(ctx context.Context) error {
	if r.sessions != nil && r.activities != nil {
		return nil
	}

	postgres := r.config.Database.Driver == shared.DriverPostgres
	if r.activities == nil || (r.sessions == nil && !postgres) {
		db, err := shared.OpenMigrated(r.config.Database)
		if err != nil {
			return fmt.Errorf("failed to open database: %w", err)
		}
		r.closers = append(r.closers, db.Close)
		if r.activities == nil {
			r.activities = repositories.NewActivityRepository(db)
		}
		if r.sessions == nil && !postgres {
			r.sessions = repositories.NewSessionRepository(db)
		}
	}

	if r.sessions == nil {
		pool, err := repositories.NewPool(ctx, r.config.Database)
		if err != nil {
			return err
		}
		r.closers = append(r.closers, func() error { pool.Close(); return nil })

		repo := repositories.NewPGSessionRepository(pool)
		if err := repo.EnsureSchema(ctx); err != nil {
			return err
		}
		r.sessions = repo
	}
	return nil
}

// store restores the command-line session.
func (r *Runner) store(ctx context.Context) (*auth.Store, error) {
	if err := r.stores(ctx); err != nil {
		return nil, err
	}
	s := auth.NewStore(auth.CLIKey, r.sessions, r.logger)
	s.Restore(ctx)
	return s, nil
}

// session applies the route guard to the persisted session: commands only run when it renders.
func (r *Runner) session(ctx context.Context) (models.Session, error) {
	s, err := r.store(ctx)
	if err != nil {
		return models.Session{}, err
	}
	if s.Decide() != auth.Render {
		return models.Session{}, fmt.Errorf("%w: run 'ecn auth login' first", shared.ErrNotAuthenticated)
	}
	return s.Current(), nil
}

func (r *Runner) members(session models.Session) *services.Resource[models.Member] {
	return services.NewMemberResource(r.api).WithToken(session.Token)
}

func (r *Runner) books(session models.Session) *services.Resource[models.Book] {
	return services.NewBookResource(r.api).WithToken(session.Token)
}

// record writes an audit entry. A failed mutation keeps the server's message when there is one.
//
// Recording errors are logged and never fail the command.
func (r *Runner) record(session models.Session, entity string, action models.ActivityAction, id string, err error, msg string) {
	if r.activities == nil {
		return
	}
	actor := auth.CLIKey
	if session.User != nil && session.User.Email != "" {
		actor = session.User.Email
	}
	outcome := models.OutcomeSuccess
	if err != nil {
		outcome = models.OutcomeFailure
		if sm := services.ServerMessage(err); sm != "" {
			msg = sm
		}
	}
	if err := r.activities.Record(models.NewActivity(actor, entity, action, id, outcome, msg)); err != nil {
		r.logger.Warn("failed to record activity", "entity", entity, "action", action, "error", err)
	}
}

// confirm asks a yes/no question on the runner's input. Anything but y or yes declines.
func (r *Runner) confirm(question string) bool {
	r.writePlain("%s [y/N]: ", question)
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes":
		return true
	}
	return false
}

// readLine reads one line from the runner's input without the trailing newline.
func (r *Runner) readLine() (string, error) {
	line, err := r.input.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func terminalPassword(prompt string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", fmt.Errorf("%w: stdin is not a terminal, use --password-stdin", shared.ErrMissingArgument)
	}
	fmt.Fprint(os.Stderr, prompt)
	b, err := term.ReadPassword(fd)
	fmt.Fprintln(os.Stderr)
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return string(b), nil
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
