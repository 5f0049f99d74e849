// Package commands implements CLI commands.
package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/unisql/internal/config"
	"github.com/satishbabariya/unisql/internal/core/schema"
	"github.com/satishbabariya/unisql/internal/logging"
	"github.com/satishbabariya/unisql/internal/prompt"
	"github.com/satishbabariya/unisql/internal/ui"
	"github.com/satishbabariya/unisql/internal/version"
	"github.com/satishbabariya/unisql/pkg/client"
)

// App holds state shared by every command.
type App struct {
	fs       afero.Fs
	prompter prompt.Prompter

	configFile string
	provider   string
	url        string
	metadata   string
	logLevel   string
	noInput    bool

	cfg    *config.Config
	logger zerolog.Logger
	out    *ui.Printer
}

// Option configures the CLI.
type Option func(*App)

// WithFs sets the filesystem configuration and mapping documents are read from.
func WithFs(fs afero.Fs) Option {
	return func(a *App) { a.fs = fs }
}

// WithPrompter replaces the terminal prompter, which is only used when
// stdin is a terminal.
func WithPrompter(p prompt.Prompter) Option {
	return func(a *App) { a.prompter = p }
}

// NewRootCommand creates the unisql command tree.
func NewRootCommand(opts ...Option) *cobra.Command {
	a := &App{fs: afero.NewOsFs(), logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(a)
	}

	root := &cobra.Command{
		Use:           "unisql",
		Short:         "Query relational databases through entity templates, builders or native SQL",
		Version:       version.Get().String(),
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.configFile, "config", "", "config file (default: .unisql.yaml in ., $HOME, $HOME/.config/unisql)")
	flags.StringVar(&a.provider, "provider", "", "database provider: sqlite, postgres or mysql (inferred from the url)")
	flags.StringVar(&a.url, "url", "", "database url (default: $UNISQL_URL or $DATABASE_URL)")
	flags.StringVar(&a.metadata, "metadata", "", "mapping document")
	flags.StringVar(&a.logLevel, "log-level", "", "log level: trace, debug, info, warn, error")
	flags.BoolVar(&a.noInput, "no-input", false, "never prompt for missing values")

	root.AddCommand(
		newQueryCommand(a),
		newNativeCommand(a),
		newExplainCommand(a),
		newEntitiesCommand(a),
		newInitCommand(a),
		newVersionCommand(a),
	)
	return root
}

// Execute runs the CLI and reports errors on stderr.
func Execute(ctx context.Context, opts ...Option) int {
	root := NewRootCommand(opts...)
	if err := root.ExecuteContext(ctx); err != nil {
		ui.New(root.OutOrStdout(), root.ErrOrStderr()).Error(err)
		return 1
	}
	return 0
}

func (a *App) setup(cmd *cobra.Command) error {
	a.out = ui.New(cmd.OutOrStdout(), cmd.ErrOrStderr())

	cfg, err := config.Load(a.fs, config.Options{File: a.configFile})
	if err != nil {
		return err
	}
	if a.provider != "" {
		cfg.Provider = a.provider
	}
	if a.url != "" {
		cfg.URL = a.url
	}
	if a.metadata != "" {
		cfg.Metadata = a.metadata
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	a.cfg = cfg
	if a.prompter == nil && stdinIsTerminal() {
		a.prompter = prompt.NewSurvey()
	}
	a.logger = logging.NewWithComponent(cfg.Logging(cmd.ErrOrStderr()), "cli")
	a.logger.Debug().Str("config", cfg.File).Str("provider", cfg.Provider).Msg("configuration loaded")
	return nil
}

// registry loads the mapping document. With required unset, a missing
// document yields nil.
func (a *App) registry(required bool) (*schema.MetadataRegistry, error) {
	if a.cfg.Metadata == "" && !required {
		return nil, nil
	}
	return a.cfg.LoadMetadata(a.fs)
}

// connect opens a client on the configured database.
func (a *App) connect(ctx context.Context, requireMetadata bool) (*client.Client, error) {
	if a.cfg.URL == "" {
		return nil, fmt.Errorf("no database url configured (use --url, %s_URL or DATABASE_URL)", config.EnvPrefix)
	}
	registry, err := a.registry(requireMetadata)
	if err != nil {
		return nil, err
	}
	var metadata schema.Provider
	if registry != nil {
		metadata = registry
	}

	c, err := client.Open(ctx, a.cfg.Database(), metadata,
		client.WithLogger(a.logger),
		client.WithLogQueries(true),
		client.WithTemplateCache(a.cfg.TemplateCache),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}
	return c, nil
}

// readText returns the single argument, or the contents of file.
func (a *App) readText(args []string, file string) (string, error) {
	switch {
	case file != "" && len(args) > 0:
		return "", fmt.Errorf("pass either a statement or --file, not both")
	case file != "":
		data, err := afero.ReadFile(a.fs, file)
		if err != nil {
			return "", fmt.Errorf("failed to read %s: %w", file, err)
		}
		return string(data), nil
	case len(args) == 1:
		return args[0], nil
	default:
		return "", fmt.Errorf("a statement or --file is required")
	}
}

func (a *App) interactive() bool {
	return !a.noInput && a.prompter != nil
}

func stdinIsTerminal() bool {
	return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
}
