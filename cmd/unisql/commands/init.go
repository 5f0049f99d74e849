package commands

import (
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/config"
)

// newInitCommand creates the init command.
func newInitCommand(a *App) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a .unisql.yaml configuration file",
		Long: "Write the provider, database url and mapping document to a configuration file.\n" +
			"Values come from the global flags; missing ones are asked for on a terminal.",
		Example: `  unisql init
  unisql init --url ./app.db --metadata mapping.yaml --no-input`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if exists, err := afero.Exists(a.fs, path); err != nil {
				return err
			} else if exists && !force {
				return fmt.Errorf("%s already exists (use --force to overwrite)", path)
			}

			cfg := *a.cfg
			if !a.noInput && stdinIsTerminal() {
				if err := askSettings(&cfg); err != nil {
					return err
				}
			}
			if cfg.Provider == "" && cfg.URL != "" {
				cfg.Provider = database.ProviderFromURL(cfg.URL)
			}

			if err := config.Save(a.fs, &cfg, path); err != nil {
				return err
			}
			a.out.Success("Created %s", path)
			if cfg.Metadata == "" {
				a.out.Info("Set metadata to your mapping document before running templates")
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", config.FileName+".yaml", "where to write the configuration")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing file")
	return cmd
}

// askSettings asks for the connection settings, offering cfg's values as
// defaults.
func askSettings(cfg *config.Config) error {
	provider := cfg.Provider
	if provider == "" {
		provider = "sqlite"
	}
	qs := []*survey.Question{
		{
			Name: "provider",
			Prompt: &survey.Select{
				Message: "Database provider:",
				Options: []string{"sqlite", "postgres", "mysql"},
				Default: provider,
			},
		},
		{
			Name:     "url",
			Prompt:   &survey.Input{Message: "Database url:", Default: cfg.URL},
			Validate: survey.Required,
		},
		{
			Name:   "metadata",
			Prompt: &survey.Input{Message: "Mapping document:", Default: cfg.Metadata},
		},
	}

	answers := struct {
		Provider string `survey:"provider"`
		URL      string `survey:"url"`
		Metadata string `survey:"metadata"`
	}{}
	if err := survey.Ask(qs, &answers); err != nil {
		return err
	}
	cfg.Provider = answers.Provider
	cfg.URL = answers.URL
	cfg.Metadata = answers.Metadata
	return nil
}
