package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/native"
	"github.com/satishbabariya/unisql/internal/core/query/template"
	"github.com/satishbabariya/unisql/internal/core/schema"
	"github.com/satishbabariya/unisql/internal/ui"
)

var allDialects = []domain.SQLDialect{domain.SQLite, domain.PostgreSQL, domain.MySQL}

// newExplainCommand creates the explain command.
func newExplainCommand(a *App) *cobra.Command {
	var (
		file     string
		isNative bool
		dialects []string
		raw      bool
	)

	cmd := &cobra.Command{
		Use:   "explain [STATEMENT]",
		Short: "Show the SQL a statement compiles to",
		Long: "Compile a template (or native text with --native) without connecting to a\n" +
			"database and show the SQL, its bindings and its result columns per dialect.",
		Example: `  unisql explain "FROM User u WHERE u.username LIKE :pattern"
  unisql explain -f report.hql --dialect postgres --raw`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			text, err := a.readText(args, file)
			if err != nil {
				return err
			}
			registry, err := a.registry(!isNative)
			if err != nil {
				return err
			}
			var metadata schema.Provider
			if registry != nil {
				metadata = registry
			}

			var stmt *domain.Statement
			if isNative {
				stmt, err = native.New(text).WithMetadata(metadata).Statement()
			} else {
				stmt, err = template.Compile(metadata, text)
			}
			if err != nil {
				return err
			}

			targets, err := a.explainDialects(dialects)
			if err != nil {
				return err
			}
			for _, d := range targets {
				c, err := compiler.NewSQLCompiler(d, metadata)
				if err != nil {
					return err
				}
				compiled, err := c.Compile(stmt)
				if err != nil {
					return err
				}
				if raw {
					fmt.Fprintf(cmd.OutOrStdout(), "-- %s\n%s\n", d, compiled.SQL)
					for i, arg := range describeSlots(compiled) {
						fmt.Fprintf(cmd.OutOrStdout(), "-- $%d = %s\n", i+1, arg)
					}
					continue
				}
				if err := a.out.Markdown(ui.ExplainMarkdown(string(d), compiled)); err != nil {
					return err
				}
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&file, "file", "f", "", "read the statement from a file")
	cmd.Flags().BoolVar(&isNative, "native", false, "treat the statement as native SQL")
	cmd.Flags().StringSliceVar(&dialects, "dialect", nil, "dialects to compile for (default: the configured provider, or all)")
	cmd.Flags().BoolVar(&raw, "raw", false, "print plain SQL instead of a formatted report")
	return cmd
}

func (a *App) explainDialects(names []string) ([]domain.SQLDialect, error) {
	if len(names) == 0 && a.cfg.Provider != "" {
		names = []string{a.cfg.Provider}
	}
	if len(names) == 0 {
		return allDialects, nil
	}
	out := make([]domain.SQLDialect, 0, len(names))
	for _, name := range names {
		d, err := domain.ParseDialect(strings.TrimSpace(name))
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

// describeSlots renders each slot as its placeholder or its literal value.
func describeSlots(c *compiler.Compiled) []string {
	out := make([]string, len(c.Slots))
	for i, s := range c.Slots {
		if s.Param != nil {
			out[i] = s.Param.Key()
			continue
		}
		if str, ok := s.Value.(string); ok {
			out[i] = strconv.Quote(str)
			continue
		}
		out[i] = ui.FormatValue(s.Value)
	}
	return out
}
