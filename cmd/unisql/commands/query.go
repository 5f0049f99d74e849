package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/pkg/client"
)

// newQueryCommand creates the query command.
func newQueryCommand(a *App) *cobra.Command {
	var f runFlags

	cmd := &cobra.Command{
		Use:   "query [TEMPLATE]",
		Short: "Run an entity template",
		Long: "Compile an entity template against the mapping document and run it.\n" +
			"Placeholders not bound with --param are prompted for on a terminal.",
		Example: `  unisql query "SELECT u.username FROM User u WHERE u.id > :id ORDER BY u.id" -p id=10
  unisql query "FROM User u LEFT JOIN FETCH u.posts" --limit 5
  unisql query -f report.hql --watch`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd.Context(), true)
			if err != nil {
				return err
			}
			defer c.Close()

			run := func(ctx context.Context) error {
				text, err := a.readText(args, f.file)
				if err != nil {
					return err
				}
				q, err := c.Template(text)
				if err != nil {
					return err
				}
				return a.execute(ctx, cmd, q, &f)
			}
			if f.watch {
				return a.watchFile(cmd.Context(), f.file, run)
			}
			return run(cmd.Context())
		},
	}
	f.register(cmd)
	return cmd
}

// newNativeCommand creates the native command.
func newNativeCommand(a *App) *cobra.Command {
	var (
		f        runFlags
		entities []string
		joins    []string
		kind     string
	)

	cmd := &cobra.Command{
		Use:   "native [SQL]",
		Short: "Run dialect SQL",
		Long: "Run SQL text as written. Named (:name) and numbered (?1) placeholders are bound\n" +
			"like template placeholders; --entity and --join map column groups to entities.",
		Example: `  unisql native "SELECT username AS login FROM users WHERE id >= ?1" -p 1=3
  unisql native "SELECT u.*, p.* FROM users u JOIN user_profile p ON p.user_id = u.id" \
    --entity u=User --join p=u.userProfile
  unisql native "DELETE FROM posts WHERE user_id = :id" -p id=7`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.connect(cmd.Context(), len(entities) > 0)
			if err != nil {
				return err
			}
			defer c.Close()

			run := func(ctx context.Context) error {
				text, err := a.readText(args, f.file)
				if err != nil {
					return err
				}
				q, err := nativeQuery(c, text, entities, joins, kind)
				if err != nil {
					return err
				}
				return a.execute(ctx, cmd, q, &f)
			}
			if f.watch {
				return a.watchFile(cmd.Context(), f.file, run)
			}
			return run(cmd.Context())
		},
	}
	f.register(cmd)
	cmd.Flags().StringArrayVar(&entities, "entity", nil, "map the columns of an alias to an entity: alias=Entity (repeatable)")
	cmd.Flags().StringArrayVar(&joins, "join", nil, "map a joined alias through an association: alias=owner.association (repeatable)")
	cmd.Flags().StringVar(&kind, "kind", "", "statement kind: query, update, delete, insert (default: from the first keyword)")
	return cmd
}

func nativeQuery(c *client.Client, text string, entities, joins []string, kind string) (*client.Query, error) {
	nq := c.Native(text)
	for _, e := range entities {
		alias, entity, ok := strings.Cut(e, "=")
		if !ok || alias == "" || entity == "" {
			return nil, fmt.Errorf("invalid --entity %q: expected alias=Entity", e)
		}
		nq.AddEntity(alias, entity)
	}
	for _, j := range joins {
		alias, path, ok := strings.Cut(j, "=")
		if !ok || alias == "" || path == "" {
			return nil, fmt.Errorf("invalid --join %q: expected alias=owner.association", j)
		}
		nq.AddJoin(alias, path)
	}
	if kind != "" {
		k := domain.StatementKind(strings.ToLower(kind))
		if k != domain.KindQuery && !k.IsDML() {
			return nil, fmt.Errorf("invalid --kind %q", kind)
		}
		nq.AsKind(k)
	}
	return nq.Query()
}
