package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/prompt"
	"github.com/satishbabariya/unisql/internal/watch"
	"github.com/satishbabariya/unisql/pkg/client"
)

// runFlags are shared by the commands that execute statements.
type runFlags struct {
	file     string
	params   []string
	offset   int
	limit    int
	shape    string
	distinct bool
	watch    bool
}

func (f *runFlags) register(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVarP(&f.file, "file", "f", "", "read the statement from a file")
	flags.StringArrayVarP(&f.params, "param", "p", nil, "bind a placeholder: name=value, or n=value for ?n (repeatable)")
	flags.IntVar(&f.offset, "offset", 0, "skip the first rows of the result")
	flags.IntVar(&f.limit, "limit", 0, "return at most this many rows (0: no cap)")
	flags.StringVar(&f.shape, "shape", "auto", "row shape: auto, scalar, tuple, map, entity, joins")
	flags.BoolVar(&f.distinct, "distinct", false, "fold joined rows into one root entity per identity")
	flags.BoolVarP(&f.watch, "watch", "w", false, "re-run when --file changes")
}

// execute binds and runs q, then prints rows or the affected row count.
func (a *App) execute(ctx context.Context, cmd *cobra.Command, q *client.Query, f *runFlags) error {
	var err error
	if cmd.Flags().Changed("offset") {
		if q, err = q.WithOffset(f.offset); err != nil {
			return err
		}
	}
	if cmd.Flags().Changed("limit") {
		if q, err = q.WithLimit(f.limit); err != nil {
			return err
		}
	}

	compiled, err := q.Compile()
	if err != nil {
		return err
	}
	params, err := prompt.ParseAssignments(f.params, compiled.Slots)
	if err != nil {
		return err
	}
	if a.interactive() {
		if params, err = prompt.Fill(compiled.Slots, params, a.prompter); err != nil {
			return err
		}
	}
	bind(q, params)

	stmt := q.Statement()
	if stmt.Kind.IsDML() {
		n, err := q.ExecuteUpdate(ctx)
		if err != nil {
			return err
		}
		a.out.Success("%s: %d %s affected", stmt.Kind, n, plural(n, "row"))
		return nil
	}

	spec, err := shapeFor(stmt, f.shape, f.distinct)
	if err != nil {
		return err
	}
	rs, err := q.Iterate(ctx, spec)
	if err != nil {
		return err
	}
	defer rs.Close()

	rows, err := rs.All()
	if err != nil {
		if len(rows) > 0 {
			a.out.Warning("%d %s read before the failure", len(rows), plural(int64(len(rows)), "row"))
			_ = a.out.Results(rs.Columns(), rows)
		}
		return err
	}
	return a.out.Results(rs.Columns(), rows)
}

func bind(q *client.Query, params *binder.ParameterSet) {
	for _, name := range params.Names() {
		v, _ := params.Lookup(domain.Param{Name: name})
		q.Bind(name, v)
	}
	for _, pos := range params.Positions() {
		v, _ := params.Lookup(domain.Param{Position: pos})
		q.BindPositional(pos, v)
	}
}

// shapeFor picks the materialization for stmt. The auto shape returns
// entities when the statement selects whole entities, the declared shape for
// SELECT NEW, and tuples otherwise.
func shapeFor(stmt *domain.Statement, name string, distinct bool) (domain.MaterializationSpec, error) {
	root, entities, joined := entityProjection(stmt)

	var spec domain.MaterializationSpec
	switch name {
	case "", "auto":
		switch {
		case stmt.Projection.Shape != nil:
			spec = domain.NamedShape(stmt.Projection.Shape.Name, nil, nil)
		case root != "" && (entities > 1 || joined):
			spec = domain.EntityWithJoins(root)
			distinct = distinct || joined
		case root != "":
			spec = domain.EntitySpec(root)
		default:
			spec = domain.Tuple()
		}
	case "scalar":
		spec = domain.Scalar()
	case "tuple":
		spec = domain.Tuple()
	case "map":
		spec = domain.MapRow()
	case "entity", "joins":
		if root == "" {
			root = stmt.Root.Entity
		}
		if root == "" {
			return spec, fmt.Errorf("shape %s needs an entity: the statement declares none", name)
		}
		spec = domain.EntitySpec(root)
		if name == "joins" {
			spec = domain.EntityWithJoins(root)
		}
	default:
		return spec, fmt.Errorf("unknown shape %q", name)
	}

	if distinct {
		if spec.Kind != domain.ShapeEntityWithJoins {
			return spec, fmt.Errorf("--distinct applies to joined entities only")
		}
		spec = spec.DistinctRoot()
	}
	return spec, nil
}

// entityProjection reports the root entity when stmt selects only whole
// entities, how many it selects, and whether fetch joins add more.
func entityProjection(stmt *domain.Statement) (root string, entities int, fetched bool) {
	if n := stmt.Native; n != nil {
		if len(n.Entities) == 0 {
			return "", 0, false
		}
		return n.Entities[0].Entity, len(n.Entities) + len(n.Joins), false
	}

	items := stmt.Projection.Items
	if len(items) == 0 {
		return "", 0, false
	}
	for _, item := range items {
		ref, ok := item.Expr.(domain.EntityRef)
		if !ok {
			return "", 0, false
		}
		if root == "" {
			root = ref.Entity
		}
	}
	for _, j := range stmt.Joins {
		fetched = fetched || j.Fetch
	}
	return root, len(items), fetched
}

// watchFile runs run now and whenever file changes, until interrupted.
func (a *App) watchFile(ctx context.Context, file string, run func(context.Context) error) error {
	if file == "" {
		return fmt.Errorf("--watch requires --file")
	}
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt)
	defer stop()

	w, err := watch.New(file, func(ctx context.Context) error {
		a.out.Header(file, time.Now().Format(time.TimeOnly))
		if err := run(ctx); err != nil {
			a.out.Error(err)
		}
		return nil
	}, watch.WithLogger(a.logger))
	if err != nil {
		return err
	}
	defer w.Stop()

	a.out.Info("watching %s, press Ctrl+C to stop", file)
	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func plural(n int64, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
