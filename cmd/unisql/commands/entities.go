package commands

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

// newEntitiesCommand creates the entities command.
func newEntitiesCommand(a *App) *cobra.Command {
	return &cobra.Command{
		Use:   "entities [NAME]",
		Short: "List the entities of the mapping document",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registry, err := a.registry(true)
			if err != nil {
				return err
			}

			if len(args) == 0 {
				var rows [][]string
				for _, e := range registry.Entities() {
					var ids, assocs []string
					for _, f := range e.IDFields() {
						ids = append(ids, f.Name)
					}
					for _, as := range e.Associations {
						assocs = append(assocs, as.Name)
					}
					rows = append(rows, []string{
						e.Name, e.Table, strconv.Itoa(len(e.Fields)),
						strings.Join(ids, ", "), strings.Join(assocs, ", "),
					})
				}
				return a.out.Table([]string{"Entity", "Table", "Fields", "ID", "Associations"}, rows)
			}

			e, err := registry.Entity(args[0])
			if err != nil {
				return err
			}
			a.out.Header(e.Name, "table "+e.Table)

			fields := make([][]string, 0, len(e.Fields))
			for _, f := range e.Fields {
				fields = append(fields, []string{f.Name, f.Column, string(f.Type), yesNo(f.Nullable), yesNo(f.ID)})
			}
			if err := a.out.Table([]string{"Field", "Column", "Type", "Nullable", "ID"}, fields); err != nil {
				return err
			}
			if len(e.Associations) == 0 {
				return nil
			}

			assocs := make([][]string, 0, len(e.Associations))
			for _, as := range e.Associations {
				assocs = append(assocs, []string{
					as.Name, string(as.Kind), as.Target,
					fmt.Sprintf("%s.%s = %s.%s", e.Table, as.LocalColumn, as.Target, as.TargetColumn),
				})
			}
			return a.out.Table([]string{"Association", "Kind", "Target", "Join"}, assocs)
		},
	}
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return ""
}
