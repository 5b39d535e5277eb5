package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/linkage/internal/cli/ui"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

func newRelatedCommand(a *app) *cobra.Command {
	var (
		f      fetchFlags
		asTree bool
	)

	cmd := &cobra.Command{
		Use:   "related TYPE ID FIELD",
		Short: "Fetch the resources behind one relationship",
		Long: `Fetch GET /{endpoint}/{id}/{field} and show the result as the
relationship's target type. To-one relationships print one resource,
to-many relationships a table.

Examples:
  linkage related articles 1 author
  linkage related articles 1 comments --include author`,
		Args:              cobra.ExactArgs(3),
		ValidArgsFunction: completeArgs(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(cmd); err != nil {
				return err
			}
			s, err := a.session()
			if err != nil {
				return err
			}
			es, err := a.lookup(s, args[0])
			if err != nil {
				return err
			}
			if err := a.relationship(es, args[2]); err != nil {
				return err
			}

			related, err := s.FetchRelated(cmd.Context(), es, args[1], args[2], f.options()...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if related.Cardinality == schema.Many {
				return a.writeEntities(out, related.Many, &f, asTree)
			}
			if a.opts.json {
				return writeJSON(out, related.One)
			}
			ui.RenderEntity(out, related.One, f.tree(a))
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&asTree, "tree", false, "Show to-many results as trees instead of a table")
	return cmd
}
