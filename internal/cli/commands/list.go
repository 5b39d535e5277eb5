package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newListCommand(a *app) *cobra.Command {
	var (
		f      fetchFlags
		asTree bool
	)

	cmd := &cobra.Command{
		Use:   "list TYPE",
		Short: "Fetch a collection",
		Long: `Fetch the collection of a type and show one row per resource.

Examples:
  linkage list articles
  linkage list articles --tree --include author
  linkage list people --param filter[name]=dan`,
		Args:              cobra.ExactArgs(1),
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

			entities, err := s.FetchAll(cmd.Context(), es, f.options()...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if err := a.writeEntities(out, entities, &f, asTree); err != nil {
				return err
			}
			if !a.opts.json {
				fmt.Fprintf(cmd.ErrOrStderr(), "%d %s\n", len(entities), es.Type)
			}
			return nil
		},
	}

	f.register(cmd)
	cmd.Flags().BoolVar(&asTree, "tree", false, "Show each resource as a tree instead of a table")
	return cmd
}
