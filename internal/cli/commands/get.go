package commands

import (
	"github.com/spf13/cobra"

	"github.com/conduit-lang/linkage/internal/cli/ui"
)

func newGetCommand(a *app) *cobra.Command {
	var f fetchFlags

	cmd := &cobra.Command{
		Use:   "get TYPE ID",
		Short: "Fetch one resource and show it with its relationships",
		Long: `Fetch one resource by type and id.

Relationships present in the response's included data are shown resolved.
The type's default includes are always requested.

Examples:
  linkage get articles 1
  linkage get articles 1 --include comments.author
  linkage get people 9 --meta followers --json`,
		Args:              cobra.ExactArgs(2),
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

			e, err := s.FetchOne(cmd.Context(), es, args[1], f.options()...)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if a.opts.json {
				return writeJSON(out, e)
			}
			ui.RenderEntity(out, e, f.tree(a))
			return nil
		},
	}

	f.register(cmd)
	return cmd
}
