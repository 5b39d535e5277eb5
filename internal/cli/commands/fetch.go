package commands

import (
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/linkage/internal/cli/ui"
	"github.com/conduit-lang/linkage/pkg/client"
	"github.com/conduit-lang/linkage/pkg/orm/entity"
)

// fetchFlags are the query flags shared by get, list and related
type fetchFlags struct {
	include []string
	meta    []string
	params  map[string]string
	depth   int
}

func (f *fetchFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringSliceVarP(&f.include, "include", "i", nil, "Relationship paths to include, added to the type's defaults")
	cmd.Flags().StringSliceVar(&f.meta, "meta", nil, "Fields requested through with_meta")
	cmd.Flags().StringToStringVarP(&f.params, "param", "p", nil, "Extra query parameters (key=value)")
	cmd.Flags().IntVar(&f.depth, "depth", ui.DefaultMaxDepth, "Relationship levels to expand in text output")
}

func (f *fetchFlags) options() []client.FetchOption {
	var opts []client.FetchOption
	if len(f.include) > 0 {
		opts = append(opts, client.WithInclude(f.include...))
	}
	if len(f.meta) > 0 {
		opts = append(opts, client.WithMeta(f.meta...))
	}
	if len(f.params) > 0 {
		opts = append(opts, client.WithParams(f.params))
	}
	return opts
}

func (f *fetchFlags) tree(a *app) ui.TreeOptions {
	return ui.TreeOptions{NoColor: a.noColor(), MaxDepth: f.depth}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeEntities renders a list as JSON, trees or a table
func (a *app) writeEntities(w io.Writer, es []*entity.Entity, f *fetchFlags, asTree bool) error {
	switch {
	case a.opts.json:
		if es == nil {
			es = []*entity.Entity{}
		}
		return writeJSON(w, es)
	case asTree:
		ui.RenderEntities(w, es, f.tree(a))
	default:
		ui.RenderEntityTable(w, es, a.noColor())
	}
	return nil
}
