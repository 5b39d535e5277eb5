package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/conduit-lang/linkage/internal/cli/ui"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

type schemaJSON struct {
	Type          string             `json:"type"`
	Endpoint      string             `json:"endpoint"`
	Strict        bool               `json:"strict,omitempty"`
	Attributes    []attributeJSON    `json:"attributes"`
	Relationships []relationshipJSON `json:"relationships"`
}

type attributeJSON struct {
	Name     string `json:"name"`
	Kind     string `json:"kind"`
	Required bool   `json:"required,omitempty"`
}

type relationshipJSON struct {
	Name           string `json:"name"`
	Target         string `json:"target"`
	Cardinality    string `json:"cardinality"`
	DefaultInclude bool   `json:"default_include,omitempty"`
}

func newSchemaCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "schema [TYPE]",
		Short: "Show the types declared in the schema file",
		Long: `Load the schema file, resolve every relationship target and list the
declared types. With a TYPE argument, show that type's attributes and
relationships.

Examples:
  linkage schema
  linkage schema articles --schema api/types.yaml`,
		Args:              cobra.MaximumNArgs(1),
		ValidArgsFunction: completeArgs(a),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := a.configure(cmd); err != nil {
				return err
			}
			if err := a.loadSchemas(); err != nil {
				return err
			}

			schemas := a.registry.List()
			if len(args) == 1 {
				es, ok := a.registry.Get(args[0])
				if !ok {
					_, err := a.registry.Lookup(args[0])
					return &renderedError{err: err, text: ui.UnknownTypeError(args[0], a.registry.Names(), a.noColor())}
				}
				schemas = []*schema.EntitySchema{es}
			}

			out := cmd.OutOrStdout()
			if a.opts.json {
				docs := make([]schemaJSON, 0, len(schemas))
				for _, es := range schemas {
					doc := schemaJSON{
						Type:          es.Type,
						Endpoint:      es.Endpoint,
						Strict:        es.Strict,
						Attributes:    []attributeJSON{},
						Relationships: []relationshipJSON{},
					}
					for _, attr := range es.Attributes() {
						doc.Attributes = append(doc.Attributes, attributeJSON{attr.Name, attr.Kind.String(), attr.Required})
					}
					for _, rel := range es.Relationships() {
						doc.Relationships = append(doc.Relationships, relationshipJSON{rel.Name, rel.TargetName(), rel.Cardinality.String(), rel.DefaultInclude})
					}
					docs = append(docs, doc)
				}
				return writeJSON(out, docs)
			}

			if len(args) == 1 {
				ui.RenderSchema(out, schemas[0], a.noColor())
				return nil
			}
			ui.RenderSchemas(out, schemas, a.noColor())
			fmt.Fprintln(out)
			ui.RenderStats(out, a.registry.GetStats(), a.noColor())
			return nil
		},
	}
}
