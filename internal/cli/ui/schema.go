package ui

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

// RenderSchemas writes a one-line summary per schema
func RenderSchemas(w io.Writer, schemas []*schema.EntitySchema, noColor bool) {
	table := NewTable(w, []string{"TYPE", "ENDPOINT", "ATTRIBUTES", "RELATIONSHIPS", "INCLUDE"}, &TableOptions{NoColor: noColor})
	for _, s := range schemas {
		table.AddRow(
			s.Type,
			s.Endpoint,
			strconv.Itoa(len(s.Attributes())),
			strconv.Itoa(len(s.Relationships())),
			strings.Join(s.DefaultInclude(), ","),
		)
	}
	table.Render()
}

// RenderSchema writes the attributes and relationships of one schema
func RenderSchema(w io.Writer, s *schema.EntitySchema, noColor bool) {
	Header(w, s.Type, noColor)

	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("endpoint", s.Endpoint)
	kv.AddRow("strict", strconv.FormatBool(s.Strict))
	kv.AddRow("resolved", strconv.FormatBool(s.IsResolved()))
	kv.Render()

	if attrs := s.Attributes(); len(attrs) > 0 {
		fmt.Fprintln(w)
		table := NewTable(w, []string{"ATTRIBUTE", "KIND", "REQUIRED"}, &TableOptions{NoColor: noColor})
		for _, a := range attrs {
			table.AddRow(a.Name, a.Kind.String(), yesNo(a.Required))
		}
		table.Render()
	}

	if rels := s.Relationships(); len(rels) > 0 {
		fmt.Fprintln(w)
		table := NewTable(w, []string{"RELATIONSHIP", "TARGET", "CARDINALITY", "DEFAULT INCLUDE"}, &TableOptions{NoColor: noColor})
		for _, r := range rels {
			target := r.TargetName()
			if !r.Resolved() {
				target += " (unresolved)"
			}
			table.AddRow(r.Name, target, r.Cardinality.String(), yesNo(r.DefaultInclude))
		}
		table.Render()
	}
}

// RenderStats writes registry statistics
func RenderStats(w io.Writer, stats *schema.RegistryStats, noColor bool) {
	kv := NewKeyValueTable(w, noColor)
	kv.AddRow("types", strconv.Itoa(stats.TotalTypes))
	kv.AddRow("attributes", strconv.Itoa(stats.TotalAttributes))
	kv.AddRow("relationships", strconv.Itoa(stats.TotalRelationships))
	kv.AddRow("default includes", strconv.Itoa(stats.DefaultIncludes))
	kv.AddRow("unresolved targets", strconv.Itoa(stats.UnresolvedTargets))
	kv.Render()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
