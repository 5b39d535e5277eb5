package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/orm/entity"
)

// DefaultMaxDepth is how many relationship levels a tree expands
const DefaultMaxDepth = 3

// maxCellWidth truncates table cells
const maxCellWidth = 40

// TreeOptions configures entity rendering
type TreeOptions struct {
	NoColor  bool
	MaxDepth int
}

// RenderEntity writes e and its loaded relationships as an indented tree:
//
//	articles/1
//	  title: JSON:API paints my bikeshed!
//	  author → people/9
//	    name: Dan
//	    articles: not loaded
//	  comments [2]
//	    - comments/5
//	        body: First!
//	    - (missing)
func RenderEntity(w io.Writer, e *entity.Entity, opts TreeOptions) {
	if opts.MaxDepth == 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	r := treeRenderer{
		w:     w,
		max:   opts.MaxDepth,
		title: newColor(opts.NoColor, color.Bold, color.FgCyan),
		key:   newColor(opts.NoColor, color.FgCyan),
		dim:   newColor(opts.NoColor, color.FgHiBlack),
	}
	if e == nil {
		r.dim.Fprintln(w, "(none)")
		return
	}
	r.title.Fprintln(w, label(e))
	r.body(e, "  ", 0)
}

// RenderEntities writes each entity as a tree, separated by blank lines
func RenderEntities(w io.Writer, es []*entity.Entity, opts TreeOptions) {
	for i, e := range es {
		if i > 0 {
			fmt.Fprintln(w)
		}
		RenderEntity(w, e, opts)
	}
}

type treeRenderer struct {
	w     io.Writer
	max   int
	title *color.Color
	key   *color.Color
	dim   *color.Color
}

func (r treeRenderer) body(e *entity.Entity, indent string, depth int) {
	if e.IsReference() {
		return
	}

	for _, name := range AttributeNames(e) {
		v, _ := e.Attr(name)
		fmt.Fprint(r.w, indent)
		r.key.Fprintf(r.w, "%s:", name)
		fmt.Fprintf(r.w, " %s\n", FormatValue(v))
	}

	for _, def := range e.Schema().Relationships() {
		h, ok := e.Relationship(def.Name)
		if !ok {
			continue
		}
		r.relationship(h, indent, depth)
	}
}

func (r treeRenderer) relationship(h *entity.Handle, indent string, depth int) {
	name := h.Def().Name

	if !h.Loaded() {
		fmt.Fprint(r.w, indent)
		r.key.Fprintf(r.w, "%s:", name)
		r.dim.Fprintf(r.w, " %s\n", describeLinkage(h.Linkage()))
		return
	}

	value, _ := h.Value()
	switch v := value.(type) {
	case *entity.Entity:
		fmt.Fprint(r.w, indent)
		r.key.Fprint(r.w, name)
		if v == nil {
			if h.Linkage().IsNull() {
				r.dim.Fprintln(r.w, ": null")
			} else {
				r.dim.Fprintln(r.w, ": (missing)")
			}
			return
		}
		fmt.Fprintf(r.w, " → %s\n", r.label(v, depth))
		r.nested(v, indent+"  ", depth)

	case []*entity.Entity:
		fmt.Fprint(r.w, indent)
		r.key.Fprintf(r.w, "%s [%d]\n", name, len(v))
		for _, item := range v {
			fmt.Fprintf(r.w, "%s  - ", indent)
			if item == nil {
				r.dim.Fprintln(r.w, "(missing)")
				continue
			}
			fmt.Fprintln(r.w, r.label(item, depth))
			r.nested(item, indent+"      ", depth)
		}
	}
}

func (r treeRenderer) nested(e *entity.Entity, indent string, depth int) {
	if depth+1 < r.max {
		r.body(e, indent, depth+1)
	}
}

func (r treeRenderer) label(e *entity.Entity, depth int) string {
	switch {
	case e.IsReference():
		return label(e) + r.dim.Sprint(" (cycle)")
	case depth+1 >= r.max:
		return label(e) + r.dim.Sprint(" …")
	}
	return label(e)
}

func label(e *entity.Entity) string {
	return e.Type() + "/" + e.ID()
}

func describeLinkage(l document.Linkage) string {
	switch {
	case !l.Present:
		return "not loaded"
	case l.IsNull():
		return "null"
	case l.Many:
		ids := make([]string, len(l.Identifiers))
		for i, id := range l.Identifiers {
			ids[i] = id.Type + "/" + id.ID
		}
		return fmt.Sprintf("[%s] (not loaded)", strings.Join(ids, ", "))
	}
	id := l.Identifiers[0]
	return fmt.Sprintf("%s/%s (not loaded)", id.Type, id.ID)
}

// AttributeNames returns declared attributes in declaration order followed
// by undeclared ones sorted by name
func AttributeNames(e *entity.Entity) []string {
	attrs := e.Attributes()
	names := make([]string, 0, len(attrs))
	for _, def := range e.Schema().Attributes() {
		if _, ok := attrs[def.Name]; ok {
			names = append(names, def.Name)
			delete(attrs, def.Name)
		}
	}
	rest := make([]string, 0, len(attrs))
	for name := range attrs {
		rest = append(rest, name)
	}
	sort.Strings(rest)
	return append(names, rest...)
}

// FormatValue renders an attribute value on one line
func FormatValue(v any) string {
	switch v := v.(type) {
	case nil:
		return "null"
	case string:
		return v
	case float64:
		return fmt.Sprintf("%g", v)
	case bool, int, int64:
		return fmt.Sprint(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprint(v)
	}
	return string(data)
}

// RenderEntityTable writes one row per entity: the id followed by every
// attribute seen across the list
func RenderEntityTable(w io.Writer, es []*entity.Entity, noColor bool) {
	var columns []string
	seen := make(map[string]bool)
	for _, e := range es {
		if e == nil {
			continue
		}
		for _, name := range AttributeNames(e) {
			if !seen[name] {
				seen[name] = true
				columns = append(columns, name)
			}
		}
	}

	headers := append([]string{"ID"}, make([]string, len(columns))...)
	for i, c := range columns {
		headers[i+1] = strings.ToUpper(c)
	}

	table := NewTable(w, headers, &TableOptions{NoColor: noColor})
	for _, e := range es {
		if e == nil {
			continue
		}
		row := make([]string, 0, len(headers))
		row = append(row, e.ID())
		for _, c := range columns {
			cell := ""
			if v, ok := e.Attr(c); ok {
				cell = truncate(FormatValue(v), maxCellWidth)
			}
			row = append(row, cell)
		}
		table.AddRow(row...)
	}
	table.Render()
}

func truncate(s string, n int) string {
	if strings.ContainsAny(s, "\r\n") {
		s = strings.Join(strings.Fields(s), " ")
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
