package client

import (
	"net/url"
	"strings"

	"github.com/conduit-lang/linkage/pkg/orm/entity"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

// buildParams builds the query of a request for resources of type s.
// include is the caller's paths followed by the schema defaults, without
// duplicates. Caller params are applied last and win on collision.
func buildParams(s *schema.EntitySchema, o entity.FetchOptions) map[string]string {
	params := make(map[string]string, len(o.Params)+2)

	if include := joinUnique(o.Include, s.DefaultInclude()); include != "" {
		params["include"] = include
	}
	if withMeta := joinUnique(o.WithMeta); withMeta != "" {
		params["with_meta"] = withMeta
	}
	for k, v := range o.Params {
		params[k] = v
	}

	return params
}

// joinUnique comma-joins the entries of lists in first-seen order. Entries
// may themselves be comma-separated.
func joinUnique(lists ...[]string) string {
	seen := make(map[string]bool)
	var out []string
	for _, list := range lists {
		for _, entry := range list {
			for _, part := range strings.Split(entry, ",") {
				part = strings.TrimSpace(part)
				if part == "" || seen[part] {
					continue
				}
				seen[part] = true
				out = append(out, part)
			}
		}
	}
	return strings.Join(out, ",")
}

// resourceURL joins the base URL, the endpoint and escaped path segments
func resourceURL(base, endpoint string, segments ...string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteByte('/')
	b.WriteString(strings.Trim(endpoint, "/"))
	for _, seg := range segments {
		b.WriteByte('/')
		b.WriteString(url.PathEscape(seg))
	}
	return b.String()
}
