package schemafile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/linkage/pkg/orm/schema"
)

const blog = `
types:
  - type: articles
    strict: true
    attributes:
      - {name: title, kind: string, required: true}
      - {name: published_at, kind: time}
    relationships:
      - {name: author, target: people, default_include: true}
      - {name: comments, target: comments, cardinality: many}
  - type: people
    endpoint: users
    attributes:
      - {name: name, kind: string}
    relationships:
      - {name: articles, target: articles, cardinality: to_many}
  - type: comments
    relationships:
      - {name: author, target: people}
`

func TestLoad_MutuallyReferencingTypes(t *testing.T) {
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(blog), 0644))

	reg := schema.NewRegistry()
	schemas, err := Load(path, reg)
	require.NoError(t, err)
	require.Len(t, schemas, 3)
	assert.Equal(t, []string{"articles", "people", "comments"}, reg.Names())

	articles := reg.MustGet("articles")
	people := reg.MustGet("people")
	comments := reg.MustGet("comments")

	assert.True(t, articles.Strict)
	assert.True(t, articles.IsResolved())
	assert.Equal(t, []string{"author"}, articles.DefaultInclude())
	assert.Equal(t, "users", people.Endpoint)
	assert.Equal(t, "comments", comments.Endpoint)

	title, ok := articles.Attribute("title")
	require.True(t, ok)
	assert.Equal(t, schema.KindString, title.Kind)
	assert.True(t, title.Required)

	author, _ := articles.Relationship("author")
	assert.Same(t, people, author.Target())
	assert.Equal(t, schema.One, author.Cardinality)

	list, _ := articles.Relationship("comments")
	assert.Same(t, comments, list.Target())
	assert.True(t, list.IsMany())

	back, _ := people.Relationship("articles")
	assert.Same(t, articles, back.Target())
	assert.True(t, back.IsMany())
}

func TestRegister_AcrossFiles(t *testing.T) {
	reg := schema.NewRegistry()

	first, err := Parse([]byte(`
types:
  - type: comments
    relationships:
      - {name: post, target: posts}
`))
	require.NoError(t, err)

	_, err = first.Register(reg)
	require.ErrorIs(t, err, schema.ErrUnresolvedTarget, "posts is not registered yet")

	second, err := Parse([]byte(`
types:
  - type: posts
`))
	require.NoError(t, err)
	_, err = second.Register(reg)
	require.NoError(t, err)

	post, _ := reg.MustGet("comments").Relationship("post")
	assert.Same(t, reg.MustGet("posts"), post.Target())
}

func TestRegister_DuplicateTypeRegistersNothing(t *testing.T) {
	reg := schema.NewRegistry()
	reg.MustRegister(schema.New("people").MustBuild())

	f, err := Parse([]byte(`
types:
  - type: articles
    relationships:
      - {name: author, target: people}
  - type: people
`))
	require.NoError(t, err)

	_, err = f.Register(reg)
	require.ErrorIs(t, err, schema.ErrDuplicateType)
	assert.False(t, reg.Exists("articles"))
	assert.Equal(t, []string{"people"}, reg.Names())
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want error
	}{
		{
			name: "unknown key",
			yaml: "types:\n  - type: a\n    colour: red\n",
		},
		{
			name: "bad kind",
			yaml: "types:\n  - type: a\n    attributes: [{name: x, kind: decimal}]\n",
		},
		{
			name: "bad cardinality",
			yaml: "types:\n  - type: a\n    relationships: [{name: b, target: b, cardinality: some}]\n",
		},
		{
			name: "missing target",
			yaml: "types:\n  - type: a\n    relationships: [{name: b}]\n",
			want: schema.ErrInvalidTarget,
		},
		{
			name: "duplicate field",
			yaml: "types:\n  - type: a\n    attributes: [{name: b}]\n    relationships: [{name: b, target: a}]\n",
			want: schema.ErrDuplicateField,
		},
		{
			name: "missing type tag",
			yaml: "types:\n  - endpoint: things\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := Parse([]byte(tt.yaml))
			if err == nil {
				_, err = f.Build()
			}
			require.Error(t, err)
			if tt.want != nil {
				assert.ErrorIs(t, err, tt.want)
			}
		})
	}
}

func TestParse_Empty(t *testing.T) {
	f, err := Parse(nil)
	require.NoError(t, err)
	assert.Empty(t, f.Types)
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"), schema.NewRegistry())
	assert.ErrorIs(t, err, os.ErrNotExist)
}
