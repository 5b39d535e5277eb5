package document

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const articleWithAuthor = `{
	"data": {
		"type": "articles",
		"id": "1",
		"attributes": {"title": "X"},
		"relationships": {"author": {"data": {"type": "people", "id": "9"}}}
	},
	"included": [{"type": "people", "id": "9", "attributes": {"name": "Y"}}]
}`

func TestParse(t *testing.T) {
	t.Run("single resource with included", func(t *testing.T) {
		doc, err := Parse([]byte(articleWithAuthor))
		require.NoError(t, err)

		assert.False(t, doc.Many)
		assert.True(t, doc.HasIncluded)
		require.Len(t, doc.Data, 1)

		article, err := doc.Single()
		require.NoError(t, err)
		assert.Equal(t, "articles", article.Type)
		assert.Equal(t, "1", article.ID)
		assert.Equal(t, "X", article.Attributes["title"])

		author := article.Relationships["author"]
		assert.True(t, author.Data.Present)
		assert.False(t, author.Data.Many)
		assert.Equal(t, []Identifier{{Type: "people", ID: "9"}}, author.Data.Identifiers)
	})

	t.Run("collection", func(t *testing.T) {
		doc, err := Parse([]byte(`{"data":[{"type":"people","id":"1"},{"type":"people","id":"2"}]}`))
		require.NoError(t, err)

		assert.True(t, doc.Many)
		assert.Len(t, doc.Data, 2)
		assert.False(t, doc.HasIncluded)
		assert.Nil(t, doc.Index())

		_, err = doc.Single()
		assert.ErrorIs(t, err, ErrMalformed)
	})

	t.Run("empty collection", func(t *testing.T) {
		doc, err := Parse([]byte(`{"data":[]}`))
		require.NoError(t, err)
		assert.True(t, doc.Many)
		assert.Empty(t, doc.Data)
	})

	t.Run("null data", func(t *testing.T) {
		doc, err := Parse([]byte(`{"data":null}`))
		require.NoError(t, err)
		assert.True(t, doc.Null)

		_, err = doc.Single()
		assert.ErrorIs(t, err, ErrNoData)
	})

	t.Run("empty included is present", func(t *testing.T) {
		doc, err := Parse([]byte(`{"data":{"type":"people","id":"1"},"included":[]}`))
		require.NoError(t, err)
		assert.True(t, doc.HasIncluded)

		idx := doc.Index()
		require.NotNil(t, idx)
		assert.Equal(t, 0, idx.Len())
	})

	t.Run("top-level meta and errors", func(t *testing.T) {
		doc, err := Parse([]byte(`{"meta":{"total":3},"errors":[{"status":"404","title":"Not Found"}]}`))
		require.NoError(t, err)
		assert.Equal(t, float64(3), doc.Meta["total"])
		require.Len(t, doc.Errors, 1)
		assert.Equal(t, "404", doc.Errors[0].Status)
		assert.Equal(t, "Not Found", doc.Errors[0].Error())
	})

	t.Run("malformed bodies", func(t *testing.T) {
		bodies := map[string]string{
			"not json":         `<html>`,
			"scalar data":      `{"data":"articles"}`,
			"missing type":     `{"data":{"id":"1"}}`,
			"missing id":       `{"data":{"type":"articles"}}`,
			"bad included":     `{"data":null,"included":[{"type":"people"}]}`,
			"scalar relation":  `{"data":{"type":"a","id":"1","relationships":{"b":{"data":7}}}}`,
			"array of scalars": `{"data":[1,2]}`,
		}
		for name, body := range bodies {
			t.Run(name, func(t *testing.T) {
				_, err := Parse([]byte(body))
				assert.ErrorIs(t, err, ErrMalformed)
			})
		}
	})
}

func TestLinkage(t *testing.T) {
	parse := func(t *testing.T, rel string) Linkage {
		t.Helper()
		var r Relationship
		require.NoError(t, json.Unmarshal([]byte(rel), &r))
		return r.Data
	}

	t.Run("absent data", func(t *testing.T) {
		l := parse(t, `{"links":{"related":"/articles/1/author"}}`)
		assert.False(t, l.Present)
	})

	t.Run("null data", func(t *testing.T) {
		l := parse(t, `{"data":null}`)
		assert.True(t, l.Present)
		assert.True(t, l.IsNull())
	})

	t.Run("to-many data", func(t *testing.T) {
		l := parse(t, `{"data":[{"type":"comments","id":"5"},{"type":"comments","id":"12"}]}`)
		assert.True(t, l.Many)
		assert.Len(t, l.Identifiers, 2)
		assert.Equal(t, "comments/12", l.Identifiers[1].String())
	})

	t.Run("empty to-many is not null", func(t *testing.T) {
		l := parse(t, `{"data":[]}`)
		assert.True(t, l.Many)
		assert.False(t, l.IsNull())
		assert.NotNil(t, l.Identifiers)
	})

	t.Run("marshal keeps shape", func(t *testing.T) {
		for _, raw := range []string{
			`{"data":null}`,
			`{"data":{"type":"people","id":"9"}}`,
			`{"data":[{"type":"comments","id":"5"}]}`,
			`{"data":[]}`,
		} {
			var r Relationship
			require.NoError(t, json.Unmarshal([]byte(raw), &r))
			out, err := json.Marshal(r)
			require.NoError(t, err)
			assert.JSONEq(t, raw, string(out))
		}
	})
}

func TestDocumentMarshal(t *testing.T) {
	doc, err := Parse([]byte(articleWithAuthor))
	require.NoError(t, err)

	out, err := json.Marshal(doc)
	require.NoError(t, err)
	assert.JSONEq(t, articleWithAuthor, string(out))

	t.Run("empty included survives", func(t *testing.T) {
		doc := Document{Data: []Resource{{Type: "people", ID: "1"}}, HasIncluded: true}
		out, err := json.Marshal(doc)
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":{"type":"people","id":"1"},"included":[]}`, string(out))
	})

	t.Run("null data survives", func(t *testing.T) {
		out, err := json.Marshal(Document{Null: true})
		require.NoError(t, err)
		assert.JSONEq(t, `{"data":null}`, string(out))
	})
}

func TestIncludedIndex(t *testing.T) {
	resources := []Resource{
		{Type: "people", ID: "9", Attributes: map[string]any{"name": "Y"}},
		{Type: "comments", ID: "5"},
		{Type: "people", ID: "9", Attributes: map[string]any{"name": "duplicate"}},
	}
	idx := NewIndex(resources)

	t.Run("lookup", func(t *testing.T) {
		r, ok := idx.Lookup("people", "9")
		require.True(t, ok)
		assert.Equal(t, "Y", r.Attributes["name"], "first occurrence wins")

		_, ok = idx.Lookup("people", "10")
		assert.False(t, ok)
		assert.Equal(t, 2, idx.Len())
	})

	t.Run("find keeps positions", func(t *testing.T) {
		found := idx.Find(
			Identifier{Type: "comments", ID: "5"},
			Identifier{Type: "comments", ID: "404"},
			Identifier{Type: "people", ID: "9"},
		)
		require.Len(t, found, 3)
		assert.Equal(t, "5", found[0].ID)
		assert.Nil(t, found[1])
		assert.Equal(t, "9", found[2].ID)
	})

	t.Run("nil index is empty", func(t *testing.T) {
		var nilIdx *IncludedIndex
		_, ok := nilIdx.Lookup("people", "9")
		assert.False(t, ok)
		assert.Equal(t, 0, nilIdx.Len())
		assert.Equal(t, []*Resource{nil}, nilIdx.Find(Identifier{Type: "people", ID: "9"}))
	})
}
