package client

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/conduit-lang/linkage/pkg/jsonapitest"
	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/orm/entity"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
	"github.com/conduit-lang/linkage/pkg/orm/validation"
	"github.com/conduit-lang/linkage/pkg/transport"
)

func blogRegistry() *schema.Registry {
	registry := schema.NewRegistry()
	registry.MustRegister(
		schema.New("articles").
			Attribute("title", schema.KindString, schema.Required()).
			ToOne("author", "people").
			ToMany("comments", "comments", schema.DefaultInclude()).
			MustBuild(),
		schema.New("people").
			Attribute("name", schema.KindString).
			ToMany("articles", schema.Ref("articles")).
			MustBuild(),
		schema.New("comments").
			Endpoint("article-comments").
			Attribute("body", schema.KindString).
			ToOne("author", "people").
			MustBuild(),
	)
	return registry
}

func newTestSession(t *testing.T) (*Session, *jsonapitest.Server) {
	t.Helper()

	srv := jsonapitest.NewServer(t)
	cfg := transport.DefaultConfig()
	cfg.RetryWaitMin = time.Millisecond
	cfg.RetryWaitMax = time.Millisecond

	s, err := New(srv.URL+"/", transport.NewHTTP(cfg), WithRegistry(blogRegistry()))
	require.NoError(t, err)
	return s, srv
}

func mustSchema(t *testing.T, s *Session, name string) *schema.EntitySchema {
	t.Helper()
	es, err := s.Schema(name)
	require.NoError(t, err)
	return es
}

const articleWithAuthor = `{
	"data": {
		"type": "articles", "id": "1", "attributes": {"title": "X"},
		"relationships": {"author": {"data": {"type": "people", "id": "9"}}}
	},
	"included": [{"type": "people", "id": "9", "attributes": {"name": "Y"}}]
}`

func TestSession_FetchOneWithIncluded(t *testing.T) {
	s, srv := newTestSession(t)
	srv.Handle("/articles/1", http.StatusOK, articleWithAuthor)

	ctx := context.Background()
	article, err := s.FetchOne(ctx, mustSchema(t, s, "articles"), "1", WithInclude("author"))
	require.NoError(t, err)
	assert.Equal(t, "1", article.ID())
	assert.Equal(t, "X", article.String("title"))

	author := article.MustRelationship("author")
	assert.Equal(t, entity.ResolvedOne, author.Kind())

	person, err := author.FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Y", person.String("name"))
	assert.Len(t, srv.Requests(), 1, "a resolved handle performs no request")

	req, _ := srv.LastRequest()
	assert.Equal(t, "author,comments", req.Query.Get("include"))
}

func TestSession_FetchOneWithoutIncluded(t *testing.T) {
	s, srv := newTestSession(t)
	srv.Handle("/articles/1", http.StatusOK, `{
		"data": {
			"type": "articles", "id": "1", "attributes": {"title": "X"},
			"relationships": {"author": {"data": {"type": "people", "id": "9"}}}
		}
	}`)
	srv.Handle("/people/9", http.StatusOK, `{"data": {"type": "people", "id": "9", "attributes": {"name": "Y"}}}`)

	ctx := context.Background()
	article, err := s.FetchOne(ctx, mustSchema(t, s, "articles"), "1")
	require.NoError(t, err)

	author := article.MustRelationship("author")
	assert.Equal(t, entity.IDOne, author.Kind())

	person, err := author.FetchOne(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Y", person.String("name"))
	assert.Equal(t, 1, srv.RequestCount("/people/9"))
	assert.Equal(t, entity.IDOne, author.Kind(), "fetching does not mutate the handle")
}

func TestSession_DefaultIncludeUnion(t *testing.T) {
	var gotURL string
	var gotParams map[string]string
	fake := transport.Func(func(_ context.Context, url string, params map[string]string) (json.RawMessage, error) {
		gotURL, gotParams = url, params
		return json.RawMessage(`{"data":{"type":"articles","id":"1","attributes":{"title":"X"}}}`), nil
	})

	s, err := New("https://api.example.test", fake, WithRegistry(blogRegistry()))
	require.NoError(t, err)
	articles := mustSchema(t, s, "articles")
	ctx := context.Background()

	tests := []struct {
		name string
		opts []FetchOption
		want map[string]string
	}{
		{
			name: "defaults only",
			want: map[string]string{"include": "comments"},
		},
		{
			name: "caller paths first",
			opts: []FetchOption{WithInclude("author")},
			want: map[string]string{"include": "author,comments"},
		},
		{
			name: "duplicates dropped",
			opts: []FetchOption{WithInclude("comments, author", "author")},
			want: map[string]string{"include": "comments,author"},
		},
		{
			name: "with meta joined",
			opts: []FetchOption{WithMeta("total", "count")},
			want: map[string]string{"include": "comments", "with_meta": "total,count"},
		},
		{
			name: "caller params win",
			opts: []FetchOption{WithInclude("author"), WithParams(map[string]string{"include": "tags", "sort": "-created"})},
			want: map[string]string{"include": "tags", "sort": "-created"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.FetchOne(ctx, articles, "1", tt.opts...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, gotParams)
			assert.Equal(t, "https://api.example.test/articles/1", gotURL)
		})
	}

	t.Run("path segments are escaped", func(t *testing.T) {
		_, err := s.FetchOne(ctx, articles, "a/b c")
		require.NoError(t, err)
		assert.Equal(t, "https://api.example.test/articles/a%2Fb%20c", gotURL)
	})

	t.Run("no include without defaults", func(t *testing.T) {
		fake := transport.Func(func(_ context.Context, url string, params map[string]string) (json.RawMessage, error) {
			gotParams = params
			return json.RawMessage(`{"data":[]}`), nil
		})
		s, err := New("https://api.example.test", fake, WithRegistry(blogRegistry()))
		require.NoError(t, err)

		_, err = s.FetchAll(ctx, mustSchema(t, s, "people"))
		require.NoError(t, err)
		assert.Empty(t, gotParams)
	})
}

func TestSession_FetchAll(t *testing.T) {
	s, srv := newTestSession(t)
	srv.Handle("/articles", http.StatusOK, `{
		"data": [
			{"type": "articles", "id": "1", "attributes": {"title": "A"}, "relationships": {"author": {"data": {"type": "people", "id": "9"}}}},
			{"type": "articles", "id": "2", "attributes": {"title": "B"}, "relationships": {"author": {"data": {"type": "people", "id": "9"}}}}
		],
		"included": [{"type": "people", "id": "9", "attributes": {"name": "Y"}}],
		"meta": {"total": 2}
	}`)

	articles, err := s.FetchAll(context.Background(), mustSchema(t, s, "articles"))
	require.NoError(t, err)
	require.Len(t, articles, 2)
	assert.Equal(t, "B", articles[1].String("title"))

	first, _ := articles[0].MustRelationship("author").Value()
	second, _ := articles[1].MustRelationship("author").Value()
	assert.Same(t, first, second)
}

func TestSession_FetchRelated(t *testing.T) {
	s, srv := newTestSession(t)
	srv.Handle("/articles/1/comments", http.StatusOK, `{
		"data": [
			{"type": "comments", "id": "5", "attributes": {"body": "first"}},
			{"type": "comments", "id": "12", "attributes": {"body": "second"}}
		]
	}`)
	srv.Handle("/articles/1/author", http.StatusOK, `{"data": {"type": "people", "id": "9", "attributes": {"name": "Y"}}}`)
	srv.Handle("/articles/2/author", http.StatusOK, `{"data": null}`)
	srv.Handle("/articles/1", http.StatusOK, `{"data": {"type": "articles", "id": "1", "attributes": {"title": "X"}}}`)

	ctx := context.Background()
	articles := mustSchema(t, s, "articles")

	related, err := s.FetchRelated(ctx, articles, "1", "comments")
	require.NoError(t, err)
	assert.Equal(t, schema.Many, related.Cardinality)
	require.Len(t, related.Many, 2)
	assert.Equal(t, "second", related.Many[1].String("body"))
	assert.Equal(t, "comments", related.Many[0].Type())

	// include paths are relative to the related type, which has no defaults
	req, _ := srv.LastRequest()
	assert.Empty(t, req.Query.Get("include"))

	author, err := s.FetchRelatedOne(ctx, articles, "1", "author")
	require.NoError(t, err)
	assert.Equal(t, "Y", author.String("name"))

	none, err := s.FetchRelatedOne(ctx, articles, "2", "author")
	require.NoError(t, err)
	assert.Nil(t, none)

	comments, err := s.FetchRelatedMany(ctx, articles, "1", "comments")
	require.NoError(t, err)
	assert.Len(t, comments, 2)

	t.Run("cardinality mismatch", func(t *testing.T) {
		_, err := s.FetchRelatedMany(ctx, articles, "1", "author")
		assert.ErrorIs(t, err, entity.ErrCardinality)
		_, err = s.FetchRelatedOne(ctx, articles, "1", "comments")
		assert.ErrorIs(t, err, entity.ErrCardinality)
	})

	t.Run("target defaults replace owner defaults", func(t *testing.T) {
		registry := schema.NewRegistry()
		registry.MustRegister(
			schema.New("articles").
				ToOne("author", "people", schema.DefaultInclude()).
				ToMany("comments", "comments", schema.DefaultInclude()).
				MustBuild(),
			schema.New("people").
				ToMany("articles", "articles", schema.DefaultInclude()).
				MustBuild(),
			schema.New("comments").MustBuild(),
		)
		rs, err := New(srv.URL, transport.NewHTTP(transport.DefaultConfig()), WithRegistry(registry))
		require.NoError(t, err)

		_, err = rs.FetchRelated(ctx, mustSchema(t, rs, "articles"), "1", "author", WithInclude("articles.comments"))
		require.NoError(t, err)

		req, _ := srv.LastRequest()
		assert.Equal(t, "/articles/1/author", req.Path)
		assert.Equal(t, "articles.comments,articles", req.Query.Get("include"))
	})

	t.Run("unknown field", func(t *testing.T) {
		_, err := s.FetchRelated(ctx, articles, "1", "editor")
		assert.ErrorIs(t, err, schema.ErrUnknownField)
	})

	t.Run("handle fetch through the session", func(t *testing.T) {
		article, err := s.FetchOne(ctx, articles, "1")
		require.NoError(t, err)

		comments, err := article.MustRelationship("comments").FetchMany(ctx)
		require.NoError(t, err)
		assert.Len(t, comments, 2)
	})
}

func TestSession_Errors(t *testing.T) {
	ctx := context.Background()

	t.Run("transport errors propagate unchanged", func(t *testing.T) {
		s, _ := newTestSession(t)
		_, err := s.FetchOne(ctx, mustSchema(t, s, "people"), "404")

		var te *transport.Error
		require.ErrorAs(t, err, &te)
		assert.True(t, transport.IsNotFound(err))
	})

	t.Run("handle fetch errors propagate unchanged", func(t *testing.T) {
		s, srv := newTestSession(t)
		srv.Handle("/articles/1", http.StatusOK, `{
			"data": {"type": "articles", "id": "1", "attributes": {"title": "X"},
			"relationships": {"author": {"data": {"type": "people", "id": "9"}}}}
		}`)
		srv.Handle("/people/9", http.StatusForbidden, `{"errors":[{"status":"403","title":"Forbidden"}]}`)

		article, err := s.FetchOne(ctx, mustSchema(t, s, "articles"), "1")
		require.NoError(t, err)

		_, err = article.MustRelationship("author").FetchOne(ctx)
		assert.Equal(t, http.StatusForbidden, transport.StatusCode(err))
	})

	t.Run("unresolvable schema fails before any request", func(t *testing.T) {
		s, srv := newTestSession(t)
		orphans := schema.New("orphans").ToOne("parent", "ghosts").MustBuild()
		require.NoError(t, s.Registry().Register(orphans))

		_, err := s.FetchOne(ctx, orphans, "1")
		assert.ErrorIs(t, err, schema.ErrUnresolvedTarget)
		assert.Empty(t, srv.Requests())
	})

	t.Run("validation errors name the field", func(t *testing.T) {
		s, srv := newTestSession(t)
		srv.Handle("/articles/1", http.StatusOK, `{"data": {"type": "articles", "id": "1", "attributes": {}}}`)

		_, err := s.FetchOne(ctx, mustSchema(t, s, "articles"), "1")

		var hydrationErr *entity.HydrationError
		require.ErrorAs(t, err, &hydrationErr)
		var ve *validation.ValidationErrors
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, []string{"title"}, ve.FieldNames())
	})

	t.Run("malformed documents", func(t *testing.T) {
		s, srv := newTestSession(t)
		srv.Handle("/people/1", http.StatusOK, `{"data": {"type": "people"}}`)
		srv.Handle("/people/2", http.StatusOK, `{"data": null}`)
		srv.Handle("/people/3", http.StatusOK, `{"data": [{"type": "people", "id": "3"}]}`)
		people := mustSchema(t, s, "people")

		_, err := s.FetchOne(ctx, people, "1")
		assert.ErrorIs(t, err, document.ErrMalformed)
		_, err = s.FetchOne(ctx, people, "2")
		assert.ErrorIs(t, err, document.ErrNoData)
		_, err = s.FetchOne(ctx, people, "3")
		assert.ErrorIs(t, err, document.ErrMalformed)
	})
}

func TestNew(t *testing.T) {
	fake := transport.Func(func(context.Context, string, map[string]string) (json.RawMessage, error) {
		return nil, errors.New("unused")
	})

	_, err := New("https://api.example.test", nil)
	assert.ErrorIs(t, err, ErrNoTransport)

	_, err = New("/relative", fake)
	assert.Error(t, err)

	s, err := New("https://api.example.test/v1///", fake)
	require.NoError(t, err)
	assert.Equal(t, "https://api.example.test/v1", s.BaseURL())
	assert.Same(t, schema.Default, s.Registry())
}
