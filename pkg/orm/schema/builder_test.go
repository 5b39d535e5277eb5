package schema

import (
	"errors"
	"strings"
	"testing"
)

func TestBuilder(t *testing.T) {
	t.Run("endpoint defaults to type", func(t *testing.T) {
		s, err := New("people").Attribute("name", KindString, Required()).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if s.Endpoint != "people" {
			t.Errorf("expected endpoint people, got %s", s.Endpoint)
		}

		attr, ok := s.Attribute("name")
		if !ok {
			t.Fatal("attribute name should be declared")
		}
		if !attr.Required || attr.Kind != KindString {
			t.Errorf("unexpected attribute definition: %+v", attr)
		}
	})

	t.Run("concrete target is resolved at build", func(t *testing.T) {
		people := New("people").MustBuild()
		articles, err := New("articles").ToOne("author", people).Build()
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if !articles.IsResolved() {
			t.Error("schema with only concrete targets should be resolved")
		}
		def, _ := articles.Relationship("author")
		if def.Target() != people {
			t.Error("author should target people")
		}
	})

	t.Run("named targets stay unresolved", func(t *testing.T) {
		s := New("articles").
			ToOne("author", "people").
			ToMany("comments", Ref("comments")).
			MustBuild()

		if s.IsResolved() {
			t.Error("schema with named targets should not be resolved")
		}
		if !s.HasForwardRefs() {
			t.Error("expected forward references")
		}

		def, _ := s.Relationship("comments")
		if def.TargetName() != "comments" {
			t.Errorf("expected target name comments, got %s", def.TargetName())
		}
		if def.Resolved() {
			t.Error("comments should be unresolved")
		}
	})

	t.Run("explicit cardinality wins over inference", func(t *testing.T) {
		s := New("articles").
			Relationship("tags", "tags", WithCardinality(Many)).
			ToMany("editor", "people", WithCardinality(One)).
			Relationship("author", "people").
			MustBuild()

		tags, _ := s.Relationship("tags")
		if !tags.IsMany() {
			t.Error("tags should be to-many")
		}
		editor, _ := s.Relationship("editor")
		if editor.IsMany() {
			t.Error("editor should be to-one")
		}
		author, _ := s.Relationship("author")
		if author.Cardinality != One {
			t.Errorf("expected inferred one, got %s", author.Cardinality)
		}
	})

	t.Run("default includes keep declaration order", func(t *testing.T) {
		s := New("articles").
			ToMany("comments", "comments", DefaultInclude()).
			ToOne("author", "people").
			ToMany("tags", "tags", DefaultInclude()).
			MustBuild()

		got := s.DefaultInclude()
		if len(got) != 2 || got[0] != "comments" || got[1] != "tags" {
			t.Errorf("unexpected default includes: %v", got)
		}
	})

	t.Run("invalid targets", func(t *testing.T) {
		var nilSchema *EntitySchema
		targets := map[string]any{
			"nil schema":  nilSchema,
			"empty name":  "",
			"empty ref":   ForwardRef{},
			"wrong type":  42,
			"untyped nil": nil,
		}

		for name, target := range targets {
			t.Run(name, func(t *testing.T) {
				_, err := New("articles").ToOne("author", target).Build()
				if !errors.Is(err, ErrInvalidTarget) {
					t.Fatalf("expected ErrInvalidTarget, got %v", err)
				}

				var schemaErr *SchemaError
				if !errors.As(err, &schemaErr) {
					t.Fatal("expected *SchemaError")
				}
				if schemaErr.Type != "articles" || schemaErr.Field != "author" {
					t.Errorf("unexpected error location: %s.%s", schemaErr.Type, schemaErr.Field)
				}
			})
		}
	})

	t.Run("duplicate and reserved fields", func(t *testing.T) {
		_, err := New("articles").
			Attribute("title", KindString).
			ToOne("title", "people").
			Attribute("id", KindString).
			Build()

		if !errors.Is(err, ErrDuplicateField) {
			t.Errorf("expected ErrDuplicateField, got %v", err)
		}
		if err == nil || !strings.Contains(err.Error(), "articles.title") || !strings.Contains(err.Error(), "articles.id") {
			t.Errorf("expected both declaration errors, got %v", err)
		}
	})

	t.Run("empty type tag", func(t *testing.T) {
		if _, err := New("").Build(); err == nil {
			t.Error("expected error for empty type tag")
		}
	})

	t.Run("must build panics", func(t *testing.T) {
		defer func() {
			if recover() == nil {
				t.Error("expected panic")
			}
		}()
		New("articles").ToOne("author", 1).MustBuild()
	})
}

func TestParseCardinality(t *testing.T) {
	tests := []struct {
		in      string
		want    Cardinality
		wantErr bool
	}{
		{"one", One, false},
		{"to_one", One, false},
		{"many", Many, false},
		{"to_many", Many, false},
		{"several", 0, true},
	}

	for _, tt := range tests {
		got, err := ParseCardinality(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCardinality(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseCardinality(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}

func TestParseKind(t *testing.T) {
	for _, k := range []Kind{KindAny, KindString, KindInt, KindFloat, KindBool, KindTime, KindObject, KindArray} {
		got, err := ParseKind(k.String())
		if err != nil {
			t.Errorf("ParseKind(%q): %v", k, err)
			continue
		}
		if got != k {
			t.Errorf("ParseKind(%q) = %s", k, got)
		}
	}

	if _, err := ParseKind("uuid"); err == nil {
		t.Error("expected error for unknown kind")
	}
}
