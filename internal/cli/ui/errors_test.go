package ui

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/conduit-lang/linkage/pkg/orm/document"
	"github.com/conduit-lang/linkage/pkg/transport"
)

func TestFormatError(t *testing.T) {
	tests := []struct {
		name     string
		opts     ErrorOptions
		contains []string
	}{
		{
			name: "basic error",
			opts: ErrorOptions{
				Context: "unknown type",
				Problem: "No schema is registered for 'posts'.",
			},
			contains: []string{
				"✗ UNKNOWN TYPE\n",
				"   No schema is registered for 'posts'.",
			},
		},
		{
			name: "error with suggestions",
			opts: ErrorOptions{
				Problem:     "bad type",
				Suggestions: []string{"articles", "people"},
			},
			contains: []string{
				"✗ bad type",
				"Did you mean: articles, people?",
			},
		},
		{
			name: "error with details and help commands",
			opts: ErrorOptions{
				Context:      "request failed",
				Problem:      "GET /people/9: 403 Forbidden",
				Details:      []string{"Forbidden: token expired"},
				HelpCommands: []string{"Get help: linkage --help"},
			},
			contains: []string{
				"   Forbidden: token expired",
				"   → Get help: linkage --help",
			},
		},
		{
			name: "warning message",
			opts: ErrorOptions{
				Level:   ErrorLevelWarning,
				Problem: "no schema file",
			},
			contains: []string{"! no schema file"},
		},
		{
			name: "info message",
			opts: ErrorOptions{
				Level:   ErrorLevelInfo,
				Problem: "3 types loaded",
			},
			contains: []string{"i 3 types loaded"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tt.opts.NoColor = true
			result := FormatError(tt.opts)

			for _, expected := range tt.contains {
				if !strings.Contains(result, expected) {
					t.Errorf("FormatError() output missing expected string:\nExpected to contain: %q\nGot: %q", expected, result)
				}
			}
		})
	}
}

func TestUnknownTypeError(t *testing.T) {
	result := UnknownTypeError("artcles", []string{"articles", "people"}, true)

	expected := []string{
		"UNKNOWN TYPE",
		"No schema is registered for 'artcles'.",
		"Did you mean: articles?",
		"See all types: linkage schema",
	}
	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("UnknownTypeError() missing expected string: %q", exp)
		}
	}

	if strings.Contains(UnknownTypeError("zzzzzzzz", []string{"people"}, true), "Did you mean") {
		t.Error("expected no suggestions for a distant name")
	}
}

func TestUnknownFieldError(t *testing.T) {
	result := UnknownFieldError("articles", "autor", []string{"author", "comments"}, true)

	expected := []string{
		"UNKNOWN RELATIONSHIP",
		"'articles' has no relationship 'autor'.",
		"Did you mean: author?",
		"linkage schema articles",
	}
	for _, exp := range expected {
		if !strings.Contains(result, exp) {
			t.Errorf("UnknownFieldError() missing expected string: %q", exp)
		}
	}
}

func TestConfigError(t *testing.T) {
	result := ConfigError("base_url is required", true)

	for _, exp := range []string{"CONFIGURATION ERROR", "base_url is required", "linkage init"} {
		if !strings.Contains(result, exp) {
			t.Errorf("ConfigError() missing expected string: %q", exp)
		}
	}
}

func TestRequestError(t *testing.T) {
	t.Run("status error lists error objects", func(t *testing.T) {
		err := fmt.Errorf("fetch: %w", &transport.Error{
			StatusCode: 503,
			URL:        "http://api.test/people/9",
			Errors: []document.ErrorObject{
				{Status: "503", Title: "Unavailable", Detail: "maintenance"},
				{Status: "503", Detail: "try later"},
			},
		})

		result := RequestError(err, true)
		for _, exp := range []string{"REQUEST FAILED", "503 Service Unavailable", "   Unavailable: maintenance", "   try later", "retry.max"} {
			if !strings.Contains(result, exp) {
				t.Errorf("RequestError() missing %q in %q", exp, result)
			}
		}
	})

	t.Run("client errors are not retryable", func(t *testing.T) {
		result := RequestError(&transport.Error{StatusCode: 404, URL: "http://api.test/x"}, true)
		if strings.Contains(result, "retry.max") {
			t.Errorf("unexpected retry hint in %q", result)
		}
	})

	t.Run("other errors", func(t *testing.T) {
		result := RequestError(errors.New("boom"), true)
		if !strings.Contains(result, "boom") {
			t.Errorf("expected message, got %q", result)
		}
	})
}

func TestWriteSuccess(t *testing.T) {
	var buf bytes.Buffer
	WriteSuccess(&buf, "wrote linkage.yaml", true)

	if buf.String() != "✓ wrote linkage.yaml\n" {
		t.Errorf("unexpected output %q", buf.String())
	}

	buf.Reset()
	WriteError(&buf, ErrorOptions{Problem: "nope", NoColor: true})
	if buf.String() != "✗ nope\n" {
		t.Errorf("unexpected output %q", buf.String())
	}

	if !strings.Contains(Warning("careful", true), "! careful") {
		t.Error("expected warning prefix")
	}
}
