package ui

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"

	"github.com/conduit-lang/linkage/pkg/transport"
)

// ErrorLevel represents the severity of a message
type ErrorLevel int

const (
	ErrorLevelError ErrorLevel = iota
	ErrorLevelWarning
	ErrorLevelInfo
)

// ErrorOptions configures the error message formatting
type ErrorOptions struct {
	Level        ErrorLevel
	Context      string
	Problem      string
	Details      []string
	Suggestions  []string
	HelpCommands []string
	NoColor      bool
}

// FormatError renders a message with optional details, suggestions and help
// commands:
//
//	✗ UNKNOWN TYPE: artcles
//	   No schema is registered for 'artcles'.
//
//	   Did you mean: articles?
//
//	   → See all types: linkage schema
func FormatError(opts ErrorOptions) string {
	var b strings.Builder

	var header, body *color.Color
	var symbol string
	switch opts.Level {
	case ErrorLevelWarning:
		header = newColor(opts.NoColor, color.FgYellow, color.Bold)
		body = newColor(opts.NoColor, color.FgYellow)
		symbol = "!"
	case ErrorLevelInfo:
		header = newColor(opts.NoColor, color.FgCyan, color.Bold)
		body = newColor(opts.NoColor, color.FgCyan)
		symbol = "i"
	default:
		header = newColor(opts.NoColor, color.FgRed, color.Bold)
		body = newColor(opts.NoColor, color.FgRed)
		symbol = "✗"
	}

	if opts.Context != "" {
		header.Fprintf(&b, "%s %s\n", symbol, strings.ToUpper(opts.Context))
		body.Fprintf(&b, "   %s\n", opts.Problem)
	} else {
		header.Fprintf(&b, "%s %s\n", symbol, opts.Problem)
	}

	for _, d := range opts.Details {
		body.Fprintf(&b, "   %s\n", d)
	}

	if len(opts.Suggestions) > 0 {
		b.WriteString("\n")
		newColor(opts.NoColor, color.FgYellow).Fprintf(&b, "   Did you mean: %s?\n", strings.Join(opts.Suggestions, ", "))
	}

	if len(opts.HelpCommands) > 0 {
		b.WriteString("\n")
		cyan := newColor(opts.NoColor, color.FgCyan)
		for _, cmd := range opts.HelpCommands {
			cyan.Fprintf(&b, "   → %s\n", cmd)
		}
	}

	return b.String()
}

// WriteError writes a formatted error message to the writer
func WriteError(w io.Writer, opts ErrorOptions) {
	fmt.Fprint(w, FormatError(opts))
}

// FormatSuccess creates a success message
func FormatSuccess(message string, noColor bool) string {
	return newColor(noColor, color.FgGreen, color.Bold).Sprintf("✓ %s", message)
}

// WriteSuccess writes a success message to the writer
func WriteSuccess(w io.Writer, message string, noColor bool) {
	fmt.Fprintln(w, FormatSuccess(message, noColor))
}

// UnknownTypeError reports a type tag with no registered schema
func UnknownTypeError(typeTag string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "unknown type",
		Problem:      fmt.Sprintf("No schema is registered for '%s'.", typeTag),
		Suggestions:  FindSimilar(typeTag, known, nil),
		HelpCommands: []string{"See all types: linkage schema"},
		NoColor:      noColor,
	})
}

// UnknownFieldError reports a relationship name the type does not declare
func UnknownFieldError(typeTag, field string, known []string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context:      "unknown relationship",
		Problem:      fmt.Sprintf("'%s' has no relationship '%s'.", typeTag, field),
		Suggestions:  FindSimilar(field, known, nil),
		HelpCommands: []string{fmt.Sprintf("See the type: linkage schema %s", typeTag)},
		NoColor:      noColor,
	})
}

// ConfigError reports an invalid or incomplete configuration
func ConfigError(message string, noColor bool) string {
	return FormatError(ErrorOptions{
		Context: "configuration error",
		Problem: message,
		HelpCommands: []string{
			"Create a config: linkage init",
			"Get help: linkage --help",
		},
		NoColor: noColor,
	})
}

// RequestError reports a failed request. JSON:API error objects returned by
// the service are listed as details.
func RequestError(err error, noColor bool) string {
	var te *transport.Error
	if !errors.As(err, &te) {
		return FormatError(ErrorOptions{Context: "request failed", Problem: err.Error(), NoColor: noColor})
	}

	opts := ErrorOptions{
		Context: "request failed",
		Problem: te.Error(),
		NoColor: noColor,
	}
	for _, obj := range te.Errors {
		opts.Details = append(opts.Details, obj.Error())
	}
	if te.Temporary() {
		opts.HelpCommands = append(opts.HelpCommands, "Retry later or raise retry.max in linkage.yaml")
	}
	return FormatError(opts)
}

// Warning creates a warning message
func Warning(message string, noColor bool) string {
	return FormatError(ErrorOptions{Level: ErrorLevelWarning, Problem: message, NoColor: noColor})
}
