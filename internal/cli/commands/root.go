package commands

import (
	"errors"
	"fmt"
	"io"
	"runtime"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/linkage/internal/cli/ui"
	"github.com/conduit-lang/linkage/pkg/transport"
)

var (
	// Version information - set at build time
	Version   = "dev"
	GitCommit = "unknown"
	BuildDate = "unknown"
	GoVersion = "unknown"
)

// NewRootCommand creates the root command
func NewRootCommand() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "linkage",
		Short: "Fetch and explore JSON:API resources as typed entity graphs",
		Long: color.CyanString(`Linkage - JSON:API client object mapper

Linkage reads resource type declarations from a schema file, fetches
resources from a JSON:API service and shows them with their relationships
resolved from included data.

Features:
  • Compound documents hydrated into entity graphs
  • Cyclic relationships with back-reference placeholders
  • Default includes per type
  • Retries, bearer and JWT credentials`),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVarP(&a.opts.configPath, "config", "c", "", "Config file (default: ./linkage.yaml or ~/.config/linkage/linkage.yaml)")
	flags.StringVar(&a.opts.baseURL, "base-url", "", "Service root URL, overrides base_url")
	flags.StringVar(&a.opts.schemaFile, "schema", "", "Schema file, overrides schema_file")
	flags.BoolVar(&a.opts.json, "json", false, "Write JSON instead of text")
	flags.BoolVar(&a.opts.noColor, "no-color", false, "Disable colored output")
	flags.BoolVarP(&a.opts.verbose, "verbose", "v", false, "Log requests to stderr")

	rootCmd.AddCommand(NewVersionCommand())
	rootCmd.AddCommand(newGetCommand(a))
	rootCmd.AddCommand(newListCommand(a))
	rootCmd.AddCommand(newRelatedCommand(a))
	rootCmd.AddCommand(newSchemaCommand(a))
	rootCmd.AddCommand(newInitCommand(a))
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// NewVersionCommand creates the version command
func NewVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  "Display the linkage version, Git commit, build date, and Go version",
		Run: func(cmd *cobra.Command, args []string) {
			goVer := GoVersion
			if goVer == "unknown" {
				goVer = runtime.Version()
			}

			out := cmd.OutOrStdout()
			titleColor := color.New(color.FgCyan, color.Bold)
			valueColor := color.New(color.FgWhite)

			titleColor.Fprint(out, "Linkage version: ")
			valueColor.Fprintln(out, Version)

			titleColor.Fprint(out, "Git commit: ")
			valueColor.Fprintln(out, GitCommit)

			titleColor.Fprint(out, "Build date: ")
			valueColor.Fprintln(out, BuildDate)

			titleColor.Fprint(out, "Go version: ")
			valueColor.Fprintln(out, goVer)
		},
	}
}

// Execute runs the root command
func Execute() error {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		printError(rootCmd.ErrOrStderr(), err)
		return err
	}
	return nil
}

// printError writes err the way the user should see it. Errors a command
// already rendered carry their own text.
func printError(w io.Writer, err error) {
	var rendered *renderedError
	var te *transport.Error
	switch {
	case errors.As(err, &rendered):
		fmt.Fprint(w, rendered.text)
	case errors.As(err, &te):
		fmt.Fprint(w, ui.RequestError(err, color.NoColor))
	default:
		color.New(color.FgRed, color.Bold).Fprintf(w, "Error: %v\n", err)
	}
}

// renderedError is an error with a formatted message for the terminal
type renderedError struct {
	err  error
	text string
}

func (e *renderedError) Error() string {
	return e.err.Error()
}

func (e *renderedError) Unwrap() error {
	return e.err
}
