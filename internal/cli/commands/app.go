package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/conduit-lang/linkage/internal/cli/config"
	"github.com/conduit-lang/linkage/internal/cli/schemafile"
	"github.com/conduit-lang/linkage/internal/cli/ui"
	"github.com/conduit-lang/linkage/pkg/client"
	"github.com/conduit-lang/linkage/pkg/orm/schema"
	"github.com/conduit-lang/linkage/pkg/transport"
)

// globalOptions holds the persistent flags
type globalOptions struct {
	configPath string
	baseURL    string
	schemaFile string
	json       bool
	noColor    bool
	verbose    bool
}

// app is the state shared by the subcommands of one invocation
type app struct {
	opts     globalOptions
	cfg      *config.Config
	logger   *zap.Logger
	registry *schema.Registry
}

// configure loads the configuration and applies flag overrides
func (a *app) configure(cmd *cobra.Command) error {
	cfg, err := config.Load(a.opts.configPath)
	if err != nil {
		return a.configError(err)
	}

	flags := cmd.Flags()
	if flags.Changed("base-url") {
		cfg.BaseURL = a.opts.baseURL
	}
	if flags.Changed("schema") {
		cfg.SchemaFile = a.opts.schemaFile
	}
	if flags.Changed("no-color") {
		cfg.Output.Color = !a.opts.noColor
	}
	if err := config.Validate(cfg); err != nil {
		return a.configError(err)
	}
	a.cfg = cfg

	level, _ := config.ParseLevel(cfg.Log.Level)
	if a.opts.verbose {
		level = zapcore.DebugLevel
	}
	a.logger = newLogger(cmd, level)
	return nil
}

// noColor reports whether output should be plain
func (a *app) noColor() bool {
	return a.opts.noColor || (a.cfg != nil && !a.cfg.Output.Color) || color.NoColor
}

func (a *app) configError(err error) error {
	return &renderedError{err: err, text: ui.ConfigError(err.Error(), a.noColor())}
}

// loadSchemas registers the types of the configured schema file
func (a *app) loadSchemas() error {
	if a.registry != nil {
		return nil
	}

	path := a.cfg.SchemaFile
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return a.configError(fmt.Errorf("schema file %s not found; set schema_file or pass --schema", path))
	}

	registry := schema.NewRegistry()
	schemas, err := schemafile.Load(path, registry)
	if err != nil {
		return err
	}
	a.logger.Debug("schemas loaded", zap.String("file", path), zap.Int("types", len(schemas)))
	a.registry = registry
	return nil
}

// session builds a client session for the configured service
func (a *app) session() (*client.Session, error) {
	if err := a.loadSchemas(); err != nil {
		return nil, err
	}
	if a.cfg.BaseURL == "" {
		return nil, a.configError(errors.New("base_url is required; set it in linkage.yaml, LINKAGE_BASE_URL or --base-url"))
	}

	tc := a.cfg.Transport()
	tc.UserAgent = "linkage/" + Version
	tc.Logger = a.logger

	return client.New(a.cfg.BaseURL, transport.NewHTTP(tc),
		client.WithRegistry(a.registry),
		client.WithLogger(a.logger),
	)
}

// lookup returns the schema for typeTag, suggesting close names when the
// type is unknown
func (a *app) lookup(s *client.Session, typeTag string) (*schema.EntitySchema, error) {
	es, err := s.Schema(typeTag)
	if err != nil {
		return nil, &renderedError{err: err, text: ui.UnknownTypeError(typeTag, a.registry.Names(), a.noColor())}
	}
	return es, nil
}

// relationship checks that es declares field
func (a *app) relationship(es *schema.EntitySchema, field string) error {
	if _, ok := es.Relationship(field); ok {
		return nil
	}
	names := make([]string, 0, len(es.Relationships()))
	for _, def := range es.Relationships() {
		names = append(names, def.Name)
	}
	err := &schema.SchemaError{Type: es.Type, Field: field, Err: schema.ErrUnknownField}
	return &renderedError{err: err, text: ui.UnknownFieldError(es.Type, field, names, a.noColor())}
}

// newLogger writes console-encoded logs to the command's stderr
func newLogger(cmd *cobra.Command, level zapcore.Level) *zap.Logger {
	encoderConfig := zap.NewDevelopmentEncoderConfig()
	encoderConfig.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(cmd.ErrOrStderr()),
		level,
	)
	return zap.New(core)
}
