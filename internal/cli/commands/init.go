package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/cobra"

	"github.com/conduit-lang/linkage/internal/cli/config"
	"github.com/conduit-lang/linkage/internal/cli/ui"
)

type initOptions struct {
	path    string
	token   string
	force   bool
	noInput bool
}

func newInitCommand(a *app) *cobra.Command {
	var o initOptions

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Create a linkage.yaml config file",
		Long: `Create a config file. Values not given as flags are prompted for
unless --no-input is set.

Examples:
  linkage init
  linkage init --base-url https://api.example.com --schema types.yaml --no-input`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInit(cmd, a, o)
		},
	}

	cmd.Flags().StringVar(&o.path, "path", config.FileName+".yaml", "Where to write the config file")
	cmd.Flags().StringVar(&o.token, "token", "", "Static bearer token")
	cmd.Flags().BoolVar(&o.force, "force", false, "Overwrite an existing config file")
	cmd.Flags().BoolVar(&o.noInput, "no-input", false, "Never prompt")

	return cmd
}

func runInit(cmd *cobra.Command, a *app, o initOptions) error {
	if _, err := os.Stat(o.path); err == nil && !o.force {
		return fmt.Errorf("%s already exists; use --force to overwrite", o.path)
	}

	cfg := config.Default()
	flags := cmd.Flags()
	cfg.BaseURL = a.opts.baseURL
	if flags.Changed("schema") {
		cfg.SchemaFile = a.opts.schemaFile
	}
	cfg.Auth.Token = o.token
	if a.opts.noColor {
		cfg.Output.Color = false
	}

	if !o.noInput {
		if err := promptConfig(cfg, !flags.Changed("schema"), !flags.Changed("token")); err != nil {
			return err
		}
	}

	if cfg.BaseURL == "" {
		return a.configError(errors.New("base_url is required; pass --base-url"))
	}
	if err := config.Write(o.path, cfg); err != nil {
		return a.configError(err)
	}

	ui.WriteSuccess(cmd.OutOrStdout(), "wrote "+o.path, a.noColor())
	return nil
}

// promptConfig asks for the values that were not given as flags
func promptConfig(cfg *config.Config, askSchema, askToken bool) error {
	if cfg.BaseURL == "" {
		prompt := &survey.Input{
			Message: "Service base URL:",
			Help:    "Absolute http(s) URL without a trailing slash, e.g. https://api.example.com/v1",
		}
		validate := func(ans interface{}) error {
			probe := config.Default()
			probe.BaseURL, _ = ans.(string)
			return config.Validate(probe)
		}
		if err := survey.AskOne(prompt, &cfg.BaseURL, survey.WithValidator(survey.ComposeValidators(survey.Required, validate))); err != nil {
			return err
		}
	}

	if askSchema {
		prompt := &survey.Input{
			Message: "Schema file:",
			Default: cfg.SchemaFile,
		}
		if err := survey.AskOne(prompt, &cfg.SchemaFile); err != nil {
			return err
		}
	}

	if askToken {
		prompt := &survey.Password{
			Message: "Bearer token (optional):",
		}
		if err := survey.AskOne(prompt, &cfg.Auth.Token); err != nil {
			return err
		}
	}

	return nil
}
