package commands

import (
	"github.com/spf13/cobra"
)

// NewCompletionCommand creates the completion command for shell completions
func NewCompletionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "completion [bash|zsh|fish|powershell]",
		Short: "Generate shell completion script",
		Long: `Generate a shell completion script. Type names and relationship
fields complete from the configured schema file.

Bash:

  $ source <(linkage completion bash)

Zsh:

  $ linkage completion zsh > "${fpath[1]}/_linkage"

Fish:

  $ linkage completion fish > ~/.config/fish/completions/linkage.fish

PowerShell:

  PS> linkage completion powershell | Out-String | Invoke-Expression
`,
		DisableFlagsInUseLine: true,
		ValidArgs:             []string{"bash", "zsh", "fish", "powershell"},
		Args:                  cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
		RunE: func(cmd *cobra.Command, args []string) error {
			root := cmd.Root()
			out := cmd.OutOrStdout()

			switch args[0] {
			case "bash":
				return root.GenBashCompletionV2(out, true)
			case "zsh":
				return root.GenZshCompletion(out)
			case "fish":
				return root.GenFishCompletion(out, true)
			case "powershell":
				return root.GenPowerShellCompletionWithDesc(out)
			}
			return nil
		},
	}
}

// completeArgs completes the TYPE argument and, for related, the FIELD
// argument from the schema file. Errors yield no suggestions.
func completeArgs(a *app) cobra.CompletionFunc {
	return func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		noFiles := cobra.ShellCompDirectiveNoFileComp

		if len(args) != 0 && !(cmd.Name() == "related" && len(args) == 2) {
			return nil, noFiles
		}
		if err := a.configure(cmd); err != nil {
			return nil, noFiles
		}
		if err := a.loadSchemas(); err != nil {
			return nil, noFiles
		}

		if len(args) == 0 {
			return a.registry.Names(), noFiles
		}

		es, ok := a.registry.Get(args[0])
		if !ok {
			return nil, noFiles
		}
		fields := make([]string, 0, len(es.Relationships()))
		for _, def := range es.Relationships() {
			fields = append(fields, def.Name)
		}
		return fields, noFiles
	}
}
