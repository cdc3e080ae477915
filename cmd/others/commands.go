package others

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/projecteru2/easydoc/utils"
)

// Actions defines maintenance and build-info operations.
type Actions interface {
	GC(cmd *cobra.Command, args []string) error
	Version(cmd *cobra.Command, args []string) error
}

var completions = map[string]func(root *cobra.Command, w io.Writer) error{
	"bash":       func(root *cobra.Command, w io.Writer) error { return root.GenBashCompletionV2(w, true) },
	"zsh":        func(root *cobra.Command, w io.Writer) error { return root.GenZshCompletion(w) },
	"fish":       func(root *cobra.Command, w io.Writer) error { return root.GenFishCompletion(w, true) },
	"powershell": func(root *cobra.Command, w io.Writer) error { return root.GenPowerShellCompletionWithDesc(w) },
}

// Commands builds the gc, version and completion commands.
func Commands(h Actions) []*cobra.Command {
	gcCmd := &cobra.Command{
		Use:   "gc",
		Short: "Remove temp files left behind by interrupted document writes",
		Long: `Remove temp files left behind by interrupted document writes.

Only the file backend leaves such files; for other backends gc has nothing to
collect. A document directory whose write lock is held elsewhere is skipped
and picked up by the next run.`,
		Args: cobra.NoArgs,
		RunE: h.GC,
	}
	gcCmd.Flags().Duration("max-age", utils.StaleTempAge, "only remove temp files untouched for this long")

	return []*cobra.Command{
		gcCmd,
		{
			Use:   "version",
			Short: "Show easydoc version, git revision and build time",
			Args:  cobra.NoArgs,
			RunE:  h.Version,
		},
		{
			Use:       "completion SHELL",
			Short:     "Generate shell completion script (bash, zsh, fish, powershell)",
			Args:      cobra.MatchAll(cobra.ExactArgs(1), cobra.OnlyValidArgs),
			ValidArgs: []string{"bash", "zsh", "fish", "powershell"},
			RunE: func(cmd *cobra.Command, args []string) error {
				gen, ok := completions[args[0]]
				if !ok {
					return fmt.Errorf("unsupported shell: %s", args[0])
				}
				return gen(cmd.Root(), os.Stdout)
			},
		},
	}
}
