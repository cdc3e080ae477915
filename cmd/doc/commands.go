package doc

import "github.com/spf13/cobra"

// Actions defines the document subcommands.
type Actions interface {
	New(cmd *cobra.Command, args []string) error
	Get(cmd *cobra.Command, args []string) error
	Set(cmd *cobra.Command, args []string) error
	Delete(cmd *cobra.Command, args []string) error
	List(cmd *cobra.Command, args []string) error
}

// Commands builds document command set.
func Commands(h Actions) []*cobra.Command {
	setCmd := &cobra.Command{
		Use:   "set REF KEY=VALUE [KEY=VALUE...]",
		Short: "Update fields of a document, creating it if absent",
		Args:  cobra.MinimumNArgs(1),
		RunE:  h.Set,
	}
	setCmd.Flags().StringSlice("unset", nil, "field names to remove")

	return []*cobra.Command{
		{
			Use:   "new [KEY=VALUE...]",
			Short: "Create a document under a generated ref",
			RunE:  h.New,
		},
		{
			Use:   "get REF",
			Short: "Show the fields of a document",
			Args:  cobra.ExactArgs(1),
			RunE:  h.Get,
		},
		setCmd,
		{
			Use:     "delete REF [REF...]",
			Aliases: []string{"rm"},
			Short:   "Delete document(s)",
			Args:    cobra.MinimumNArgs(1),
			RunE:    h.Delete,
		},
		{
			Use:     "list",
			Aliases: []string{"ls"},
			Short:   "List stored documents",
			RunE:    h.List,
		},
	}
}
