package commands

import "github.com/spf13/cobra"

func (c *CLI) newInspectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "inspect NODE",
		Short: "Print the cache entries of a node from the last run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.app.Inspect(cmd.Context(), chdir(cmd), args[0])
		},
	}
}
