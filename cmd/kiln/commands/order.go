package commands

import "github.com/spf13/cobra"

func (c *CLI) newOrderCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "order",
		Short: "Print the topological levels of the project graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return c.app.Order(cmd.Context(), chdir(cmd))
		},
	}
}
