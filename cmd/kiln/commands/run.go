package commands

import (
	"github.com/spf13/cobra"
	"go.trai.ch/kiln/internal/app"
)

func (c *CLI) newRunCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run frames over the project graph",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			frames, _ := cmd.Flags().GetInt("frames")
			parallel, _ := cmd.Flags().GetBool("parallel")
			force, _ := cmd.Flags().GetBool("force")
			watch, _ := cmd.Flags().GetBool("watch")
			metricsAddr, _ := cmd.Flags().GetString("metrics-addr")
			trace, _ := cmd.Flags().GetBool("trace")
			jsonLogs, _ := cmd.Flags().GetBool("json")
			logLevel, _ := cmd.Flags().GetString("log-level")

			return c.app.Run(cmd.Context(), app.RunOptions{
				Cwd:         chdir(cmd),
				Frames:      frames,
				Parallel:    parallel,
				Force:       force,
				Watch:       watch,
				MetricsAddr: metricsAddr,
				Trace:       trace,
				JSON:        jsonLogs,
				LogLevel:    logLevel,
			})
		},
	}
	cmd.Flags().IntP("frames", "f", 0, "Number of frames to run (default from kiln.yaml)")
	cmd.Flags().BoolP("parallel", "p", false, "Visit the nodes of a level concurrently")
	cmd.Flags().Bool("force", false, "Recompile and re-execute every node on the first frame")
	cmd.Flags().BoolP("watch", "w", false, "Run a frame each time kiln.yaml changes")
	cmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address")
	cmd.Flags().Bool("trace", false, "Log a line for every finished span")
	cmd.Flags().Bool("json", false, "Write logs as JSON")
	cmd.Flags().String("log-level", "", "Minimum log level: debug, info, warn or error")
	return cmd
}
