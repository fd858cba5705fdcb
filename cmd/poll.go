package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// newPollCmd creates the 'poll' subcommand.
func newPollCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "poll",
		Short: "Runs the fetch-and-store loop",
		Long: `Fetches poller.url poller.iterations times, sleeping poller.interval
after each record, and stops at the first transport, status, decode or
store failure.`,
		Args: cobra.NoArgs,
		RunE: runPollCommand,
	}
}

func runPollCommand(cmd *cobra.Command, _ []string) error {
	appInstance, err := resolveApp(cmd.Context())
	if err != nil {
		return err
	}
	// Closed here rather than in a post-run hook, which cobra skips on error.
	defer appInstance.Close()

	summary, err := appInstance.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("poll run: %w", err)
	}

	zap.L().Debug("Poll finished",
		zap.Int("iterations", summary.Iterations),
		zap.Strings("keys", summary.Keys),
	)
	return nil
}
