// Package cli implements deskctl, the operator tool for the desk service.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

type options struct {
	redisAddr  string
	backendURL string
	token      string
	debug      bool
	logger     *slog.Logger
}

// NewRootCommand builds the deskctl command tree.
func NewRootCommand() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:   "deskctl",
		Short: "Operate the accounting desk service",
		Long: `deskctl inspects the entity directory and manages background jobs
of the accounting desk service.

Example:
  deskctl context b1
  deskctl jobs trigger entities:refresh
  deskctl jobs stats`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			level := slog.LevelInfo
			if opts.debug {
				level = slog.LevelDebug
			}
			opts.logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&opts.redisAddr, "redis", envOr("REDIS_ADDR", "127.0.0.1:6379"), "redis address used by the job queue")
	flags.StringVar(&opts.backendURL, "backend", os.Getenv("BACKEND_BASE_URL"), "remote API base url")
	flags.StringVar(&opts.token, "token", os.Getenv("BACKEND_TOKEN"), "bearer token for the remote API")
	flags.BoolVar(&opts.debug, "debug", false, "enable debug logging")

	root.AddCommand(newJobsCommand(opts))
	root.AddCommand(newEntitiesCommand(opts))
	root.AddCommand(newContextCommand(opts))
	return root
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
