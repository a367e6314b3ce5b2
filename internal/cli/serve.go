// Package cli holds the anthroshim subcommands.
package cli

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/boozegar/anthroshim/internal/config"
	"github.com/boozegar/anthroshim/internal/obs"
	"github.com/boozegar/anthroshim/internal/server"
)

// NewServeCommand returns the serve subcommand running the HTTP proxy.
func NewServeCommand(version string) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the Anthropic-to-OpenAI proxy server",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadDotenv()
			obs.InitLogging()

			watcher, err := config.WatchModelMap()
			if err != nil {
				logrus.Warnf("model map watcher disabled: %v", err)
			} else {
				defer watcher.Stop()
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv := server.NewServer(
				server.WithHost(host),
				server.WithPort(port),
				server.WithVersion(version),
			)
			return srv.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "", "listen host (default: all interfaces)")
	cmd.Flags().IntVar(&port, "port", 8787, "listen port")
	return cmd
}
