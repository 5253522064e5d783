package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	configx "github.com/tanpawarit/support-dispatch/pkg/config"
	_ "github.com/tanpawarit/support-dispatch/pkg/logger/autoload"
)

var envFile string

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "support-dispatch",
		Short:         "Multi-domain customer support query dispatch engine",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if envFile != "" {
				configx.SetEnvFile(envFile)
			}
		},
	}
	root.PersistentFlags().StringVar(&envFile, "env", "", "env file to load instead of ./.env")

	root.AddCommand(newServeCmd(), newAskCmd(), newSeedCmd(), newPingCmd())
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
