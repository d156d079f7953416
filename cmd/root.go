package cmd

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/config"
	"github.com/shopscript/apiserver/internal/logger"
	"github.com/spf13/cobra"
)

// rootCmd represents the base command when called without any subcommands.
var rootCmd = &cobra.Command{
	Use:           "shopscript",
	Short:         "shopscript storefront backend",
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and runs it.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		log := newLogger(config.LoadConfig())
		log.Error().Err(err).Msg("command failed")
		os.Exit(1)
	}
}

func newLogger(cfg config.Config) zerolog.Logger {
	return logger.New(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "dev",
		Output: os.Stderr,
	})
}
