package cli

import (
	"os"

	"quiz-hub/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	port       string
	configPath string
)

// Execute runs the CLI.
func Execute() error {
	// a missing .env is fine outside local development
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_ENV"))
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	if err := newRootCmd(log).Execute(); err != nil {
		log.Error("command failed", zap.Error(err))
		return err
	}
	return nil
}

func newRootCmd(log *zap.Logger) *cobra.Command {
	envPort := os.Getenv("PORT")
	envConfig := os.Getenv("CONFIG_PATH")
	if envConfig == "" {
		envConfig = "config/config.yaml"
	}

	cmd := &cobra.Command{
		Use:          "quiz-hub",
		Short:        "Pub quiz progression server over WebSocket",
		SilenceUsage: true,
	}

	cmd.PersistentFlags().StringVar(&port, "port", envPort, "port to listen on (overrides config)")
	cmd.PersistentFlags().StringVar(&configPath, "config", envConfig, "path to YAML config")
	cmd.AddCommand(NewStartCmd(log, &configPath, &port))
	cmd.AddCommand(NewMigrateCmd(log, &configPath))
	cmd.AddCommand(NewSeedCmd(log, &configPath))
	return cmd
}
