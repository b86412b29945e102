package cli

import (
	"quiz-hub/internal/config"
	"quiz-hub/internal/infra/memory"
	"quiz-hub/internal/infra/postgres"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// NewSeedCmd loads a YAML content pack into Postgres.
func NewSeedCmd(log *zap.Logger, configPath *string) *cobra.Command {
	var packPath string
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert a YAML content pack into Postgres",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(*configPath)
			if err != nil {
				return err
			}
			if packPath == "" {
				packPath = cfg.Content.Path
			}
			pack, err := memory.ReadContentPack(packPath)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if err := runMigrations(ctx, log, cfg); err != nil {
				return err
			}
			db, err := openBunDB(cfg)
			if err != nil {
				return err
			}
			defer db.Close()

			stats, err := postgres.Seed(ctx, db, pack)
			if err != nil {
				return err
			}
			log.Info("content seeded",
				zap.String("pack", packPath),
				zap.Int("questions", stats.Questions),
				zap.Int("venues", stats.Venues),
				zap.Int("levels", stats.Levels),
				zap.Int("challenges", stats.Challenges),
			)
			return nil
		},
	}
	cmd.Flags().StringVar(&packPath, "pack", "", "content pack path (defaults to content.path)")
	return cmd
}
