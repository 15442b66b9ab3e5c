package cli

import (
	"github.com/spf13/cobra"

	"github.com/yungbote/sololev-backend/internal/app"
)

func newMigrateCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply database migrations and exit",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			cfg, log, err := loadConfigAndLogger(opts)
			if err != nil {
				return err
			}
			defer log.Sync()

			conn, err := app.OpenDB(cfg, log)
			if err != nil {
				return err
			}
			if sqlDB, err := conn.DB(); err == nil {
				_ = sqlDB.Close()
			}
			log.Info("Migrations applied", "driver", cfg.Database.Driver)
			return nil
		},
	}
}
