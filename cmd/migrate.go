package cmd

import (
	"context"
	"fmt"
	"time"

	"tourbooking/config"
	"tourbooking/database"
	reservationRepo "tourbooking/database/repository/reservation"
	"tourbooking/utils"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create tables or indexes for the configured store",
		RunE: func(cmd *cobra.Command, args []string) error {
			config.LoadConfig()
			cfg := config.AppConfig
			logger := utils.GetLogger()

			ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
			defer cancel()

			switch cfg.StoreDriver {
			case storePostgres:
				pool, err := database.OpenPostgres(ctx, cfg.PostgresURL)
				if err != nil {
					return err
				}
				defer pool.Close()
				if err := reservationRepo.Migrate(ctx, pool); err != nil {
					return err
				}
			case storeMongo:
				client, err := database.ConnectMongo(ctx, cfg.DatabaseURL)
				if err != nil {
					return err
				}
				defer func() { _ = client.Disconnect(context.Background()) }()
				if err := reservationRepo.NewMongoStore(client, cfg.MongoDatabase, cfg.StorageTimeout).EnsureIndexes(); err != nil {
					return err
				}
			case storeMemory, "":
				logger.Info("memory store needs no migration")
				return nil
			default:
				return fmt.Errorf("unknown STORE_DRIVER %q", cfg.StoreDriver)
			}
			logger.Info("migration complete", zap.String("driver", cfg.StoreDriver))
			return nil
		},
	}
}
