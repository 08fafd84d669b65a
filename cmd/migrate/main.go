package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/fuelshift/fuelshift-backend/pkg/config"
	"github.com/fuelshift/fuelshift-backend/pkg/database"
	"github.com/fuelshift/fuelshift-backend/pkg/logger"
)

func main() {
	cfg, err := config.LoadWithValidation("migrate")
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.New("migrate", cfg.Server.Environment)

	db, err := database.New(&cfg.Database, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	applied, err := db.Migrate(ctx)
	if err != nil {
		log.Error().Err(err).Msg("migration failed")
		db.Close()
		os.Exit(1)
	}

	if len(applied) == 0 {
		log.Info().Msg("schema is up to date")
		return
	}
	log.Info().Strs("versions", applied).Msg("migrations applied")
}
