package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/stocksense/backend/internal/infrastructure/config"
	"github.com/stocksense/backend/internal/infrastructure/datagen"
	"github.com/stocksense/backend/internal/infrastructure/logger"
	"github.com/stocksense/backend/internal/infrastructure/persistence"
)

func main() {
	var (
		productCount int
		historyDays  int
		seed         int64
		logLevel     string
	)

	flag.IntVar(&productCount, "products", 1000, "Number of products to generate")
	flag.IntVar(&historyDays, "days", 365, "Days of demand history to generate")
	flag.Int64Var(&seed, "seed", 42, "Random seed for reproducible datasets")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	log, err := logger.New(&logger.Config{
		Level:      logLevel,
		Format:     "console",
		Output:     "stdout",
		TimeFormat: "2006-01-02 15:04:05",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load configuration", zap.Error(err))
	}

	db, err := persistence.NewDatabase(&cfg.Database)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	genConfig := datagen.DefaultConfig()
	genConfig.ProductCount = productCount
	genConfig.HistoryDays = historyDays
	genConfig.Seed = seed

	generator := datagen.NewGenerator(genConfig, datagen.WithLogger(log))

	ctx := context.Background()
	start := time.Now()

	products, err := generator.Products()
	if err != nil {
		log.Fatal("Failed to generate products", zap.Error(err))
	}

	records, err := generator.DemandHistory(products)
	if err != nil {
		log.Fatal("Failed to generate demand history", zap.Error(err))
	}

	levels, err := generator.InventorySnapshot(products)
	if err != nil {
		log.Fatal("Failed to generate inventory snapshot", zap.Error(err))
	}

	productRepo := persistence.NewGormProductRepository(db.DB)
	demandRepo := persistence.NewGormDemandRepository(db.DB)
	inventoryRepo := persistence.NewGormInventoryRepository(db.DB)

	if err := productRepo.SaveBatch(ctx, products); err != nil {
		log.Fatal("Failed to persist products", zap.Error(err))
	}
	if err := demandRepo.SaveBatch(ctx, records); err != nil {
		log.Fatal("Failed to persist demand history", zap.Error(err))
	}
	if err := inventoryRepo.SaveBatch(ctx, levels); err != nil {
		log.Fatal("Failed to persist inventory levels", zap.Error(err))
	}

	log.Info("Seed completed",
		zap.Int("products", len(products)),
		zap.Int("demand_records", len(records)),
		zap.Int("inventory_levels", len(levels)),
		zap.Duration("elapsed", time.Since(start)),
	)
}
