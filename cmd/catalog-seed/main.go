package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"rabbit-moon/internal/catalog"
	catalogdb "rabbit-moon/internal/catalog/db"
	"rabbit-moon/internal/config"
	"rabbit-moon/internal/database"
	"rabbit-moon/internal/logger"

	"github.com/joho/godotenv"
)

func main() {
	dir := flag.String("dir", "templates", "directory holding catalog.json and <id>.html files")
	flag.Parse()

	_ = godotenv.Load()

	cfg := config.Load()
	log := logger.New(logger.Options{})
	defer log.Close()

	templates, err := catalog.LoadSeed(os.DirFS(*dir))
	if err != nil {
		log.Fatal("SEED", err.Error())
	}

	ctx := context.Background()
	bunDB, err := database.Connect(ctx, cfg.Database, log)
	if err != nil {
		log.Fatal("SEED", err.Error())
	}
	defer bunDB.Close()

	if cfg.Database.Driver == "sqlite" {
		if err := database.CreateSchema(ctx, bunDB); err != nil {
			log.Fatal("SEED", err.Error())
		}
	}

	res, err := catalog.Seed(ctx, &catalogdb.DB{Bun: bunDB}, templates)
	if err != nil {
		log.Fatal("SEED", err.Error())
	}
	log.Info("SEED", fmt.Sprintf("Catalog seeded from %s: %d created, %d updated", *dir, res.Created, res.Updated))
}
