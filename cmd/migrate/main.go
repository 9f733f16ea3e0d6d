package main

import (
	"context"
	"fmt"
	"os"
	"strconv"

	"rabbit-moon/internal/config"
	"rabbit-moon/internal/database"
	"rabbit-moon/internal/database/migrations"
	"rabbit-moon/internal/logger"

	"github.com/joho/godotenv"
)

const usage = `usage: migrate <command>

commands:
  up         apply all pending migrations
  down       roll back every migration
  version    print the current schema version
  to <n>     migrate up or down to version n`

func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, usage)
		os.Exit(2)
	}

	cfg := config.Load()
	log := logger.New(logger.Options{})
	defer log.Close()

	bunDB, err := database.Connect(context.Background(), cfg.Database, log)
	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}

	runner := migrations.NewRunner(bunDB, migrations.MigrateOptions{Driver: cfg.Database.Driver}, log)
	defer runner.Close()

	switch cmd := os.Args[1]; cmd {
	case "up":
		err = runner.MigrateUp()
	case "down":
		err = runner.MigrateDown()
	case "version":
		var (
			version uint
			dirty   bool
		)
		version, dirty, err = runner.Version()
		if err == nil {
			fmt.Printf("version %d (dirty: %t)\n", version, dirty)
		}
	case "to":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, usage)
			os.Exit(2)
		}
		target, perr := strconv.ParseUint(os.Args[2], 10, 32)
		if perr != nil {
			log.Fatal("MIGRATE", fmt.Sprintf("invalid version %q: %v", os.Args[2], perr))
		}
		err = runner.MigrateTo(uint(target))
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s\n", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		log.Fatal("MIGRATE", err.Error())
	}
	log.Info("MIGRATE", fmt.Sprintf("%s completed", os.Args[1]))
}
