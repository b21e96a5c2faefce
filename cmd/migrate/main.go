// Command migrate applies, inspects and rolls back the database schema.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"strconv"
	"strings"

	"playhub/internal/config"
	"playhub/internal/database"

	"gorm.io/gorm"
)

const usageText = "usage: go run ./cmd/migrate <up|auto|status|down> [version]"

func main() {
	flag.Parse()
	if flag.NArg() < 1 {
		log.Fatal(usageText)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}

	db, err := database.ConnectWithOptions(cfg, database.ConnectOptions{ApplySchema: false})
	if err != nil {
		log.Fatalf("connect database: %v", err)
	}

	if err := run(context.Background(), db, cfg, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, db *gorm.DB, cfg *config.Config, args []string) error {
	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "up":
		if err := database.RunMigrations(ctx, db); err != nil {
			return fmt.Errorf("sql migrations failed: %w", err)
		}
		log.Println("sql migrations applied")
	case "auto":
		cfg.DBSchemaMode = database.SchemaModeAuto
		if err := database.ApplySchema(ctx, db, cfg); err != nil {
			return fmt.Errorf("auto schema apply failed: %w", err)
		}
		log.Println("automigrate applied")
	case "status":
		return printStatus(ctx, db, cfg)
	case "down":
		if len(args) < 2 {
			return fmt.Errorf("usage: go run ./cmd/migrate down <version>")
		}
		version, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("invalid version %q: %w", args[1], err)
		}
		if err := database.RollbackMigration(ctx, db, version); err != nil {
			return fmt.Errorf("rollback failed: %w", err)
		}
		log.Printf("rolled back migration %06d", version)
	default:
		return fmt.Errorf("unknown command %q; %s", args[0], usageText)
	}
	return nil
}

func printStatus(ctx context.Context, db *gorm.DB, cfg *config.Config) error {
	status, err := database.GetSchemaStatus(ctx, db, cfg)
	if err != nil {
		return fmt.Errorf("schema status failed: %w", err)
	}
	log.Printf("driver=%s mode=%s env=%s run_sql=%t run_auto=%t",
		cfg.DBDriver, status.Mode, status.Environment, status.WillRunSQL, status.WillRunAutoMigrate)
	if !status.WillRunSQL {
		return nil
	}
	log.Printf("applied=%d pending=%d", len(status.AppliedVersions), len(status.PendingMigrations))
	for _, m := range status.PendingMigrations {
		log.Printf("pending: %s", m.String())
	}
	return nil
}
