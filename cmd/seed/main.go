// Command seed fills the database with the starter catalog and fake players,
// games and reactions.
package main

import (
	"flag"
	"log"

	"playhub/internal/config"
	"playhub/internal/database"
	"playhub/internal/seed"
)

func main() {
	catalogPath := flag.String("catalog", "", "YAML catalog to apply (defaults to the embedded catalog)")
	skipCatalog := flag.Bool("no-catalog", false, "Skip the catalog and only generate fake data")
	games := flag.Int("games", 40, "Number of fake games to create")
	players := flag.Int("players", 100, "Number of fake players to create")
	perPlayer := flag.Int("reactions", 10, "Reactions per fake player")
	likeRatio := flag.Float64("like-ratio", 0.75, "Share of generated reactions that are likes")
	clean := flag.Bool("clean", false, "Delete existing content before seeding")
	fast := flag.Bool("fast", false, "Store player passwords unhashed (local development only)")
	dryRun := flag.Bool("dry-run", false, "Generate data without writing to the database")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if *fast && cfg.IsProduction() {
		log.Fatal("-fast is not allowed in production")
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}

	if *clean && !*dryRun {
		if err := seed.ClearAll(db); err != nil {
			log.Fatalf("❌ Cleanup failed: %v", err)
		}
		log.Println("Existing content removed")
	}

	if !*skipCatalog && !*dryRun {
		catalog, err := loadCatalog(*catalogPath)
		if err != nil {
			log.Fatalf("❌ Catalog load failed: %v", err)
		}
		if err := seed.ApplyCatalog(db, catalog); err != nil {
			log.Fatalf("❌ Catalog seeding failed: %v", err)
		}
		log.Printf("Catalog applied: %d categories, %d games, %d pages",
			len(catalog.Categories), len(catalog.Games), len(catalog.Pages))
	}

	factory := seed.NewFactory(db, seed.Options{
		Games:              *games,
		Players:            *players,
		ReactionsPerPlayer: *perPlayer,
		LikeRatio:          *likeRatio,
		SkipBcrypt:         *fast,
		DryRun:             *dryRun,
	})
	if err := factory.Run(); err != nil {
		log.Fatalf("❌ Seeding failed: %v", err)
	}

	log.Println("✨ All done!")
	log.Printf("📧 All generated players have the password: %s", seed.DefaultPassword)
}

func loadCatalog(path string) (*seed.Catalog, error) {
	if path == "" {
		return seed.DefaultCatalog()
	}
	return seed.LoadCatalogFile(path)
}
