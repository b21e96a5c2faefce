// Package main provides admin account management for PlayHub.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"

	"playhub/internal/bootstrap"
	"playhub/internal/cache"
	"playhub/internal/config"
	"playhub/internal/database"
	"playhub/internal/models"
	"playhub/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  go run ./cmd/admin create <username> <password>  - Create an admin (no-op if it exists)")
	fmt.Println("  go run ./cmd/admin list                          - List all admins")
	fmt.Println("  go run ./cmd/admin revoke <username>             - End the admin's active session")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	db, err := database.Connect(cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	cache.InitRedis(cfg.RedisURL)

	admins, err := bootstrap.NewAdminService(cfg, db, cache.GetClient())
	if err != nil {
		log.Fatalf("Failed to build admin service: %v", err)
	}

	ctx := context.Background()
	switch os.Args[1] {
	case "create":
		if len(os.Args) < 4 {
			usage()
			os.Exit(1)
		}
		createAdmin(ctx, admins, os.Args[2], os.Args[3])
	case "list":
		listAdmins(ctx, admins)
	case "revoke":
		if len(os.Args) < 3 {
			usage()
			os.Exit(1)
		}
		revokeAdmin(ctx, admins, os.Args[2])
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}

func createAdmin(ctx context.Context, admins *service.AdminService, username, password string) {
	created, err := admins.EnsureAdmin(ctx, service.AdminCredentials{Username: username, Password: password})
	if err != nil {
		log.Fatalf("Failed to create admin: %v", err)
	}
	if !created {
		fmt.Printf("Admin %s already exists\n", username)
		return
	}
	fmt.Printf("✅ Created admin %s\n", username)
}

func listAdmins(ctx context.Context, admins *service.AdminService) {
	list, err := admins.List(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}
	if len(list) == 0 {
		fmt.Println("No admins found")
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tUSERNAME\tSESSION\tCREATED")
	for _, a := range list {
		session := "none"
		if a.CurrentTokenHash != nil {
			session = "active"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", a.ID, a.Username, session, a.CreatedAt.Format("2006-01-02 15:04"))
	}
	_ = w.Flush()
}

func revokeAdmin(ctx context.Context, admins *service.AdminService, username string) {
	list, err := admins.List(ctx)
	if err != nil {
		log.Fatalf("Failed to fetch admins: %v", err)
	}
	for _, a := range list {
		if a.Username != username {
			continue
		}
		if err := admins.Revoke(ctx, a.ID); err != nil {
			if models.IsNotFound(err) {
				break
			}
			log.Fatalf("Failed to revoke session: %v", err)
		}
		fmt.Printf("✅ Revoked the active session of %s\n", username)
		return
	}
	fmt.Printf("Admin %s not found\n", username)
	os.Exit(1)
}
