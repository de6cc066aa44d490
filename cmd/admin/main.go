package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"civiceye/backend/internal/auth"
	"civiceye/backend/internal/complaint"
	"civiceye/backend/internal/config"
	"civiceye/backend/internal/events"
	"civiceye/backend/internal/logger"
	"civiceye/backend/internal/models"
	"civiceye/backend/internal/rewards"
	"civiceye/backend/internal/storage"
	"civiceye/backend/internal/telegram"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// operator is the identity used for every change made from the CLI.
var operator = auth.Principal{UserID: "admin-cli", Role: models.RoleAdmin}

func main() {
	_ = godotenv.Load()

	log, err := logger.New(os.Getenv("LOG_LEVEL"), "development")
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	dbCfg := config.DatabaseConfig{
		Host:     os.Getenv("DB_HOST"),
		Port:     envOr("DB_PORT", "5432"),
		User:     os.Getenv("DB_USER"),
		Password: os.Getenv("DB_PASSWORD"),
		Name:     os.Getenv("DB_NAME"),
		SSLMode:  envOr("DB_SSLMODE", "disable"),
	}
	db, err := gorm.Open(postgres.Open(dbCfg.DSN()), &gorm.Config{TranslateError: true})
	if err != nil {
		log.Fatal("failed to connect database", zap.Error(err))
	}

	storageSvc := storage.NewStorageService(db, nil, log) // No redis needed for admin CLI
	ctx := context.Background()

	command := os.Args[1]

	switch command {
	case "migrate":
		if err := storageSvc.Migrate(); err != nil {
			log.Fatal("Error running migrations", zap.Error(err))
		}
		fmt.Println("Schema is up to date.")
	case "seed-categories":
		added, err := seedCategories(ctx, storageSvc)
		if err != nil {
			log.Fatal("Error seeding categories", zap.Error(err))
		}
		fmt.Printf("%d categories added.\n", added)
	case "set-role":
		if len(os.Args) != 4 {
			fmt.Println("Usage: admin set-role <email> <citizen|authority|admin>")
			os.Exit(1)
		}
		role := models.Role(os.Args[3])
		if !role.Valid() {
			fmt.Println("Invalid role. Use citizen, authority or admin.")
			os.Exit(1)
		}
		if err := setRole(ctx, storageSvc, os.Args[2], role); err != nil {
			log.Fatal("Error changing role", zap.Error(err))
		}
		fmt.Printf("%s is now %s.\n", os.Args[2], role)
	case "set-status":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin set-status <tracking_id> <status> [resolution]")
			os.Exit(1)
		}
		var resolution *string
		if len(os.Args) > 4 {
			r := strings.Join(os.Args[4:], " ")
			resolution = &r
		}
		svc := complaintService(storageSvc, log)
		c, err := svc.UpdateStatus(ctx, operator, strings.ToUpper(os.Args[2]), models.Status(os.Args[3]), resolution)
		if err != nil {
			log.Fatal("Error updating status", zap.Error(err))
		}
		svc.Wait()
		fmt.Printf("Complaint %s is now %s.\n", c.TrackingID, c.Status)
	case "assign":
		if len(os.Args) < 4 {
			fmt.Println("Usage: admin assign <tracking_id> <worker name>")
			os.Exit(1)
		}
		worker := strings.Join(os.Args[3:], " ")
		c, err := complaintService(storageSvc, log).Assign(ctx, operator, strings.ToUpper(os.Args[2]), worker)
		if err != nil {
			log.Fatal("Error assigning complaint", zap.Error(err))
		}
		fmt.Printf("Complaint %s assigned to %s.\n", c.TrackingID, worker)
	default:
		fmt.Println("Unknown command")
		usage()
		os.Exit(1)
	}
}

func usage() {
	fmt.Println("Usage: admin <command> [args]")
	fmt.Println("Commands: migrate, seed-categories, set-role, set-status, assign")
}

// complaintService builds a workflow service without analysis, evidence
// storage or outbound notifications.
func complaintService(s storage.Storage, log *zap.Logger) *complaint.Service {
	return complaint.NewService(complaint.Deps{
		Storage:   s,
		Publisher: events.Nop{},
		Notifier:  telegram.Nop{},
		Ledger:    rewards.NewLedger(s, log),
		Logger:    log,
	})
}

func seedCategories(ctx context.Context, s storage.Storage) (int, error) {
	added := 0
	for _, def := range models.DefaultCategories {
		_, err := s.GetCategory(ctx, def.Slug)
		if err == nil {
			continue
		}
		if !errors.Is(err, storage.ErrNotFound) {
			return added, err
		}
		c := def
		if err := s.SaveCategory(ctx, &c); err != nil {
			return added, fmt.Errorf("category %s: %w", def.Slug, err)
		}
		added++
	}
	return added, nil
}

func setRole(ctx context.Context, s storage.Storage, email string, role models.Role) error {
	p, err := s.GetProfileByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		return err
	}
	return s.UpdateUserRole(ctx, p.ID, role)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
