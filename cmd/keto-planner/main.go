package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"time"

	"keto-planner/internal/config"
	"keto-planner/internal/database"
	"keto-planner/internal/logger"
	"keto-planner/internal/metrics"
	"keto-planner/internal/planner"
	"keto-planner/internal/session"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	if err := config.LoadDotEnv(); err != nil {
		log.Fatalf("Failed to load .env: %v", err)
	}

	ctx := context.Background()

	switch os.Args[1] {
	case "normalize":
		normalizeCmd := flag.NewFlagSet("normalize", flag.ExitOnError)
		threshold := normalizeCmd.Int("threshold", planner.DefaultOverflowThreshold, "Unmatched bytes above which the raw text is kept")
		normalizeCmd.Parse(os.Args[2:])
		if normalizeCmd.NArg() != 1 {
			fmt.Println("Usage: keto-planner normalize [-threshold N] <file|->")
			os.Exit(1)
		}
		if err := normalizeFile(normalizeCmd.Arg(0), *threshold, os.Stdout); err != nil {
			log.Fatalf("Normalize failed: %v", err)
		}
	case "sessions-cleanup":
		cleanupCmd := flag.NewFlagSet("sessions-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 7, "Remove session entries not updated in the last N days")
		cleanupCmd.Parse(os.Args[2:])

		db, logs := openDB()
		defer db.Close()

		affected, err := session.NewStore(db.SQL).CleanupOlderThan(ctx, time.Duration(*days)*24*time.Hour)
		if err != nil {
			logs.Fatal("Session cleanup failed", "error", err)
		}
		fmt.Printf("Successfully removed %d old session entries.\n", affected)
	case "metrics-cleanup":
		cleanupCmd := flag.NewFlagSet("metrics-cleanup", flag.ExitOnError)
		days := cleanupCmd.Int("days", 30, "Keep records for the last N days")
		cleanupCmd.Parse(os.Args[2:])

		db, logs := openDB()
		defer db.Close()

		affected, err := metrics.NewStore(db.SQL).Cleanup(ctx, *days)
		if err != nil {
			logs.Fatal("Cleanup failed", "error", err)
		}
		fmt.Printf("Successfully removed %d old metric records.\n", affected)
	case "migrate":
		cfg, logs := loadConfig()
		if err := database.RunMigrations(cfg.DatabasePath, logs); err != nil {
			logs.Fatal("Migration failed", "error", err)
		}
		fmt.Println("Database is up to date.")
	default:
		fmt.Printf("Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func loadConfig() (*config.Config, *logger.Logger) {
	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	logs, err := logger.New(cfg.Env)
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	return cfg, logs
}

func openDB() (*database.DB, *logger.Logger) {
	cfg, logs := loadConfig()
	db, err := database.NewDB(cfg.DatabasePath, logs)
	if err != nil {
		logs.Fatal("Failed to initialize database", "error", err)
	}
	return db, logs
}

// normalizeFile prints the normalized Result of a saved response as JSON.
// A path of "-" reads stdin.
func normalizeFile(path string, threshold int, w io.Writer) error {
	var data []byte
	var err error
	if path == "-" {
		data, err = io.ReadAll(os.Stdin)
	} else {
		data, err = os.ReadFile(path)
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	res := planner.NewNormalizer(planner.WithOverflowThreshold(threshold)).Normalize(string(data))
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(res)
}

func printUsage() {
	fmt.Println("Usage: keto-planner <command> [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  normalize          Normalize a saved plan response and print the result as JSON")
	fmt.Println("  sessions-cleanup   Remove stale session entries")
	fmt.Println("  metrics-cleanup    Remove old metric records")
	fmt.Println("  migrate            Apply database migrations")
}
