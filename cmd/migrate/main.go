package main

import (
	"errors"
	"fmt"
	"log"
	"net"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/mysql"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	"github.com/joho/godotenv"

	"github.com/iliyamo/trip-reservation/internal/config"
)

// Migration runner for the booking schema.  Usage:
//
//	migrate up      apply all pending migrations
//	migrate down    roll back one migration
//	migrate drop    roll back everything
func main() {
	_ = godotenv.Load()

	if len(os.Args) < 2 {
		log.Fatal("migration direction (up/down/drop) is required")
	}

	cfg := config.Load()
	mig, err := open(cfg)
	if err != nil {
		log.Fatal(err)
	}
	defer mig.Close()

	switch os.Args[1] {
	case "up":
		err = mig.Up()
	case "down":
		err = mig.Steps(-1)
	case "drop":
		err = mig.Down()
	default:
		log.Fatal("invalid direction, use 'up', 'down' or 'drop'")
	}
	if err != nil && !errors.Is(err, migrate.ErrNoChange) {
		log.Fatal(err)
	}
	log.Printf("migrations %s: done", os.Args[1])
}

func open(cfg config.Config) (*migrate.Migrate, error) {
	dsn := fmt.Sprintf("mysql://%s:%s@tcp(%s)/%s?multiStatements=true",
		cfg.DBUser, cfg.DBPass,
		net.JoinHostPort(cfg.DBHost, cfg.DBPort),
		cfg.DBName,
	)
	mig, err := migrate.New("file://migrations", dsn)
	if err != nil {
		return nil, fmt.Errorf("create migrate instance: %w", err)
	}
	return mig, nil
}
