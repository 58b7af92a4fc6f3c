// Package main seeds the first user so someone can log in.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/leadtrackapp/leadtrack-server/internal/logger"
	"github.com/leadtrackapp/leadtrack-server/internal/ratelimit"
	"github.com/leadtrackapp/leadtrack-server/internal/service"
	"github.com/leadtrackapp/leadtrack-server/internal/store"
)

func main() {
	driver := flag.String("db-driver", "sqlite", "Database driver (sqlite or postgres)")
	dbPath := flag.String("db-path", "leadtrack.db", "Path to sqlite database file")
	dbDSN := flag.String("db-dsn", "", "Postgres connection string")
	username := flag.String("username", "", "Username for the new user")
	email := flag.String("email", "", "Email address for lead notifications (optional)")
	password := flag.String("password", "", "Password for the new user")
	flag.Parse()

	if *username == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: seed -username NAME -password PASS [-email ADDR]")
		os.Exit(1)
	}

	log := logger.New(logger.Config{Format: "pretty", Level: slog.LevelInfo})

	dsn := *dbPath
	if *driver == store.DriverPostgres {
		dsn = *dbDSN
	}

	s, err := store.Open(*driver, dsn, log.Logger)
	if err != nil {
		log.Fatal("Failed to open database", "error", err)
	}
	defer s.Close()

	authService := service.NewAuthService(s, ratelimit.New(1, 1), time.Hour, log.Logger)

	user, err := authService.CreateUser(context.Background(), *username, *email, *password)
	if err != nil {
		log.Fatal("Failed to create user", "error", err)
	}

	log.Info("User created", "user_id", user.ID, "username", user.Username)
}
