package main

import (
	"context"
	"flag"
	"os"

	"same-inventory/internal/config"
	"same-inventory/internal/repository"
	"same-inventory/pkg/database"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Operator tool: sets a user's password directly in the database and signs
// out every session of that user.
func main() {
	email := flag.String("email", "", "account e-mail")
	password := flag.String("password", "", "new password (min 6 characters)")
	flag.Parse()

	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	if *email == "" || len(*password) < 6 {
		flag.Usage()
		os.Exit(2)
	}

	// 1. Load Env
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on system env")
	}
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("load config")
	}

	// 2. Setup Database
	db, err := database.Connect(cfg.DBDriver, cfg.DatabaseURL, false)
	if err != nil {
		log.Fatal().Err(err).Msg("connect database")
	}

	// 3. Find user
	ctx := context.Background()
	users := repository.NewUserRepo(db)
	user, err := users.FindByEmail(ctx, *email)
	if err != nil {
		log.Fatal().Err(err).Str("email", *email).Msg("user not found")
	}

	// 4. Hash and store, rotating the token version
	if err := user.SetPassword(*password); err != nil {
		log.Fatal().Err(err).Msg("hash password")
	}
	if err := users.UpdatePassword(ctx, user.ID, user.Password, uuid.NewString()); err != nil {
		log.Fatal().Err(err).Msg("update password")
	}

	log.Info().Str("email", user.Email).Msg("password reset, existing sessions signed out")
}
