package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/afrovod/afrovod/pkg/auth"
)

func main() {
	fmt.Println("adding operator member into database...")

	err := godotenv.Load()
	if err != nil {
		log.Println("warning: .env file not found, use system environment variables.")
	}

	DSN := os.Getenv("DB_DSN")
	OPERATOR_USERNAME := os.Getenv("OPERATOR_USERNAME")
	OPERATOR_EMAIL := os.Getenv("OPERATOR_EMAIL")
	OPERATOR_PASSWORD := os.Getenv("OPERATOR_PASSWORD")
	OPERATOR_SITE_ID := os.Getenv("OPERATOR_SITE_ID")

	hash, err := auth.HashPassword(OPERATOR_PASSWORD)
	if err != nil {
		log.Fatalf("cannot hash password: %v", err)
	}

	pool, err := pgxpool.New(context.Background(), DSN)
	if err != nil {
		log.Fatalf("cannot connect DB: %v", err)
	}
	defer pool.Close()

	query := `
		INSERT INTO members (id, email, username, password_hash, operator_site_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (username) DO UPDATE SET password_hash = $4, operator_site_id = $5
	`
	_, err = pool.Exec(context.Background(), query, uuid.New(), OPERATOR_EMAIL, OPERATOR_USERNAME, hash, OPERATOR_SITE_ID)
	if err != nil {
		log.Fatalf("cannot add member: %v", err)
	}

	fmt.Printf("added or updated operator '%s' successfully!\n", OPERATOR_USERNAME)
}
