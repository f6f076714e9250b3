// Command fix-db forces the migration version table back to a clean state
// after a failed migration left it marked dirty, so the server can start
// normally on its next run.
package main

import (
	"database/sql"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"
)

func main() {
	version := flag.Int("version", 0, "migration version to force")
	flag.Parse()
	if *version <= 0 {
		log.Fatal("-version must be a positive migration number (the last known-good version)")
	}

	password := os.Getenv("DATABASE_PASSWORD")
	if password == "" {
		log.Fatal("DATABASE_PASSWORD environment variable is required")
	}
	host := envOr("DATABASE_HOST", "localhost")
	port := envOr("DATABASE_PORT", "5432")
	user := envOr("DATABASE_USER", "postgres")
	dbName := envOr("DATABASE_DBNAME", "quiz_generator")
	sslMode := envOr("DATABASE_SSLMODE", "disable")

	connStr := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s", host, port, user, password, dbName, sslMode)

	db, err := sql.Open("postgres", connStr)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		log.Fatal(err)
	}

	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		log.Fatal(err)
	}

	m, err := migrate.NewWithDatabaseInstance(
		"file://migrations",
		"postgres",
		driver,
	)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Printf("forcing migration version to %d to clean dirty state...\n", *version)
	if err := m.Force(*version); err != nil {
		log.Fatalf("failed to force version: %v", err)
	}

	fmt.Println("dirty state cleaned, the server can now run migrations normally")
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
