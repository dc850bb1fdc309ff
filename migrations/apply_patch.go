// Command apply_patch executes a single SQL file against DATABASE_URL
// outside the versioned migration history, for one-off data fixes.
//
//	go run ./migrations/apply_patch.go -file migrations/patches/fix.sql
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	file := flag.String("file", "", "SQL file to execute")
	flag.Parse()
	if *file == "" {
		fmt.Println("Usage: apply_patch -file <path.sql>")
		os.Exit(2)
	}

	dbURL := os.Getenv("DATABASE_URL")
	ctx := context.Background()
	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		fmt.Printf("Failed to connect to DB: %v\n", err)
		os.Exit(1)
	}
	defer pool.Close()

	sqlFile, err := os.ReadFile(*file)
	if err != nil {
		fmt.Printf("Failed to read sql file: %v\n", err)
		os.Exit(1)
	}

	tag, err := pool.Exec(ctx, string(sqlFile))
	if err != nil {
		fmt.Printf("Patch failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Patch applied: %s\n", tag.String())
}
