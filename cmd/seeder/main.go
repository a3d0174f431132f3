package main

import (
    "fmt"
    "log"
    "os"

    "github.com/joho/godotenv"

    "github.com/callforge/dialer-backend/internal/config"
    "github.com/callforge/dialer-backend/internal/db"
)

func main() {
    if err := godotenv.Load(); err != nil {
        log.Println("no .env file found, relying on OS environment variables")
    }

    cfg, err := config.Load()
    if err != nil {
        log.Fatalf("failed to load config: %v", err)
    }

    conn, err := db.Open(cfg.DSN())
    if err != nil {
        log.Fatal(err)
    }
    defer conn.Close()

    seedFiles := []string{
        "seed/schema.sql",
        "seed/campaigns.sql",
        "seed/targets.sql",
    }

    for _, file := range seedFiles {
        content, err := os.ReadFile(file)
        if err != nil {
            log.Fatalf("failed to read %s: %v", file, err)
        }

        if _, err = conn.Exec(string(content)); err != nil {
            log.Fatalf("failed to execute %s: %v", file, err)
        }
        fmt.Printf("Seeded: %s\n", file)
    }

    fmt.Println("Database seeding completed successfully!")
}
