// internal/db/db.go
package db

import (
    "database/sql"
    "time"

    _ "github.com/lib/pq"
    "github.com/pkg/errors"
)

// Open connects to postgres and verifies the connection.
func Open(dsn string) (*sql.DB, error) {
    conn, err := sql.Open("postgres", dsn)
    if err != nil {
        return nil, errors.Wrap(err, "failed to open DB")
    }

    conn.SetMaxOpenConns(20)
    conn.SetMaxIdleConns(5)
    conn.SetConnMaxLifetime(time.Hour)

    if err = conn.Ping(); err != nil {
        return nil, errors.Wrap(err, "failed to ping DB")
    }

    return conn, nil
}
