package store

import (
	"database/sql"
	"log"

	assets "github.com/haatos/simple-qa"
	"github.com/haatos/simple-qa/internal"
	"github.com/pressly/goose/v3"
)

func RunMigrations(db *sql.DB, dialect string) {
	goose.SetBaseFS(assets.MigrationsFS)
	if err := goose.SetDialect(dialect); err != nil {
		log.Fatal(err)
	}
	if err := goose.Up(db, internal.MigrationsDir); err != nil {
		log.Fatal(err)
	}
}
