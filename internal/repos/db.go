package repos

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log"
	"strings"
	"sync"
	"time"

	_ "github.com/go-sql-driver/mysql"
	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/jmoiron/sqlx"
	"github.com/pressly/goose/v3"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"
)

//go:embed migrations
var migrations embed.FS

// dialects maps a DB_DRIVER value to its database/sql driver name and goose dialect.
var dialects = map[string]struct{ driver, goose, dir string }{
	"sqlite": {"sqlite", "sqlite3", "migrations/sqlite"},
	"mysql":  {"mysql", "mysql", "migrations/mysql"},
	"pgx":    {"pgx", "postgres", "migrations/postgres"},
}

// goose keeps its dialect and base FS in package state.
var migrateMu sync.Mutex

// Seed is the operator created on first start when no account with that email exists.
type Seed struct {
	Email    string
	Name     string
	Password string
}

// OpenDB connects with the given driver ("sqlite", "mysql" or "pgx") and applies pending migrations.
func OpenDB(driver, dsn string) (*sqlx.DB, error) {
	d, ok := dialects[driver]
	if !ok {
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", driver)
	}
	db, err := sqlx.Open(d.driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite" {
		// one connection: in-memory databases are per connection and sqlite serializes writers anyway
		db.SetMaxOpenConns(1)
	}
	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := migrate(db, d.goose, d.dir); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return db, nil
}

func migrate(db *sqlx.DB, dialect, dir string) error {
	migrateMu.Lock()
	defer migrateMu.Unlock()

	sub, err := fs.Sub(migrations, dir)
	if err != nil {
		return err
	}
	goose.SetBaseFS(sub)
	goose.SetLogger(goose.NopLogger())
	if err := goose.SetDialect(dialect); err != nil {
		return err
	}
	return goose.Up(db.DB, ".")
}

// SeedOperator ensures the configured operator exists (idempotent).
func SeedOperator(db *sqlx.DB, s Seed) error {
	if strings.TrimSpace(s.Email) == "" || s.Password == "" {
		return nil
	}
	users := NewUserRepo(db)
	if u, err := users.ByEmail(s.Email); err == nil && u != nil {
		return nil
	}
	h, err := bcrypt.GenerateFromPassword([]byte(s.Password), 12)
	if err != nil {
		return err
	}
	name := s.Name
	if name == "" {
		name = s.Email
	}
	log.Printf("[seed] creating operator %s", s.Email)
	_, err = db.ExecContext(context.Background(), db.Rebind(`
		INSERT INTO users(id,email,name,password_hash,created_at)
		VALUES(?,?,?,?,?)
	`), uuid.NewString(), s.Email, name, string(h), time.Now().UnixNano())
	return err
}
