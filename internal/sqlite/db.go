package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sort"
	"strconv"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/rpggio/pdmvault/migrations"
)

const memoryPath = ":memory:"

// DB wraps a SQLite database connection
type DB struct {
	*sql.DB
}

// New opens the catalog at path. Writers serialize on one connection and
// every transaction starts IMMEDIATE, so read-then-write sequences such as
// counter allocation cannot interleave.
func New(path string) (*DB, error) {
	db, err := sql.Open("sqlite", dsn(path))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return &DB{db}, nil
}

// Open is New followed by RunMigrations.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := New(path)
	if err != nil {
		return nil, err
	}
	if err := db.RunMigrations(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return db, nil
}

func dsn(path string) string {
	params := []string{
		"_pragma=foreign_keys(1)",
		"_pragma=busy_timeout(5000)",
		"_txlock=immediate",
	}
	if path != memoryPath {
		params = append(params, "_pragma=journal_mode(WAL)", "_pragma=synchronous(NORMAL)")
	}
	return path + "?" + strings.Join(params, "&")
}

type migration struct {
	version int
	name    string
}

func listMigrations(fsys fs.FS) ([]migration, error) {
	names, err := fs.Glob(fsys, "*.up.sql")
	if err != nil {
		return nil, err
	}
	var out []migration
	for _, name := range names {
		prefix, _, ok := strings.Cut(name, "_")
		if !ok {
			return nil, fmt.Errorf("migration %s: missing version prefix", name)
		}
		v, err := strconv.Atoi(prefix)
		if err != nil {
			return nil, fmt.Errorf("migration %s: %w", name, err)
		}
		out = append(out, migration{version: v, name: name})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].version < out[j].version })
	return out, nil
}

// RunMigrations applies the embedded migrations newer than PRAGMA
// user_version, each in its own transaction.
func (db *DB) RunMigrations(ctx context.Context) error {
	var current int
	if err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&current); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	list, err := listMigrations(migrations.FS)
	if err != nil {
		return fmt.Errorf("failed to list migrations: %w", err)
	}
	for _, m := range list {
		if m.version <= current {
			continue
		}
		body, err := fs.ReadFile(migrations.FS, m.name)
		if err != nil {
			return fmt.Errorf("failed to read migration %s: %w", m.name, err)
		}
		err = db.withTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, string(body)); err != nil {
				return err
			}
			_, err := tx.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", m.version))
			return err
		})
		if err != nil {
			return fmt.Errorf("failed to run migration %s: %w", m.name, err)
		}
	}
	return nil
}

// SchemaVersion returns PRAGMA user_version.
func (db *DB) SchemaVersion(ctx context.Context) (int, error) {
	var v int
	err := db.QueryRowContext(ctx, "PRAGMA user_version").Scan(&v)
	return v, err
}

// Tick returns the catalog change counter.
func (db *DB) Tick(ctx context.Context) (int64, error) {
	var tick int64
	if err := db.QueryRowContext(ctx, "SELECT tick FROM catalog_state WHERE id = 1").Scan(&tick); err != nil {
		return 0, fmt.Errorf("failed to read tick: %w", err)
	}
	return tick, nil
}

func (db *DB) withTx(ctx context.Context, fn func(tx *sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// bumpTick advances the change counter inside tx and returns the new value.
func bumpTick(ctx context.Context, tx *sql.Tx) (int64, error) {
	var tick int64
	err := tx.QueryRowContext(ctx,
		"UPDATE catalog_state SET tick = tick + 1, modified_at = ? WHERE id = 1 RETURNING tick",
		time.Now().UTC(),
	).Scan(&tick)
	if err != nil {
		return 0, fmt.Errorf("failed to bump tick: %w", err)
	}
	return tick, nil
}

func toMillis(t time.Time) int64 { return t.UnixMilli() }

func fromMillis(ms int64) time.Time { return time.UnixMilli(ms).UTC() }
