package accounts

import (
	"context"
	"database/sql"
	"io/fs"
	"sort"
	"strings"

	goerrors "github.com/goliatone/go-errors"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/pgdriver"
	"github.com/uptrace/bun/driver/sqliteshim"
)

// OpenDB opens a Bun handle for the given DSN. Postgres DSNs use the
// native pgdriver; anything else is treated as a sqlite path, which
// keeps local development and the test suite dependency free.
func OpenDB(dsn string) (*bun.DB, error) {
	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		sqldb := sql.OpenDB(pgdriver.NewConnector(pgdriver.WithDSN(dsn)))
		return bun.NewDB(sqldb, pgdialect.New()), nil
	}

	sqldb, err := sql.Open(sqliteshim.ShimName, dsn)
	if err != nil {
		return nil, goerrors.Wrap(err, goerrors.CategoryInternal, "failed to open sqlite database")
	}

	return bun.NewDB(sqldb, sqlitedialect.New()), nil
}

// Migrate applies the embedded SQL migrations in lexical order. Every
// migration file holds a single idempotent statement, so re-running at
// startup is safe.
func Migrate(ctx context.Context, db *bun.DB) error {
	root := "data/sql/migrations"

	entries, err := fs.ReadDir(GetMigrationsFS(), root)
	if err != nil {
		return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read embedded migrations")
	}

	names := make([]string, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		stmt, err := fs.ReadFile(GetMigrationsFS(), root+"/"+name)
		if err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to read migration "+name)
		}

		if _, err := db.ExecContext(ctx, string(stmt)); err != nil {
			return goerrors.Wrap(err, goerrors.CategoryInternal, "failed to apply migration "+name)
		}
	}

	return nil
}
