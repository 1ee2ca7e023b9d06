// Package repomanager provides the PostgreSQL RepositoryManager, wiring
// repository constructors and the goose migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/server/migrations"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/profiles"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/refreshtokens"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/users"

	_ "github.com/jackc/pgx/v5/stdlib"
)

const dialect = "pgx"

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Profiles(db dbx.DBTX) profiles.Repository {
	return profiles.NewPostgresRepository(db)
}

// migrate is a seam for tests.
var migrate = dbx.Migrate

// RunMigrations applies the embedded migrations to db.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	return migrate(ctx, db, dialect, migrations.Migrations)
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}

// OpenDB opens a pgx-backed *sql.DB and verifies the connection.
func OpenDB(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}
