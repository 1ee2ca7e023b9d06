package repomanager

import (
	"context"
	"database/sql"

	"github.com/suraj-driod/swa-antarang/internal/dbx"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/profiles"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/refreshtokens"
	"github.com/suraj-driod/swa-antarang/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a *sql.DB or *sql.Tx so
// services can compose them inside one transaction.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Profiles(db dbx.DBTX) profiles.Repository
}
