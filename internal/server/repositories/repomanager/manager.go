package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/scholarstream/internal/dbx"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/applications"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/payments"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/scholarships"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	SchemaVersion(context.Context, *sql.DB) (int64, error)
	Users(db dbx.DBTX) users.Repository
	Scholarships(db dbx.DBTX) scholarships.Repository
	Applications(db dbx.DBTX) applications.Repository
	Payments(db dbx.DBTX) payments.Repository
}
