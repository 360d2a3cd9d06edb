package repomanager

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/applications"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/payments"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/scholarships"
	"github.com/dmitrijs2005/scholarstream/internal/server/repositories/users"
	"github.com/pressly/goose/v3"
)

func newDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	return db, mock
}

func TestNewPostgresRepositoryManager_ReturnsInterface(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m, err := NewPostgresRepositoryManager(db)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	var _ RepositoryManager = m
}

func TestFactories_ReturnConcreteRepos(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	m := &PostgresRepositoryManager{}

	if u := m.Users(db); u == nil {
		t.Fatal("Users() nil")
	}
	if s := m.Scholarships(db); s == nil {
		t.Fatal("Scholarships() nil")
	}
	if a := m.Applications(db); a == nil {
		t.Fatal("Applications() nil")
	}
	if p := m.Payments(db); p == nil {
		t.Fatal("Payments() nil")
	}

	var _ users.Repository = m.Users(db)
	var _ scholarships.Repository = m.Scholarships(db)
	var _ applications.Repository = m.Applications(db)
	var _ payments.Repository = m.Payments(db)
}

func TestRunMigrations_Success(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		if dir != "." {
			return errors.New("unexpected dir")
		}
		if len(opts) != 0 {
			return errors.New("unexpected opts")
		}
		return nil
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err != nil {
		t.Fatalf("RunMigrations error: %v", err)
	}
}

func TestRunMigrations_Error(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseUpContext
	gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
		return errors.New("boom")
	}
	defer func() { gooseUpContext = orig }()

	m := &PostgresRepositoryManager{}
	if err := m.RunMigrations(context.Background(), db); err == nil || err.Error() != "boom" {
		t.Fatalf("expected boom, got %v", err)
	}
}

func TestSchemaVersion(t *testing.T) {
	db, _ := newDB(t)
	defer db.Close()

	orig := gooseVersion
	defer func() { gooseVersion = orig }()

	m := &PostgresRepositoryManager{}

	gooseVersion = func(ctx context.Context, db *sql.DB) (int64, error) { return 4, nil }
	v, err := m.SchemaVersion(context.Background(), db)
	if err != nil || v != 4 {
		t.Fatalf("want 4, got %d (%v)", v, err)
	}

	gooseVersion = func(ctx context.Context, db *sql.DB) (int64, error) { return 0, errors.New("no table") }
	if _, err := m.SchemaVersion(context.Background(), db); err == nil {
		t.Fatal("expected error")
	}
}
