// Package repomanager provides the PostgreSQL RepositoryManager and runs the
// embedded goose migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/migrations"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/achievements"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/matches"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/saves"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/scores"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct{}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Matches(db dbx.DBTX) matches.Repository {
	return matches.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Friendships(db dbx.DBTX) friendships.Repository {
	return friendships.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Scores(db dbx.DBTX) scores.Repository {
	return scores.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Achievements(db dbx.DBTX) achievements.Repository {
	return achievements.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Saves(db dbx.DBTX) saves.Repository {
	return saves.NewPostgresRepository(db)
}

// gooseUpContext is a seam for testing goose.UpContext.
var gooseUpContext = func(ctx context.Context, db *sql.DB, dir string, opts ...goose.OptionsFunc) error {
	return goose.UpContext(ctx, db, dir, opts...)
}

func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return gooseUpContext(ctx, db, ".")
}

func NewPostgresRepositoryManager() RepositoryManager {
	return &PostgresRepositoryManager{}
}
