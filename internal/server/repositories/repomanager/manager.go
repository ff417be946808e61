package repomanager

import (
	"context"
	"database/sql"

	"github.com/dmitrijs2005/jigsawhub/internal/dbx"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/achievements"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/friendships"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/matches"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/saves"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/scores"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/users"
)

// RepositoryManager vends repositories bound to a DBTX, so services can use
// the same code with a plain connection or inside dbx.WithTx.
type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	Matches(db dbx.DBTX) matches.Repository
	Friendships(db dbx.DBTX) friendships.Repository
	Scores(db dbx.DBTX) scores.Repository
	Achievements(db dbx.DBTX) achievements.Repository
	Saves(db dbx.DBTX) saves.Repository
}
