// Package server wires the jigsawhub components together and runs them:
// the REST API with its /ws endpoint, the gRPC health service and, when
// configured, the idle match reaper.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/dmitrijs2005/jigsawhub/internal/logging"
	"github.com/dmitrijs2005/jigsawhub/internal/server/auth"
	"github.com/dmitrijs2005/jigsawhub/internal/server/config"
	"github.com/dmitrijs2005/jigsawhub/internal/server/locks"
	"github.com/dmitrijs2005/jigsawhub/internal/server/reaper"
	"github.com/dmitrijs2005/jigsawhub/internal/server/realtime"
	"github.com/dmitrijs2005/jigsawhub/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/jigsawhub/internal/server/rest"
	"github.com/dmitrijs2005/jigsawhub/internal/server/services"
	"github.com/redis/go-redis/v9"

	gs "github.com/dmitrijs2005/jigsawhub/internal/server/grpc"
)

type App struct {
	config   *config.Config
	logger   logging.Logger
	db       *sql.DB
	repos    repomanager.RepositoryManager
	verifier *auth.Verifier
}

func NewApp(c *config.Config) (*App, error) {

	logger, err := logging.New(c.LogBackend, c.LogLevel, os.Stdout)
	if err != nil {
		return nil, fmt.Errorf("logger init error: %w", err)
	}

	db, err := sql.Open("pgx", c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	return &App{
		config:   c,
		logger:   logger,
		db:       db,
		repos:    repomanager.NewPostgresRepositoryManager(),
		verifier: auth.NewVerifier([]byte(c.SecretKey), c.AccessTokenValidityDuration),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// handler builds the service layer and returns the REST router, which also
// serves /ws. Realtime connections are closed once ctx is cancelled.
func (app *App) handler(ctx context.Context) (http.Handler, *services.MatchService) {
	graph := services.NewFriendGraph(app.db, app.repos)
	registry := realtime.NewRegistry(app.verifier, graph, app.logger)

	matches := services.NewMatchService(app.db, app.repos, registry, app.logger)
	hub := realtime.NewHub(ctx, registry, matches, app.logger,
		realtime.WithOriginPatterns(originPatterns(app.config.AllowedOrigins)...))

	api := rest.NewAPI(rest.Deps{
		Verifier:       app.verifier,
		Users:          services.NewUserService(app.db, app.repos, app.verifier, app.logger),
		Scores:         services.NewScoreService(app.db, app.repos),
		Profiles:       services.NewProfileService(app.db, app.repos),
		Matches:        matches,
		Friends:        services.NewFriendService(graph, registry, app.logger),
		Saves:          services.NewSaveService(app.db, app.repos),
		Images:         services.NewImageService(app.config),
		DB:             app.db,
		Realtime:       hub,
		Presence:       registry,
		AllowedOrigins: app.config.AllowedOrigins,
	}, app.logger)

	return api.Routes(), matches
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc, h http.Handler) {
	s := rest.NewServer(app.config.EndpointAddrHTTP, h, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) startGRPCServer(ctx context.Context, cancelFunc context.CancelFunc) {
	s := gs.NewHealthServer(app.config.EndpointAddrGRPC, app.db, app.logger)
	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

// startReaper expires idle matches. With a Redis URL the sweep is guarded by
// a shared lock, otherwise this instance is assumed to be the only one.
func (app *App) startReaper(ctx context.Context, matches *services.MatchService) {
	var (
		locker reaper.Locker = locks.Local{}
		rdb    *redis.Client
	)

	if app.config.RedisURL != "" {
		c, err := locks.Connect(ctx, app.config.RedisURL)
		if err != nil {
			app.logger.Error(ctx, "reaper lock unavailable, running without it", "error", err)
		} else {
			rdb = c
			locker = locks.NewRedisLocker(rdb)
		}
	}

	reaper.New(matches, locker, app.config.IdleMatchTimeout, app.config.ReaperInterval, app.logger).Run(ctx)

	if rdb != nil {
		_ = rdb.Close()
	}
}

func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	defer func() {
		if err := app.db.Close(); err != nil {
			app.logger.Error(ctx, "db close error", "error", err)
		}
	}()

	if err := app.db.PingContext(ctx); err != nil {
		return fmt.Errorf("db connect error: %w", err)
	}

	if err := app.repos.RunMigrations(ctx, app.db); err != nil {
		return fmt.Errorf("migrations error: %w", err)
	}

	h, matches := app.handler(ctx)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc, h)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startGRPCServer(ctx, cancelFunc)
	}()

	if app.config.ReaperEnabled() {
		wg.Add(1)
		go func() {
			defer wg.Done()
			app.startReaper(ctx, matches)
		}()
	}

	wg.Wait()

	app.logger.Info(context.WithoutCancel(ctx), "App stopped")

	return nil
}

// originPatterns turns CORS origins ("https://play.example.com") into the
// host patterns the websocket handshake checks against.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		o = strings.TrimSpace(o)
		if o == "" {
			continue
		}
		if o == "*" {
			return []string{"*"}
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
