package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/nkiryanov/trippit/internal/db"
	"github.com/nkiryanov/trippit/internal/handlers"
	"github.com/nkiryanov/trippit/internal/logger"
	"github.com/nkiryanov/trippit/internal/repository/postgres"
	"github.com/nkiryanov/trippit/internal/service/oauth"
	"github.com/nkiryanov/trippit/internal/service/reddit"
	"github.com/nkiryanov/trippit/internal/service/session"
	"github.com/nkiryanov/trippit/internal/service/visit"
)

const (
	sessionSweepInterval = time.Minute
	shutdownTimeout      = 5 * time.Second
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler

	logger logger.Logger

	// Background jobs living as long as the server; each returns channel closed on stop
	jobs []func(ctx context.Context) <-chan struct{}

	// Release connections after server stopped
	closers []func()
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	// Initialize logger
	l, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger: %w", err)
	}

	app := &ServerApp{ListenAddr: c.ListenAddr, logger: l}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}
	app.closers = append(app.closers, pool.Close)

	// Initialize repositories
	storage := postgres.NewStorage(pool)

	// Sessions are shared through redis if configured
	sessions, err := app.newSessionStore(ctx, c.RedisURL)
	if err != nil {
		app.close()
		return nil, err
	}

	// Initialize services
	httpClient := reddit.NewHTTPClient(c.Reddit.UserAgent)
	redditClient := reddit.NewClient(reddit.DefaultEndpoints.APIURL, httpClient, l)

	tokens, err := reddit.NewTokenAcquirer(
		reddit.TokenAcquirerConfig{
			ClientID:     c.Reddit.ClientID,
			ClientSecret: c.Reddit.ClientSecret,
			Username:     c.Reddit.Username,
			Password:     c.Reddit.Password,
		},
		storage.Credential(), httpClient, l,
	)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating token acquirer. Err: %w", err)
	}
	publisher := reddit.NewPublisher(c.Reddit.Subreddit, tokens, redditClient, l)

	states, err := oauth.NewStateManager(oauth.StateConfig{SecretKey: c.SecretKey})
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating state manager. Err: %w", err)
	}
	oauthService, err := oauth.NewService(
		oauth.Config{
			ClientID:     c.Reddit.ClientID,
			ClientSecret: c.Reddit.ClientSecret,
			RedirectURI:  c.Reddit.RedirectURI,
			SessionTTL:   c.SessionTTL,
		},
		states, redditClient, sessions, httpClient, l,
	)
	if err != nil {
		app.close()
		return nil, fmt.Errorf("error while creating oauth service. Err: %w", err)
	}

	visitService := visit.NewService(storage.Visit())

	app.Handler = handlers.NewRouter(
		handlers.RouterConfig{AllowedOrigin: c.AllowedOrigin},
		publisher,
		oauthService,
		sessions,
		visitService,
		l,
	)

	return app, nil
}

func (s *ServerApp) newSessionStore(ctx context.Context, redisURL string) (session.Store, error) {
	if redisURL == "" {
		s.logger.Info("Sessions are kept in memory")
		store := session.NewMemoryStore(s.logger)
		s.jobs = append(s.jobs, func(ctx context.Context) <-chan struct{} {
			return store.Run(ctx, sessionSweepInterval)
		})
		return store, nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("error while parsing redis url. Err: %w", err)
	}

	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("error while connecting to redis. Err: %w", err)
	}
	s.closers = append(s.closers, func() { _ = client.Close() })

	s.logger.Info("Sessions are kept in redis", "addr", opts.Addr)
	return session.NewRedisStore(client, s.logger), nil
}

func (s *ServerApp) close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	defer s.close()

	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	jobsStopped := make([]<-chan struct{}, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobsStopped = append(jobsStopped, job(srvCtx))
	}

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); errors.Is(err, context.DeadlineExceeded) {
			s.logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown...")
		}
		s.logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	// Listen and serve until context is cancelled; then close gracefully connections
	s.logger.Info("Starting server", "address", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	for _, stopped := range jobsStopped {
		<-stopped
	}

	return err
}
