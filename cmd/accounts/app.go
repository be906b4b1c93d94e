package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/nkazants/accounts-service/internal/db"
	"github.com/nkazants/accounts-service/internal/handlers"
	"github.com/nkazants/accounts-service/internal/handlers/middleware"
	"github.com/nkazants/accounts-service/internal/logger"
	"github.com/nkazants/accounts-service/internal/repository/postgres"
	"github.com/nkazants/accounts-service/internal/service/auth"
	"github.com/nkazants/accounts-service/internal/service/auth/tokencodec"
	"github.com/nkazants/accounts-service/internal/service/user"
	"github.com/nkazants/accounts-service/internal/storage/s3"
)

type ServerApp struct {
	ListenAddr string
	Handler    http.Handler
	Logger     logger.Logger
}

func NewServerApp(ctx context.Context, c *Config) (*ServerApp, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config. Err: %w", err)
	}

	log, err := logger.New(c.Environment, c.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("error while initializing logger. Err: %w", err)
	}

	// Connect to the database and run migrations
	pool, err := db.ConnectAndMigrate(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("error while connecting to db. Err: %w", err)
	}

	userRepo := &postgres.UserRepo{DB: pool}

	codec, err := tokencodec.New(tokencodec.Config{
		AccessSecret:  c.AccessTokenSecret,
		RefreshSecret: c.RefreshTokenSecret,
		AccessTTL:     c.AccessTokenTTL,
		RefreshTTL:    c.RefreshTokenTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("error while creating token codec. Err: %w", err)
	}

	authService, err := auth.NewService(auth.Config{}, codec, userRepo)
	if err != nil {
		return nil, fmt.Errorf("error while creating auth service. Err: %w", err)
	}

	// Media storage is optional: uploads stay disabled without a bucket
	var files user.FileStorage
	if c.S3Bucket != "" {
		files, err = s3.New(ctx, s3.Config{
			Region:        c.S3Region,
			Endpoint:      c.S3Endpoint,
			Bucket:        c.S3Bucket,
			AccessKey:     c.S3AccessKey,
			SecretKey:     c.S3SecretKey,
			PublicBaseURL: c.S3PublicURL,
		})
		if err != nil {
			return nil, fmt.Errorf("error while creating media storage. Err: %w", err)
		}
	}

	userService := user.NewService(auth.DefaultHasher, userRepo, files)

	router := handlers.NewRouter(
		handlers.NewAuth(authService, log),
		handlers.NewAccount(userService, log),
		middleware.AuthMiddleware(authService),
		middleware.LoggerMiddleware(log),
	)

	return &ServerApp{
		ListenAddr: c.ListenAddr,
		Handler:    router,
		Logger:     log,
	}, nil
}

// Run starts http server and closes gracefully on context cancellation
func (s *ServerApp) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:    s.ListenAddr,
		Handler: s.Handler,
	}

	idleConnsClosed := make(chan struct{})
	srvCtx, srvCtxCancel := context.WithCancel(ctx)
	defer srvCtxCancel()

	go func() {
		<-srvCtx.Done()

		timeoutCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := httpServer.Shutdown(timeoutCtx); err == context.DeadlineExceeded {
			s.Logger.Error("HTTP server shutdown timeout exceeded, forcing shutdown")
		}
		s.Logger.Info("HTTP server stopped")
		close(idleConnsClosed)
	}()

	s.Logger.Info("Starting server", "addr", s.ListenAddr)
	err := httpServer.ListenAndServe()
	srvCtxCancel()
	<-idleConnsClosed

	return err
}
