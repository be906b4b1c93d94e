package e2e

import (
	"net/http/httptest"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"

	"github.com/nkazants/accounts-service/internal/handlers"
	"github.com/nkazants/accounts-service/internal/handlers/middleware"
	"github.com/nkazants/accounts-service/internal/repository"
	"github.com/nkazants/accounts-service/internal/repository/postgres"
	"github.com/nkazants/accounts-service/internal/service/auth"
	"github.com/nkazants/accounts-service/internal/service/auth/tokencodec"
	"github.com/nkazants/accounts-service/internal/service/user"
	"github.com/nkazants/accounts-service/internal/testutil"
)

type Services struct {
	AuthService *auth.AuthService
	UserService *user.UserService
	UserRepo    repository.UserRepo
}

// Create db transaction and run server with that connection (one connection cause one transaction)
// The created transaction passed to inner function: so, you can safely use testutil.WithTx with it
func ServeWithTx(dbpool *pgxpool.Pool, t *testing.T, fn func(tx pgx.Tx, srvURL string, services Services)) {
	ServeWithTxCodec(dbpool, t, tokencodec.Config{}, fn)
}

// Same as ServeWithTx but with custom token codec settings, e.g. short
// lifetimes to drive expiry scenarios
func ServeWithTxCodec(dbpool *pgxpool.Pool, t *testing.T, codecCfg tokencodec.Config, fn func(tx pgx.Tx, srvURL string, services Services)) {
	if codecCfg.AccessSecret == "" {
		codecCfg.AccessSecret = "test-access-secret"
	}
	if codecCfg.RefreshSecret == "" {
		codecCfg.RefreshSecret = "test-refresh-secret"
	}

	testutil.WithTx(dbpool, t, func(tx pgx.Tx) {
		userRepo := &postgres.UserRepo{DB: tx}

		codec, err := tokencodec.New(codecCfg)
		require.NoError(t, err, "token codec should be created without errors")

		as, err := auth.NewService(auth.Config{}, codec, userRepo)
		require.NoError(t, err, "auth service starting error")

		us := user.NewService(auth.DefaultHasher, userRepo, nil)

		router := handlers.NewRouter(
			handlers.NewAuth(as, nil),
			handlers.NewAccount(us, nil),
			middleware.AuthMiddleware(as),
		)

		// Run http server with the router in transaction
		srv := httptest.NewServer(router)
		defer srv.Close()

		fn(tx, srv.URL, Services{
			AuthService: as,
			UserService: us,
			UserRepo:    userRepo,
		})
	})
}
