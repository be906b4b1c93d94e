package postgres

import (
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkazants/accounts-service/internal/apperrors"
	"github.com/nkazants/accounts-service/internal/models"
	"github.com/nkazants/accounts-service/internal/repository"
	"github.com/nkazants/accounts-service/internal/testutil"
)

func mustCreateUser(t *testing.T, repo *UserRepo, username string) models.User {
	t.Helper()

	user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
		Username:       username,
		Email:          username + "@example.com",
		FullName:       "Test User",
		HashedPassword: "hashed-password",
	})
	require.NoError(t, err, "user should be created without errors")

	return user
}

func Test_UserRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	t.Run("CreateUser", func(t *testing.T) {
		t.Run("ok", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}

				user, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
					Username:       "Alice",
					Email:          "Alice@x.com",
					FullName:       "Alice A.",
					HashedPassword: "hash",
				})

				require.NoError(t, err)
				require.NotEqual(t, uuid.Nil, user.ID)
				require.Equal(t, "alice", user.Username, "username should be stored lower cased")
				require.Equal(t, "alice@x.com", user.Email, "email should be stored lower cased")
				require.Equal(t, "Alice A.", user.FullName)
				require.Empty(t, user.RefreshToken, "fresh user should have no session")
			})
		})

		tests := []struct {
			name     string
			username string
			email    string
		}{
			{name: "duplicate username", username: "alice", email: "other@x.com"},
			{name: "duplicate email", username: "other", email: "alice@example.com"},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
					repo := &UserRepo{DB: tx}
					mustCreateUser(t, repo, "alice")

					_, err := repo.CreateUser(t.Context(), repository.CreateUserParams{
						Username:       tt.username,
						Email:          tt.email,
						HashedPassword: "hash",
					})

					require.Error(t, err)
					require.ErrorIs(t, err, apperrors.ErrUserAlreadyExists)
				})
			})
		}
	})

	t.Run("GetUserByID", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, created.ID, user.ID)

			_, err = repo.GetUserByID(t.Context(), uuid.New())
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("GetUserByLogin", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")

			tests := []struct {
				name  string
				login string
			}{
				{name: "by username", login: "alice"},
				{name: "by email", login: "alice@example.com"},
				{name: "case insensitive", login: "ALICE"},
			}

			for _, tt := range tests {
				t.Run(tt.name, func(t *testing.T) {
					user, err := repo.GetUserByLogin(t.Context(), tt.login)
					require.NoError(t, err)
					require.Equal(t, created.ID, user.ID)
				})
			}

			_, err := repo.GetUserByLogin(t.Context(), "nobody")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("UpdateProfile", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")

			updated, err := repo.UpdateProfile(t.Context(), created.ID, repository.UpdateProfileParams{
				FullName: "New Name",
			})
			require.NoError(t, err)
			require.Equal(t, "New Name", updated.FullName)
			require.Equal(t, created.Email, updated.Email, "empty email should leave the old one")

			updated, err = repo.UpdateProfile(t.Context(), created.ID, repository.UpdateProfileParams{
				Email: "new@example.com",
			})
			require.NoError(t, err)
			require.Equal(t, "new@example.com", updated.Email)
			require.Equal(t, "New Name", updated.FullName)
		})
	})

	t.Run("UpdatePassword", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")

			err := repo.UpdatePassword(t.Context(), created.ID, "new-hash")
			require.NoError(t, err)

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, "new-hash", user.HashedPassword)

			err = repo.UpdatePassword(t.Context(), uuid.New(), "new-hash")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("SetRefreshToken overwrites unconditionally", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")

			require.NoError(t, repo.SetRefreshToken(t.Context(), created.ID, "first"))
			require.NoError(t, repo.SetRefreshToken(t.Context(), created.ID, "second"))

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Equal(t, "second", user.RefreshToken)

			err = repo.SetRefreshToken(t.Context(), uuid.New(), "token")
			require.ErrorIs(t, err, apperrors.ErrUserNotFound)
		})
	})

	t.Run("SwapRefreshToken", func(t *testing.T) {
		t.Run("swap ok when stored value matches", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := mustCreateUser(t, repo, "alice")
				require.NoError(t, repo.SetRefreshToken(t.Context(), created.ID, "old"))

				err := repo.SwapRefreshToken(t.Context(), created.ID, "old", "new")
				require.NoError(t, err)

				user, err := repo.GetUserByID(t.Context(), created.ID)
				require.NoError(t, err)
				require.Equal(t, "new", user.RefreshToken)
			})
		})

		t.Run("conflict when stored value differs", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := mustCreateUser(t, repo, "alice")
				require.NoError(t, repo.SetRefreshToken(t.Context(), created.ID, "current"))

				err := repo.SwapRefreshToken(t.Context(), created.ID, "stale", "new")
				require.ErrorIs(t, err, apperrors.ErrRefreshRotationConflict)

				user, err := repo.GetUserByID(t.Context(), created.ID)
				require.NoError(t, err)
				require.Equal(t, "current", user.RefreshToken, "failed swap should change nothing")
			})
		})

		t.Run("conflict when slot is empty", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := mustCreateUser(t, repo, "alice")

				err := repo.SwapRefreshToken(t.Context(), created.ID, "anything", "new")
				require.ErrorIs(t, err, apperrors.ErrRefreshRotationConflict)
			})
		})

		t.Run("second swap with same old token fails", func(t *testing.T) {
			testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
				repo := &UserRepo{DB: tx}
				created := mustCreateUser(t, repo, "alice")
				require.NoError(t, repo.SetRefreshToken(t.Context(), created.ID, "old"))

				require.NoError(t, repo.SwapRefreshToken(t.Context(), created.ID, "old", "new-1"))

				err := repo.SwapRefreshToken(t.Context(), created.ID, "old", "new-2")
				require.ErrorIs(t, err, apperrors.ErrRefreshRotationConflict)
			})
		})
	})

	t.Run("ClearRefreshToken", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")
			require.NoError(t, repo.SetRefreshToken(t.Context(), created.ID, "token"))

			err := repo.ClearRefreshToken(t.Context(), created.ID)
			require.NoError(t, err)

			user, err := repo.GetUserByID(t.Context(), created.ID)
			require.NoError(t, err)
			require.Empty(t, user.RefreshToken)

			err = repo.SwapRefreshToken(t.Context(), created.ID, "token", "new")
			require.ErrorIs(t, err, apperrors.ErrRefreshRotationConflict, "cleared slot should reject any swap")
		})
	})

	t.Run("SetAvatarURL and SetCoverURL", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := &UserRepo{DB: tx}
			created := mustCreateUser(t, repo, "alice")

			user, err := repo.SetAvatarURL(t.Context(), created.ID, "https://cdn.example.com/a.png")
			require.NoError(t, err)
			require.Equal(t, "https://cdn.example.com/a.png", user.AvatarURL)

			user, err = repo.SetCoverURL(t.Context(), created.ID, "https://cdn.example.com/c.png")
			require.NoError(t, err)
			require.Equal(t, "https://cdn.example.com/c.png", user.CoverURL)
		})
	})
}
