package postgres

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/nkiryanov/trippit/internal/apperrors"
	"github.com/nkiryanov/trippit/internal/models"
	"github.com/nkiryanov/trippit/internal/testutil"
)

func mustParseTime(value string) time.Time {
	dt, err := time.Parse("2006-01-02 15:04:05Z07:00", value)
	if err != nil {
		panic(err)
	}
	return dt
}

func Test_CredentialRepo(t *testing.T) {
	t.Parallel()

	pg := testutil.StartPostgresContainer(t)
	t.Cleanup(pg.Terminate)

	credential := models.Credential{
		Service:     models.ServiceReddit,
		AccessToken: "access-1",
		ExpiresAt:   mustParseTime("2200-01-01 03:00:02Z"),
	}

	t.Run("get not existed", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CredentialRepo{DB: tx}

			_, err := repo.Get(t.Context(), models.ServiceReddit)

			require.Error(t, err)
			require.ErrorIs(t, err, apperrors.ErrCredentialNotFound)
		})
	})

	t.Run("put and get", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CredentialRepo{DB: tx}

			err := repo.Put(t.Context(), credential)
			require.NoError(t, err)

			got, err := repo.Get(t.Context(), models.ServiceReddit)

			require.NoError(t, err)
			require.Equal(t, credential.Service, got.Service)
			require.Equal(t, credential.AccessToken, got.AccessToken)
			require.Nil(t, got.RefreshToken, "password grant credential has no refresh token")
			require.WithinDuration(t, credential.ExpiresAt, got.ExpiresAt, 0)
			require.False(t, got.UpdatedAt.IsZero(), "updated at must be set by db")
		})
	})

	t.Run("put replaces existed", func(t *testing.T) {
		testutil.WithTx(pg.Pool, t, func(tx pgx.Tx) {
			repo := CredentialRepo{DB: tx}
			err := repo.Put(t.Context(), credential)
			require.NoError(t, err)

			refresh := "refresh-2"
			second := models.Credential{
				Service:      models.ServiceReddit,
				AccessToken:  "access-2",
				RefreshToken: &refresh,
				ExpiresAt:    mustParseTime("2201-01-01 03:00:02Z"),
			}
			err = repo.Put(t.Context(), second)
			require.NoError(t, err, "second put must upsert, not fail on conflict")

			got, err := repo.Get(t.Context(), models.ServiceReddit)
			require.NoError(t, err)
			require.Equal(t, "access-2", got.AccessToken)
			require.NotNil(t, got.RefreshToken)
			require.Equal(t, refresh, *got.RefreshToken)
			require.WithinDuration(t, second.ExpiresAt, got.ExpiresAt, 0)

			var count int
			err = tx.QueryRow(t.Context(), "SELECT count(*) FROM credentials WHERE service = $1", models.ServiceReddit).Scan(&count)
			require.NoError(t, err)
			require.Equal(t, 1, count, "only one record per service may exist")
		})
	})
}
