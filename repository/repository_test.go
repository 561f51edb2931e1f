package repository

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	db    *sqlx.DB
	mock  sqlmock.Sqlmock
	redis *redis.Client
	mini  *miniredis.Miniredis
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	mini := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})

	t.Cleanup(func() {
		client.Close()
		mockDB.Close()
	})

	return &testEnv{
		db:    sqlx.NewDb(mockDB, "postgres"),
		mock:  mock,
		redis: client,
		mini:  mini,
	}
}
