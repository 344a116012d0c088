package db_test

import (
	"context"
	"testing"

	"restaurant/internal/infra/db"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConnectRedis(t *testing.T) {
	mr := miniredis.RunT(t)

	client, err := db.ConnectRedis(context.Background(), "redis://"+mr.Addr()+"/0")
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Set(context.Background(), "k", "v", 0).Err())
	assert.True(t, mr.Exists("k"))
}

func TestConnectRedis_BadURL(t *testing.T) {
	_, err := db.ConnectRedis(context.Background(), "http://nope")
	assert.Error(t, err)
}

func TestConnectRedis_Unreachable(t *testing.T) {
	mr := miniredis.RunT(t)
	addr := mr.Addr()
	mr.Close()

	_, err := db.ConnectRedis(context.Background(), "redis://"+addr)
	assert.Error(t, err)
}
