package ratelimit

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/go-redis/redismock/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisWindowStore_Key(t *testing.T) {
	store := NewRedisWindowStore(nil, "")
	got := store.Key("public:1.2.3.4", time.Unix(1_700_000_040, 0))
	assert.Equal(t, "blog:ratelimit:public:1.2.3.4:1700000040", got)
	assert.Equal(t, "redis", store.Name())
}

func TestRedisWindowStore_CheckAndIncrement(t *testing.T) {
	ctx := context.Background()
	start := time.Unix(1_700_000_040, 0)
	window := time.Minute

	t.Run("allowed", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisWindowStore(db, "site")

		mock.ExpectEval(checkAndIncrementScript,
			[]string{"site:ratelimit:ai_heavy:1.2.3.4:1700000040"},
			5, int64(60000),
		).SetVal([]interface{}{int64(1), int64(1)})

		allowed, count, err := store.CheckAndIncrement(ctx, "ai_heavy:1.2.3.4", start, window, 5)
		require.NoError(t, err)
		assert.True(t, allowed)
		assert.Equal(t, 1, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("rejected", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisWindowStore(db, "site")

		mock.ExpectEval(checkAndIncrementScript,
			[]string{"site:ratelimit:ai_heavy:1.2.3.4:1700000040"},
			5, int64(60000),
		).SetVal([]interface{}{int64(0), int64(5)})

		allowed, count, err := store.CheckAndIncrement(ctx, "ai_heavy:1.2.3.4", start, window, 5)
		require.NoError(t, err)
		assert.False(t, allowed)
		assert.Equal(t, 5, count)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("backend error", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisWindowStore(db, "site")

		mock.ExpectEval(checkAndIncrementScript,
			[]string{"site:ratelimit:public:1.2.3.4:1700000040"},
			100, int64(60000),
		).SetErr(errors.New("connection refused"))

		_, _, err := store.CheckAndIncrement(ctx, "public:1.2.3.4", start, window, 100)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection refused")
	})

	t.Run("unexpected reply", func(t *testing.T) {
		db, mock := redismock.NewClientMock()
		store := NewRedisWindowStore(db, "site")

		mock.ExpectEval(checkAndIncrementScript,
			[]string{"site:ratelimit:public:1.2.3.4:1700000040"},
			100, int64(60000),
		).SetVal("OK")

		_, _, err := store.CheckAndIncrement(ctx, "public:1.2.3.4", start, window, 100)
		assert.Error(t, err)
	})
}

func TestRedisWindowStore_Ping(t *testing.T) {
	db, mock := redismock.NewClientMock()
	store := NewRedisWindowStore(db, "site")

	mock.ExpectPing().SetVal("PONG")
	assert.NoError(t, store.Ping(context.Background()))

	mock.ExpectPing().SetErr(errors.New("down"))
	assert.Error(t, store.Ping(context.Background()))
}
