package redis

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/pribylovaa/go-library-client/internal/storage"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// Интеграционные тесты драйвера Redis:
// - поднимают redis:7-alpine через testcontainers-go;
// - проверяют Save/Load/Clear, идемпотентность Clear и изоляцию по префиксу.
//
// Запуск локально:
//   GO_TEST_INTEGRATION=1 go test ./internal/storage/redis -v -count=1

func startRedis(t *testing.T) string {
	t.Helper()
	if os.Getenv("GO_TEST_INTEGRATION") == "" {
		t.Skip("integration tests are disabled (set GO_TEST_INTEGRATION=1)")
	}

	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForListeningPort("6379/tcp").WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	require.NoError(t, err)
	t.Cleanup(func() { _ = c.Terminate(context.Background()) })

	host, err := c.Host(ctx)
	require.NoError(t, err)
	port, err := c.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	return fmt.Sprintf("redis://%s:%s/0", host, port.Port())
}

func TestNew_BadURL(t *testing.T) {
	t.Parallel()

	_, err := New(context.Background(), "not-a-url", "", storage.DefaultKey)
	require.Error(t, err)
}

func TestNewFromClient_DefaultPrefixAndKeyValidation(t *testing.T) {
	t.Parallel()

	rdb := redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"})
	t.Cleanup(func() { _ = rdb.Close() })

	st, err := NewFromClient(rdb, "", storage.DefaultKey)
	require.NoError(t, err)
	require.Equal(t, DefaultPrefix+storage.DefaultKey, st.Key())

	_, err = NewFromClient(rdb, "p:", "")
	require.ErrorIs(t, err, storage.ErrInvalidKey)
}

func TestStorage_Integration_Lifecycle(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	st, err := New(ctx, url, "test:", storage.DefaultKey)
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	_, err = st.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)

	require.NoError(t, st.Save(ctx, "tok-1"))
	require.NoError(t, st.Save(ctx, "tok-2"))

	got, err := st.Load(ctx)
	require.NoError(t, err)
	require.Equal(t, "tok-2", got)

	require.NoError(t, st.Clear(ctx))
	require.NoError(t, st.Clear(ctx))

	_, err = st.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStorage_Integration_PrefixIsolation(t *testing.T) {
	url := startRedis(t)
	ctx := context.Background()

	a, err := New(ctx, url, "a:", storage.DefaultKey)
	require.NoError(t, err)
	t.Cleanup(func() { _ = a.Close() })

	b, err := New(ctx, url, "b:", storage.DefaultKey)
	require.NoError(t, err)
	t.Cleanup(func() { _ = b.Close() })

	require.NoError(t, a.Save(ctx, "only-a"))

	_, err = b.Load(ctx)
	require.ErrorIs(t, err, storage.ErrNotFound)
}
