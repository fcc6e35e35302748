// Package redistest runs Service against an in-process Redis server.
package redistest

import (
	"testing"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"

	"github.com/terranocoder/terrano/internal/infrastructure/redis"
)

// NewService returns a Service backed by a fresh miniredis instance. Both are
// shut down when the test ends.
func NewService(t testing.TB) (*redis.Service, *miniredis.Miniredis) {
	t.Helper()

	server := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: server.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return redis.NewServiceWithClient(client), server
}
