package services_test

import (
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/ammerola/tajalli-pos/internal/adapters/redis_adapter"
	"github.com/ammerola/tajalli-pos/test/helpers"
)

// newCache returns a real cache backed by an in-process redis
func newCache(t *testing.T) (*redis_a.Cache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return redis_a.NewCache(client, time.Minute, helpers.TestLogger()), mr
}
