package redis

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/jCool10/LearnSmart-sub001/internal/platform/logger"
)

func TestNewCacheRequiresAddr(t *testing.T) {
	if _, err := NewCache(logger.Nop(), Config{}); err == nil {
		t.Fatalf("expected error for empty addr")
	}
	if _, err := NewCache(nil, Config{Addr: "localhost:6379"}); err == nil {
		t.Fatalf("expected error for nil logger")
	}
}

// Runs only when TEST_REDIS_ADDR points at a live server.
func TestCacheRoundTrip(t *testing.T) {
	addr := os.Getenv("TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("TEST_REDIS_ADDR not set")
	}
	c, err := NewCache(logger.Nop(), Config{Addr: addr, Prefix: "learnsmart-test-" + uuid.NewString()[:8]})
	if err != nil {
		t.Fatalf("NewCache: %v", err)
	}
	defer c.Close()

	ctx := context.Background()
	type payload struct {
		Rate float64 `json:"rate"`
	}
	var out payload
	if ok, err := c.Get(ctx, "missing", &out); err != nil || ok {
		t.Fatalf("Get missing: ok=%v err=%v", ok, err)
	}
	if err := c.Set(ctx, "k", payload{Rate: 42.5}, time.Minute); err != nil {
		t.Fatalf("Set: %v", err)
	}
	if ok, err := c.Get(ctx, "k", &out); err != nil || !ok || out.Rate != 42.5 {
		t.Fatalf("Get: ok=%v err=%v out=%+v", ok, err, out)
	}
	if err := c.Delete(ctx, "k"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if ok, _ := c.Get(ctx, "k", &out); ok {
		t.Fatalf("expected miss after delete")
	}
}
