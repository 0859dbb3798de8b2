package httpmiddleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func TestTokenBucket(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 9, 0, 0, 0, time.UTC)
	l := NewSimpleTokenBucket(2, 60)
	l.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		if ok, _ := l.Allow(ctx, "ip"); !ok {
			t.Fatalf("request %d should pass", i)
		}
	}
	if ok, _ := l.Allow(ctx, "ip"); ok {
		t.Fatal("bucket should be empty")
	}
	if ok, _ := l.Allow(ctx, "other"); !ok {
		t.Fatal("buckets are per key")
	}
	now = now.Add(2 * time.Second)
	if ok, _ := l.Allow(ctx, "ip"); !ok {
		t.Fatal("tokens should refill after two seconds at 60/min")
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RateLimit(NewSimpleTokenBucket(1, 1), zerolog.Nop()), SecurityHeaders(false))
	r.GET("/", func(c *gin.Context) { c.Status(http.StatusOK) })

	codes := make([]int, 2)
	for i := range codes {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
		codes[i] = w.Code
		if i == 0 && w.Header().Get("X-Frame-Options") != "DENY" {
			t.Fatal("security headers missing")
		}
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusTooManyRequests {
		t.Fatalf("got %v", codes)
	}
}

func TestRedisWindow(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}
	client := redis.NewClient(&redis.Options{Addr: addr})
	defer client.Close()

	l := NewRedisWindow(client, 2)
	l.prefix = "attendance:test:" + time.Now().Format("150405.000000") + ":"
	ctx := context.Background()
	for i := 0; i < 2; i++ {
		if ok, err := l.Allow(ctx, "ip"); err != nil || !ok {
			t.Fatalf("request %d: ok=%v err=%v", i, ok, err)
		}
	}
	if ok, _ := l.Allow(ctx, "ip"); ok {
		t.Fatal("third request in the window should be limited")
	}
}
