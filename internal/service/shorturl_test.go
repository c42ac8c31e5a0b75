package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/sirosfoundation/go-vc-authn/internal/storage/memory"
)

func setupShortURLService(t *testing.T) *ShortURLService {
	return NewShortURLService(memory.NewStore(), testConfig(), zap.NewNop())
}

func TestShortURLService_ShortenAndResolve(t *testing.T) {
	svc := setupShortURLService(t)
	ctx := context.Background()

	long := "didcomm://launch?m=eyJyZXF1ZXN0IjoidGVzdCJ9"
	short, err := svc.Shorten(ctx, long, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Shorten() error = %v", err)
	}
	if !strings.HasPrefix(short, "http://localhost:8080/url/") {
		t.Errorf("Expected short URL under the resolver path, got %q", short)
	}

	key := strings.TrimPrefix(short, "http://localhost:8080/url/")
	resolved, err := svc.Resolve(ctx, key)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if resolved != long {
		t.Errorf("Expected %q, got %q", long, resolved)
	}
}

func TestShortURLService_Resolve_Unknown(t *testing.T) {
	svc := setupShortURLService(t)

	if _, err := svc.Resolve(context.Background(), "nope"); err != ErrShortURLNotFound {
		t.Errorf("Resolve() error = %v, want ErrShortURLNotFound", err)
	}
}

func TestShortURLService_Resolve_Expired(t *testing.T) {
	svc := setupShortURLService(t)
	ctx := context.Background()

	short, err := svc.Shorten(ctx, "didcomm://launch", time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Shorten() error = %v", err)
	}
	key := strings.TrimPrefix(short, "http://localhost:8080/url/")

	svc.nowFunc = func() time.Time { return time.Now().Add(2 * time.Minute) }
	if _, err := svc.Resolve(ctx, key); err != ErrShortURLNotFound {
		t.Errorf("Resolve() of expired entry error = %v, want ErrShortURLNotFound", err)
	}
}

func TestShortURLService_KeysDiffer(t *testing.T) {
	svc := setupShortURLService(t)
	ctx := context.Background()

	first, _ := svc.Shorten(ctx, "didcomm://a", time.Now().Add(time.Minute))
	second, _ := svc.Shorten(ctx, "didcomm://b", time.Now().Add(time.Minute))
	if first == second {
		t.Error("Expected distinct keys for distinct entries")
	}
}
