//go:build integration
// +build integration

package test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/internal/rate"
)

func TestRedisCompatCredentialLifecycle(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ctx := context.Background()
			store := credential.NewStore(rdb, "compat")

			if _, err := store.Load(ctx); !errors.Is(err, credential.ErrNoCredentials) {
				t.Fatalf("expected ErrNoCredentials on empty store, got %v", err)
			}

			want := makeCredentials("u-1", time.Hour)
			if err := store.Save(ctx, want); err != nil {
				t.Fatalf("save: %v", err)
			}
			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if *got != *want {
				t.Fatalf("round trip mismatch: %+v vs %+v", got, want)
			}

			if err := store.Clear(ctx); err != nil {
				t.Fatalf("clear: %v", err)
			}
			if err := store.Clear(ctx); err != nil {
				t.Fatalf("second clear: %v", err)
			}
			if _, err := store.Load(ctx); !errors.Is(err, credential.ErrNoCredentials) {
				t.Fatalf("expected ErrNoCredentials after clear, got %v", err)
			}
		})
	}
}

func TestRedisCompatConcurrentSavesStayConsistent(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ctx := context.Background()
			store := credential.NewStore(rdb, "compat-race")

			var wg sync.WaitGroup
			for i := 0; i < 16; i++ {
				wg.Add(1)
				go func(i int) {
					defer wg.Done()
					_ = store.Save(ctx, makeCredentials(fmt.Sprintf("u-%d", i), time.Hour))
				}(i)
			}
			wg.Wait()

			got, err := store.Load(ctx)
			if err != nil {
				t.Fatalf("load: %v", err)
			}
			if got.AccessToken != "access-"+got.User.ID || got.RefreshToken != "refresh-"+got.User.ID {
				t.Fatalf("fields from different saves mixed: %+v", got)
			}
		})
	}
}

func TestRedisCompatLoginThrottle(t *testing.T) {
	for _, mode := range redisModes(t) {
		t.Run(mode.name, func(t *testing.T) {
			rdb, cleanup := mode.setup(t)
			defer cleanup()

			ctx := context.Background()
			limiter := rate.New(rdb, rate.Config{Prefix: "compat", MaxAttempts: 3, Cooldown: time.Minute})

			for i := 0; i < 3; i++ {
				if err := limiter.CheckLogin(ctx, "A@shop.test"); err != nil {
					t.Fatalf("attempt %d: %v", i, err)
				}
				if err := limiter.IncrementLogin(ctx, "a@shop.test "); err != nil {
					t.Fatalf("increment %d: %v", i, err)
				}
			}
			if err := limiter.CheckLogin(ctx, "a@shop.test"); !errors.Is(err, rate.ErrRateLimited) {
				t.Fatalf("expected ErrRateLimited, got %v", err)
			}
			if ttl := rdb.TTL(ctx, "compat:login:a@shop.test").Val(); ttl <= 0 || ttl > time.Minute {
				t.Fatalf("unexpected cooldown ttl %s", ttl)
			}

			if err := limiter.ResetLogin(ctx, "a@shop.test"); err != nil {
				t.Fatalf("reset: %v", err)
			}
			if err := limiter.CheckLogin(ctx, "a@shop.test"); err != nil {
				t.Fatalf("expected reset throttle, got %v", err)
			}
		})
	}
}
