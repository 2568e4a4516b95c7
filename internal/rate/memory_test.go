package rate

import (
	"context"
	"sync"
	"testing"
	"time"
)

func TestMemoryLimiterFixedWindow(t *testing.T) {
	l := NewMemoryLimiter(3, time.Minute)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		res, err := l.Allow(ctx, "1.2.3.4|/auth/login")
		if err != nil {
			t.Fatal(err)
		}
		if !res.Allowed {
			t.Fatalf("hit %d should be allowed", i)
		}
		if res.CurrentHits != int64(i) {
			t.Fatalf("hit %d: CurrentHits = %d", i, res.CurrentHits)
		}
		if res.Remaining != int64(3-i) {
			t.Fatalf("hit %d: Remaining = %d", i, res.Remaining)
		}
	}

	res, err := l.Allow(ctx, "1.2.3.4|/auth/login")
	if err != nil {
		t.Fatal(err)
	}
	if res.Allowed {
		t.Fatal("4th hit in window should be denied")
	}
	if res.RetryAfter <= 0 || res.RetryAfter > time.Minute {
		t.Fatalf("RetryAfter = %v", res.RetryAfter)
	}
}

func TestMemoryLimiterKeysAreIndependent(t *testing.T) {
	l := NewMemoryLimiter(1, time.Minute)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "1.2.3.4|/auth/login"); !res.Allowed {
		t.Fatal("first hit for first key denied")
	}
	if res, _ := l.Allow(ctx, "1.2.3.4|/auth/login"); res.Allowed {
		t.Fatal("second hit for first key allowed")
	}

	// Otra IP y otro path no comparten contador.
	if res, _ := l.Allow(ctx, "5.6.7.8|/auth/login"); !res.Allowed {
		t.Fatal("different IP shares the counter")
	}
	if res, _ := l.Allow(ctx, "1.2.3.4|/auth/forgot-password"); !res.Allowed {
		t.Fatal("different path shares the counter")
	}
}

func TestMemoryLimiterWindowReset(t *testing.T) {
	l := NewMemoryLimiter(1, 50*time.Millisecond)
	ctx := context.Background()

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("first hit denied")
	}
	if res, _ := l.Allow(ctx, "k"); res.Allowed {
		t.Fatal("over-limit hit allowed")
	}

	time.Sleep(60 * time.Millisecond)

	if res, _ := l.Allow(ctx, "k"); !res.Allowed {
		t.Fatal("hit in the next window denied")
	}
}

func TestMemoryLimiterConcurrent(t *testing.T) {
	const max = 10
	l := NewMemoryLimiter(max, time.Minute)
	ctx := context.Background()

	var wg sync.WaitGroup
	allowed := make(chan bool, 50)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			res, err := l.Allow(ctx, "shared")
			if err != nil {
				t.Error(err)
				return
			}
			allowed <- res.Allowed
		}()
	}
	wg.Wait()
	close(allowed)

	count := 0
	for ok := range allowed {
		if ok {
			count++
		}
	}
	if count != max {
		t.Fatalf("allowed %d of 50 concurrent hits, want exactly %d", count, max)
	}
}
