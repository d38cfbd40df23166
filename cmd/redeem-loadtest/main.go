// Command redeem-loadtest measures credential storage latency and checks
// that concurrent duplicate scans reach the ledger once per redemption.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/MrEthical07/goRedeem/credential"
	"github.com/MrEthical07/goRedeem/internal"
	"github.com/MrEthical07/goRedeem/redemption"
	"github.com/MrEthical07/goRedeem/workflow"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func main() {
	var (
		terminals   = flag.Int("terminals", 200, "number of terminals (credential slots and workflows)")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
		ops         = flag.Int("ops", 50000, "credential save/load operations")
		duplicates  = flag.Int("duplicates", 8, "concurrent scans delivered per redemption")
		ledgerDelay = flag.Duration("ledger-delay", 20*time.Millisecond, "simulated ledger latency")
		redisAddr   = flag.String("redis-addr", "", "redis address; if empty, REDIS_ADDR env or miniredis is used")
		prefix      = flag.String("prefix", "redeem-load", "credential key prefix")
	)
	flag.Parse()

	if *terminals <= 0 || *concurrency <= 0 || *ops <= 0 || *duplicates <= 0 {
		fmt.Fprintln(os.Stderr, "terminals, concurrency, ops and duplicates must be > 0")
		os.Exit(2)
	}

	ctx := context.Background()

	addr := *redisAddr
	if addr == "" {
		addr = os.Getenv("REDIS_ADDR")
	}

	var (
		cleanup func()
		client  redis.UniversalClient
	)
	if addr == "" {
		mr, err := miniredis.Run()
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to start miniredis: %v\n", err)
			os.Exit(1)
		}
		addr = mr.Addr()
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() {
			_ = client.Close()
			mr.Close()
		}
		fmt.Printf("using miniredis at %s\n", addr)
	} else {
		client = redis.NewUniversalClient(&redis.UniversalOptions{
			Addrs: []string{addr},
		})
		cleanup = func() { _ = client.Close() }
		fmt.Printf("using redis at %s\n", addr)
	}
	defer cleanup()

	stores := make([]*credential.Store, *terminals)
	for i := range stores {
		stores[i] = credential.NewStore(client, fmt.Sprintf("%s:%d", *prefix, i))
	}

	storeStats := runStorePhase(ctx, stores, *ops, *concurrency)
	scanStats, ledgerCalls := runScanPhase(ctx, *terminals, *duplicates, *ledgerDelay)

	fmt.Println("---- results ----")
	printStats("credentials", storeStats)
	printStats("redemption", scanStats)
	fmt.Printf("ledger calls=%d expected=%d\n", ledgerCalls, *terminals)
	if ledgerCalls != int64(*terminals) {
		fmt.Fprintln(os.Stderr, "duplicate scans reached the ledger")
		os.Exit(1)
	}
}

func runStorePhase(ctx context.Context, stores []*credential.Store, ops, concurrency int) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= ops {
					return
				}
				store := stores[i%len(stores)]
				t0 := time.Now()
				var err error
				if i%4 == 0 {
					err = store.Save(ctx, buildCredentials(i))
				} else {
					_, err = store.Load(ctx)
					if errors.Is(err, credential.ErrNoCredentials) {
						err = nil
					}
				}
				d := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, d)
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures)
}

// runScanPhase delivers duplicates concurrent scans to each workflow; only
// one per workflow may reach the ledger.
func runScanPhase(ctx context.Context, terminals, duplicates int, delay time.Duration) (phaseStats, int64) {
	var calls atomic.Int64
	ledger := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		time.Sleep(delay)
		w.WriteHeader(http.StatusOK)
	}))
	defer ledger.Close()

	client := redemption.NewClient(ledger.URL, redemption.WithHTTPClient(ledger.Client()))
	merchant := redemption.Merchant{MerchantID: "load", LocationID: "load", PosID: "load"}

	var (
		wg        sync.WaitGroup
		failures  int64
		latencies = make([]time.Duration, 0, terminals)
		mu        sync.Mutex
	)

	start := time.Now()
	for i := 0; i < terminals; i++ {
		wf, err := workflow.New(client, internal.NewReceiptGenerator(), merchant)
		if err != nil {
			fmt.Fprintf(os.Stderr, "workflow: %v\n", err)
			os.Exit(1)
		}
		if _, err := wf.SubmitAmountMinor(int64(100 + i)); err != nil {
			fmt.Fprintf(os.Stderr, "amount: %v\n", err)
			os.Exit(1)
		}

		card := fmt.Sprintf("card-%d", i)
		for d := 0; d < duplicates; d++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				t0 := time.Now()
				_, err := wf.Scanned(ctx, card)
				// Scans landing after the outcome are refused by state.
				if errors.Is(err, workflow.ErrScanIgnored) || errors.Is(err, workflow.ErrInvalidTransition) {
					return
				}
				elapsed := time.Since(t0)
				if err != nil {
					atomic.AddInt64(&failures, 1)
				}
				mu.Lock()
				latencies = append(latencies, elapsed)
				mu.Unlock()
			}()
		}
	}
	wg.Wait()
	total := time.Since(start)
	return computeStats(total, latencies, failures), calls.Load()
}

type phaseStats struct {
	total    time.Duration
	ops      int
	failures int64
	p50      time.Duration
	p95      time.Duration
	p99      time.Duration
	opsPerS  float64
}

func computeStats(total time.Duration, samples []time.Duration, failures int64) phaseStats {
	if len(samples) == 0 {
		return phaseStats{total: total}
	}
	sort.Slice(samples, func(i, j int) bool { return samples[i] < samples[j] })
	return phaseStats{
		total:    total,
		ops:      len(samples),
		failures: failures,
		p50:      percentile(samples, 50),
		p95:      percentile(samples, 95),
		p99:      percentile(samples, 99),
		opsPerS:  float64(len(samples)) / total.Seconds(),
	}
}

func percentile(samples []time.Duration, p int) time.Duration {
	if len(samples) == 0 {
		return 0
	}
	if p <= 0 {
		return samples[0]
	}
	if p >= 100 {
		return samples[len(samples)-1]
	}
	idx := (len(samples) - 1) * p / 100
	return samples[idx]
}

func printStats(name string, s phaseStats) {
	fmt.Printf("%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
		name,
		s.ops,
		s.failures,
		s.total.Round(time.Millisecond),
		s.opsPerS,
		s.p50.Round(time.Microsecond),
		s.p95.Round(time.Microsecond),
		s.p99.Round(time.Microsecond),
	)
}

func buildCredentials(i int) *credential.Credentials {
	return &credential.Credentials{
		AccessToken:  fmt.Sprintf("access-%d", i),
		RefreshToken: fmt.Sprintf("refresh-%d", i),
		ExpiresAt:    time.Now().Add(time.Hour).UnixMilli(),
		User: credential.UserProfile{
			ID:          fmt.Sprintf("uid-%d", i%97),
			Email:       "load@shop.test",
			DisplayName: "load",
		},
	}
}
