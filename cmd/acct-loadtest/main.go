// Command acct-loadtest measures client-side throughput and latency of the
// goAccounts request paths against an in-process stub backend.
//
// Two phases run back to back: "fetch" drives the plain request path, and
// "recover" drives the 401 → refresh → retry path of FetchWithRefresh, so
// the cost of session recovery shows up as its own latency distribution.
package main

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	goAccounts "github.com/MrEthical07/goAccounts"
)

func main() {
	var (
		ops         = flag.Int("ops", 50000, "operations per phase")
		concurrency = flag.Int("concurrency", 64, "number of concurrent workers")
	)
	flag.Parse()

	if *ops <= 0 || *concurrency <= 0 {
		fmt.Fprintln(os.Stderr, "ops and concurrency must be > 0")
		os.Exit(2)
	}

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		fmt.Fprintf(os.Stderr, "listen failed: %v\n", err)
		os.Exit(1)
	}
	backend := newStubBackend()
	server := &http.Server{Handler: backend}
	go func() { _ = server.Serve(listener) }()
	defer server.Close()

	baseURL := "http://" + listener.Addr().String()
	fmt.Printf("stub backend at %s\n", baseURL)

	client, err := goAccounts.New().
		WithBaseURL(baseURL).
		WithMetricsEnabled(true).
		WithLatencyHistograms(true).
		Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "client build failed: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	ctx := context.Background()

	backend.failFirst.Store(false)
	fetchStats := runPhase(ctx, client, baseURL, *ops, *concurrency, false)

	backend.failFirst.Store(true)
	recoverStats := runPhase(ctx, client, baseURL, *ops, *concurrency, true)

	fmt.Println("---- results ----")
	printStats("fetch", fetchStats)
	printStats("recover", recoverStats)

	snap := client.MetricsSnapshot()
	fmt.Printf("client counters: success=%d failure=%d unauthorized=%d retries=%d recovered=%d\n",
		snap.Counters[goAccounts.MetricFetchSuccess],
		snap.Counters[goAccounts.MetricFetchFailure],
		snap.Counters[goAccounts.MetricUnauthorized],
		snap.Counters[goAccounts.MetricRetryIssued],
		snap.Counters[goAccounts.MetricRetryRecovered],
	)
}

func runPhase(ctx context.Context, client *goAccounts.Client, baseURL string, ops, concurrency int, withRefresh bool) phaseStats {
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

				url := baseURL + "/api/v1/users"
				if withRefresh {
					// A unique op marker lets the stub fail exactly the
					// first attempt of each operation.
					url = fmt.Sprintf("%s?op=%d", url, i)
				}
				req := goAccounts.FetchRequest{URL: url}
				t0 := time.Now()
				var result *goAccounts.FetchResult
				var err error
				if withRefresh {
					result, err = client.FetchWithRefresh(ctx, req)
				} else {
					result, err = client.Fetch(ctx, req)
				}
				d := time.Since(t0)

				if err != nil || !result.OK() {
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

// stubBackend answers the users endpoint and the refresh endpoint. When
// failFirst is set, the first request carrying a given op marker gets a 401
// and later ones succeed, so every FetchWithRefresh walks the full
// 401 → refresh → retry path exactly once.
type stubBackend struct {
	failFirst atomic.Bool
	seenOps   sync.Map
}

func newStubBackend() *stubBackend {
	return &stubBackend{}
}

func (s *stubBackend) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if r.URL.Path == "/api/v1/sessions/refresh-session" {
		// A failed refresh makes the client retry the original request.
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Refresh failed"}`))
		return
	}

	if s.failFirst.Load() {
		op := r.URL.Query().Get("op")
		if _, seen := s.seenOps.LoadOrStore(op, struct{}{}); !seen {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"message":"Expired"}`))
			return
		}
	}
	_, _ = w.Write([]byte(`[{"id":1,"username":"alice","email":"alice@example.com"}]`))
}
