package main

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/MrEthical07/pgjwt"
	"github.com/MrEthical07/pgjwt/secret"
)

type benchOptions struct {
	ops         int
	concurrency int
	metrics     string
}

func newBenchCmd(c *cli) *cobra.Command {
	opts := &benchOptions{}

	cmd := &cobra.Command{
		Use:   "bench",
		Short: "Measure validation throughput and latency",
		Long: `Bench drives the validator from many goroutines, first with tokens that are accepted
and then with tokens signed by a different key, and reports throughput and latency percentiles
for each phase.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.ops <= 0 || opts.concurrency <= 0 {
				return errors.New("ops and concurrency must be > 0")
			}
			switch opts.metrics {
			case "", metricsPrometheus, metricsOTel:
			default:
				return fmt.Errorf("unknown metrics format %q", opts.metrics)
			}
			key, err := c.secret()
			if errors.Is(err, errNoSecret) {
				key = []byte("pgjwt-bench-secret-0123456789abcdef")
			} else if err != nil {
				return err
			}
			return runBench(c, key, *opts)
		},
	}

	cmd.Flags().IntVar(&opts.ops, "ops", 200000, "Validations per phase")
	cmd.Flags().IntVar(&opts.concurrency, "concurrency", 64, "Concurrent workers")
	cmd.Flags().StringVar(&opts.metrics, "metrics", "", "Also dump validator metrics (prometheus, otel)")
	return cmd
}

func runBench(c *cli, key []byte, opts benchOptions) error {
	store := &secret.Store{}
	store.Init(key)

	// Denials log at warn; keep them out of the measurement.
	v, err := pgjwt.New().WithLogger(zap.NewNop()).WithSecretStore(store).Build()
	if err != nil {
		return err
	}
	defer v.Close()

	h := v.Startup()
	defer v.Shutdown(h)

	mintOpts := mintOptions{
		email:    "bench@example.com",
		role:     "bench",
		issuer:   "pgjwt-bench",
		audience: []string{"pgjwt-bench"},
		ttl:      time.Hour,
	}
	good, err := mintToken(key, mintOpts, time.Now())
	if err != nil {
		return err
	}
	bad, err := mintToken(append([]byte("other-"), key...), mintOpts, time.Now())
	if err != nil {
		return err
	}

	c.logger.Info("bench starting", zap.Int("ops", opts.ops), zap.Int("concurrency", opts.concurrency))

	accept := runPhase(v, h, pgjwt.Request{Token: good, Role: "bench"}, true, opts)
	deny := runPhase(v, h, pgjwt.Request{Token: bad, Role: "bench"}, false, opts)

	if _, err := fmt.Fprintln(c.out, "---- results ----"); err != nil {
		return err
	}
	printStats(c.out, "accept", accept)
	printStats(c.out, "deny", deny)

	snap := v.MetricsSnapshot()
	if _, err := fmt.Fprintf(c.out, "counters: authorized=%d denied=%d\n",
		snap.Counters[pgjwt.MetricValidateAuthorized],
		snap.Counters[pgjwt.MetricValidateDenied],
	); err != nil {
		return err
	}
	return dumpMetrics(c.out, v, opts.metrics)
}

// runPhase counts a failure whenever the outcome differs from wantAuthorized.
func runPhase(v *pgjwt.Validator, h pgjwt.StateHandle, req pgjwt.Request, wantAuthorized bool, opts benchOptions) phaseStats {
	var (
		wg        sync.WaitGroup
		cursor    int64
		failures  int64
		latencies = make([]time.Duration, 0, opts.ops)
		mu        sync.Mutex
	)

	start := time.Now()
	for w := 0; w < opts.concurrency; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			alloc := newGoAllocator()
			local := make([]time.Duration, 0, opts.ops/opts.concurrency+1)
			for {
				i := int(atomic.AddInt64(&cursor, 1)) - 1
				if i >= opts.ops {
					break
				}
				t0 := time.Now()
				res, err := v.Validate(h, req, alloc)
				local = append(local, time.Since(t0))
				if err != nil || res.Authorized != wantAuthorized {
					atomic.AddInt64(&failures, 1)
				}
				if res.Identity != nil {
					delete(alloc.bufs, res.Identity)
				}
			}
			mu.Lock()
			latencies = append(latencies, local...)
			mu.Unlock()
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

func printStats(w io.Writer, name string, s phaseStats) {
	_, _ = fmt.Fprintf(w, "%s: ops=%d failures=%d total=%s ops/sec=%.0f p50=%s p95=%s p99=%s\n",
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
