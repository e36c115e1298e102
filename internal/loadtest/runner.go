package loadtest

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/starter/internal/apiclient"
	"github.com/okian/starter/internal/domain/types"
	"github.com/okian/starter/pkg/logger"
)

const percentageMultiplier = 100

// errInvalidResponse marks a 2xx reply whose body failed verification.
var errInvalidResponse = errors.New("invalid response")

type outcome int

const (
	outcomeSuccess outcome = iota
	outcomeFailed
	outcomeInvalid
)

// Run checks the service is healthy, then sends cfg.Requests requests
// spread over cfg.Workers workers.
func Run(ctx context.Context, cfg Config, log logger.Logger) (Stats, error) {
	if err := cfg.Validate(); err != nil {
		return Stats{}, err
	}
	client, err := apiclient.New(cfg.BaseURL, apiclient.WithTimeout(cfg.Timeout))
	if err != nil {
		return Stats{}, err
	}

	log.Info(ctx, "starting load test",
		logger.String("baseURL", client.BaseURL()),
		logger.String("target", cfg.Target),
		logger.Int("requests", cfg.Requests),
		logger.Int("workers", cfg.Workers),
		logger.Duration("timeout", cfg.Timeout))

	h, err := client.Health(ctx)
	if err != nil {
		return Stats{}, fmt.Errorf("service health check failed: %w", err)
	}
	if !h.Healthy() {
		return Stats{}, fmt.Errorf("service health check failed: status %q", h.Status)
	}

	call := request(client, cfg.Target)

	var (
		successful atomic.Int64
		failed     atomic.Int64
		invalid    atomic.Int64
		mu         sync.Mutex
		latencies  = make([]time.Duration, 0, cfg.Requests)
	)

	start := time.Now()
	jobs := make(chan int, cfg.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < cfg.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for n := range jobs {
				t0 := time.Now()
				res := call(ctx, n)
				took := time.Since(t0)

				switch res {
				case outcomeSuccess:
					successful.Add(1)
					mu.Lock()
					latencies = append(latencies, took)
					mu.Unlock()
				case outcomeInvalid:
					invalid.Add(1)
				default:
					failed.Add(1)
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for n := 0; n < cfg.Requests; n++ {
			select {
			case <-ctx.Done():
				return
			case jobs <- n:
			}
		}
	}()

	wg.Wait()

	stats := summarise(cfg.Target, time.Since(start), int(successful.Load()), int(failed.Load()), int(invalid.Load()), latencies)

	log.Info(ctx, "load test finished",
		logger.Int("requests", stats.Requests),
		logger.Int("successful", stats.Successful),
		logger.Int("failed", stats.Failed),
		logger.Int("invalid", stats.Invalid),
		logger.Duration("duration", stats.Duration),
		logger.Float64("successRate", stats.SuccessRate),
		logger.Float64("requestsPerSecond", stats.RequestsPerSecond),
		logger.Duration("p99", stats.LatencyP99))

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

// request returns the call for target; n distinguishes example ids.
func request(c *apiclient.Client, target string) func(context.Context, int) outcome {
	return func(ctx context.Context, n int) outcome {
		var err error
		switch target {
		case TargetHealth:
			var h types.HealthResponse
			if h, err = c.Health(ctx); err == nil && !h.Healthy() {
				err = errInvalidResponse
			}
		case TargetExample:
			id := strconv.Itoa(n)
			var item types.ExampleItem
			if item, err = c.Example(ctx, id); err == nil && item.ID != id {
				err = errInvalidResponse
			}
		default:
			var hello types.HelloResponse
			if hello, err = c.Hello(ctx); err == nil {
				err = verifyHello(hello)
			}
		}
		switch {
		case err == nil:
			return outcomeSuccess
		case errors.Is(err, errInvalidResponse), errors.Is(err, apiclient.ErrDecode):
			return outcomeInvalid
		default:
			return outcomeFailed
		}
	}
}

func verifyHello(h types.HelloResponse) error {
	if h.Message == "" {
		return fmt.Errorf("%w: empty message", errInvalidResponse)
	}
	if _, err := time.Parse(types.TimestampLayout, h.Timestamp); err != nil {
		return fmt.Errorf("%w: timestamp %q", errInvalidResponse, h.Timestamp)
	}
	return nil
}

func summarise(target string, d time.Duration, ok, failed, invalid int, latencies []time.Duration) Stats {
	s := Stats{
		Target:     target,
		Requests:   ok + failed + invalid,
		Successful: ok,
		Failed:     failed,
		Invalid:    invalid,
		Duration:   d,
	}
	if s.Requests > 0 {
		s.SuccessRate = float64(ok) / float64(s.Requests) * percentageMultiplier
	}
	if d > 0 {
		s.RequestsPerSecond = float64(s.Requests) / d.Seconds()
	}
	if len(latencies) > 0 {
		slices.Sort(latencies)
		s.LatencyP50 = percentile(latencies, 50)
		s.LatencyP95 = percentile(latencies, 95)
		s.LatencyP99 = percentile(latencies, 99)
		s.LatencyMax = latencies[len(latencies)-1]
	}
	return s
}

// percentile uses nearest-rank on a sorted slice.
func percentile(sorted []time.Duration, p int) time.Duration {
	rank := (p*len(sorted) + 99) / 100
	if rank < 1 {
		rank = 1
	}
	return sorted[rank-1]
}
