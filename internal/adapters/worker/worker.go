package worker

import (
	"context"
	"sync"
	"time"

	"github.com/sharveshsanjay/clash-royale/internal/domain/model"
	"github.com/sharveshsanjay/clash-royale/pkg/logger"
	"github.com/sharveshsanjay/clash-royale/pkg/metrics"
)

// DefaultWorkerCount bounds concurrent lookups when no count is given.
const DefaultWorkerCount = 4

// Fetcher loads the profile details of one player.
type Fetcher interface {
	PlayerDetails(ctx context.Context, tag string) (model.PlayerDetails, error)
}

// job is one roster slot to enrich.
type job struct {
	index  int
	member model.MemberRecord
}

// inMemoryWorker drains jobs and writes details into its slot of out.
type inMemoryWorker struct {
	id      int
	fetcher Fetcher
	logger  logger.Logger
	metrics *metrics.Manager
}

// run processes jobs until the channel closes or ctx is done.
func (w *inMemoryWorker) run(ctx context.Context, jobs <-chan job, out []model.MemberProfile) {
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-jobs:
			if !ok {
				return
			}
			w.process(ctx, j, out)
		}
	}
}

func (w *inMemoryWorker) process(ctx context.Context, j job, out []model.MemberProfile) {
	start := time.Now()
	d, err := w.fetcher.PlayerDetails(ctx, j.member.Tag)
	latency := float64(time.Since(start).Microseconds()) / 1000
	w.metrics.RecordEnrichment(latency, err != nil)
	if err != nil {
		w.metrics.RecordErrorByComponent("worker", "enrichment_error")
		w.logger.Warn(ctx, "player enrichment failed",
			logger.Int("worker_id", w.id),
			logger.String("tag", j.member.Tag),
			logger.Error(err),
		)
		return
	}
	out[j.index].Details = &d
}

// Pool enriches rosters with a fixed number of workers per call.
type Pool struct {
	name        string
	workerCount int
	fetcher     Fetcher
	logger      logger.Logger
	metrics     *metrics.Manager
}

// NewPool creates a pool. A workerCount below one uses DefaultWorkerCount.
func NewPool(workerCount int, fetcher Fetcher, opts ...Option) *Pool {
	if workerCount < 1 {
		workerCount = DefaultWorkerCount
	}
	p := &Pool{
		name:        "enrich",
		workerCount: workerCount,
		fetcher:     fetcher,
		logger:      logger.Nop(),
		metrics:     metrics.Default(),
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.Named(p.name)
	return p
}

// WorkerCount returns the configured concurrency.
func (p *Pool) WorkerCount() int { return p.workerCount }

// Enrich returns one profile per roster member, in roster order. A failed or
// skipped lookup leaves Details nil; the batch itself never fails. Once ctx is
// done no further lookups are started.
func (p *Pool) Enrich(ctx context.Context, roster []model.MemberRecord) []model.MemberProfile {
	out := make([]model.MemberProfile, len(roster))
	for i, m := range roster {
		out[i] = model.NewMemberProfile(m)
	}
	if len(roster) == 0 {
		return out
	}

	n := p.workerCount
	if n > len(roster) {
		n = len(roster)
	}

	jobs := make(chan job)
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		w := &inMemoryWorker{id: i, fetcher: p.fetcher, logger: p.logger, metrics: p.metrics}
		go func() {
			defer wg.Done()
			w.run(ctx, jobs, out)
		}()
	}

feed:
	for i, m := range roster {
		select {
		case jobs <- job{index: i, member: m}:
		case <-ctx.Done():
			p.logger.Warn(ctx, "enrichment cancelled",
				logger.Int("remaining", len(roster)-i),
				logger.Error(ctx.Err()),
			)
			break feed
		}
	}
	close(jobs)
	wg.Wait()
	return out
}
