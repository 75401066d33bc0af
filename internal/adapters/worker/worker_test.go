package worker_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	worker "github.com/sharveshsanjay/clash-royale/internal/adapters/worker"
	model "github.com/sharveshsanjay/clash-royale/internal/domain/model"
	logging "github.com/sharveshsanjay/clash-royale/pkg/logger"
	"github.com/smartystreets/goconvey/convey"
)

// mockFetcher returns canned details and tracks concurrency.
type mockFetcher struct {
	mu       sync.Mutex
	errors   map[string]error
	delay    time.Duration
	inflight int32
	peak     int32
	calls    int32
}

func newMockFetcher() *mockFetcher {
	return &mockFetcher{errors: make(map[string]error)}
}

func (f *mockFetcher) PlayerDetails(ctx context.Context, tag string) (model.PlayerDetails, error) {
	atomic.AddInt32(&f.calls, 1)
	cur := atomic.AddInt32(&f.inflight, 1)
	defer atomic.AddInt32(&f.inflight, -1)
	for {
		peak := atomic.LoadInt32(&f.peak)
		if cur <= peak || atomic.CompareAndSwapInt32(&f.peak, peak, cur) {
			break
		}
	}
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return model.PlayerDetails{}, ctx.Err()
		}
	}

	f.mu.Lock()
	err := f.errors[tag]
	f.mu.Unlock()
	if err != nil {
		return model.PlayerDetails{}, err
	}
	return model.PlayerDetails{Tag: tag, BestTrophies: len(tag) * 1000}, nil
}

func (f *mockFetcher) setError(tag string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errors[tag] = err
}

func roster(n int) []model.MemberRecord {
	out := make([]model.MemberRecord, n)
	for i := range out {
		out[i] = model.MemberRecord{
			Tag:      fmt.Sprintf("#P%d", i),
			Name:     fmt.Sprintf("player-%d", i),
			Role:     model.RoleMember,
			Trophies: 1000 * i,
		}
	}
	return out
}

func TestPool(t *testing.T) {
	convey.Convey("Given a new enrichment Pool", t, func() {
		fetcher := newMockFetcher()

		convey.Convey("When creating a pool with an invalid count", func() {
			p := worker.NewPool(0, fetcher)

			convey.Convey("Then the default count is used", func() {
				convey.So(p.WorkerCount(), convey.ShouldEqual, worker.DefaultWorkerCount)
			})
		})

		convey.Convey("When enriching a roster", func() {
			fetcher.delay = 5 * time.Millisecond
			p := worker.NewPool(3, fetcher,
				worker.WithName("test"),
				worker.WithLogger(logging.Nop()),
			)
			members := roster(10)
			profiles := p.Enrich(context.Background(), members)

			convey.Convey("Then profiles keep roster order and carry details", func() {
				convey.So(profiles, convey.ShouldHaveLength, 10)
				for i, prof := range profiles {
					convey.So(prof.Tag, convey.ShouldEqual, members[i].Tag)
					convey.So(prof.Details, convey.ShouldNotBeNil)
					convey.So(prof.Details.Tag, convey.ShouldEqual, members[i].Tag)
				}
			})

			convey.Convey("Then concurrency never exceeds the worker count", func() {
				convey.So(atomic.LoadInt32(&fetcher.peak), convey.ShouldBeLessThanOrEqualTo, int32(3))
				convey.So(atomic.LoadInt32(&fetcher.calls), convey.ShouldEqual, int32(10))
			})

			convey.Convey("Then display fields are derived", func() {
				convey.So(profiles[0].ArenaName, convey.ShouldEqual, "Training")
				convey.So(profiles[0].RoleLabel, convey.ShouldEqual, "Member")
			})
		})

		convey.Convey("When some lookups fail", func() {
			fetcher.setError("#P1", errors.New("boom"))
			fetcher.setError("#P3", errors.New("boom"))
			profiles := worker.NewPool(2, fetcher).Enrich(context.Background(), roster(5))

			convey.Convey("Then only the failed members lack details", func() {
				convey.So(profiles, convey.ShouldHaveLength, 5)
				convey.So(profiles[1].Details, convey.ShouldBeNil)
				convey.So(profiles[3].Details, convey.ShouldBeNil)
				convey.So(profiles[0].Details, convey.ShouldNotBeNil)
				convey.So(profiles[4].Details, convey.ShouldNotBeNil)
			})
		})

		convey.Convey("When the roster is empty", func() {
			profiles := worker.NewPool(4, fetcher).Enrich(context.Background(), nil)

			convey.Convey("Then an empty slice is returned", func() {
				convey.So(profiles, convey.ShouldNotBeNil)
				convey.So(profiles, convey.ShouldBeEmpty)
			})
		})

		convey.Convey("When context is cancelled", func() {
			fetcher.delay = time.Second
			ctx, cancel := context.WithCancel(context.Background())
			cancel()

			done := make(chan []model.MemberProfile, 1)
			go func() { done <- worker.NewPool(2, fetcher).Enrich(ctx, roster(6)) }()

			convey.Convey("Then enrichment stops promptly with every slot present", func() {
				select {
				case profiles := <-done:
					convey.So(profiles, convey.ShouldHaveLength, 6)
					convey.So(atomic.LoadInt32(&fetcher.calls), convey.ShouldBeLessThanOrEqualTo, int32(6))
				case <-time.After(500 * time.Millisecond):
					t.Fatal("enrichment did not stop")
				}
			})
		})
	})
}
