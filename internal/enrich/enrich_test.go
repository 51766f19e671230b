package enrich

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pfrederiksen/vols1365/internal/cache"
	"github.com/pfrederiksen/vols1365/internal/listing"
	"github.com/pfrederiksen/vols1365/internal/scraper"
)

type fakeFetcher struct {
	mu      sync.Mutex
	counts  map[string]scraper.Counts
	fail    map[string]bool
	fetched []string

	inFlight, peak int32
}

func (f *fakeFetcher) FetchCounts(ctx context.Context, id string) (scraper.Counts, error) {
	n := atomic.AddInt32(&f.inFlight, 1)
	defer atomic.AddInt32(&f.inFlight, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}
	time.Sleep(time.Millisecond)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetched = append(f.fetched, id)
	if f.fail[id] {
		return scraper.Counts{}, errors.New("fetching detail: 503")
	}
	return f.counts[id], nil
}

func newCache(t *testing.T) *cache.Cache {
	t.Helper()
	return cache.New(filepath.Join(t.TempDir(), "recruit_cache.json"))
}

func TestRun(t *testing.T) {
	c := newCache(t)
	c.Put("2", "40", "")

	records := []listing.Record{
		{ID: "1", Recruit: "10"}, // from the API
		{ID: "2"},                // from the cache
		{ID: "3"},                // from the detail page
		{ID: "4"},                // scrape fails
	}
	f := &fakeFetcher{
		counts: map[string]scraper.Counts{
			"1": {Recruit: "99", Applied: "3"},
			"2": {Applied: "0"},
			"3": {Recruit: "15", Applied: "8"},
		},
		fail: map[string]bool{"4": true},
	}

	stat, err := New(f, c, Options{Concurrency: 2, MaxDetail: 100}).Run(context.Background(), records)
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	want := []listing.Record{
		{ID: "1", Recruit: "10", Applied: "3"},
		{ID: "2", Recruit: "40", Applied: "0"},
		{ID: "3", Recruit: "15", Applied: "8"},
		{ID: "4"},
	}
	for i := range want {
		if records[i] != want[i] {
			t.Errorf("records[%d] = %+v, want %+v", i, records[i], want[i])
		}
	}

	wantStat := listing.Stat{
		Total:       4,
		TriedDetail: 4,
		Recruit:     listing.RecruitStat{FromAPIOrCache: 2, FromDetail: 1, StillEmpty: 1},
		Applied:     listing.AppliedStat{FromDetail: 3, StillEmpty: 1},
	}
	if stat != wantStat {
		t.Errorf("stat = %+v, want %+v", stat, wantStat)
	}

	if e, _ := c.Get("3"); e.Recruit != "15" || e.Applied != "8" || e.AppliedFetchedAt == "" {
		t.Errorf("cache entry 3 = %+v", e)
	}
	if e, ok := c.Get("4"); !ok || e.Recruit != "" || e.AppliedFetchedAt != "" {
		t.Errorf("cache entry 4 = %+v, %v", e, ok)
	}
}

func TestRun_MaxDetail(t *testing.T) {
	records := []listing.Record{{ID: "a"}, {ID: "b"}, {ID: "c"}}
	f := &fakeFetcher{counts: map[string]scraper.Counts{
		"a": {Applied: "1"}, "b": {Applied: "1"}, "c": {Applied: "1"},
	}}

	stat, err := New(f, newCache(t), Options{Concurrency: 4, MaxDetail: 2}).Run(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if stat.TriedDetail != 2 || len(f.fetched) != 2 {
		t.Errorf("tried %d, fetched %v, want the first 2", stat.TriedDetail, f.fetched)
	}
	if records[2].Applied != "" {
		t.Errorf("record beyond MaxDetail was enriched: %+v", records[2])
	}
}

func TestRun_ConcurrencyBound(t *testing.T) {
	records := make([]listing.Record, 20)
	for i := range records {
		records[i].ID = string(rune('a' + i))
	}
	f := &fakeFetcher{}

	if _, err := New(f, newCache(t), Options{Concurrency: 3, MaxDetail: 100}).Run(context.Background(), records); err != nil {
		t.Fatal(err)
	}
	if f.peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", f.peak)
	}
	if len(f.fetched) != 20 {
		t.Errorf("fetched %d, want 20", len(f.fetched))
	}
}

func TestRun_CacheRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "recruit_cache.json")

	first := cache.New(path)
	f := &fakeFetcher{counts: map[string]scraper.Counts{"7": {Recruit: "12", Applied: "5"}}}
	if _, err := New(f, first, Options{Concurrency: 1, MaxDetail: 10}).Run(context.Background(), []listing.Record{{ID: "7"}}); err != nil {
		t.Fatal(err)
	}
	if err := first.Save(); err != nil {
		t.Fatal(err)
	}

	// Next run: the API still omits the recruit count and detail fetching
	// is off, so the value must come from the saved cache.
	second, err := cache.Load(path)
	if err != nil {
		t.Fatal(err)
	}
	records := []listing.Record{{ID: "7"}}
	stat, err := New(&fakeFetcher{}, second, Options{MaxDetail: 0}).Run(context.Background(), records)
	if err != nil {
		t.Fatal(err)
	}
	if records[0].Recruit != "12" {
		t.Errorf("Recruit = %q, want 12 from cache", records[0].Recruit)
	}
	if stat.Recruit.FromAPIOrCache != 1 || stat.TriedDetail != 0 {
		t.Errorf("stat = %+v", stat)
	}
}

func TestRun_ContextCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	records := []listing.Record{{ID: "1"}, {ID: "2"}}
	_, err := New(&fakeFetcher{}, newCache(t), Options{Concurrency: 1, Delay: time.Second, MaxDetail: 10}).Run(ctx, records)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}
