package enrich

import (
	"context"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pfrederiksen/vols1365/internal/cache"
	"github.com/pfrederiksen/vols1365/internal/config"
	"github.com/pfrederiksen/vols1365/internal/listing"
	"github.com/pfrederiksen/vols1365/internal/logger"
	"github.com/pfrederiksen/vols1365/internal/scraper"
)

// CountFetcher retrieves the headcounts shown on a program's detail page.
type CountFetcher interface {
	FetchCounts(ctx context.Context, id string) (scraper.Counts, error)
}

// Options bound the detail pass.
type Options struct {
	Concurrency int
	Delay       time.Duration // wait before each detail fetch
	MaxDetail   int           // records beyond this index are not fetched
}

// OptionsFrom reads the detail settings from cfg.
func OptionsFrom(cfg config.Config) Options {
	return Options{
		Concurrency: cfg.DetailConcurrency,
		Delay:       cfg.DetailDelay,
		MaxDetail:   cfg.MaxDetail,
	}
}

// Enricher fills recruit and applied headcounts from the cache and from
// detail pages.
type Enricher struct {
	fetcher CountFetcher
	cache   *cache.Cache
	opts    Options
}

// New creates an Enricher. Results are written back to c.
func New(fetcher CountFetcher, c *cache.Cache, opts Options) *Enricher {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	return &Enricher{
		fetcher: fetcher,
		cache:   c,
		opts:    opts,
	}
}

// Run enriches records in place and returns the fill statistics.
//
// Cached recruit counts fill records the API left empty. Then the first
// MaxDetail records are fetched: a scraped recruit count is used only when the
// record still has none, while a scraped applied count always replaces the
// record's. A failed fetch leaves both fields as they were. Only context
// cancellation is returned as an error.
func (e *Enricher) Run(ctx context.Context, records []listing.Record) (listing.Stat, error) {
	stat := listing.Stat{Total: len(records)}

	for i := range records {
		r := &records[i]
		if r.Recruit == "" {
			if entry, ok := e.cache.Get(r.ID); ok && entry.Recruit != "" {
				r.Recruit = entry.Recruit
			}
		}
		if r.Recruit != "" {
			stat.Recruit.FromAPIOrCache++
		}
	}

	n := len(records)
	if e.opts.MaxDetail < n {
		n = e.opts.MaxDetail
	}
	if n <= 0 {
		return stat, nil
	}

	var mu sync.Mutex
	start := time.Now()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.opts.Concurrency)
	for i := 0; i < n; i++ {
		i := i
		g.Go(func() error {
			if e.opts.Delay > 0 {
				select {
				case <-gctx.Done():
					return gctx.Err()
				case <-time.After(e.opts.Delay):
				}
			}

			r := &records[i]
			counts, err := e.fetcher.FetchCounts(gctx, r.ID)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				logger.Warn("detail scrape failed", logger.Fields{
					"id":    r.ID,
					"error": err.Error(),
				})
				counts = scraper.Counts{}
			}

			mu.Lock()
			stat.TriedDetail++
			if counts.Recruit != "" && r.Recruit == "" {
				r.Recruit = counts.Recruit
				stat.Recruit.FromDetail++
			}
			if counts.Applied != "" {
				r.Applied = counts.Applied
				stat.Applied.FromDetail++
			}
			if r.Recruit == "" {
				stat.Recruit.StillEmpty++
			}
			if r.Applied == "" {
				stat.Applied.StillEmpty++
			}
			mu.Unlock()

			e.cache.Put(r.ID, r.Recruit, r.Applied)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return stat, err
	}

	logger.RecordTiming("detail.pass", time.Since(start))
	logger.Info("detail pass finished", logger.Fields{
		"tried":             stat.TriedDetail,
		"recruit_detail":    stat.Recruit.FromDetail,
		"recruit_empty":     stat.Recruit.StillEmpty,
		"applied_detail":    stat.Applied.FromDetail,
		"applied_empty":     stat.Applied.StillEmpty,
		"recruit_api_cache": stat.Recruit.FromAPIOrCache,
	})
	return stat, nil
}
