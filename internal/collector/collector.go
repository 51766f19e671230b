package collector

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/pfrederiksen/vols1365/internal/config"
	"github.com/pfrederiksen/vols1365/internal/filter"
	"github.com/pfrederiksen/vols1365/internal/listing"
	"github.com/pfrederiksen/vols1365/internal/logger"
)

// ErrExhausted is returned when every strategy of every relaxation stage
// collected nothing.
var ErrExhausted = errors.New("no listings collected after all fallbacks")

// Collector pages through the listing API under the strategy ladder and
// applies the local filters.
type Collector struct {
	fetcher PageFetcher
	cfg     config.Config
	filter  filter.Filter
}

// New creates a Collector for cfg that reads pages from fetcher.
func New(fetcher PageFetcher, cfg config.Config) *Collector {
	if cfg.ListConcurrency < 1 {
		cfg.ListConcurrency = 1
	}
	return &Collector{
		fetcher: fetcher,
		cfg:     cfg,
		filter:  filter.New(cfg),
	}
}

type stage struct {
	name   string
	shards []string
	filter filter.Filter
}

// stages lists the sweeps to try in order. Each relaxes the previous one;
// stages that would repeat the previous sweep are left out.
func (c *Collector) stages() []stage {
	shards := c.cfg.ShardKeys()
	if len(shards) == 0 {
		shards = []string{""}
	}

	f := c.filter
	out := []stage{{name: "initial", shards: shards, filter: f}}

	if relaxed := f; f.StrictRegion {
		relaxed.StrictRegion = false
		if relaxed.String() != f.String() {
			out = append(out, stage{name: "region-relaxed", shards: shards, filter: relaxed})
		}
		f = relaxed
	}
	if relaxed := f; f.RecruitingOnly {
		relaxed.RecruitingOnly = false
		out = append(out, stage{name: "recruiting-relaxed", shards: shards, filter: relaxed})
		f = relaxed
	}
	if len(shards) > 1 || shards[0] != "" {
		out = append(out, stage{name: "unsharded", shards: []string{""}, filter: filter.Filter{}})
	}
	return out
}

// Collect runs the sweeps until one keeps at least one record and returns
// those records deduplicated by ID in shard order.
func (c *Collector) Collect(ctx context.Context) ([]listing.Record, error) {
	for _, st := range c.stages() {
		start := time.Now()
		records, err := c.sweep(ctx, st.shards, st.filter)
		if err != nil {
			return nil, err
		}

		logger.Info("sweep finished", logger.Fields{
			"stage":       st.name,
			"shards":      len(st.shards),
			"filter":      st.filter.String(),
			"collected":   len(records),
			"duration_ms": time.Since(start).Milliseconds(),
		})
		if len(records) > 0 {
			logger.SetGauge("list.collected", float64(len(records)))
			return records, nil
		}
		logger.Warn("sweep collected nothing, relaxing", logger.Fields{"stage": st.name})
	}
	return nil, ErrExhausted
}

// sweep collects every shard with at most ListConcurrency shards in flight.
func (c *Collector) sweep(ctx context.Context, shards []string, f filter.Filter) ([]listing.Record, error) {
	results := make([][]listing.Record, len(shards))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.ListConcurrency)
	for i, shard := range shards {
		i, shard := i, shard
		g.Go(func() error {
			records, err := c.collectShard(gctx, shard, f)
			if err != nil {
				return err
			}
			results[i] = records
			if shard != "" {
				logger.Info("shard collected", logger.Fields{"shard": shard, "kept": len(records)})
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []listing.Record
	for _, r := range results {
		all = append(all, r...)
	}
	return listing.Dedup(all), nil
}

// collectShard walks the ladder for one shard and returns the first rung that
// keeps anything. Only context errors are returned; other failures end the
// rung. The page delay spans rungs, so falling through to the next rung
// still waits.
func (c *Collector) collectShard(ctx context.Context, shard string, f filter.Filter) ([]listing.Record, error) {
	limiter := rate.NewLimiter(rate.Inf, 1)
	if c.cfg.ListPageDelay > 0 {
		limiter = rate.NewLimiter(rate.Every(c.cfg.ListPageDelay), 1)
	}

	for _, s := range Strategies(c.cfg, shard) {
		kept, err := c.runStrategy(ctx, s, f, limiter)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			logger.Warn("strategy failed", logger.Fields{
				"strategy": s.Name,
				"kept":     len(kept),
				"error":    err.Error(),
			})
		}
		if len(kept) > 0 {
			logger.Info("strategy collected", logger.Fields{"strategy": s.Name, "kept": len(kept)})
			return kept, nil
		}
		logger.Debug("strategy kept nothing, trying next", logger.Fields{"strategy": s.Name})
	}
	return nil, nil
}

// runStrategy pages through one rung. Paging stops at an empty page, once
// DesiredMin records are kept, at MaxPages, or when the reported total is
// reached. Records kept before an error are returned with it.
func (c *Collector) runStrategy(ctx context.Context, s Strategy, f filter.Filter, limiter *rate.Limiter) ([]listing.Record, error) {
	var kept []listing.Record
	for page := 1; page <= c.cfg.MaxPages; page++ {
		if err := limiter.Wait(ctx); err != nil {
			return kept, err
		}

		q := s.Query
		q.NumOfRows = c.cfg.PageSize
		q.PageNo = page
		q.Type = "json"

		p, err := c.fetcher.FetchPage(ctx, s.Name, q)
		if err != nil {
			return kept, err
		}

		kept = append(kept, f.Apply(p.Records())...)
		logger.IncrCounter("list.pages")
		logger.AddCounter("list.items", int64(len(p.Items)))
		logger.Debug("list page", logger.Fields{
			"strategy":  s.Name,
			"page":      page,
			"total":     p.TotalCount,
			"pageItems": len(p.Items),
			"kept":      len(kept),
		})

		if len(p.Items) == 0 || len(kept) >= c.cfg.DesiredMin {
			break
		}
		if p.TotalCount > 0 && page*c.cfg.PageSize >= p.TotalCount {
			break
		}
	}
	return kept, nil
}
