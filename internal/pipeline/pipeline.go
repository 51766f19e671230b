package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/pfrederiksen/vols1365/internal/cache"
	"github.com/pfrederiksen/vols1365/internal/client"
	"github.com/pfrederiksen/vols1365/internal/collector"
	"github.com/pfrederiksen/vols1365/internal/config"
	"github.com/pfrederiksen/vols1365/internal/enrich"
	"github.com/pfrederiksen/vols1365/internal/listing"
	"github.com/pfrederiksen/vols1365/internal/logger"
	"github.com/pfrederiksen/vols1365/internal/retry"
	"github.com/pfrederiksen/vols1365/internal/scraper"
	"github.com/pfrederiksen/vols1365/internal/storage"
)

// Endpoints overrides the remote URLs. Empty fields use the production
// endpoints.
type Endpoints struct {
	ListURL   string
	DetailURL string
}

// Result summarizes a finished run.
type Result struct {
	RunID        string       `json:"run_id"`
	StartedAt    time.Time    `json:"started_at"`
	DurationMS   int64        `json:"duration_ms"`
	SnapshotPath string       `json:"snapshot_path"`
	CachePath    string       `json:"cache_path"`
	Count        int          `json:"count"`
	Stat         listing.Stat `json:"stat"`
}

// Run executes one collection: collect, enrich, sort, then write the
// snapshot and the cache. The cache is written only when every earlier step
// succeeded.
func Run(ctx context.Context, cfg config.Config, ep Endpoints) (*Result, error) {
	started := time.Now()
	runID := uuid.NewString()

	logger.Info("run starting", logger.Fields{
		"run_id":    runID,
		"today":     config.FormatYMD(cfg.Today),
		"sido_code": cfg.SidoCode,
		"keyword":   cfg.Keyword,
		"shards":    len(cfg.ShardKeys()),
	})

	store, err := storage.New(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("initializing storage: %w", err)
	}

	unlock, err := cache.Lock(store.CachePath())
	if err != nil {
		return nil, err
	}
	defer unlock() // nolint:errcheck

	rc, err := cache.Load(store.CachePath())
	if err != nil {
		return nil, err
	}

	transport := client.NewTransport()
	listClient := client.New("list", transport, cfg.ListConcurrency, cfg.HTTPTimeout)
	detailClient := client.New("detail", transport, cfg.DetailConcurrency, cfg.HTTPTimeout)
	policy := retry.DefaultPolicy().WithMaxRetries(cfg.RetryMax)

	api := collector.NewListAPI(listClient, policy, cfg.ServiceKey, storage.NewDumper(cfg.DebugDir))
	if ep.ListURL != "" {
		api = api.WithBaseURL(ep.ListURL)
	}
	records, err := collector.New(api, cfg).Collect(ctx)
	if err != nil {
		return nil, fmt.Errorf("collecting listings: %w", err)
	}

	sc := scraper.New(detailClient, policy)
	if ep.DetailURL != "" {
		sc = sc.WithBaseURL(ep.DetailURL)
	}
	stat, err := enrich.New(sc, rc, enrich.OptionsFrom(cfg)).Run(ctx, records)
	if err != nil {
		return nil, fmt.Errorf("enriching listings: %w", err)
	}

	listing.SortByNoticeEnd(records)

	snapshot := listing.NewSnapshot(records, cfg.Params(), stat, time.Now().UTC().Format(time.RFC3339))
	snapshot.RunID = runID
	if err := store.SaveSnapshot(snapshot); err != nil {
		return nil, err
	}
	if err := rc.Save(); err != nil {
		return nil, err
	}

	result := &Result{
		RunID:        runID,
		StartedAt:    started.UTC(),
		DurationMS:   time.Since(started).Milliseconds(),
		SnapshotPath: store.SnapshotPath(),
		CachePath:    store.CachePath(),
		Count:        snapshot.Count,
		Stat:         stat,
	}

	logger.Info("run metrics", logger.GetMetricsSnapshot())
	logger.Info("run finished", logger.Fields{
		"run_id":      runID,
		"count":       result.Count,
		"duration_ms": result.DurationMS,
	})
	return result, nil
}
