// Package collector gathers listing records from the 1365 listing API.
//
// Each shard (a district keyword, or the empty key when sharding is off)
// walks a ladder of query strategies from most to least restrictive and stops
// at the first one whose pages keep at least one record after local
// filtering. Shards run concurrently up to LIST_CONCURRENCY; pages within a
// strategy run one at a time, spaced by LIST_PAGE_DELAY_MS.
//
// When a whole sweep keeps nothing, the sweep is repeated with the region
// filter off, then with the recruiting filter off, and finally once more
// without shards or filters. If that also keeps nothing Collect returns
// ErrExhausted.
//
// Example usage:
//
//	api := collector.NewListAPI(listClient, retry.DefaultPolicy(), cfg.ServiceKey, dumper)
//	records, err := collector.New(api, cfg).Collect(ctx)
package collector
