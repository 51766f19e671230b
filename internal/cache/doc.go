// Package cache persists detail-page enrichment results between runs.
//
// The cache file maps program IDs to their last scraped recruit and applied
// headcounts:
//
//	{
//	  "2817523": {
//	    "recruit": "20",
//	    "applied": "4",
//	    "fetchedAt": "2025-06-02T00:10:11.123Z",
//	    "appliedFetchedAt": "2025-06-02T00:10:11.123Z"
//	  }
//	}
//
// Entries never expire. Recruit counts seed records the listing API left
// empty; applied counts are always refreshed from the detail page.
package cache
