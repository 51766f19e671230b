// Package enrich fills listing headcounts from the enrichment cache and the
// program detail pages.
//
// The listing API often omits the recruit count and never carries the
// applied count, so both are scraped from the detail page. Recruit counts
// learned on earlier runs are reused from the cache; applied counts are
// refreshed on every run.
package enrich
