// Package scraper fetches 1365 program detail pages and extracts the recruit
// and applied headcounts.
//
// The listing API omits the applied count and often leaves the recruit count
// blank, so both are read from the public detail page. Page markup varies
// between definition lists, tables and free text; the extractor tries each
// layout per label and falls back to an inline "신청 N명 / M명" summary. Pages
// served in a legacy Korean encoding are transcoded before parsing.
package scraper
