// Package cli implements the command-line interface for vols-fetch.
//
// The root command runs one collection (list, filter, enrich, write) and
// prints a summary as text or JSON. Subcommands inspect the current snapshot
// (show), run the headcount extractor on a saved detail page (extract) and
// manage the API key stored in the OS keyring (key set, key delete).
package cli
