// Package listing defines volunteer program records and the snapshot that
// publishes them.
//
// Records are keyed by their program registration number. Dates are plain
// YYYYMMDD strings as the portal sends them; anything else is treated as
// absent. The package also owns ordering (by notice end date) and
// deduplication, which every collection stage relies on.
package listing
