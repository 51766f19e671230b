// Package storage provides file persistence for the collector.
//
// Snapshots are written as indented JSON to 1365.json under the data
// directory, replacing the previous file atomically. Raw listing responses
// that could not be used are dumped to the debug directory.
package storage
