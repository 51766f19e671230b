package cli

import (
	"sort"
	"strconv"
	"strings"

	"github.com/pfrederiksen/vols1365/internal/listing"
)

// SortOrder represents the available sorting options
type SortOrder string

const (
	SortByNoticeEnd SortOrder = "notice"
	SortByTitle     SortOrder = "title"
	SortByRecruit   SortOrder = "recruit"
	SortByApplied   SortOrder = "applied"
)

// Valid reports whether o is a known sort order.
func (o SortOrder) Valid() bool {
	switch o {
	case SortByNoticeEnd, SortByTitle, SortByRecruit, SortByApplied:
		return true
	}
	return false
}

// sortRecords sorts records based on the specified sort order
func sortRecords(records []listing.Record, order SortOrder) {
	switch order {
	case SortByNoticeEnd:
		listing.SortByNoticeEnd(records)
	case SortByTitle:
		sort.SliceStable(records, func(i, j int) bool {
			return strings.ToLower(records[i].Title) < strings.ToLower(records[j].Title)
		})
	case SortByRecruit:
		sort.SliceStable(records, func(i, j int) bool {
			return compareCounts(records[i].Recruit, records[j].Recruit)
		})
	case SortByApplied:
		sort.SliceStable(records, func(i, j int) bool {
			return compareCounts(records[i].Applied, records[j].Applied)
		})
	}
}

// compareCounts orders headcounts largest first. Missing or non-numeric
// counts go last.
func compareCounts(a, b string) bool {
	na, errA := strconv.Atoi(a)
	nb, errB := strconv.Atoi(b)

	if errA == nil && errB == nil {
		return na > nb
	}
	// If only one count is valid, put the valid one first
	return errA == nil && errB != nil
}
