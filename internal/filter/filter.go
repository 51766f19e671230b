// Package filter applies the local post-filters to listing records.
//
// The listing API ignores or loosely applies some of its own query filters,
// so every page is filtered again before records are kept:
//   - Recruiting only: today (KST) must fall inside the notice window
//   - Strict region: the record's region code must match, or its place or
//     organization names must mention the region
//
// Example usage:
//
//	f := filter.New(cfg)
//	kept := f.Apply(page.Records())
//
//	// Relax the region check after a sweep that kept nothing
//	f.StrictRegion = false
package filter

import (
	"strings"

	"github.com/pfrederiksen/vols1365/internal/config"
	"github.com/pfrederiksen/vols1365/internal/listing"
)

// Filter holds the local filtering criteria.
type Filter struct {
	// Recruiting-only filtering against Today (YYYYMMDD)
	RecruitingOnly bool
	Today          string

	// Region filtering. Applies only when SidoCode is set.
	StrictRegion bool
	SidoCode     string
	Hints        []string
}

// New builds the filter described by cfg.
func New(cfg config.Config) Filter {
	return Filter{
		RecruitingOnly: cfg.RecruitingOnly,
		Today:          config.FormatYMD(cfg.Today),
		StrictRegion:   cfg.StrictRegionFilter,
		SidoCode:       cfg.SidoCode,
		Hints:          cfg.RegionHints(),
	}
}

// IsEmpty reports whether the filter would keep every record.
func (f Filter) IsEmpty() bool {
	return !f.RecruitingOnly && !f.regionActive()
}

func (f Filter) regionActive() bool {
	return f.StrictRegion && f.SidoCode != ""
}

// Matches reports whether r passes every active criterion.
//
// Matching logic:
//   - RecruitingOnly: noticeBgnde and noticeEndde are both valid dates and
//     Today lies between them, inclusive
//   - StrictRegion: sidoCd equals SidoCode, or actPlace, mnnstNm or nanmmbyNm
//     contains one of Hints
func (f Filter) Matches(r listing.Record) bool {
	if f.RecruitingOnly && !IsRecruiting(r, f.Today) {
		return false
	}
	if f.regionActive() && !InRegion(r, f.SidoCode, f.Hints) {
		return false
	}
	return true
}

// Apply returns the records that match, preserving order.
func (f Filter) Apply(records []listing.Record) []listing.Record {
	if f.IsEmpty() {
		return records
	}

	filtered := make([]listing.Record, 0, len(records))
	for _, r := range records {
		if f.Matches(r) {
			filtered = append(filtered, r)
		}
	}
	return filtered
}

// String describes the active criteria for log output.
func (f Filter) String() string {
	if f.IsEmpty() {
		return "none"
	}
	var parts []string
	if f.RecruitingOnly {
		parts = append(parts, "recruiting@"+f.Today)
	}
	if f.regionActive() {
		parts = append(parts, "region="+f.SidoCode)
	}
	return strings.Join(parts, ",")
}

// IsRecruiting reports whether today (YYYYMMDD) falls inside the record's
// notice window. Records without a valid window are not recruiting.
func IsRecruiting(r listing.Record, today string) bool {
	if !listing.IsYMD(r.NoticeBegin) || !listing.IsYMD(r.NoticeEnd) {
		return false
	}
	return listing.Between(today, r.NoticeBegin, r.NoticeEnd)
}

// InRegion reports whether the record belongs to the region by code or by a
// text hint in its place or organization names.
func InRegion(r listing.Record, sidoCode string, hints []string) bool {
	if r.SidoCode == sidoCode {
		return true
	}
	pool := r.Place + " " + r.HostOrg + " " + r.OperatingOrg
	for _, h := range hints {
		if h != "" && strings.Contains(pool, h) {
			return true
		}
	}
	return false
}
