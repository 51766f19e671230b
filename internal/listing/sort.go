package listing

import (
	"sort"
	"strings"
)

// missingDate sorts records without a usable notice end date last.
const missingDate = "99999999"

// noticeEndKey returns the first eight digits of the notice end date, or the
// missing-date sentinel when fewer than eight digits are present.
func noticeEndKey(v string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, v)
	if len(digits) < 8 {
		return missingDate
	}
	return digits[:8]
}

// SortByNoticeEnd orders records by notice end date ascending. Records with
// equal keys keep their relative order.
func SortByNoticeEnd(records []Record) {
	sort.SliceStable(records, func(i, j int) bool {
		return noticeEndKey(records[i].NoticeEnd) < noticeEndKey(records[j].NoticeEnd)
	})
}
