package listing

import "regexp"

// Record is one volunteer program as written to the snapshot. JSON names are
// the listing API's own so downstream pages can read the file unchanged.
type Record struct {
	ID           string `json:"progrmRegistNo"`
	Title        string `json:"progrmSj"`
	ProgramBegin string `json:"progrmBgnde"`
	ProgramEnd   string `json:"progrmEndde"`
	NoticeBegin  string `json:"noticeBgnde"`
	NoticeEnd    string `json:"noticeEndde"`
	Recruit      string `json:"rcritNmpr"` // recruit headcount
	Applied      string `json:"aplyNmpr"`  // applied headcount, detail page only
	HostOrg      string `json:"mnnstNm"`
	OperatingOrg string `json:"nanmmbyNm"`
	Place        string `json:"actPlace"`
	ActBeginHour string `json:"actBeginTm"`
	ActEndHour   string `json:"actEndTm"`
	ActBeginMin  string `json:"actBeginMnt"`
	ActEndMin    string `json:"actEndMnt"`
	SidoCode     string `json:"sidoCd"`
}

var ymdPattern = regexp.MustCompile(`^\d{8}$`)

// IsYMD reports whether s is an 8-digit YYYYMMDD date string.
func IsYMD(s string) bool {
	return ymdPattern.MatchString(s)
}

// Between reports whether the YYYYMMDD date v lies in [begin, end]. An empty
// bound is open. Invalid v never matches.
func Between(v, begin, end string) bool {
	if !IsYMD(v) {
		return false
	}
	return (begin == "" || v >= begin) && (end == "" || v <= end)
}

// Dedup keeps the first record for each ID, preserving order.
func Dedup(records []Record) []Record {
	seen := make(map[string]bool, len(records))
	unique := make([]Record, 0, len(records))
	for _, r := range records {
		if seen[r.ID] {
			continue
		}
		seen[r.ID] = true
		unique = append(unique, r)
	}
	return unique
}
