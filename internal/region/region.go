// Package region holds the administrative region tables used to shard and
// filter listing queries.
package region

// SeoulCode is the 1365 sido code for Seoul.
const SeoulCode = "6110000"

// seoulDistricts are the 25 autonomous districts (gu) of Seoul, used as shard
// keywords because the listing API caps results per query.
var seoulDistricts = []string{
	"강남구", "강동구", "강북구", "강서구", "관악구",
	"광진구", "구로구", "금천구", "노원구", "도봉구",
	"동대문구", "동작구", "마포구", "서대문구", "서초구",
	"성동구", "성북구", "송파구", "양천구", "영등포구",
	"용산구", "은평구", "종로구", "중구", "중랑구",
}

// textHints maps a sido code to substrings that identify the region in free
// text (place, host org, operating org).
var textHints = map[string][]string{
	SeoulCode: {"서울", "서울특별시"},
}

// Districts returns the shard keywords known for a sido code, or nil when the
// region has no district table.
func Districts(sidoCode string) []string {
	if sidoCode != SeoulCode {
		return nil
	}
	out := make([]string, len(seoulDistricts))
	copy(out, seoulDistricts)
	return out
}

// Hints returns the free-text hints for a region. An explicit name overrides
// the table.
func Hints(sidoCode, sidoName string) []string {
	if sidoName != "" {
		return []string{sidoName}
	}
	hints := textHints[sidoCode]
	out := make([]string, len(hints))
	copy(out, hints)
	return out
}
