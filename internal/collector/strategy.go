package collector

import (
	"strings"

	"github.com/pfrederiksen/vols1365/internal/config"
)

// Query is the listing API query string. Paging fields are filled per page.
type Query struct {
	NumOfRows     int    `url:"numOfRows"`
	PageNo        int    `url:"pageNo"`
	Type          string `url:"_type"`
	Keyword       string `url:"keyword,omitempty"`
	SidoCode      string `url:"sidoCd,omitempty"`
	GugunCode     string `url:"gugunCd,omitempty"`
	ProgramStatus string `url:"progrmSttusSe,omitempty"`
	NoticeBegin   string `url:"noticeBgnde,omitempty"`
	NoticeEnd     string `url:"noticeEndde,omitempty"`
}

// Strategy is one rung of the fallback ladder.
type Strategy struct {
	Name  string
	Query Query
}

// Strategies returns the ladder for one shard, most restrictive first:
//
//	A  region + status + keyword
//	B  region + status
//	C  region only
//	D  keyword only
//	E  no filter
//
// The keyword is the configured keyword followed by the shard key. The notice
// range, when enabled, applies to every rung.
func Strategies(cfg config.Config, shard string) []Strategy {
	keyword := joinKeyword(cfg.Keyword, shard)
	label := shard
	if label == "" {
		label = "-"
	}

	var base Query
	if cfg.UseNoticeRange {
		base.NoticeBegin, base.NoticeEnd = cfg.NoticeRange()
	}

	a := base
	a.Keyword = keyword
	a.SidoCode = cfg.SidoCode
	a.GugunCode = cfg.GugunCode
	a.ProgramStatus = cfg.ProgramStatus

	b := base
	b.SidoCode = cfg.SidoCode
	b.GugunCode = cfg.GugunCode
	b.ProgramStatus = cfg.ProgramStatus

	c := base
	c.SidoCode = cfg.SidoCode
	c.GugunCode = cfg.GugunCode

	d := base
	d.Keyword = keyword

	return []Strategy{
		{Name: "A_sido+status+kw(" + label + ")", Query: a},
		{Name: "B_sido+status", Query: b},
		{Name: "C_sido_only", Query: c},
		{Name: "D_kw_only(" + label + ")", Query: d},
		{Name: "E_no_filter", Query: base},
	}
}

func joinKeyword(parts ...string) string {
	var words []string
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			words = append(words, p)
		}
	}
	return strings.Join(words, " ")
}
