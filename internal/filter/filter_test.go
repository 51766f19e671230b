package filter

import (
	"testing"
	"time"

	"github.com/pfrederiksen/vols1365/internal/config"
	"github.com/pfrederiksen/vols1365/internal/listing"
)

func TestFilter_IsEmpty(t *testing.T) {
	tests := []struct {
		name   string
		filter Filter
		want   bool
	}{
		{"zero filter", Filter{}, true},
		{"recruiting only", Filter{RecruitingOnly: true, Today: "20250610"}, false},
		{"strict region with code", Filter{StrictRegion: true, SidoCode: "6110000"}, false},
		{"strict region without code", Filter{StrictRegion: true}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.filter.IsEmpty(); got != tt.want {
				t.Errorf("Filter.IsEmpty() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIsRecruiting(t *testing.T) {
	const today = "20250610"

	tests := []struct {
		name       string
		begin, end string
		want       bool
	}{
		{"inside window", "20250601", "20250620", true},
		{"starts today", "20250610", "20250620", true},
		{"ends today", "20250601", "20250610", true},
		{"ended yesterday", "20250601", "20250609", false},
		{"starts tomorrow", "20250611", "20250620", false},
		{"missing end", "20250601", "", false},
		{"malformed begin", "2025-06-01", "20250620", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := listing.Record{NoticeBegin: tt.begin, NoticeEnd: tt.end}
			if got := IsRecruiting(r, today); got != tt.want {
				t.Errorf("IsRecruiting(%s..%s) = %v, want %v", tt.begin, tt.end, got, tt.want)
			}
		})
	}
}

func TestInRegion(t *testing.T) {
	hints := []string{"서울", "서울특별시"}

	tests := []struct {
		name string
		rec  listing.Record
		want bool
	}{
		{"matching code", listing.Record{SidoCode: "6110000"}, true},
		{"hint in place", listing.Record{SidoCode: "", Place: "서울특별시 종로구 세종대로"}, true},
		{"hint in host org", listing.Record{HostOrg: "서울시자원봉사센터"}, true},
		{"hint in operating org", listing.Record{OperatingOrg: "서울 마포구청"}, true},
		{"other region", listing.Record{SidoCode: "6410000", Place: "경기도 수원시"}, false},
		{"no data", listing.Record{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := InRegion(tt.rec, "6110000", hints); got != tt.want {
				t.Errorf("InRegion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFilter_Apply(t *testing.T) {
	records := []listing.Record{
		{ID: "1", NoticeBegin: "20250601", NoticeEnd: "20250630", SidoCode: "6110000"},
		{ID: "2", NoticeBegin: "20250501", NoticeEnd: "20250531", SidoCode: "6110000"},
		{ID: "3", NoticeBegin: "20250601", NoticeEnd: "20250630", Place: "부산광역시"},
		{ID: "4", NoticeBegin: "20250601", NoticeEnd: "20250630", Place: "서울 강서구"},
	}

	tests := []struct {
		name   string
		filter Filter
		want   []string
	}{
		{
			name:   "both active",
			filter: Filter{RecruitingOnly: true, Today: "20250610", StrictRegion: true, SidoCode: "6110000", Hints: []string{"서울"}},
			want:   []string{"1", "4"},
		},
		{
			name:   "region relaxed",
			filter: Filter{RecruitingOnly: true, Today: "20250610", SidoCode: "6110000"},
			want:   []string{"1", "3", "4"},
		},
		{
			name:   "all relaxed",
			filter: Filter{SidoCode: "6110000"},
			want:   []string{"1", "2", "3", "4"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.filter.Apply(records)
			if len(got) != len(tt.want) {
				t.Fatalf("Apply() kept %d records, want %d", len(got), len(tt.want))
			}
			for i, id := range tt.want {
				if got[i].ID != id {
					t.Errorf("Apply()[%d].ID = %q, want %q", i, got[i].ID, id)
				}
			}
		})
	}
}

func TestNew(t *testing.T) {
	cfg := config.Config{
		RecruitingOnly:     true,
		StrictRegionFilter: true,
		SidoCode:           "6110000",
		Today:              time.Date(2025, 6, 2, 0, 0, 0, 0, config.KST),
	}

	f := New(cfg)
	if f.Today != "20250602" {
		t.Errorf("Today = %q, want 20250602", f.Today)
	}
	if len(f.Hints) != 2 {
		t.Errorf("Hints = %v, want the Seoul table", f.Hints)
	}
	if got := f.String(); got != "recruiting@20250602,region=6110000" {
		t.Errorf("String() = %q", got)
	}
}
