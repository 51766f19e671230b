package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/text/encoding/korean"

	"github.com/pfrederiksen/vols1365/internal/client"
	"github.com/pfrederiksen/vols1365/internal/retry"
)

func loadFixture(t *testing.T, name string) string {
	t.Helper()
	data, err := os.ReadFile("../../testdata/fixtures/" + name)
	if err != nil {
		t.Fatalf("failed to load test fixture: %v", err)
	}
	return string(data)
}

func TestExtractCounts_Fixtures(t *testing.T) {
	tests := []struct {
		fixture     string
		wantRecruit string
		wantApplied string
	}{
		{"detail_dl.html", "1250", "37"},
		{"detail_table.html", "20", "4"},
		{"detail_text.html", "15", "8"},
	}

	for _, tt := range tests {
		t.Run(tt.fixture, func(t *testing.T) {
			got := ExtractCounts(loadFixture(t, tt.fixture))
			if got.Recruit != tt.wantRecruit {
				t.Errorf("Recruit = %q, want %q", got.Recruit, tt.wantRecruit)
			}
			if got.Applied != tt.wantApplied {
				t.Errorf("Applied = %q, want %q", got.Applied, tt.wantApplied)
			}
		})
	}
}

func TestExtractCounts(t *testing.T) {
	tests := []struct {
		name string
		html string
		want Counts
	}{
		{
			name: "definition list",
			html: `<dl><dt>모집인원</dt><dd>25명</dd></dl>`,
			want: Counts{Recruit: "25"},
		},
		{
			name: "definition list with attributes and spacing",
			html: `<dl><dt class="t"> 모집 인원 </dt><dd class="v"><b>3</b> 명</dd><dt>신청 인원</dt><dd>1명</dd></dl>`,
			want: Counts{Recruit: "3", Applied: "1"},
		},
		{
			name: "table row",
			html: `<table><tr><th>모집인원</th><td>12명</td></tr><tr><th>신청인원</th><td>0명</td></tr></table>`,
			want: Counts{Recruit: "12", Applied: "0"},
		},
		{
			name: "table header with suffix",
			html: `<table><tr><th>모집인원(명)</th><td>7명</td></tr></table>`,
			want: Counts{Recruit: "7"},
		},
		{
			name: "second recruit label",
			html: `<dl><dt>총모집인원</dt><dd>40명</dd></dl>`,
			want: Counts{Recruit: "40"},
		},
		{
			name: "applied over total fallback",
			html: `<div>신청 : 3명 / 10명</div>`,
			want: Counts{Applied: "3"},
		},
		{
			name: "comma separated",
			html: `<p>모집인원 1,000명</p>`,
			want: Counts{Recruit: "1000"},
		},
		{
			name: "script text ignored",
			html: `<script>document.write("모집인원 99명")</script><p>내용 없음</p>`,
			want: Counts{},
		},
		{
			name: "no counts",
			html: `<html><body><h1>페이지를 찾을 수 없습니다</h1></body></html>`,
			want: Counts{},
		},
		{
			name: "empty input",
			html: ``,
			want: Counts{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ExtractCounts(tt.html); got != tt.want {
				t.Errorf("ExtractCounts() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestPickNumber(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"25명", "25"},
		{"총 1,234 명", "1234"},
		{"인원 미정", ""},
		{"2025년 3명", "3"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := pickNumber(tt.in); got != tt.want {
				t.Errorf("pickNumber(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func testPolicy() retry.Policy {
	return retry.Policy{MaxRetries: 2, Initial: time.Millisecond, Max: 5 * time.Millisecond, Multiplier: 2, Jitter: 0.3}
}

func TestFetchCounts(t *testing.T) {
	var gotID string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.URL.Query().Get("progrmRegistNo")
		if r.URL.Query().Get("type") != "show" {
			t.Errorf("type = %q, want show", r.URL.Query().Get("type"))
		}
		w.Header().Set("Content-Type", "text/html; charset=UTF-8")
		w.Write([]byte(`<dl><dt>모집인원</dt><dd>9명</dd><dt>신청인원</dt><dd>2명</dd></dl>`)) // nolint:errcheck
	}))
	defer server.Close()

	s := New(client.New("detail", nil, 2, time.Second), testPolicy()).WithBaseURL(server.URL)

	got, err := s.FetchCounts(context.Background(), "2817523")
	if err != nil {
		t.Fatalf("FetchCounts() error = %v", err)
	}
	if gotID != "2817523" {
		t.Errorf("requested id = %q", gotID)
	}
	if got.Recruit != "9" || got.Applied != "2" {
		t.Errorf("FetchCounts() = %+v", got)
	}
}

func TestFetchCounts_NotFoundIsEmpty(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	}))
	defer server.Close()

	s := New(client.New("detail", nil, 1, time.Second), testPolicy()).WithBaseURL(server.URL)

	got, err := s.FetchCounts(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchCounts() error = %v, want nil for 404", err)
	}
	if got != (Counts{}) {
		t.Errorf("FetchCounts() = %+v, want empty", got)
	}
	if calls != 1 {
		t.Errorf("server called %d times, want 1 (4xx is not retried)", calls)
	}
}

func TestFetchCounts_ServerErrorRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`<p>모집인원 5명</p>`)) // nolint:errcheck
	}))
	defer server.Close()

	s := New(client.New("detail", nil, 1, time.Second), testPolicy()).WithBaseURL(server.URL)

	got, err := s.FetchCounts(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchCounts() error = %v", err)
	}
	if got.Recruit != "5" {
		t.Errorf("Recruit = %q, want 5", got.Recruit)
	}
	if calls != 3 {
		t.Errorf("server called %d times, want 3", calls)
	}
}

func TestFetchCounts_ServerErrorExhausted(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	s := New(client.New("detail", nil, 1, time.Second), testPolicy()).WithBaseURL(server.URL)

	if _, err := s.FetchCounts(context.Background(), "1"); err == nil {
		t.Fatal("FetchCounts() error = nil, want error after retries")
	}
}

func TestFetchCounts_EUCKR(t *testing.T) {
	page := `<html><body><dl><dt>모집인원</dt><dd>6명</dd></dl></body></html>`
	encoded, err := korean.EUCKR.NewEncoder().String(page)
	if err != nil {
		t.Fatal(err)
	}

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=euc-kr")
		w.Write([]byte(encoded)) // nolint:errcheck
	}))
	defer server.Close()

	s := New(client.New("detail", nil, 1, time.Second), testPolicy()).WithBaseURL(server.URL)

	got, err := s.FetchCounts(context.Background(), "1")
	if err != nil {
		t.Fatalf("FetchCounts() error = %v", err)
	}
	if got.Recruit != "6" {
		t.Errorf("Recruit = %q, want 6", got.Recruit)
	}
}

func TestPageURL(t *testing.T) {
	s := New(nil, retry.DefaultPolicy())
	want := DetailURL + "?progrmRegistNo=a+b%2F1&type=show"
	if got := s.PageURL("a b/1"); got != want {
		t.Errorf("PageURL() = %q, want %q", got, want)
	}
}
