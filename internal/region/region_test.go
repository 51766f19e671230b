package region

import "testing"

func TestDistricts(t *testing.T) {
	got := Districts(SeoulCode)
	if len(got) != 25 {
		t.Fatalf("Districts(%q) returned %d entries, want 25", SeoulCode, len(got))
	}
	if got[0] != "강남구" || got[24] != "중랑구" {
		t.Errorf("unexpected ordering: first=%q last=%q", got[0], got[24])
	}

	got[0] = "changed"
	if Districts(SeoulCode)[0] != "강남구" {
		t.Error("Districts() must return a copy")
	}

	if d := Districts("6260000"); d != nil {
		t.Errorf("Districts(busan) = %v, want nil", d)
	}
}

func TestHints(t *testing.T) {
	tests := []struct {
		name string
		code string
		sido string
		want []string
	}{
		{"seoul table", SeoulCode, "", []string{"서울", "서울특별시"}},
		{"explicit name wins", SeoulCode, "부산", []string{"부산"}},
		{"unknown code", "9999999", "", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Hints(tt.code, tt.sido)
			if len(got) != len(tt.want) {
				t.Fatalf("Hints() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("Hints()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
