package verify

import "testing"

func TestValidGSTIN(t *testing.T) {
	cases := []struct {
		gstin string
		valid bool
	}{
		{"24AAACC1206D1ZM", true},
		{"07ABCDE1234F1Z5", true},
		{"24aaacc1206d1zm", true},
		{" 24AAACC1206D1ZM ", true},
		{"24AAACC1206D0ZM", false},
		{"24AAACC1206D1YM", false},
		{"24AAACC1206D1Z", false},
		{"24AAACC1206D1ZMX", false},
		{"XXAAACC1206D1ZM", false},
		{"", false},
		{"URP", false},
	}
	for _, tc := range cases {
		if got := ValidGSTIN(tc.gstin); got != tc.valid {
			t.Errorf("ValidGSTIN(%q) = %v, want %v", tc.gstin, got, tc.valid)
		}
	}
}

func TestStateCode(t *testing.T) {
	if got := StateCode("24AAACC1206D1ZM"); got != "24" {
		t.Errorf("StateCode = %q, want 24", got)
	}
	if got := StateCode("x"); got != "" {
		t.Errorf("StateCode on short input = %q, want empty", got)
	}
}

func TestMatchHSN(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"998412", "998412"},
		{"9983.0", "9983"},
		{"998413", "998412"},
		{"  1001 ", "1001"},
		{"ZZZZZZZZ", "ZZZZZZZZ"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := MatchHSN(tc.in); got != tc.want {
			t.Errorf("MatchHSN(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
