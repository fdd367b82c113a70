package textnorm

import "testing"

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   string
		want string
	}{
		{"uppercase", "btc long entry: 50000", "BTC LONG ENTRY: 50000"},
		{"collapse whitespace", "BTC\t LONG\n\nENTRY:  50000", "BTC LONG ENTRY: 50000"},
		{"alias bitcoin", "BITCOIN LONG @ 50000", "BTC LONG @ 50000"},
		{"alias ethereum", "Ethereum short entry 3000", "ETH SHORT ENTRY 3000"},
		{"fullwidth colon", "ENTRY：50000", "ENTRY:50000"},
		{"nbsp", "BTC LONG", "BTC LONG"},
		{"empty", "", ""},
		{"trim", "  BTC LONG  ", "BTC LONG"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Normalize(tc.in)
			if got.Matchable != tc.want {
				t.Fatalf("Normalize(%q).Matchable = %q, want %q", tc.in, got.Matchable, tc.want)
			}
			if got.Original != tc.in {
				t.Fatalf("Original mutated: %q", got.Original)
			}
		})
	}
}
