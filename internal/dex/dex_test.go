package dex

import "testing"

func TestToID(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Pikachu", "pikachu"},
		{"Mr. Mime", "mrmime"},
		{"Farfetch'd", "farfetchd"},
		{"Nidoran♀", "nidoran"},
		{"Flabébé", "flabebe"},
		{"Porygon-Z", "porygonz"},
		{"ability: Speed Boost", "abilityspeedboost"},
		{"", ""},
		{"   ", ""},
	}
	for _, c := range cases {
		if got := ToID(c.in); got != c.want {
			t.Errorf("ToID(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}
