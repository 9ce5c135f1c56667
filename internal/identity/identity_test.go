package identity

import "testing"

func TestParseClassifiesOnce(t *testing.T) {
	cases := []struct {
		raw         string
		provisional bool
		persisted   bool
	}{
		{"", false, false},
		{"PEND-1712345678901", true, false},
		{"66f2a9c41b2d3e0012ab34cd", false, true},
		{"PEND-", true, false},
	}
	for _, tc := range cases {
		id := Parse(tc.raw)
		if id.Provisional() != tc.provisional || id.Persisted() != tc.persisted {
			t.Fatalf("Parse(%q): provisional=%v persisted=%v", tc.raw, id.Provisional(), id.Persisted())
		}
		if id.String() != tc.raw {
			t.Fatalf("Parse(%q).String() = %q", tc.raw, id.String())
		}
	}
}

func TestMatchIDComparable(t *testing.T) {
	a := Parse("PEND-42")
	b := Parse("PEND-42")
	c := Parse("42")
	if a != b {
		t.Fatalf("equal raw ids must compare equal")
	}
	if a == c {
		t.Fatalf("provisional and persisted ids must never compare equal")
	}
}

func TestTextRoundTrip(t *testing.T) {
	var id MatchID
	if err := id.UnmarshalText([]byte("PEND-7")); err != nil {
		t.Fatal(err)
	}
	if !id.Provisional() {
		t.Fatalf("expected provisional after unmarshal")
	}
	out, err := id.MarshalText()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != "PEND-7" {
		t.Fatalf("round trip: got %q", out)
	}
}
