// Package textx contains tests for the text utilities.
package textx

import "testing"

func TestSanitizeText(t *testing.T) {
	in := "he\x00llo\nwo\x7frld\t!"
	got := SanitizeText(in)
	if got != "hello\nworld\t!" {
		t.Fatalf("unexpected: %q", got)
	}
}

func TestClamp(t *testing.T) {
	cases := []struct {
		in   string
		max  int
		want string
	}{
		{"  hello  ", 10, "hello"},
		{"hello world", 5, "hello"},
		{"£££££", 3, "£££"},
		{"abc", 0, "abc"},
		{"   ", 4, ""},
	}
	for _, c := range cases {
		if got := Clamp(c.in, c.max); got != c.want {
			t.Fatalf("Clamp(%q,%d)=%q want %q", c.in, c.max, got, c.want)
		}
	}
}

func TestContainsAny(t *testing.T) {
	if !ContainsAny("how much does it cost", "price", "cost") {
		t.Fatalf("expected match")
	}
	if ContainsAny("hello", "price", "cost") {
		t.Fatalf("expected no match")
	}
	if ContainsAny("hello") {
		t.Fatalf("expected no match without fragments")
	}
}
