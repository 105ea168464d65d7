package parser

import (
	"net/url"
	"testing"
)

func TestPageURL(t *testing.T) {
	t.Parallel()

	u := pageURL("https://obituaries.example.org/browse?region=north", "page", 3)
	parsed, err := url.Parse(u)
	if err != nil {
		t.Fatalf("parse result: %v", err)
	}

	q := parsed.Query()
	if q.Get("page") != "3" {
		t.Fatalf("expected page=3, got %s", q.Get("page"))
	}
	if q.Get("region") != "north" {
		t.Fatalf("existing query lost: %s", u)
	}
}

func TestAbsoluteURL(t *testing.T) {
	t.Parallel()

	cases := []struct {
		href string
		base string
		want string
	}{
		{"/obituaries/jane", "https://example.org/browse", "https://example.org/obituaries/jane"},
		{"https://cdn.example.org/a.jpg", "https://example.org", "https://cdn.example.org/a.jpg"},
		{"", "https://example.org", ""},
	}

	for _, tc := range cases {
		if got := absoluteURL(tc.href, tc.base); got != tc.want {
			t.Fatalf("absoluteURL(%q, %q) = %q, want %q", tc.href, tc.base, got, tc.want)
		}
	}
}

func TestDomainOf(t *testing.T) {
	t.Parallel()

	if got := domainOf("https://obituaries.example.org/browse?page=1"); got != "obituaries.example.org" {
		t.Fatalf("unexpected domain: %q", got)
	}
}
