package domain

import "testing"

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"acme.com", "acme.com", true},
		{"  WWW.Acme.com  ", "acme.com", true},
		{"https://www.acme.co.uk:443/about?x=1", "acme.co.uk", true},
		{"http://shop.eu.acme.io", "acme.io", true},
		{"mail.acme.com/path", "acme.com", true},
		{"acme.com:8080", "acme.com", true},
		{"localhost", "", false},
		{"127.0.0.1", "", false},
		{"co.uk", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Normalize(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("Normalize(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestFromEmail(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"jane@acme.com", "acme.com", true},
		{"jane@eu.Acme.com", "acme.com", true},
		{"jane@gmail.com", "", false},
		{"jane@outlook.com", "", false},
		{"jane", "", false},
		{"jane@", "", false},
	}
	for _, tt := range tests {
		got, ok := FromEmail(tt.in)
		if got != tt.want || ok != tt.ok {
			t.Fatalf("FromEmail(%q) = %q,%v want %q,%v", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestResolvePrecedence(t *testing.T) {
	if d, _ := Resolve("acme.com", "https://other.com", "x@third.com"); d != "acme.com" {
		t.Fatalf("expected primary domain, got %q", d)
	}
	if d, _ := Resolve("", "https://www.other.com", "x@third.com"); d != "other.com" {
		t.Fatalf("expected website domain, got %q", d)
	}
	if d, _ := Resolve("", "", "x@third.com"); d != "third.com" {
		t.Fatalf("expected email domain, got %q", d)
	}
	if _, ok := Resolve("", "", "x@gmail.com"); ok {
		t.Fatal("free-mail must not resolve")
	}
}
