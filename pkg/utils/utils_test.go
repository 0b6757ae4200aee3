package utils

import "testing"

func TestHTTPHelper_IsValidURL(t *testing.T) {
	h := NewHTTPHelper()

	tests := map[string]bool{
		"http://localhost:8003":      true,
		"https://api.example.com/v1": true,
		"localhost:8003":             false,
		"ftp://files.example.com":    false,
		"":                           false,
		"http://":                    false,
	}

	for raw, want := range tests {
		if got := h.IsValidURL(raw); got != want {
			t.Errorf("IsValidURL(%q) = %v, want %v", raw, got, want)
		}
	}
}

func TestHTTPHelper_BuildHeaders(t *testing.T) {
	headers := NewHTTPHelper().BuildHeaders(map[string]string{"Authorization": "Bearer k"})

	if headers.Get("User-Agent") != UserAgent {
		t.Errorf("User-Agent = %q", headers.Get("User-Agent"))
	}

	if headers.Get("Content-Type") != "application/json" {
		t.Errorf("Content-Type = %q", headers.Get("Content-Type"))
	}

	if headers.Get("Authorization") != "Bearer k" {
		t.Errorf("custom header lost: %q", headers.Get("Authorization"))
	}
}

func TestStringHelper(t *testing.T) {
	s := NewStringHelper()

	if got := s.NormalizeWhitespace("  a \n\t b  c "); got != "a b c" {
		t.Errorf("NormalizeWhitespace = %q", got)
	}

	if got := s.TruncateString("short", 10); got != "short" {
		t.Errorf("TruncateString kept = %q", got)
	}

	if got := s.TruncateString("/en/a-very-long-article-path", 10); got != "/en/a-v..." {
		t.Errorf("TruncateString = %q", got)
	}
}
