package env

import "testing"

func TestGetFallsBackWhenUnset(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_ENV", "")
	if got := Get("STOREFRONT_TEST_ENV", "fallback"); got != "fallback" {
		t.Fatalf("expected fallback, got %q", got)
	}
	t.Setenv("STOREFRONT_TEST_ENV", " console ")
	if got := Get("STOREFRONT_TEST_ENV", "json"); got != "console" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
}

func TestBool(t *testing.T) {
	t.Setenv("STOREFRONT_TEST_FLAG", "true")
	if !Bool("STOREFRONT_TEST_FLAG", false) {
		t.Fatal("expected true")
	}
	t.Setenv("STOREFRONT_TEST_FLAG", "nope")
	if Bool("STOREFRONT_TEST_FLAG", false) {
		t.Fatal("malformed value should fall back")
	}
}
