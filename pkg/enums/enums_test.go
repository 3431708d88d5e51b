package enums

import "testing"

func TestParseCatalogSortKey(t *testing.T) {
	got, err := ParseCatalogSortKey(" Price ")
	if err != nil || got != CatalogSortKeyPrice {
		t.Fatalf("expected price, got %q err=%v", got, err)
	}
	if _, err := ParseCatalogSortKey("popularity"); err == nil {
		t.Fatal("expected error for unknown sort key")
	}
}

func TestParseSortDirection(t *testing.T) {
	if got, err := ParseSortDirection("DESC"); err != nil || got != SortDirectionDesc {
		t.Fatalf("expected desc, got %q err=%v", got, err)
	}
	if _, err := ParseSortDirection("sideways"); err == nil {
		t.Fatal("expected error for unknown direction")
	}
}

func TestSessionStateValidity(t *testing.T) {
	if !SessionStateAnonymous.IsValid() || !SessionStateAuthenticated.IsValid() {
		t.Fatal("known states must be valid")
	}
	if SessionState("guest").IsValid() {
		t.Fatal("unknown state must be invalid")
	}
	if _, err := ParseSessionState("authenticated"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestCartWarningTypeParse(t *testing.T) {
	got, err := ParseCartWarningType("stock_exceeded")
	if err != nil || got != CartWarningTypeStockExceeded {
		t.Fatalf("unexpected parse result %q err=%v", got, err)
	}
	if CartWarningType("nope").IsValid() {
		t.Fatal("unknown warning type must be invalid")
	}
}
