package pagination

import "testing"

func TestNormalizeLimit(t *testing.T) {
	cases := map[int]int{0: DefaultLimit, -3: DefaultLimit, 12: 12, 500: MaxLimit}
	for in, want := range cases {
		if got := NormalizeLimit(in); got != want {
			t.Fatalf("NormalizeLimit(%d) = %d, want %d", in, got, want)
		}
	}
	if got := NormalizeLimitWith(0, 10, 50); got != 10 {
		t.Fatalf("expected config default, got %d", got)
	}
	if got := NormalizeLimitWith(80, 10, 50); got != 50 {
		t.Fatalf("expected config max, got %d", got)
	}
}

func TestWindowFor(t *testing.T) {
	tests := []struct {
		name               string
		page, limit, total int
		want               Window
	}{
		{name: "first page", page: 0, limit: 4, total: 10, want: Window{Start: 0, End: 4}},
		{name: "partial last page", page: 2, limit: 4, total: 10, want: Window{Start: 8, End: 10}},
		{name: "past the end", page: 1, limit: 12, total: 6, want: Window{Start: 6, End: 6}},
		{name: "empty set", page: 0, limit: 12, total: 0, want: Window{}},
	}
	for _, tt := range tests {
		if got := WindowFor(tt.page, tt.limit, tt.total); got != tt.want {
			t.Fatalf("%s: got %+v want %+v", tt.name, got, tt.want)
		}
	}
}

func TestBuildMeta(t *testing.T) {
	meta := BuildMeta(1, 4, 10)
	if meta.Pages != 3 || !meta.HasNext || !meta.HasPrev {
		t.Fatalf("unexpected meta %+v", meta)
	}
	last := BuildMeta(2, 4, 10)
	if last.HasNext {
		t.Fatalf("last page must not report next: %+v", last)
	}
	empty := BuildMeta(0, 20, 0)
	if empty.Pages != 0 || empty.HasNext || empty.HasPrev {
		t.Fatalf("unexpected empty meta %+v", empty)
	}
}
