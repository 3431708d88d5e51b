package pagination

import "math"

const (
	// DefaultLimit is the standard page size when a limit is not provided.
	DefaultLimit = 20
	// MaxLimit caps how many rows any page can request.
	MaxLimit = 100
)

// Window describes the half-open slice [Start, End) of a result set a page covers.
type Window struct {
	Start int
	End   int
}

// Meta summarises a paginated result for clients.
type Meta struct {
	Page     int  `json:"page"`
	PageSize int  `json:"page_size"`
	Total    int  `json:"total"`
	Pages    int  `json:"pages"`
	HasNext  bool `json:"has_next"`
	HasPrev  bool `json:"has_prev"`
}

// NormalizeLimit enforces the package default and maximum limits.
func NormalizeLimit(limit int) int {
	return NormalizeLimitWith(limit, DefaultLimit, MaxLimit)
}

// NormalizeLimitWith enforces caller-supplied defaults, used when limits come from config.
func NormalizeLimitWith(limit, def, max int) int {
	if def <= 0 {
		def = DefaultLimit
	}
	if max < def {
		max = def
	}
	if limit <= 0 {
		return def
	}
	if limit > max {
		return max
	}
	return limit
}

// NormalizePage clamps negative pages to the first page.
func NormalizePage(page int) int {
	if page < 0 {
		return 0
	}
	return page
}

// WindowFor returns the slice bounds for page/limit over total rows. Pages past the
// end yield an empty window positioned at total.
func WindowFor(page, limit, total int) Window {
	if total <= 0 || limit <= 0 || page < 0 {
		return Window{}
	}
	start := page * limit
	if start >= total || start/limit != page {
		return Window{Start: total, End: total}
	}
	end := start + limit
	if end > total || end < start {
		end = total
	}
	return Window{Start: start, End: end}
}

// PageCount returns how many pages of size limit are needed for total rows.
func PageCount(total, limit int) int {
	if total <= 0 || limit <= 0 {
		return 0
	}
	return int(math.Ceil(float64(total) / float64(limit)))
}

// BuildMeta assembles client-facing pagination metadata.
func BuildMeta(page, limit, total int) Meta {
	pages := PageCount(total, limit)
	return Meta{
		Page:     page,
		PageSize: limit,
		Total:    total,
		Pages:    pages,
		HasNext:  page+1 < pages,
		HasPrev:  page > 0 && total > 0,
	}
}
