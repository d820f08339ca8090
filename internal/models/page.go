package models

// Page is one page of a listing.
type Page[T any] struct {
	Items      []T   `json:"items"`
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages *int  `json:"totalPages,omitempty"`
}

// MapPage converts the items of a page, keeping its counters.
func MapPage[T, U any](p Page[T], fn func(T) U) Page[U] {
	out := Page[U]{Total: p.Total, Page: p.Page, Limit: p.Limit, TotalPages: p.TotalPages}
	out.Items = make([]U, 0, len(p.Items))
	for _, it := range p.Items {
		out.Items = append(out.Items, fn(it))
	}
	return out
}
