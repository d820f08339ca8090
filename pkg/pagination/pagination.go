// Package pagination parses page/limit query values into clamped offsets.
package pagination

import "strconv"

type Params struct {
	Page  int
	Limit int
}

// FromQuery parses raw page and limit values. Missing or invalid values fall
// back to page 1 and defLimit; limit is clamped to [1, maxLimit].
func FromQuery(page, limit string, defLimit, maxLimit int) Params {
	p, err := strconv.Atoi(page)
	if err != nil || p < 1 {
		p = 1
	}
	l, err := strconv.Atoi(limit)
	if err != nil || l < 1 {
		l = defLimit
	}
	if maxLimit > 0 && l > maxLimit {
		l = maxLimit
	}
	return Params{Page: p, Limit: l}
}

func (p Params) Skip() int64 {
	return int64(p.Page-1) * int64(p.Limit)
}

func (p Params) TotalPages(total int64) int {
	if p.Limit <= 0 || total <= 0 {
		return 0
	}
	return int((total + int64(p.Limit) - 1) / int64(p.Limit))
}

// WithDefaults fills a zero page with 1 and a zero limit with defLimit.
func (p Params) WithDefaults(defLimit int) Params {
	if p.Page < 1 {
		p.Page = 1
	}
	if p.Limit < 1 {
		p.Limit = defLimit
	}
	return p
}
