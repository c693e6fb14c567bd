package pagination

import "math"

// DefaultPerPage is the page size shared by every list view.
const DefaultPerPage = 10

// Page is one slice of an already materialized, already sorted result set.
type Page[T any] struct {
	Items   []T  `json:"items"`
	Page    int  `json:"page"`
	PerPage int  `json:"per_page"`
	Total   int  `json:"total"`
	Pages   int  `json:"pages"`
	HasPrev bool `json:"has_prev"`
	HasNext bool `json:"has_next"`
	PrevNum int  `json:"prev_num"`
	NextNum int  `json:"next_num"`
}

// Paginate cuts items[(page-1)*perPage : page*perPage]. A page past the end
// yields an empty Items slice rather than an error.
func Paginate[T any](items []T, page, perPage int) Page[T] {
	page, perPage = normalize(page, perPage)
	total := len(items)
	pages := pageCount(total, perPage)

	start, end := total, total
	if page <= pages {
		start = (page - 1) * perPage
		end = min(start+perPage, total)
	}

	slice := make([]T, end-start)
	copy(slice, items[start:end])
	return build(slice, page, perPage, total, pages)
}

// FromCount builds page metadata when the slice was already fetched with
// LIMIT/OFFSET and the total came from a separate count.
func FromCount[T any](items []T, page, perPage, total int) Page[T] {
	page, perPage = normalize(page, perPage)
	if items == nil {
		items = []T{}
	}
	return build(items, page, perPage, total, pageCount(total, perPage))
}

// Offset returns the row offset of page for SQL pagination. Offsets that
// would overflow are clamped to the largest whole page.
func Offset(page, perPage int) int {
	page, perPage = normalize(page, perPage)
	if page-1 > math.MaxInt/perPage {
		return math.MaxInt / perPage * perPage
	}
	return (page - 1) * perPage
}

func normalize(page, perPage int) (int, int) {
	if page < 1 {
		page = 1
	}
	if perPage <= 0 {
		perPage = DefaultPerPage
	}
	return page, perPage
}

func pageCount(total, perPage int) int {
	if total <= 0 {
		return 0
	}
	return (total-1)/perPage + 1
}

func build[T any](items []T, page, perPage, total, pages int) Page[T] {
	p := Page[T]{
		Items:   items,
		Page:    page,
		PerPage: perPage,
		Total:   total,
		Pages:   pages,
		HasPrev: page > 1,
		HasNext: page < pages,
		PrevNum: page - 1,
	}
	if p.HasNext {
		p.NextNum = page + 1
	}
	return p
}
