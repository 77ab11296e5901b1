package listing

import (
	"github.com/yashrajoria/bms-storefront/models"
)

// lastPage treats an unknown or empty result as a single page.
func lastPage(totalPage int) int {
	if totalPage < 1 {
		return 1
	}
	return totalPage
}

// Clamp keeps page within [1, totalPage].
func Clamp(page, totalPage int) int {
	if page < 1 {
		return 1
	}
	if last := lastPage(totalPage); page > last {
		return last
	}
	return page
}

// CanPrev reports whether a previous page exists.
func CanPrev(page int) bool {
	return page > 1
}

// CanNext reports whether a next page exists.
func CanNext(page, totalPage int) bool {
	return page < lastPage(totalPage)
}

// Links are the canonical hrefs a list view renders next to its items.
type Links struct {
	Self    string `json:"self"`
	Prev    string `json:"prev,omitempty"`
	Next    string `json:"next,omitempty"`
	HasPrev bool   `json:"has_prev"`
	HasNext bool   `json:"has_next"`
}

// PageLinks builds self/prev/next links for q under path.
func (v Vocabulary) PageLinks(path string, q Query, p models.Pagination) Links {
	q = v.Normalize(q)
	links := Links{
		Self:    v.Href(path, q),
		HasPrev: v.Has(KeyPage) && CanPrev(q.Page),
		HasNext: v.Has(KeyPage) && CanNext(q.Page, p.TotalPage),
	}
	if links.HasPrev {
		prev := q
		prev.Page = Clamp(q.Page-1, p.TotalPage)
		links.Prev = v.Href(path, prev)
	}
	if links.HasNext {
		next := q
		next.Page = q.Page + 1
		links.Next = v.Href(path, next)
	}
	return links
}
