// Package listing keeps a list page's filter, sort and pagination state in a
// shareable query string and fetches the matching page.
package listing

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/yashrajoria/bms-storefront/models"
)

// Recognized query-string keys.
const (
	KeyQuery     = "query"
	KeyCategory  = "category"
	KeySortBy    = "sortBy"
	KeySortOrder = "sortOrder"
	KeyPage      = "page"
	KeyStatus    = "status"
	KeyNot       = "not"
	KeyLimit     = "limit"
)

const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Query is the decoded form of a listing's query string. Empty strings and
// zero numbers mean "not set".
type Query struct {
	Query     string `json:"query,omitempty"`
	Category  string `json:"category,omitempty"`
	SortBy    string `json:"sortBy,omitempty"`
	SortOrder string `json:"sortOrder,omitempty"`
	Page      int    `json:"page,omitempty"`
	Status    string `json:"status,omitempty"`
	Not       string `json:"not,omitempty"`
	Limit     int    `json:"limit,omitempty"`
}

// Vocabulary names the keys one listing page understands and their defaults.
type Vocabulary struct {
	Name     string
	Keys     []string
	Defaults Query
}

var (
	// Products is the public catalog listing.
	Products = Vocabulary{
		Name:     "products",
		Keys:     []string{KeyQuery, KeyCategory, KeySortBy, KeySortOrder, KeyPage},
		Defaults: Query{SortBy: "name", SortOrder: OrderAsc, Page: 1},
	}

	// AdminOrders lists orders for the back office, newest first, paid ones excluded.
	AdminOrders = Vocabulary{
		Name:     "admin-orders",
		Keys:     []string{KeyStatus, KeyNot, KeySortOrder, KeyLimit, KeyPage},
		Defaults: Query{Not: string(models.StatusPaid), SortOrder: OrderDesc, Limit: 10, Page: 1},
	}

	// AdminPaidOrders is the back office's queue of paid orders waiting to ship.
	AdminPaidOrders = Vocabulary{
		Name:     "admin-paid-orders",
		Keys:     []string{KeyStatus, KeySortOrder, KeyLimit, KeyPage},
		Defaults: Query{Status: string(models.StatusPaid), SortOrder: OrderDesc, Limit: 10, Page: 1},
	}

	// AdminUsers lists registered users.
	AdminUsers = Vocabulary{
		Name:     "admin-users",
		Keys:     []string{KeyQuery, KeyLimit, KeyPage},
		Defaults: Query{Limit: 10, Page: 1},
	}

	// MyOrders is a buyer's own orders filtered by status tab.
	MyOrders = Vocabulary{
		Name:     "my-orders",
		Keys:     []string{KeyStatus},
		Defaults: Query{Status: string(models.StatusProcessing)},
	}
)

// Has reports whether key belongs to the vocabulary.
func (v Vocabulary) Has(key string) bool {
	for _, k := range v.Keys {
		if k == key {
			return true
		}
	}
	return false
}

// Decode parses a query string (with or without the leading "?") into a Query.
// Unrecognized keys are ignored; missing or invalid values take the default.
func (v Vocabulary) Decode(raw string) Query {
	q := v.Defaults
	// ParseQuery keeps every pair it could parse even when it reports an error
	values, _ := url.ParseQuery(strings.TrimPrefix(raw, "?"))

	for _, key := range v.Keys {
		s := strings.TrimSpace(values.Get(key))
		if s == "" {
			continue
		}
		switch key {
		case KeyQuery:
			q.Query = s
		case KeyCategory:
			q.Category = s
		case KeySortBy:
			q.SortBy = s
		case KeySortOrder:
			if s == OrderAsc || s == OrderDesc {
				q.SortOrder = s
			}
		case KeyPage:
			if n, err := strconv.Atoi(s); err == nil && n >= 1 {
				q.Page = n
			}
		case KeyLimit:
			if n, err := strconv.Atoi(s); err == nil && n >= 1 {
				q.Limit = n
			}
		case KeyStatus:
			q.Status = s
		case KeyNot:
			q.Not = s
		}
	}
	return v.Normalize(q)
}

// Normalize maps equivalent queries to one form: category ALL becomes unset,
// keys outside the vocabulary are cleared and unset or invalid values take
// their default.
func (v Vocabulary) Normalize(q Query) Query {
	d := v.Defaults
	if strings.EqualFold(strings.TrimSpace(q.Category), models.CategoryAll) {
		q.Category = ""
	}
	if q.SortOrder != OrderAsc && q.SortOrder != OrderDesc {
		q.SortOrder = ""
	}
	q.Query = v.pickString(KeyQuery, q.Query, d.Query)
	q.Category = v.pickString(KeyCategory, q.Category, d.Category)
	q.SortBy = v.pickString(KeySortBy, q.SortBy, d.SortBy)
	q.SortOrder = v.pickString(KeySortOrder, q.SortOrder, d.SortOrder)
	q.Status = strings.ToUpper(v.pickString(KeyStatus, q.Status, d.Status))
	q.Not = strings.ToUpper(v.pickString(KeyNot, q.Not, d.Not))
	q.Page = v.pickInt(KeyPage, q.Page, d.Page)
	q.Limit = v.pickInt(KeyLimit, q.Limit, d.Limit)
	return q
}

func (v Vocabulary) pickString(key, val, def string) string {
	val = strings.TrimSpace(val)
	if !v.Has(key) || val == "" {
		return def
	}
	return val
}

func (v Vocabulary) pickInt(key string, val, def int) int {
	if !v.Has(key) || val < 1 {
		return def
	}
	return val
}

// Encode renders q as a canonical query string without the leading "?":
// keys sorted, values equal to the default omitted. Decode(Encode(q)) == q
// for every normalized q.
func (v Vocabulary) Encode(q Query) string {
	q = v.Normalize(q)
	return v.values(q, false).Encode()
}

// Params returns the parameters sent to the API for q. Unlike Encode it keeps
// defaults, since the API does not share them.
func (v Vocabulary) Params(q Query) url.Values {
	return v.values(v.Normalize(q), true)
}

// Href joins path and the canonical query string of q.
func (v Vocabulary) Href(path string, q Query) string {
	if s := v.Encode(q); s != "" {
		return path + "?" + s
	}
	return path
}

func (v Vocabulary) values(q Query, withDefaults bool) url.Values {
	d := v.Defaults
	out := url.Values{}
	setStr := func(key, val, def string) {
		if v.Has(key) && val != "" && (withDefaults || val != def) {
			out.Set(key, val)
		}
	}
	setInt := func(key string, val, def int) {
		if v.Has(key) && val >= 1 && (withDefaults || val != def) {
			out.Set(key, strconv.Itoa(val))
		}
	}
	setStr(KeyQuery, q.Query, d.Query)
	setStr(KeyCategory, q.Category, d.Category)
	setStr(KeySortBy, q.SortBy, d.SortBy)
	setStr(KeySortOrder, q.SortOrder, d.SortOrder)
	setStr(KeyStatus, q.Status, d.Status)
	setStr(KeyNot, q.Not, d.Not)
	setInt(KeyPage, q.Page, d.Page)
	setInt(KeyLimit, q.Limit, d.Limit)
	return out
}
