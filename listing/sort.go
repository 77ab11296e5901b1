package listing

// Sort choices offered by the catalog's sort dropdown.
const (
	SortNameAsc   = "asc"
	SortNameDesc  = "desc"
	SortPriceLow  = "price-low"
	SortPriceHigh = "price-high"
)

// SortChoices lists the dropdown options in display order.
var SortChoices = []string{SortNameAsc, SortNameDesc, SortPriceLow, SortPriceHigh}

// ApplySort sets sortBy/sortOrder for a dropdown choice. An unrecognized
// choice clears both, which leaves the vocabulary's default order.
func (v Vocabulary) ApplySort(q Query, choice string) Query {
	switch choice {
	case SortNameAsc:
		q.SortBy, q.SortOrder = "name", OrderAsc
	case SortNameDesc:
		q.SortBy, q.SortOrder = "name", OrderDesc
	case SortPriceLow:
		q.SortBy, q.SortOrder = "price", OrderAsc
	case SortPriceHigh:
		q.SortBy, q.SortOrder = "price", OrderDesc
	default:
		q.SortBy, q.SortOrder = "", ""
	}
	return v.Normalize(q)
}

// SortChoice is the inverse of ApplySort, used to preselect the dropdown.
// It returns "" for an order the dropdown cannot express.
func (v Vocabulary) SortChoice(q Query) string {
	q = v.Normalize(q)
	switch {
	case q.SortBy == "name" && q.SortOrder == OrderAsc:
		return SortNameAsc
	case q.SortBy == "name" && q.SortOrder == OrderDesc:
		return SortNameDesc
	case q.SortBy == "price" && q.SortOrder == OrderAsc:
		return SortPriceLow
	case q.SortBy == "price" && q.SortOrder == OrderDesc:
		return SortPriceHigh
	}
	return ""
}
