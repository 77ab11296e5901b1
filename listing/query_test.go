package listing

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/yashrajoria/bms-storefront/models"
)

func TestDecodeScenario(t *testing.T) {
	q := Products.Decode("?category=KUE_KERING&sortOrder=desc&sortBy=name")
	assert.Equal(t, Query{Category: "KUE_KERING", SortBy: "name", SortOrder: "desc", Page: 1}, q)
	assert.Empty(t, q.Query)
}

func TestDecodeDefaultsAndGarbage(t *testing.T) {
	assert.Equal(t, Products.Defaults, Products.Decode(""))
	assert.Equal(t, Products.Defaults, Products.Decode("?"))
	assert.Equal(t, Products.Defaults, Products.Decode("page=abc&sortOrder=sideways&utm_source=mail"))
	assert.Equal(t, Products.Defaults, Products.Decode("page=-3&category=ALL"))
	assert.Equal(t, Products.Defaults, Products.Decode("status=DIBAYAR&limit=50"), "keys outside the vocabulary are ignored")
}

func TestDecodeKeepsParsablePairs(t *testing.T) {
	q := Products.Decode("query=kue%zz&page=3")
	assert.Equal(t, 3, q.Page)
}

func TestDecodeAdminOrders(t *testing.T) {
	q := AdminOrders.Decode("status=selesai&limit=25&page=2")
	assert.Equal(t, Query{Status: "SELESAI", Not: "DIBAYAR", SortOrder: "desc", Limit: 25, Page: 2}, q)
}

func TestEncodeOmitsDefaults(t *testing.T) {
	assert.Equal(t, "", Products.Encode(Products.Defaults))
	assert.Equal(t, "", Products.Encode(Query{Category: models.CategoryAll}))
	assert.Equal(t, "category=KUE_KERING&sortOrder=desc",
		Products.Encode(Query{Category: "KUE_KERING", SortBy: "name", SortOrder: "desc", Page: 1}))
	assert.Equal(t, "page=2&query=nastar+keju",
		Products.Encode(Query{Query: "nastar keju", Page: 2}))
}

func TestEncodeIsCanonical(t *testing.T) {
	a := Products.Decode("sortOrder=desc&category=KUE_KERING&page=2")
	b := Products.Decode("page=2&category=KUE_KERING&sortOrder=desc&sortBy=name")
	assert.Equal(t, Products.Encode(a), Products.Encode(b))
}

func TestRoundTrip(t *testing.T) {
	cases := []struct {
		vocab Vocabulary
		q     Query
	}{
		{Products, Query{}},
		{Products, Query{Query: "keripik", Category: "MAKANAN_RINGAN", SortBy: "price", SortOrder: "asc", Page: 4}},
		{Products, Query{Category: "ALL", SortOrder: "desc"}},
		{AdminOrders, Query{Status: "dikirim", Limit: 5, Page: 3}},
		{AdminOrders, Query{Not: "DIBATALKAN"}},
		{AdminUsers, Query{Query: "siti", Page: 2}},
		{MyOrders, Query{Status: "SELESAI"}},
		{AdminPaidOrders, Query{Page: 9}},
	}
	for _, tc := range cases {
		q := tc.vocab.Normalize(tc.q)
		assert.Equal(t, q, tc.vocab.Decode(tc.vocab.Encode(q)), "%s %+v", tc.vocab.Name, tc.q)
	}
}

func TestParamsKeepDefaults(t *testing.T) {
	p := Products.Params(Query{Category: "KUE_KERING"})
	assert.Equal(t, "category=KUE_KERING&page=1&sortBy=name&sortOrder=asc", p.Encode())

	p = AdminOrders.Params(Query{})
	assert.Equal(t, "limit=10&not=DIBAYAR&page=1&sortOrder=desc", p.Encode())

	p = MyOrders.Params(Query{})
	assert.Equal(t, "status=DIPROSES", p.Encode())
}

func TestApplySort(t *testing.T) {
	q := Products.ApplySort(Products.Defaults, SortPriceHigh)
	assert.Equal(t, "price", q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)

	q = Products.ApplySort(q, SortPriceLow)
	assert.Equal(t, "price", q.SortBy)
	assert.Equal(t, "asc", q.SortOrder)

	q = Products.ApplySort(q, SortNameDesc)
	assert.Equal(t, "name", q.SortBy)
	assert.Equal(t, "desc", q.SortOrder)

	q = Products.ApplySort(q, "bogus")
	assert.Equal(t, Products.Defaults.SortBy, q.SortBy)
	assert.Equal(t, Products.Defaults.SortOrder, q.SortOrder)
	assert.Equal(t, Products.Encode(Products.ApplySort(q, SortNameAsc)), Products.Encode(q),
		"asc is the same as clearing the sort")
}

func TestSortChoiceInverse(t *testing.T) {
	for _, choice := range SortChoices {
		assert.Equal(t, choice, Products.SortChoice(Products.ApplySort(Query{}, choice)))
	}
	assert.Equal(t, "", Products.SortChoice(Query{SortBy: "stock", SortOrder: "asc"}))
}

func TestPaginationControls(t *testing.T) {
	assert.False(t, CanPrev(1))
	assert.False(t, CanNext(1, 1))
	assert.False(t, CanNext(1, 0), "an empty result is one page")

	assert.True(t, CanNext(1, 3))
	assert.True(t, CanPrev(3))
	assert.False(t, CanNext(3, 3))

	assert.Equal(t, 1, Clamp(0, 5))
	assert.Equal(t, 5, Clamp(9, 5))
	assert.Equal(t, 1, Clamp(4, 0))
	assert.Equal(t, 3, Clamp(3, 5))
}

func TestPageLinks(t *testing.T) {
	q := Products.Decode("category=KUE_KERING&page=2")
	links := Products.PageLinks("/bff/products", q, models.Pagination{TotalPage: 3})

	assert.Equal(t, "/bff/products?category=KUE_KERING&page=2", links.Self)
	assert.Equal(t, "/bff/products?category=KUE_KERING", links.Prev)
	assert.Equal(t, "/bff/products?category=KUE_KERING&page=3", links.Next)

	links = Products.PageLinks("/bff/products", Products.Defaults, models.Pagination{TotalPage: 1})
	assert.False(t, links.HasPrev)
	assert.False(t, links.HasNext)
	assert.Empty(t, links.Prev)
	assert.Empty(t, links.Next)

	links = MyOrders.PageLinks("/bff/orders", MyOrders.Defaults, models.Pagination{TotalPage: 4})
	assert.False(t, links.HasNext, "my-orders is not paginated")
}
