package dto

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPageOf(t *testing.T) {
	cases := []struct {
		name                  string
		page0, size           int
		total                 int64
		wantCurrent, wantPage int
		wantNext, wantPrev    bool
	}{
		{"first of three", 0, 10, 25, 1, 3, true, false},
		{"middle", 1, 10, 25, 2, 3, true, true},
		{"last", 2, 10, 25, 3, 3, false, true},
		{"exact multiple", 1, 10, 20, 2, 2, false, true},
		{"empty", 0, 20, 0, 1, 0, false, false},
		{"beyond last", 5, 10, 25, 6, 3, false, true},
		{"empty second page", 1, 20, 0, 2, 0, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			resp := PageOf[int](tc.page0, tc.size, tc.total, nil)
			p := resp.Pagination
			assert.Equal(t, tc.wantCurrent, p.CurrentPage)
			assert.Equal(t, tc.wantPage, p.TotalPages)
			assert.Equal(t, tc.size, p.PageSize)
			assert.Equal(t, tc.total, p.TotalElements)
			assert.Equal(t, tc.wantNext, p.HasNext)
			assert.Equal(t, tc.wantPrev, p.HasPrevious)
			assert.NotNil(t, resp.Data)
		})
	}
}

func TestPageSlice(t *testing.T) {
	items := []string{"a", "b", "c", "d", "e"}

	resp := PageSlice(PageRequest{Page: 2, Size: 2}, items)
	assert.Equal(t, []string{"c", "d"}, resp.Data)
	assert.Equal(t, 3, resp.Pagination.TotalPages)
	assert.True(t, resp.Pagination.HasNext)

	resp = PageSlice(PageRequest{Page: 4, Size: 2}, items)
	assert.Empty(t, resp.Data)
	assert.Equal(t, int64(5), resp.Pagination.TotalElements)
}

func TestPageRequestOffset(t *testing.T) {
	p := PageRequest{Page: 3, Size: 20}
	assert.Equal(t, 40, p.Offset())
	assert.Equal(t, 2, p.Index0())
}

func TestPageOf_NormalizesInputs(t *testing.T) {
	cases := []struct {
		name        string
		page0, size int
		total       int64
		wantCurrent int
		wantSize    int
		wantPages   int
		wantNext    bool
		wantPrev    bool
	}{
		{"negative page", -1, 10, 25, 1, 10, 3, true, false},
		{"zero size", 0, 0, 25, 1, DefaultPageSize, 2, true, false},
		{"negative size", 0, -5, 5, 1, DefaultPageSize, 1, false, false},
		{"oversized", 0, 500, 250, 1, MaxPageSize, 3, true, false},
		{"negative total", 0, 10, -3, 1, 10, 0, false, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := PageOf[int](tc.page0, tc.size, tc.total, nil).Pagination
			assert.Equal(t, tc.wantCurrent, p.CurrentPage)
			assert.Equal(t, tc.wantSize, p.PageSize)
			assert.Equal(t, tc.wantPages, p.TotalPages)
			assert.Equal(t, tc.wantNext, p.HasNext)
			assert.Equal(t, tc.wantPrev, p.HasPrevious)
		})
	}
}

func TestPageSlice_NormalizesRequest(t *testing.T) {
	items := []int{1, 2, 3}

	cases := []struct {
		name     string
		req      PageRequest
		wantData []int
		wantPage int
	}{
		{"page zero", PageRequest{Page: 0, Size: 10}, []int{1, 2, 3}, 1},
		{"negative page", PageRequest{Page: -2, Size: 2}, []int{1, 2}, 1},
		{"zero size", PageRequest{Page: 1, Size: 0}, []int{1, 2, 3}, 1},
		{"zero request", PageRequest{}, []int{1, 2, 3}, 1},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var resp PaginatedResponse[int]
			assert.NotPanics(t, func() { resp = PageSlice(tc.req, items) })
			assert.Equal(t, tc.wantData, resp.Data)
			assert.Equal(t, tc.wantPage, resp.Pagination.CurrentPage)
		})
	}
}

func TestPageRequestNormalize(t *testing.T) {
	assert.Equal(t, PageRequest{Page: 1, Size: DefaultPageSize}, PageRequest{}.Normalize())
	assert.Equal(t, PageRequest{Page: 2, Size: MaxPageSize}, PageRequest{Page: 2, Size: 1000}.Normalize())
	assert.Equal(t, 0, PageRequest{Page: -4, Size: 10}.Offset())
	assert.Equal(t, 0, PageRequest{Page: 0, Size: 10}.Index0())
}
