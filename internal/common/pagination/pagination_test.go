package pagination_test

import (
	"net/http/httptest"
	"testing"

	"blog-api/internal/common/pagination"
)

func TestParseQueryParams(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		query string
		want  pagination.Params
	}{
		{"defaults", "", pagination.Params{Limit: 10, Offset: 0}},
		{"explicit", "?limit=5&offset=20", pagination.Params{Limit: 5, Offset: 20}},
		{"limit capped", "?limit=500", pagination.Params{Limit: 50, Offset: 0}},
		{"zero limit raised", "?limit=0", pagination.Params{Limit: 1, Offset: 0}},
		{"negative offset", "?offset=-3", pagination.Params{Limit: 10, Offset: 0}},
		{"garbage", "?limit=abc&offset=x", pagination.Params{Limit: 10, Offset: 0}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest("GET", "/api/v1/blogs"+tt.query, nil)
			got := pagination.ParseQueryParams(r, pagination.DefaultConfig())
			if got != tt.want {
				t.Errorf("ParseQueryParams(%q) = %+v, want %+v", tt.query, got, tt.want)
			}
		})
	}
}

func TestNewMetadata(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		total   int
		params  pagination.Params
		hasMore bool
	}{
		{"more pages", 25, pagination.Params{Limit: 10, Offset: 10}, true},
		{"exact end", 20, pagination.Params{Limit: 10, Offset: 10}, false},
		{"past end", 5, pagination.Params{Limit: 10, Offset: 30}, false},
		{"empty", 0, pagination.Params{Limit: 10}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := pagination.NewMetadata(tt.total, tt.params)
			if m.HasMore != tt.hasMore {
				t.Errorf("HasMore = %v, want %v", m.HasMore, tt.hasMore)
			}
			if m.Total != tt.total || m.Limit != tt.params.Limit || m.Offset != tt.params.Offset {
				t.Errorf("unexpected metadata %+v", m)
			}
		})
	}
}

func TestWindow(t *testing.T) {
	t.Parallel()

	items := []int{1, 2, 3, 4, 5}

	if got := pagination.Window(items, pagination.Params{Limit: 2, Offset: 1}); len(got) != 2 || got[0] != 2 {
		t.Errorf("Window = %v, want [2 3]", got)
	}
	if got := pagination.Window(items, pagination.Params{Limit: 10, Offset: 3}); len(got) != 2 {
		t.Errorf("Window tail = %v, want [4 5]", got)
	}
	if got := pagination.Window(items, pagination.Params{Limit: 2, Offset: 9}); got == nil || len(got) != 0 {
		t.Errorf("Window past end = %#v, want empty non-nil", got)
	}
}
