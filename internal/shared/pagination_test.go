package shared

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPaginationFromQuery(t *testing.T) {
	tests := []struct {
		name       string
		query      string
		wantLimit  int
		wantOffset int
	}{
		{"defaults", "", 50, 0},
		{"explicit window", "limit=25&offset=100", 25, 100},
		{"zero limit falls back", "limit=0", 50, 0},
		{"oversized limit clamped", "limit=5000", 50, 0},
		{"negative offset clamped", "offset=-10", 50, 0},
		{"garbage ignored", "limit=abc&offset=xyz", 50, 0},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			q, err := url.ParseQuery(tc.query)
			require.NoError(t, err)
			page := PaginationFromQuery(q)
			require.Equal(t, tc.wantLimit, page.Limit)
			require.Equal(t, tc.wantOffset, page.Offset)
		})
	}
}

func TestPaginationWithCount(t *testing.T) {
	page := Pagination{Limit: 50, Offset: 100}
	require.Equal(t, 7, page.WithCount(7).Count)
	// The receiver is untouched.
	require.Zero(t, page.Count)
}
