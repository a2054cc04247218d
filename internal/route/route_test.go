package route

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMatcherMatch(t *testing.T) {
	t.Parallel()

	m := NewMatcher("")
	tests := []struct {
		path string
		want Match
	}{
		{"/product/abc123", Match{Kind: KindProductDetail, ProductID: "abc123"}},
		{"/product/abc123/", Match{Kind: KindProductDetail, ProductID: "abc123"}},
		{"/product/gel%20pen", Match{Kind: KindProductDetail, ProductID: "gel pen"}},
		{"/product/", Match{Kind: KindOther}},
		{"/product", Match{Kind: KindOther}},
		{"/product//", Match{Kind: KindOther}},
		{"/product/a/b", Match{Kind: KindOther}},
		{"/product/%zz", Match{Kind: KindOther}},
		{"/products/abc", Match{Kind: KindOther}},
		{"/", Match{Kind: KindOther}},
		{"/cart", Match{Kind: KindOther}},
		{"", Match{Kind: KindOther}},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			require.Equal(t, tt.want, m.Match(tt.path))
		})
	}
}

func TestMatcherCustomPrefix(t *testing.T) {
	t.Parallel()

	m := NewMatcher("/p")
	require.Equal(t, Match{Kind: KindProductDetail, ProductID: "42"}, m.Match("/p/42"))
	require.False(t, m.Match("/product/42").IsProduct())
}

func FuzzMatcherMatch(f *testing.F) {
	for _, seed := range []string{"/product/x", "/product/", "/a/b/c"} {
		f.Add(seed)
	}
	m := NewMatcher("")
	f.Fuzz(func(t *testing.T, id string) {
		got := m.Match("/product/" + id)
		if got.IsProduct() && got.ProductID == "" {
			t.Fatalf("product match with empty id for %q", id)
		}
		if !got.IsProduct() && got.ProductID != "" {
			t.Fatalf("non-product match carries id for %q", id)
		}
	})
}
