package origin

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestTargetURL(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		base   string
		target string
		want   string
	}{
		{"root base", "https://shop.example", "/product/abc123", "https://shop.example/product/abc123"},
		{"trailing slash base", "https://shop.example/", "/product/abc123?ref=x", "https://shop.example/product/abc123?ref=x"},
		{"base path", "http://127.0.0.1:9000/app", "/product/a", "http://127.0.0.1:9000/app/product/a"},
		{"escaped path", "https://shop.example", "/product/a%2Fb", "https://shop.example/product/a%2Fb"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			base, err := url.Parse(tt.base)
			require.NoError(t, err)
			r := httptest.NewRequest(http.MethodGet, tt.target, nil)
			require.Equal(t, tt.want, TargetURL(base, r))
		})
	}
}

func TestAccept(t *testing.T) {
	t.Parallel()

	r := httptest.NewRequest(http.MethodGet, "/", nil)
	require.Equal(t, DefaultAccept, Accept(r))

	r.Header.Set("Accept", "text/html")
	require.Equal(t, "text/html", Accept(r))
}

func TestFetchFailure(t *testing.T) {
	t.Parallel()

	inner := errors.New("dial tcp: refused")
	err := error(&FetchFailure{Cause: CauseHTTPStatus, URL: "https://shop.example/", StatusCode: 503, Err: inner})
	require.ErrorIs(t, err, inner)
	require.Equal(t, CauseHTTPStatus, CauseOf(err))
	require.Contains(t, err.Error(), "status 503")
	require.Equal(t, CauseNetwork, CauseOf(errors.New("other")))
}
