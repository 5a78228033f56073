package cache

import (
	"net/http/httptest"
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "simple path",
			key: CacheKey{
				Method: "GET",
				Path:   "/api/jobs",
			},
			want: "GET:/api/jobs",
		},
		{
			name: "lower case method normalized",
			key: CacheKey{
				Method: "get",
				Path:   "/api/testimonials",
			},
			want: "GET:/api/testimonials",
		},
		{
			name: "empty path",
			key: CacheKey{
				Method: "GET",
			},
			want: "GET:/",
		},
		{
			name: "query params sorted",
			key: CacheKey{
				Method: "GET",
				Path:   "/api/jobs",
				QueryParams: url.Values{
					"sector": []string{"it"},
					"page":   []string{"2"},
				},
			},
			want: "GET:/api/jobs?page=2&sector=it",
		},
		{
			name: "repeated query values sorted",
			key: CacheKey{
				Method: "GET",
				Path:   "/api/jobs",
				QueryParams: url.Values{
					"tag": []string{"remote", "contract"},
				},
			},
			want: "GET:/api/jobs?tag=contract&tag=remote",
		},
		{
			name: "query escaping",
			key: CacheKey{
				Method: "GET",
				Path:   "/api/jobs",
				QueryParams: url.Values{
					"q": []string{"a&b"},
				},
			},
			want: "GET:/api/jobs?q=a%26b",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCacheKey_Determinism ensures differently ordered query strings map to the same key
func TestCacheKey_Determinism(t *testing.T) {
	a := KeyFromRequest(httptest.NewRequest("GET", "/api/jobs?page=1&sector=finance", nil))
	b := KeyFromRequest(httptest.NewRequest("GET", "/api/jobs?sector=finance&page=1", nil))

	if a.String() != b.String() {
		t.Errorf("keys differ: %q vs %q", a.String(), b.String())
	}
}

func TestKeyFromRequest_MethodDistinguishes(t *testing.T) {
	get := KeyFromRequest(httptest.NewRequest("GET", "/api/jobs", nil))
	head := KeyFromRequest(httptest.NewRequest("HEAD", "/api/jobs", nil))

	if get.String() == head.String() {
		t.Errorf("GET and HEAD share key %q", get.String())
	}
}
