package pagination

import (
	"net/url"
	"testing"
)

func TestNormalize(t *testing.T) {
	cases := []struct {
		name string
		in   Params
		want Params
	}{
		{"defaults", Params{}, Params{Limit: DefaultLimit, Offset: 0}},
		{"capped", Params{Limit: 500, Offset: 10}, Params{Limit: MaxLimit, Offset: 10}},
		{"negative offset", Params{Limit: 10, Offset: -5}, Params{Limit: 10, Offset: 0}},
		{"passthrough", Params{Limit: 50, Offset: 25}, Params{Limit: 50, Offset: 25}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.in.Normalize(); got != tc.want {
				t.Fatalf("Normalize(%+v) = %+v, want %+v", tc.in, got, tc.want)
			}
		})
	}
}

func TestFromQuery(t *testing.T) {
	query := url.Values{}
	query.Set("limit", "30")
	query.Set("offset", "60")

	got := FromQuery(query)
	if got.Limit != 30 || got.Offset != 60 {
		t.Fatalf("unexpected params %+v", got)
	}

	malformed := url.Values{}
	malformed.Set("limit", "abc")
	got = FromQuery(malformed)
	if got.Limit != DefaultLimit || got.Offset != 0 {
		t.Fatalf("expected defaults for malformed input, got %+v", got)
	}
}

func TestNewPage(t *testing.T) {
	page := NewPage[string](nil, 0, Params{Limit: 10})
	if page.Items == nil {
		t.Fatal("expected non-nil items slice")
	}
	if page.Total != 0 || page.Limit != 10 {
		t.Fatalf("unexpected page %+v", page)
	}
}
