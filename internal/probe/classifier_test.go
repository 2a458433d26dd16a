package probe

import "testing"

func TestClassifier(t *testing.T) {
	t.Parallel()

	c := newClassifier("Invalid product")
	url := "https://cards.example.com/pikachu-V1-SVI007"

	cases := []struct {
		name string
		page Page
		want verdict
	}{
		{
			name: "clean 200 exists",
			page: Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte("<html>Pikachu</html>")},
			want: verdict{outcome: Exists},
		},
		{
			name: "soft 404 marker",
			page: Page{URL: url, FinalURL: url, StatusCode: 200, Body: []byte("<html>INVALID PRODUCT supplied</html>")},
			want: verdict{outcome: NotFound},
		},
		{
			name: "rate limited",
			page: Page{URL: url, FinalURL: url, StatusCode: 429},
			want: verdict{transient: SignalRateLimited},
		},
		{
			name: "blocked",
			page: Page{URL: url, FinalURL: url, StatusCode: 403},
			want: verdict{transient: SignalBlocked},
		},
		{
			name: "redirect status",
			page: Page{URL: url, FinalURL: url, StatusCode: 302},
			want: verdict{outcome: NotFound},
		},
		{
			name: "followed redirect",
			page: Page{URL: url, FinalURL: "https://cards.example.com/search", StatusCode: 200, Body: []byte("results")},
			want: verdict{outcome: NotFound},
		},
		{
			name: "hard 404",
			page: Page{URL: url, FinalURL: url, StatusCode: 404, Body: []byte("gone")},
			want: verdict{outcome: NotFound},
		},
		{
			name: "server error",
			page: Page{URL: url, FinalURL: url, StatusCode: 503},
			want: verdict{outcome: NotFound},
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got := c.classify(tc.page)
			if got != tc.want {
				t.Fatalf("classify() = %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestClassifierWithoutMarker(t *testing.T) {
	t.Parallel()

	c := newClassifier("")
	page := Page{URL: "u", FinalURL: "u", StatusCode: 200, Body: []byte("anything")}
	if got := c.classify(page); got.outcome != Exists {
		t.Fatalf("expected Exists without a marker, got %+v", got)
	}
}
