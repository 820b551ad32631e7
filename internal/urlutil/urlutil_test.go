package urlutil

import (
	"strings"
	"testing"

	"pgregory.net/rapid"
)

func TestBuildAbsolute_Examples(t *testing.T) {
	cases := []struct {
		base, path, want string
	}{
		{"https://trade.multibank.io", "/markets", "https://trade.multibank.io/markets"},
		{"https://trade.multibank.io/", "/", "https://trade.multibank.io/"},
		{" https://multibank.io// ", "about/why-multibank", "https://multibank.io/about/why-multibank"},
		{"https://trade.multibank.io", "", "https://trade.multibank.io"},
		{"https://trade.multibank.io", "https://apps.apple.com/app", "https://apps.apple.com/app"},
	}
	for _, tc := range cases {
		if got := BuildAbsolute(tc.base, tc.path); got != tc.want {
			t.Errorf("BuildAbsolute(%q, %q) = %q, want %q", tc.base, tc.path, got, tc.want)
		}
	}
}

func TestBuildAbsolute_SingleSlashJoin(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		host := rapid.StringMatching(`[a-z]{3,12}\.(io|com)`).Draw(rt, "host")
		slashes := strings.Repeat("/", rapid.IntRange(0, 3).Draw(rt, "slashes"))
		segment := rapid.StringMatching(`[a-z][a-z\-]{0,15}`).Draw(rt, "segment")
		leading := rapid.Bool().Draw(rt, "leading")

		path := segment
		if leading {
			path = "/" + segment
		}
		got := BuildAbsolute("https://"+host+slashes, path)
		want := "https://" + host + "/" + segment
		if got != want {
			rt.Fatalf("unexpected url: got=%s want=%s", got, want)
		}
	})
}
