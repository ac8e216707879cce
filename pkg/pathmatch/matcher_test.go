package pathmatch

import "testing"

func TestMatches(t *testing.T) {
	cases := []struct {
		pattern   string
		candidate string
		want      bool
	}{
		{"libs/strings.py", "libs/strings.py", true},
		{"libs/strings.py", "libs/other.py", false},
		{"libs/*.py", "libs/strings.py", true},
		{"libs/*.py", "libs/nested/strings.py", false},
		{"libs/**", "libs/nested/deep/strings.py", true},
		{"libs/**", "libs", true},
		{"libs/**/*.py", "libs/a/b/c.py", true},
		{"shared_assets/", "shared_assets/img/logo.png", true},
		{"shared_assets/", "shared_assets", true},
		{"**/*.md", "docs/guide/readme.md", true},
		{"**", "anything/at/all", true},
		{"*", "top", true},
		{"*", "top/nested", false},
	}

	for _, c := range cases {
		got := Matches(c.pattern, c.candidate)
		if got != c.want {
			t.Errorf("Matches(%q, %q) = %v, want %v", c.pattern, c.candidate, got, c.want)
		}
	}
}

func TestAnyMatches(t *testing.T) {
	patterns := []string{"secrets/*", "config/prod.yaml"}

	if !AnyMatches(patterns, "config/prod.yaml") {
		t.Error("expected AnyMatches to find config/prod.yaml")
	}
	if AnyMatches(patterns, "config/dev.yaml") {
		t.Error("expected AnyMatches to reject config/dev.yaml")
	}
	if AnyMatches(nil, "anything") {
		t.Error("expected AnyMatches over nil patterns to be false")
	}
}
