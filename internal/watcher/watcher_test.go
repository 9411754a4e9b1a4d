package watcher

import "testing"

func TestWantedExtensionFilter(t *testing.T) {
	w := New("/tmp", []string{".txt", ".md"}, 0, nil, nil, nil)

	cases := []struct {
		path string
		want bool
	}{
		{"/drop/a.txt", true},
		{"/drop/b.MD", true},
		{"/drop/c.pdf", false},
		{"/drop/noext", false},
	}
	for _, tc := range cases {
		if got := w.wanted(tc.path); got != tc.want {
			t.Errorf("wanted(%q) = %v, want %v", tc.path, got, tc.want)
		}
	}
}

func TestWantedEmptyFilterMatchesAll(t *testing.T) {
	w := New("/tmp", nil, 0, nil, nil, nil)
	if !w.wanted("/drop/anything.xyz") {
		t.Error("empty extension filter should match everything")
	}
}
