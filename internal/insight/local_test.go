package insight

import (
	"fmt"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func TestLocal_Empty(t *testing.T) {
	for _, texts := range [][]string{nil, {}} {
		got := Local(texts)
		want := Result{Summary: EmptySummary, Clusters: []Cluster{}}
		if diff := cmp.Diff(want, got); diff != "" {
			t.Errorf("Local(%v) mismatch (-want +got):\n%s", texts, diff)
		}
		if got.Clusters == nil {
			t.Error("Clusters must be an empty slice, not nil")
		}
	}
}

func TestLocal_SlowFeedback(t *testing.T) {
	texts := []string{"The app is slow", "Slow loading times", "Great design"}

	got := Local(texts)

	want := Result{
		Summary: "Analyzed 3 feedback submissions with an average length of 15 characters. " +
			"Main topics include: Slow, Loading, Times, Great, Design. " +
			"Consider reviewing individual feedback for detailed insights.",
		Clusters: []Cluster{
			{Title: "Slow Related", Examples: []string{"The app is slow", "Slow loading times"}},
			{Title: "Loading Related", Examples: []string{"Slow loading times"}},
			{Title: "Times Related", Examples: []string{"Slow loading times"}},
			{Title: "Great Related", Examples: []string{"Great design"}},
			{Title: "Design Related", Examples: []string{"Great design"}},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Local() mismatch (-want +got):\n%s", diff)
	}

	for _, c := range got.Clusters {
		if c.Title == "App Related" {
			t.Errorf("short token %q must not form a cluster", "app")
		}
	}
}

func TestLocal_NoPatterns(t *testing.T) {
	got := Local([]string{"ok", "bad"})

	want := Result{
		Summary: "Analyzed 2 feedback submissions with an average length of 3 characters. " +
			"No clear patterns identified yet. " +
			"Consider reviewing individual feedback for detailed insights.",
		Clusters: []Cluster{},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("Local() mismatch (-want +got):\n%s", diff)
	}
}

func TestLocal_TextCountedOncePerBucket(t *testing.T) {
	got := Local([]string{"crash crash crash", "crash on save", "crash crash crash"})

	if len(got.Clusters) == 0 || got.Clusters[0].Title != "Crash Related" {
		t.Fatalf("first cluster = %+v, want Crash Related", got.Clusters)
	}
	want := []string{"crash crash crash", "crash on save"}
	if diff := cmp.Diff(want, got.Clusters[0].Examples); diff != "" {
		t.Errorf("examples mismatch (-want +got):\n%s", diff)
	}
}

func TestLocal_TieBreakFirstSeen(t *testing.T) {
	got := Local([]string{"zebra apple", "apple zebra"})

	titles := []string{}
	for _, c := range got.Clusters {
		titles = append(titles, c.Title)
	}
	want := []string{"Zebra Related", "Apple Related"}
	if diff := cmp.Diff(want, titles); diff != "" {
		t.Errorf("titles mismatch (-want +got):\n%s", diff)
	}
}

func TestLocal_Limits(t *testing.T) {
	var texts []string
	for i := 0; i < 10; i++ {
		texts = append(texts, fmt.Sprintf("alpha bravo charlie delta echoes foxtrot entry%d", i))
	}

	got := Local(texts)

	if len(got.Clusters) != MaxClusters {
		t.Fatalf("len(Clusters) = %d, want %d", len(got.Clusters), MaxClusters)
	}
	for _, c := range got.Clusters {
		if len(c.Examples) != MaxExamples {
			t.Errorf("%s has %d examples, want %d", c.Title, len(c.Examples), MaxExamples)
		}
	}
	if got.Clusters[0].Title != "Alpha Related" || got.Clusters[4].Title != "Echoes Related" {
		t.Errorf("unexpected ranking: %+v", got.Clusters)
	}
}

func TestLocal_Deterministic(t *testing.T) {
	texts := []string{
		"Checkout page crashes on submit",
		"Search results load slowly",
		"Love the search filters",
		"Checkout total is wrong",
		"Dark mode please",
	}

	first := Local(texts)
	for i := 0; i < 20; i++ {
		if diff := cmp.Diff(first, Local(texts)); diff != "" {
			t.Fatalf("run %d differs (-first +got):\n%s", i, diff)
		}
	}
}

func TestLocal_AverageUsesCharacters(t *testing.T) {
	// 5 runes, 10 bytes each
	got := Local([]string{"ééééé", "ààààà"})

	if !strings.Contains(got.Summary, "average length of 5 characters") {
		t.Errorf("Summary = %q, want rune-based average", got.Summary)
	}
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want []string
	}{
		{"punctuation stripped", "Login-button broken!!", []string{"loginbutton", "broken"}},
		{"short tokens dropped", "The app is ok", nil},
		{"long stop words dropped", "It would have been nice, should could might", []string{"nice"}},
		{"digits kept", "Error 5000 on page2", []string{"error", "5000", "page2"}},
		{"non-ascii letters removed", "Café works", []string{"works"}},
		{"tabs and newlines split", "slow\tloading\nscreen", []string{"slow", "loading", "screen"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Tokenize(tt.in)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Tokenize(%q) mismatch (-want +got):\n%s", tt.in, diff)
			}
		})
	}
}
