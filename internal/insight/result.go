package insight

import "strings"

// Result limits. Every Result returned by the engine satisfies both.
const (
	MaxClusters = 5
	MaxExamples = 3
)

// EmptySummary is returned when there is no feedback at all.
const EmptySummary = "No feedback available to analyze yet."

// Cluster is a named group of feedback texts sharing a theme.
type Cluster struct {
	Title    string   `json:"title" jsonschema:"minLength=1,description=Short theme name"`
	Examples []string `json:"examples" jsonschema:"maxItems=3,description=Verbatim feedback texts illustrating the theme"`
}

// Result is the structured summary of the feedback corpus.
type Result struct {
	Summary  string    `json:"summary" jsonschema:"minLength=1,description=2-3 sentence overall summary of common feedback themes"`
	Clusters []Cluster `json:"clusters" jsonschema:"maxItems=5"`
}

// Empty returns the result for an empty corpus.
func Empty() Result {
	return Result{Summary: EmptySummary, Clusters: []Cluster{}}
}

// clamp enforces the cluster and example limits and replaces nil slices
// with empty ones so they serialize as [].
func (r Result) clamp() Result {
	out := Result{Summary: r.Summary, Clusters: make([]Cluster, 0, min(len(r.Clusters), MaxClusters))}
	for i, c := range r.Clusters {
		if i == MaxClusters {
			break
		}
		examples := make([]string, 0, min(len(c.Examples), MaxExamples))
		for _, e := range c.Examples {
			if len(examples) == MaxExamples {
				break
			}
			examples = append(examples, e)
		}
		out.Clusters = append(out.Clusters, Cluster{Title: c.Title, Examples: examples})
	}
	return out
}

// Topics returns the cluster titles without the local " Related" suffix.
func (r Result) Topics() []string {
	topics := make([]string, 0, len(r.Clusters))
	for _, c := range r.Clusters {
		topics = append(topics, strings.TrimSuffix(c.Title, titleSuffix))
	}
	return topics
}
