package insight

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"
)

const titleSuffix = " Related"

// minTokenLen is exclusive: tokens must be longer than this.
const minTokenLen = 3

var stopWords = map[string]bool{
	"the": true, "and": true, "or": true, "but": true, "in": true, "on": true,
	"at": true, "to": true, "for": true, "of": true, "with": true, "by": true,
	"is": true, "are": true, "was": true, "were": true, "be": true, "been": true,
	"have": true, "has": true, "had": true, "do": true, "does": true, "did": true,
	"will": true, "would": true, "could": true, "should": true, "may": true,
	"might": true, "can": true, "a": true, "an": true,
}

// bucket collects the distinct texts that contain one token.
type bucket struct {
	token string
	order int // first appearance across the corpus
	texts []string
	seen  map[string]bool
}

// Local summarizes texts with keyword clustering. It makes no network
// calls and returns the same Result for the same input.
func Local(texts []string) Result {
	if len(texts) == 0 {
		return Empty()
	}

	buckets := make(map[string]*bucket)
	var ordered []*bucket
	for _, text := range texts {
		for _, token := range Tokenize(text) {
			b, ok := buckets[token]
			if !ok {
				b = &bucket{token: token, order: len(ordered), seen: make(map[string]bool)}
				buckets[token] = b
				ordered = append(ordered, b)
			}
			if !b.seen[text] {
				b.seen[text] = true
				b.texts = append(b.texts, text)
			}
		}
	}

	// Stable sort keeps first-seen order among equal bucket sizes.
	sort.SliceStable(ordered, func(i, j int) bool {
		return len(ordered[i].texts) > len(ordered[j].texts)
	})
	if len(ordered) > MaxClusters {
		ordered = ordered[:MaxClusters]
	}

	clusters := make([]Cluster, 0, len(ordered))
	for _, b := range ordered {
		examples := b.texts
		if len(examples) > MaxExamples {
			examples = examples[:MaxExamples]
		}
		clusters = append(clusters, Cluster{
			Title:    capitalize(b.token) + titleSuffix,
			Examples: append([]string(nil), examples...),
		})
	}

	result := Result{Clusters: clusters}
	result.Summary = localSummary(texts, result)
	return result
}

// Tokenize lowercases text, drops every character that is not an ASCII
// letter, digit, or whitespace, and returns the remaining words longer
// than three characters that are not stop words.
func Tokenize(text string) []string {
	var sb strings.Builder
	for _, r := range strings.ToLower(text) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
		case unicode.IsSpace(r):
			sb.WriteRune(' ')
		}
	}

	var tokens []string
	for _, word := range strings.Fields(sb.String()) {
		if len(word) <= minTokenLen || stopWords[word] {
			continue
		}
		tokens = append(tokens, word)
	}
	return tokens
}

func localSummary(texts []string, r Result) string {
	total := 0
	for _, t := range texts {
		total += utf8.RuneCountInString(t)
	}
	avg := int(math.Round(float64(total) / float64(len(texts))))

	topics := "No clear patterns identified yet."
	if len(r.Clusters) > 0 {
		topics = "Main topics include: " + strings.Join(r.Topics(), ", ") + "."
	}
	return fmt.Sprintf(
		"Analyzed %d feedback submissions with an average length of %d characters. %s Consider reviewing individual feedback for detailed insights.",
		len(texts), avg, topics,
	)
}

// capitalize upper-cases the first letter. Tokens are ASCII.
func capitalize(token string) string {
	if token == "" {
		return token
	}
	return strings.ToUpper(token[:1]) + token[1:]
}
