package insight

import (
	"bytes"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/text"
)

var md = goldmark.New()

// ParseResponse decodes a remote model's reply into a validated Result.
// The reply is untrusted: anything but exactly one well-formed Result
// object is an error.
func ParseResponse(reply string) (*Result, error) {
	payload := extractJSON(reply)
	if payload == "" {
		return nil, stderrors.New("empty response")
	}

	var r Result
	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, stderrors.New("decode response: trailing data after JSON object")
	}

	if err := validate(&r); err != nil {
		return nil, err
	}
	clamped := r.clamp()
	return &clamped, nil
}

// extractJSON returns the content of the first fenced code block when the
// reply is Markdown, or the trimmed reply otherwise.
func extractJSON(reply string) string {
	src := []byte(reply)
	doc := md.Parser().Parse(text.NewReader(src))

	var block string
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		fenced, ok := n.(*ast.FencedCodeBlock)
		if !ok {
			return ast.WalkContinue, nil
		}
		var buf bytes.Buffer
		lines := fenced.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			buf.Write(seg.Value(src))
		}
		block = buf.String()
		return ast.WalkStop, nil
	})

	if strings.TrimSpace(block) != "" {
		return strings.TrimSpace(block)
	}
	return strings.TrimSpace(reply)
}

// validate rejects results that decode but are unusable, and normalizes
// example lists in place.
func validate(r *Result) error {
	r.Summary = strings.TrimSpace(r.Summary)
	if r.Summary == "" {
		return stderrors.New("invalid response: summary is empty")
	}
	if r.Clusters == nil {
		return stderrors.New("invalid response: clusters missing")
	}
	for i := range r.Clusters {
		c := &r.Clusters[i]
		c.Title = strings.TrimSpace(c.Title)
		if c.Title == "" {
			return fmt.Errorf("invalid response: cluster %d has no title", i+1)
		}
		examples := make([]string, 0, len(c.Examples))
		for _, e := range c.Examples {
			if e = strings.TrimSpace(e); e != "" {
				examples = append(examples, e)
			}
		}
		c.Examples = examples
	}
	return nil
}
