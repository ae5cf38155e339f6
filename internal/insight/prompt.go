package insight

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/invopop/jsonschema"
)

const promptHeader = `Analyze the following customer feedback and return a JSON response with this exact structure:
{
  "summary": "2-3 sentence overall summary of common feedback themes",
  "clusters": [
    {
      "title": "Theme name",
      "examples": ["feedback example 1", "feedback example 2"]
    }
  ]
}

Use at most %d clusters and at most %d examples per cluster.
The response must validate against this JSON Schema:
%s

Feedback to analyze:
`

const promptFooter = "\nReturn only the JSON, no additional text."

// resultSchema is reflected once from Result.
var resultSchema = generateSchema[Result]()

func generateSchema[T any]() string {
	reflector := jsonschema.Reflector{
		AllowAdditionalProperties: false,
		DoNotReference:            true,
	}
	var v T
	schema := reflector.Reflect(v)
	b, err := json.MarshalIndent(schema, "", "  ")
	if err != nil {
		panic(fmt.Sprintf("insight: reflect schema: %v", err))
	}
	return string(b)
}

// BuildPrompt renders the single prompt sent to every remote provider.
// Texts are listed with 1-based indexes in the given order.
func BuildPrompt(texts []string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, promptHeader, MaxClusters, MaxExamples, resultSchema)
	for i, text := range texts {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, text)
	}
	sb.WriteString(promptFooter)
	return sb.String()
}
