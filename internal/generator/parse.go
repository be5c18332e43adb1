package generator

import (
	"bytes"
	"encoding/json"
	"errors"
	"regexp"
	"strings"

	"github.com/tidwall/jsonc"
)

// fencePattern matches a markdown code block: ```json { ... } ```
var fencePattern = regexp.MustCompile("(?s)```(?:json|jsonc|JSON)?\\s*\\n?(.*?)\\s*```")

// ParseDocument extracts the JSON object from backend output.
// Output that is a JSON object as a whole is decoded as is. Otherwise a
// markdown code fence and surrounding prose are dropped and the first object
// is read. Line comments and trailing commas are tolerated. Anything else is
// a *FormatError.
func ParseDocument(raw string) (RawDocument, error) {
	content := strings.TrimSpace(raw)
	if content == "" {
		return nil, &FormatError{Raw: raw, Err: ErrEmptyResponse}
	}

	var doc RawDocument
	if err := json.Unmarshal(jsonc.ToJSON([]byte(content)), &doc); err == nil && doc != nil {
		return doc, nil
	}

	if m := fencePattern.FindStringSubmatch(content); len(m) > 1 && strings.Contains(m[1], "{") {
		content = strings.TrimSpace(m[1])
	}
	if strings.HasPrefix(content, "[") {
		return nil, &FormatError{Raw: raw, Err: errors.New("expected a JSON object, got an array")}
	}

	start := strings.Index(content, "{")
	if start < 0 {
		return nil, &FormatError{Raw: raw, Err: errors.New("no JSON object found")}
	}

	// Only the first value is read; prose after it may hold more braces.
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON([]byte(content[start:]))))
	doc = nil
	if err := dec.Decode(&doc); err != nil {
		return nil, &FormatError{Raw: raw, Err: err}
	}
	if doc == nil {
		return nil, &FormatError{Raw: raw, Err: errors.New("no JSON object found")}
	}
	return doc, nil
}
