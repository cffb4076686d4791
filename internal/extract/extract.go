// Package extract pulls values out of JSON response bodies using JMESPath
// expressions, for assertions in the functional suite and for chaining
// created-resource ids between requests.
package extract

import (
	"encoding/json"
	"fmt"

	"github.com/jmespath/go-jmespath"
)

// Value evaluates a JMESPath expression against a decoded JSON document
// and returns the result as a string. Complex results are re-encoded as
// JSON; a null result is an error.
func Value(doc any, expression string) (string, error) {
	result, err := jmespath.Search(expression, doc)
	if err != nil {
		return "", fmt.Errorf("failed to evaluate %s: %w", expression, err)
	}

	switch v := result.(type) {
	case string:
		return v, nil
	case float64:
		return fmt.Sprintf("%g", v), nil
	case int:
		return fmt.Sprintf("%d", v), nil
	case bool:
		return fmt.Sprintf("%t", v), nil
	case nil:
		return "", fmt.Errorf("expression %s returned null", expression)
	default:
		encoded, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to convert result of %s to string: %w", expression, err)
		}
		return string(encoded), nil
	}
}

// FromRaw parses a raw JSON body and evaluates the expression against it.
func FromRaw(raw []byte, expression string) (string, error) {
	var doc any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return "", fmt.Errorf("cannot extract value: body is not valid JSON")
	}
	return Value(doc, expression)
}

// Values evaluates a map of name to expression against one document.
func Values(doc any, expressions map[string]string) (map[string]string, error) {
	if len(expressions) == 0 {
		return nil, nil
	}
	extracted := make(map[string]string, len(expressions))
	for name, expression := range expressions {
		value, err := Value(doc, expression)
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", name, err)
		}
		extracted[name] = value
	}
	return extracted, nil
}
