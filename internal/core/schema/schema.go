// Package schema holds the JSON Schemas for the /optimize wire contract and
// validates payloads against them.
package schema

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

const optimizeRequestSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "OptimizeRequest",
  "type": "object",
  "properties": {
    "input": {
      "type": ["string", "null"],
      "description": "Prompt text with the user's code embedded."
    }
  }
}`

// The reply carries "output" on success and "error" on failure. Both are
// optional, and a null output counts as missing, so the client can apply
// its own fallback text.
const optimizeResponseSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "title": "OptimizeResponse",
  "type": "object",
  "properties": {
    "output": {"type": ["string", "null"]},
    "error": {"type": "string"}
  }
}`

// ValidationError lists the schema violations of a payload.
type ValidationError struct {
	Issues []string
}

func (e ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "payload failed schema validation"
	}
	return strings.Join(e.Issues, "; ")
}

type compiled struct {
	once   sync.Once
	raw    string
	schema *gojsonschema.Schema
	err    error
}

func (c *compiled) load() (*gojsonschema.Schema, error) {
	c.once.Do(func() {
		c.schema, c.err = gojsonschema.NewSchema(gojsonschema.NewStringLoader(c.raw))
		if c.err != nil {
			c.err = fmt.Errorf("schema: compile: %w", c.err)
		}
	})
	return c.schema, c.err
}

var (
	requestSchema  = &compiled{raw: optimizeRequestSchema}
	responseSchema = &compiled{raw: optimizeResponseSchema}
)

// OptimizeRequestSchema returns the request schema as a generic map.
func OptimizeRequestSchema() (map[string]any, error) {
	return decode(optimizeRequestSchema)
}

// OptimizeResponseSchema returns the reply schema as a generic map.
func OptimizeResponseSchema() (map[string]any, error) {
	return decode(optimizeResponseSchema)
}

func decode(raw string) (map[string]any, error) {
	var out map[string]any
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, fmt.Errorf("schema: decode: %w", err)
	}
	return out, nil
}

// ValidateRequest checks a raw /optimize request body.
func ValidateRequest(raw []byte) error {
	return validate(requestSchema, raw)
}

// ValidateResponse checks a raw /optimize reply body.
func ValidateResponse(raw []byte) error {
	return validate(responseSchema, raw)
}

func validate(c *compiled, raw []byte) error {
	s, err := c.load()
	if err != nil {
		return err
	}
	result, err := s.Validate(gojsonschema.NewBytesLoader(raw))
	if err != nil {
		// Not JSON at all.
		return fmt.Errorf("schema: %w", err)
	}
	if result.Valid() {
		return nil
	}
	issues := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		issues = append(issues, desc.String())
	}
	return ValidationError{Issues: issues}
}
