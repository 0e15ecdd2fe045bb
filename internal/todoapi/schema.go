package todoapi

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Extension fields must be strings or null.
const createSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "pattern": "\\S"},
		"completed": {"type": "boolean"}
	},
	"required": ["title"],
	"additionalProperties": {"type": ["string", "null"]}
}`

const patchSchema = `{
	"type": "object",
	"properties": {
		"title": {"type": "string", "pattern": "\\S"},
		"completed": {"type": "boolean"}
	},
	"minProperties": 1,
	"additionalProperties": {"type": ["string", "null"]}
}`

type validator struct {
	create *jsonschema.Schema
	patch  *jsonschema.Schema
}

func newValidator() (*validator, error) {
	c := jsonschema.NewCompiler()
	for name, text := range map[string]string{"create.json": createSchema, "patch.json": patchSchema} {
		doc, err := jsonschema.UnmarshalJSON(strings.NewReader(text))
		if err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
		if err := c.AddResource(name, doc); err != nil {
			return nil, fmt.Errorf("schema %s: %w", name, err)
		}
	}
	create, err := c.Compile("create.json")
	if err != nil {
		return nil, err
	}
	patch, err := c.Compile("patch.json")
	if err != nil {
		return nil, err
	}
	return &validator{create: create, patch: patch}, nil
}

// validate checks body against schema. The returned error is suitable for
// a 400 response.
func validate(schema *jsonschema.Schema, body []byte) error {
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	if err := schema.Validate(inst); err != nil {
		return fmt.Errorf("invalid todo: %w", err)
	}
	return nil
}
