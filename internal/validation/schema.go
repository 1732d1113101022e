// Package validation checks task documents against the runtime's JSON schema
// before they are handed to the execution engine.
package validation

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"gopkg.in/yaml.v3"
)

// defaultPrinter is used to format schema validation error messages.
var defaultPrinter = message.NewPrinter(language.English)

// taskSchemaJSON is the schema for task documents. Step lists nest
// recursively, so the schema references itself for every step shape.
const taskSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "task.schema.json",
  "type": "object",
  "properties": {
    "id": {"type": "string"},
    "description": {"type": "string"},
    "tool": {"type": "string"},
    "toolName": {"type": "string"},
    "params": {"type": "object"},
    "prompt": {"type": "string"},
    "data": {},
    "value": {},
    "steps": {"type": "array", "items": {"$ref": "task.schema.json"}},
    "sequence": {"type": "array", "items": {"$ref": "task.schema.json"}},
    "subtasks": {"type": "array", "items": {"$ref": "task.schema.json"}},
    "pipeline": {"type": "array", "items": {"$ref": "task.schema.json"}},
    "workflow": {"type": "array", "items": {"$ref": "task.schema.json"}},
    "sequential": {"type": "boolean"},
    "parallel": {"type": "boolean"},
    "ordered": {"type": "boolean"},
    "dependencies": {
      "type": "object",
      "additionalProperties": {"type": "array", "items": {"type": "string"}}
    },
    "accumulationType": {
      "type": "string",
      "enum": ["array", "object", "sum", "concat", "last", "first", "pipeline", "custom"]
    },
    "accumulateResults": {"type": "boolean"},
    "stopOnFailure": {"type": "boolean"},
    "maxConcurrency": {"type": "integer", "minimum": 1},
    "maxDepth": {"type": "integer", "minimum": 1}
  },
  "additionalProperties": false
}`

// taskSchema is the compiled JSON Schema for task documents.
var taskSchema *jsonschema.Schema

func init() {
	taskSchema = mustCompileSchema(taskSchemaJSON, "task.schema.json")
}

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// ValidateTaskFile validates a task YAML file at the given path.
func ValidateTaskFile(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading task file: %w", err)
	}
	return ValidateTaskBytes(data), nil
}

// ValidateTaskBytes validates raw YAML bytes against the task schema.
func ValidateTaskBytes(data []byte) []string {
	return validateYAMLBytes(taskSchema, data)
}

func validateYAMLBytes(schema *jsonschema.Schema, data []byte) []string {
	var yamlDoc any
	if err := yaml.Unmarshal(data, &yamlDoc); err != nil {
		return []string{fmt.Sprintf("YAML parse error: %v", err)}
	}

	jsonCompatible := convertToJSONCompatible(yamlDoc)

	return validateAgainstSchema(schema, jsonCompatible)
}

func validateAgainstSchema(schema *jsonschema.Schema, instance any) []string {
	err := schema.Validate(instance)
	if err == nil {
		return nil
	}
	ve, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return []string{fmt.Sprintf("schema: %v", err)}
	}
	var errs []string
	collectSchemaErrors(ve, &errs)
	return errs
}

func collectSchemaErrors(ve *jsonschema.ValidationError, errs *[]string) {
	if len(ve.Causes) == 0 {
		loc := "/"
		if len(ve.InstanceLocation) > 0 {
			loc = "/" + strings.Join(ve.InstanceLocation, "/")
		}
		*errs = append(*errs, fmt.Sprintf("%s: %s", loc, ve.ErrorKind.LocalizedString(defaultPrinter)))
		return
	}
	for _, c := range ve.Causes {
		collectSchemaErrors(c, errs)
	}
}

// convertToJSONCompatible converts YAML-decoded values to JSON-compatible
// types. yaml.v3 decodes mappings to map[string]any already; this pass keeps
// nested values consistent.
func convertToJSONCompatible(v any) any {
	switch val := v.(type) {
	case map[string]any:
		result := make(map[string]any, len(val))
		for k, v2 := range val {
			result[k] = convertToJSONCompatible(v2)
		}
		return result
	case []any:
		result := make([]any, len(val))
		for i, v2 := range val {
			result[i] = convertToJSONCompatible(v2)
		}
		return result
	default:
		return val
	}
}
