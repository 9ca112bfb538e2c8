package validation

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v5"
)

var (
	ErrSchemaInvalid    = errors.New("schema invalid")
	ErrSchemaValidation = errors.New("schema validation failed")
)

// Issue is a single validation failure.
type Issue struct {
	Location string `json:"location"`
	Message  string `json:"message"`
}

// PayloadError lists every issue found while validating a payload.
type PayloadError struct {
	Issues []Issue
	Cause  error
}

func (e *PayloadError) Error() string {
	if len(e.Issues) == 0 {
		if e.Cause != nil {
			return e.Cause.Error()
		}
		return ErrSchemaValidation.Error()
	}
	parts := make([]string, 0, len(e.Issues))
	for _, issue := range e.Issues {
		location := issue.Location
		if !strings.HasPrefix(location, "#") {
			location = "#" + location
		}
		if issue.Message == "" {
			parts = append(parts, location)
			continue
		}
		parts = append(parts, location+": "+issue.Message)
	}
	return strings.Join(parts, "; ")
}

func (e *PayloadError) Unwrap() error {
	return ErrSchemaValidation
}

// Issues extracts validation issues from err.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}
	var payloadErr *PayloadError
	if errors.As(err, &payloadErr) {
		return payloadErr.Issues
	}
	var validationErr *jsonschema.ValidationError
	if errors.As(err, &validationErr) {
		return collectIssues(validationErr)
	}
	return []Issue{{Message: err.Error()}}
}

// Schema is a compiled JSON schema.
type Schema struct {
	compiled *jsonschema.Schema
}

// Compile compiles a JSON schema document.
func Compile(doc map[string]any) (*Schema, error) {
	encoded, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiler := jsonschema.NewCompiler()
	compiler.Draft = jsonschema.Draft2020
	if err := compiler.AddResource("schema.json", bytes.NewReader(encoded)); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	compiled, err := compiler.Compile("schema.json")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSchemaInvalid, err)
	}
	return &Schema{compiled: compiled}, nil
}

// Validate checks payload against the schema. The payload is re-encoded as
// JSON first so Go native numbers validate the same way decoded ones do.
func (s *Schema) Validate(payload map[string]any) error {
	if s == nil || s.compiled == nil {
		return nil
	}
	instance, err := toJSONValue(payload)
	if err != nil {
		return &PayloadError{Issues: []Issue{{Message: err.Error()}}, Cause: err}
	}
	if err := s.compiled.Validate(instance); err != nil {
		return &PayloadError{Issues: Issues(err), Cause: err}
	}
	return nil
}

func toJSONValue(payload map[string]any) (any, error) {
	if payload == nil {
		payload = map[string]any{}
	}
	encoded, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	decoder := json.NewDecoder(bytes.NewReader(encoded))
	decoder.UseNumber()
	var out any
	if err := decoder.Decode(&out); err != nil {
		return nil, err
	}
	return out, nil
}

func collectIssues(err *jsonschema.ValidationError) []Issue {
	var issues []Issue
	var walk func(*jsonschema.ValidationError)
	walk = func(node *jsonschema.ValidationError) {
		if node == nil {
			return
		}
		if len(node.Causes) == 0 {
			issues = append(issues, Issue{
				Location: strings.TrimSpace(node.InstanceLocation),
				Message:  strings.TrimSpace(node.Message),
			})
			return
		}
		for _, cause := range node.Causes {
			walk(cause)
		}
	}
	walk(err)
	return issues
}
