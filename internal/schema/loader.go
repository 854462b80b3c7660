package schema

import (
	"bytes"
	"fmt"
	"io/fs"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

// ErrorCode categorizes loader errors for clearer handling and messaging.
type ErrorCode string

const (
	ReadError       ErrorCode = "ReadError"
	ParseError      ErrorCode = "ParseError"
	ValidationError ErrorCode = "ValidationError"
	RefError        ErrorCode = "RefError"
)

// LoadError is a structured error naming the offending file.
type LoadError struct {
	Code    ErrorCode
	Path    string
	Message string
	Cause   error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("%s: %s", e.Path, e.Message)
}

func (e *LoadError) Unwrap() error { return e.Cause }

// File is a parameter schema read from disk.
type File struct {
	Path     string
	Document any
	Schema   *Schema
}

// Load reads name from fsys, decodes it preserving key order, and checks it
// against the draft-07 meta-schema.
func Load(fsys fs.FS, name string) (*File, error) {
	data, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, &LoadError{Code: ReadError, Path: name, Message: fmt.Sprintf("read schema: %v", err), Cause: err}
	}
	doc, err := Decode(data)
	if err != nil {
		return nil, &LoadError{Code: ParseError, Path: name, Message: fmt.Sprintf("parse schema: %v", err), Cause: err}
	}
	if ref, ok := externalRef(doc); ok {
		return nil, &LoadError{Code: RefError, Path: name, Message: fmt.Sprintf("external $ref %q is not supported; move the shared schema under local definitions and reference it as #/definitions/...", ref)}
	}
	if err := Validate(name, data); err != nil {
		return nil, &LoadError{Code: ValidationError, Path: name, Message: err.Error(), Cause: err}
	}
	return &File{Path: name, Document: doc, Schema: New(doc)}, nil
}

// Validate compiles data as a draft-07 schema, which checks it against the
// meta-schema and resolves its local references.
func Validate(name string, data []byte) error {
	c := jsonschema.NewCompiler()
	c.Draft = jsonschema.Draft7
	url := "file:///" + name
	if err := c.AddResource(url, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("add schema resource: %w", err)
	}
	if _, err := c.Compile(url); err != nil {
		return fmt.Errorf("invalid schema: %w", err)
	}
	return nil
}

// externalRef returns the first $ref in doc that does not point into the
// document itself. Literal values under enum, const, default and examples
// are not schemas and are skipped.
func externalRef(v any) (string, bool) {
	switch t := v.(type) {
	case *Object:
		for _, m := range t.Members() {
			switch m.Key {
			case "$ref":
				if ref, ok := m.Value.(string); ok && !strings.HasPrefix(ref, "#") {
					return ref, true
				}
			case "enum", "const", "default", "examples":
				continue
			default:
				if ref, ok := externalRef(m.Value); ok {
					return ref, true
				}
			}
		}
	case []any:
		for _, item := range t {
			if ref, ok := externalRef(item); ok {
				return ref, true
			}
		}
	}
	return "", false
}
