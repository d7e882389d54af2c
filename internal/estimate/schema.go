package estimate

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/Veraticus/shadow-payroll/internal/common"
	"github.com/Veraticus/shadow-payroll/internal/model"
	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed response.schema.json
var responseSchemaJSON []byte

const (
	schemaName     = "estimation_response"
	schemaResource = "estimation-response.schema.json"
)

var (
	schemaPrinter  = message.NewPrinter(language.English)
	responseSchema = mustCompileSchema(responseSchemaJSON, schemaResource)
	schemaHint     = mustSchemaHint(responseSchemaJSON)
)

func mustCompileSchema(raw []byte, name string) *jsonschema.Schema {
	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(string(raw)))
	if err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, doc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}

// mustSchemaHint decodes the schema for the provider's structured output mode,
// without the meta keywords some providers reject.
func mustSchemaHint(raw []byte) map[string]any {
	var hint map[string]any
	if err := json.Unmarshal(raw, &hint); err != nil {
		panic(fmt.Sprintf("failed to decode response schema: %v", err))
	}
	delete(hint, "$schema")
	delete(hint, "$id")
	delete(hint, "title")
	return hint
}

// SchemaHint returns a fresh copy of the response schema.
func SchemaHint() map[string]any {
	return mustSchemaHint(responseSchemaJSON)
}

// validateDocument checks doc against the response schema and classifies the
// first violation found.
func validateDocument(doc any, raw string) error {
	err := responseSchema.Validate(doc)
	if err == nil {
		return nil
	}

	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return &MalformedResponseError{Raw: raw, Detail: err.Error()}
	}

	leaf := firstLeaf(ve)
	path := dottedPath(leaf.InstanceLocation)

	switch k := leaf.ErrorKind.(type) {
	case *kind.Required:
		missing := ""
		if len(k.Missing) > 0 {
			missing = k.Missing[0]
		}
		return &model.FieldError{Err: common.ErrMissingField, Path: joinPath(path, missing)}
	case *kind.Enum:
		return &model.FieldError{Err: common.ErrInvalidEnumValue, Path: path, Value: k.Got}
	case *kind.Const:
		return &model.FieldError{Err: common.ErrInvalidEnumValue, Path: path, Value: k.Got}
	case *kind.Minimum, *kind.Maximum, *kind.ExclusiveMinimum, *kind.ExclusiveMaximum:
		return &model.FieldError{Err: common.ErrOutOfRange, Path: path, Value: valueAt(doc, leaf.InstanceLocation)}
	default:
		return &MalformedResponseError{
			Raw:    raw,
			Detail: fmt.Sprintf("%s: %s", displayPath(path), leaf.ErrorKind.LocalizedString(schemaPrinter)),
		}
	}
}

// firstLeaf descends to the first cause with no causes of its own. Causes
// are ordered by instance location so the choice is stable.
func firstLeaf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		best := ve.Causes[0]
		for _, c := range ve.Causes[1:] {
			if rank(c) < rank(best) {
				best = c
			}
		}
		ve = best
	}
	return ve
}

// rank prefers field-level violations over structural ones, then the
// shallower and lexically earlier location.
func rank(ve *jsonschema.ValidationError) string {
	class := "1"
	switch leafOf(ve).ErrorKind.(type) {
	case *kind.Required, *kind.Enum, *kind.Const, *kind.Minimum, *kind.Maximum,
		*kind.ExclusiveMinimum, *kind.ExclusiveMaximum:
		class = "0"
	}
	return fmt.Sprintf("%s%03d%s", class, len(ve.InstanceLocation), strings.Join(ve.InstanceLocation, "/"))
}

func leafOf(ve *jsonschema.ValidationError) *jsonschema.ValidationError {
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	return ve
}

func dottedPath(loc []string) string {
	return strings.Join(loc, ".")
}

func joinPath(prefix, name string) string {
	switch {
	case prefix == "":
		return name
	case name == "":
		return prefix
	default:
		return prefix + "." + name
	}
}

func displayPath(path string) string {
	if path == "" {
		return "(root)"
	}
	return path
}

// valueAt returns the instance value at loc as a float64 when it is numeric.
func valueAt(doc any, loc []string) any {
	cur := doc
	for _, seg := range loc {
		switch node := cur.(type) {
		case map[string]any:
			cur = node[seg]
		case []any:
			var i int
			if _, err := fmt.Sscanf(seg, "%d", &i); err != nil || i < 0 || i >= len(node) {
				return nil
			}
			cur = node[i]
		default:
			return nil
		}
	}
	if n, ok := cur.(json.Number); ok {
		if f, err := n.Float64(); err == nil {
			return f
		}
	}
	return cur
}
