package tools

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/mitchellh/mapstructure"
	"github.com/xeipuuv/gojsonschema"
)

// schemaCache holds compiled schemas keyed by their JSON encoding.
var schemaCache sync.Map // map[string]*gojsonschema.Schema

// ParseArguments decodes a raw argument payload. An empty payload is
// treated as an empty object; anything other than a JSON object is
// ErrMalformedArguments.
func ParseArguments(raw string) (map[string]interface{}, error) {
	if strings.TrimSpace(raw) == "" {
		return map[string]interface{}{}, nil
	}

	var args map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &args); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	if args == nil {
		return nil, fmt.Errorf("%w: payload is not an object", ErrMalformedArguments)
	}
	return args, nil
}

// DecodeArguments validates args against schema and decodes them into out,
// a pointer to a struct with mapstructure tags.
func DecodeArguments(schema map[string]interface{}, args map[string]interface{}, out interface{}) error {
	if err := Validate(schema, args); err != nil {
		return err
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: false,
	})
	if err != nil {
		return fmt.Errorf("tools: build decoder: %w", err)
	}
	if err := decoder.Decode(args); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	return nil
}

// Validate checks args against a JSON schema.
func Validate(schema map[string]interface{}, args map[string]interface{}) error {
	compiled, err := compileSchema(schema)
	if err != nil {
		return err
	}

	result, err := compiled.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedArguments, err)
	}
	if result.Valid() {
		return nil
	}

	errs := make([]string, 0, len(result.Errors()))
	for _, desc := range result.Errors() {
		errs = append(errs, desc.String())
	}
	return fmt.Errorf("%w: %s", ErrMalformedArguments, strings.Join(errs, "; "))
}

func compileSchema(schema map[string]interface{}) (*gojsonschema.Schema, error) {
	jsonBytes, err := json.Marshal(schema)
	if err != nil {
		return nil, fmt.Errorf("tools: invalid schema definition: %w", err)
	}
	key := string(jsonBytes)

	if val, ok := schemaCache.Load(key); ok {
		return val.(*gojsonschema.Schema), nil
	}

	compiled, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(jsonBytes))
	if err != nil {
		return nil, fmt.Errorf("tools: invalid schema definition: %w", err)
	}
	schemaCache.Store(key, compiled)
	return compiled, nil
}
