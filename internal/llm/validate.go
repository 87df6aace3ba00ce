package llm

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// compiled schemas keyed by name and definition digest, so two schemas
// that share a name never shadow each other.
var schemaCache sync.Map

// CheckSchema compiles s, reporting a malformed definition early.
func CheckSchema(s *Schema) error {
	_, err := compileSchema(s)
	return err
}

// validateResponse returns *ErrInvalidResponse when raw is not JSON or
// does not satisfy schema. A nil schema accepts anything.
func validateResponse(schema *Schema, raw json.RawMessage) error {
	if schema == nil {
		return nil
	}
	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(raw))
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("response is not JSON: %w", err)}
	}
	sch, err := compileSchema(schema)
	if err != nil {
		return &ErrInvalidResponse{Content: raw, Err: err}
	}
	if err := sch.Validate(doc); err != nil {
		return &ErrInvalidResponse{Content: raw, Err: fmt.Errorf("%s: %w", schema.Name, err)}
	}
	return nil
}

func compileSchema(s *Schema) (*jsonschema.Schema, error) {
	def, err := json.Marshal(s.Definition)
	if err != nil {
		return nil, fmt.Errorf("marshal schema %q: %w", s.Name, err)
	}
	sum := sha256.Sum256(def)
	key := s.Name + "@" + hex.EncodeToString(sum[:8])
	if v, ok := schemaCache.Load(key); ok {
		return v.(*jsonschema.Schema), nil
	}

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(def))
	if err != nil {
		return nil, fmt.Errorf("parse schema %q: %w", s.Name, err)
	}
	url := "mem://pathwise/" + key + ".json"
	c := jsonschema.NewCompiler()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema %q: %w", s.Name, err)
	}
	sch, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema %q: %w", s.Name, err)
	}
	v, _ := schemaCache.LoadOrStore(key, sch)
	return v.(*jsonschema.Schema), nil
}
