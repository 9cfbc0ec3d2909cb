package workload

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/xeipuuv/gojsonschema"
	"gopkg.in/yaml.v3"
)

//go:embed schema.json
var schemaJSON []byte

// Problem is one schema violation.
type Problem struct {
	Field       string
	Description string
}

// ValidationError lists every schema violation of a document.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Problems))
	for _, p := range e.Problems {
		parts = append(parts, p.Field+": "+p.Description)
	}

	return fmt.Sprintf("%v: %s", ErrInvalidWorkload, strings.Join(parts, "; "))
}

// Unwrap returns ErrInvalidWorkload.
func (e *ValidationError) Unwrap() error {
	return ErrInvalidWorkload
}

// Validate checks raw YAML against the workload schema. Schema violations are
// reported as a *ValidationError.
func Validate(raw []byte) error {
	var doc any

	err := yaml.Unmarshal(raw, &doc)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewBytesLoader(schemaJSON),
		gojsonschema.NewGoLoader(doc),
	)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	if result.Valid() {
		return nil
	}

	verr := &ValidationError{}
	for _, re := range result.Errors() {
		verr.Problems = append(verr.Problems, Problem{Field: re.Field(), Description: re.Description()})
	}

	return verr
}
