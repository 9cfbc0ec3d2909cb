// Package workload reads and executes YAML workload documents: named run
// stores built from set expressions, followed by an ordered list of store
// operations with optional expectations on their results.
package workload

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/pierrec/lz4/v4"
	"gopkg.in/yaml.v3"

	"github.com/Sumatoshi-tech/runstore/pkg/alg/rle"
	"github.com/Sumatoshi-tech/runstore/pkg/setexpr"
)

// Sentinel errors.
var (
	ErrUnknownSet      = errors.New("workload: unknown set")
	ErrUnknownOp       = errors.New("workload: unknown operation")
	ErrInvalidWorkload = errors.New("workload: invalid document")
)

// Step operations.
const (
	OpInsert = "insert"
	OpOr     = "or"
	OpXor    = "xor"
	OpAnd    = "and"
	OpCount  = "count"
)

// CompressedSuffix marks workload files stored as lz4 frames.
const CompressedSuffix = ".lz4"

// Document is a decoded workload.
type Document struct {
	Name  string             `yaml:"name"`
	Sets  map[string]SetSpec `yaml:"sets"`
	Steps []Step             `yaml:"steps"`
}

// SetSpec is the initial content of a named set, written either as a set
// expression or as a list of [start, end] pairs.
type SetSpec struct {
	Expr  string
	Pairs [][2]int
}

// UnmarshalYAML accepts a scalar expression or a sequence of pairs.
func (s *SetSpec) UnmarshalYAML(node *yaml.Node) error {
	switch node.Kind {
	case yaml.ScalarNode:
		return node.Decode(&s.Expr)
	case yaml.SequenceNode:
		s.Pairs = [][2]int{}

		return node.Decode(&s.Pairs)
	default:
		return fmt.Errorf("%w: line %d: set must be an expression or a list of pairs", ErrInvalidWorkload, node.Line)
	}
}

// MarshalYAML writes pairs when they are set and the expression otherwise.
func (s SetSpec) MarshalYAML() (any, error) {
	if s.Pairs != nil {
		return s.Pairs, nil
	}

	return s.Expr, nil
}

// Build creates the store described by s.
func (s SetSpec) Build() (*rle.RunStore, error) {
	if s.Pairs != nil {
		return setexpr.FromPairs(s.Pairs)
	}

	return setexpr.ParseStore(s.Expr)
}

// Step is one operation of a workload.
type Step struct {
	Op string `yaml:"op"`
	// Target is the set that insert modifies.
	Target string `yaml:"target,omitempty"`
	Keys   []int  `yaml:"keys,omitempty"`
	// Args names the two operands of or, xor, and and count.
	Args []string `yaml:"args,omitempty"`
	// Into stores the result of a binary operation under a new or existing name.
	Into string `yaml:"into,omitempty"`
	// With is the operation whose cardinality count computes.
	With        string  `yaml:"with,omitempty"`
	Expect      *string `yaml:"expect,omitempty"`
	ExpectCount *int    `yaml:"expect_count,omitempty"`
}

// Name returns a short label for the step, such as "count(xor)".
func (s Step) Name() string {
	if s.Op == OpCount && s.With != "" {
		return s.Op + "(" + s.With + ")"
	}

	return s.Op
}

// Decode reads a YAML document from r. Unknown fields are rejected.
func Decode(r io.Reader) (*Document, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc Document

	err := dec.Decode(&doc)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", ErrInvalidWorkload)
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidWorkload, err)
	}

	return &doc, nil
}

// Encode writes doc to w as YAML that Decode accepts.
func (d *Document) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)

	err := enc.Encode(d)
	if err != nil {
		return fmt.Errorf("encode workload: %w", err)
	}

	err = enc.Close()
	if err != nil {
		return fmt.Errorf("encode workload: %w", err)
	}

	return nil
}

// ReadFile returns the raw YAML stored at path, decompressing it first when
// the name ends in CompressedSuffix.
func ReadFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workload: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, CompressedSuffix) {
		r = lz4.NewReader(f)
	}

	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read workload %s: %w", path, err)
	}

	return raw, nil
}

// Load reads, validates and decodes the workload at path.
func Load(path string) (*Document, error) {
	raw, err := ReadFile(path)
	if err != nil {
		return nil, err
	}

	err = Validate(raw)
	if err != nil {
		return nil, err
	}

	return Decode(bytes.NewReader(raw))
}

// Compress writes raw to w as an lz4 frame readable by ReadFile.
func Compress(w io.Writer, raw []byte) error {
	zw := lz4.NewWriter(w)

	_, err := zw.Write(raw)
	if err != nil {
		return fmt.Errorf("compress workload: %w", err)
	}

	err = zw.Close()
	if err != nil {
		return fmt.Errorf("compress workload: %w", err)
	}

	return nil
}

// SetNames returns the names of the declared sets in sorted order.
func (d *Document) SetNames() []string {
	names := make([]string, 0, len(d.Sets))
	for name := range d.Sets {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
