// Package plan reads pipeline definitions from YAML.
package plan

import (
	"bytes"
	_ "embed"
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/askiada/xmletl/pkg/pipeline"
)

//go:embed firds.yaml
var firds []byte

var ErrInvalidPlan = errors.New("invalid plan")

// Plan is a named, ordered list of unit descriptors.
type Plan struct {
	Name  string
	Steps []pipeline.Descriptor
}

type document struct {
	Name  string `yaml:"name"`
	Steps []struct {
		Unit   string         `yaml:"unit"`
		Params map[string]any `yaml:"params"`
	} `yaml:"steps"`
}

// Parse decodes a plan. Unknown fields are rejected.
func Parse(data []byte) (*Plan, error) {
	var doc document

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		return nil, errors.Wrap(err, "unable to decode plan")
	}

	if doc.Name == "" {
		return nil, errors.Wrap(ErrInvalidPlan, "name must be set")
	}

	p := &Plan{Name: doc.Name, Steps: make([]pipeline.Descriptor, len(doc.Steps))}
	for i, s := range doc.Steps {
		if s.Unit == "" {
			return nil, errors.Wrapf(ErrInvalidPlan, "step %d: unit must be set", i)
		}
		p.Steps[i] = pipeline.Descriptor{Unit: s.Unit, Params: pipeline.Params(s.Params)}
	}

	return p, nil
}

// Load reads the plan at path.
func Load(path string) (*Plan, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "unable to read plan")
	}

	return Parse(data)
}

// Default returns the built-in FIRDS plan: list the published files, take the second DLTINS
// archive, extract its modified records and upload them as CSV to memory://s3-bucket.
func Default() *Plan {
	p, err := Parse(firds)
	if err != nil {
		panic(err)
	}

	return p
}
