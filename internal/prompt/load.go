package prompt

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads a YAML template set and compiles it. Unknown keys are
// rejected; missing keys fall back to the built-in templates.
//
//	system: |
//	  You write commit messages for the payments team.
//	instructions: |
//	  Summarize the change in {{.Language}}.
func LoadFile(path string) (*Renderer, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read prompt templates: %w", err)
	}

	var t Templates
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&t); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalidTemplates, path, err)
	}

	r, err := New(t)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return r, nil
}
