// Package script replays YAML action scripts against an editor session.
//
// A script is a list of steps, each naming exactly one action:
//
//	# parent selection persists between add steps
//	- root: Company
//	- add: Engineering
//	  parent: n1
//	- add: Sales
//	- select: n2
//	- reset: true
//
// The list may also be wrapped in a mapping with optional metadata:
//
//	title: Org chart
//	locale: en
//	steps: [...]
package script

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// StepKind names the action a step performs
type StepKind string

const (
	StepRoot   StepKind = "root"
	StepAdd    StepKind = "add"
	StepReset  StepKind = "reset"
	StepSelect StepKind = "select"
)

// Step is one scripted action. Exactly one of Root, Add, Reset or Select
// must be set; Parent only applies to Add.
type Step struct {
	Root   *string `yaml:"root,omitempty"`
	Add    *string `yaml:"add,omitempty"`
	Parent string  `yaml:"parent,omitempty"`
	Reset  bool    `yaml:"reset,omitempty"`
	Select *string `yaml:"select,omitempty"`

	Line int `yaml:"-"` // Source line, 0 when built in code
}

// RootStep builds a root step
func RootStep(label string) Step { return Step{Root: &label} }

// AddStep builds an add step. An empty parent reuses the last selection.
func AddStep(label, parent string) Step { return Step{Add: &label, Parent: parent} }

// ResetStep builds a reset step
func ResetStep() Step { return Step{Reset: true} }

// SelectStep builds a select step
func SelectStep(id string) Step { return Step{Select: &id} }

// Kind returns the action of the step, or an error if it names zero or
// several actions.
func (s Step) Kind() (StepKind, error) {
	var kinds []StepKind
	if s.Root != nil {
		kinds = append(kinds, StepRoot)
	}
	if s.Add != nil {
		kinds = append(kinds, StepAdd)
	}
	if s.Reset {
		kinds = append(kinds, StepReset)
	}
	if s.Select != nil {
		kinds = append(kinds, StepSelect)
	}
	switch len(kinds) {
	case 0:
		return "", ErrEmptyStep
	case 1:
		if s.Parent != "" && kinds[0] != StepAdd {
			return "", fmt.Errorf("%w: parent only applies to add", ErrInvalidStep)
		}
		return kinds[0], nil
	default:
		return "", fmt.Errorf("%w: several actions %v", ErrInvalidStep, kinds)
	}
}

var (
	ErrEmptyStep   = errors.New("step has no action")
	ErrInvalidStep = errors.New("invalid step")
)

// Script is a parsed action script
type Script struct {
	Title  string `yaml:"title,omitempty"`
	Locale string `yaml:"locale,omitempty"`
	Steps  []Step `yaml:"steps"`
}

// Parse decodes a script from YAML. Both the bare list form and the
// mapping form are accepted.
func Parse(data []byte) (*Script, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if doc.Kind == 0 || len(doc.Content) == 0 {
		return &Script{}, nil
	}

	root := doc.Content[0]
	var sc Script
	var seq *yaml.Node
	switch root.Kind {
	case yaml.SequenceNode:
		seq = root
	case yaml.MappingNode:
		if err := root.Decode(&sc); err != nil {
			return nil, fmt.Errorf("parse script: %w", err)
		}
		for i := 0; i+1 < len(root.Content); i += 2 {
			if root.Content[i].Value == "steps" {
				seq = root.Content[i+1]
			}
		}
		sc.Steps = nil
	default:
		return nil, fmt.Errorf("parse script: expected a list of steps or a mapping (line %d)", root.Line)
	}

	if seq != nil {
		if seq.Kind != yaml.SequenceNode {
			return nil, fmt.Errorf("parse script: steps must be a list (line %d)", seq.Line)
		}
		for _, item := range seq.Content {
			var st Step
			if err := item.Decode(&st); err != nil {
				return nil, fmt.Errorf("parse script: line %d: %w", item.Line, err)
			}
			st.Line = item.Line
			if _, err := st.Kind(); err != nil {
				return nil, fmt.Errorf("parse script: line %d: %w", item.Line, err)
			}
			sc.Steps = append(sc.Steps, st)
		}
	}
	return &sc, nil
}

// Load reads and parses a script file
func Load(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script: %w", err)
	}
	sc, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return sc, nil
}

// Encode writes the script as YAML, using the bare list form when there is
// no metadata.
func (sc *Script) Encode(w io.Writer) error {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)

	var v any = sc
	if sc.Title == "" && sc.Locale == "" {
		v = sc.Steps
	}
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("encode script: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

// Save writes the script to path
func (sc *Script) Save(path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create script: %w", err)
	}
	if err := sc.Encode(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
