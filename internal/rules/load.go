package rules

import (
	_ "embed"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed default_rules.yaml
var defaultRules []byte

// document is the top-level shape of a rules file. A bare list of rules is
// accepted as well.
type document struct {
	Rules []Record `yaml:"rules"`
}

// Default returns the built-in catalog. It panics if the embedded rules are
// invalid, which the package tests guard against.
func Default() *Catalog {
	c, err := Parse(defaultRules)
	if err != nil {
		panic(fmt.Sprintf("rules: built-in catalog is invalid: %v", err))
	}
	return c
}

// DefaultRecords returns the built-in rules in serialized form.
func DefaultRecords() []Record {
	return Default().Records()
}

// Parse decodes and compiles a YAML rules document.
func Parse(data []byte) (*Catalog, error) {
	records, err := decode(data)
	if err != nil {
		return nil, err
	}
	return NewCatalog(records)
}

// LoadFile reads and compiles a rules file.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read rules file: %w", err)
	}
	c, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	return c, nil
}

func decode(data []byte) ([]Record, error) {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return nil, fmt.Errorf("parse rules: %w", err)
	}
	if len(node.Content) == 0 {
		return nil, nil
	}

	root := node.Content[0]
	if root.Kind == yaml.SequenceNode {
		var records []Record
		if err := root.Decode(&records); err != nil {
			return nil, fmt.Errorf("decode rules: %w", err)
		}
		return records, nil
	}

	var doc document
	if err := root.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode rules: %w", err)
	}
	return doc.Rules, nil
}
