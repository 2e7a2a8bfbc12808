// SPDX-License-Identifier: MPL-2.0

package specdoc

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

// DefaultVersionField is the top-level field stamped with the build version.
const DefaultVersionField FieldPath = "version"

var (
	// ErrParse is the sentinel error wrapped by ParseError.
	ErrParse = errors.New("malformed specification document")

	// ErrInvalidFieldPath is the sentinel error wrapped by InvalidFieldPathError.
	ErrInvalidFieldPath = errors.New("invalid field path")
)

type (
	// FieldPath is a dot-separated path of mapping keys, e.g. "version" or
	// "info.version".
	FieldPath string

	// InvalidFieldPathError is returned for a path with blank segments.
	InvalidFieldPathError struct {
		Value FieldPath
	}

	// ParseError is returned when a document cannot be decoded or does not
	// have a mapping at its root.
	ParseError struct {
		Name string
		Err  error
	}

	// Document is a decoded specification. Stamping never mutates the
	// receiver; it returns a new Document.
	Document struct {
		name string
		root *yaml.Node // document node
	}
)

// Validate returns an error if any segment of the path is blank.
func (p FieldPath) Validate() error {
	for _, seg := range strings.Split(string(p), ".") {
		if strings.TrimSpace(seg) == "" {
			return &InvalidFieldPathError{Value: p}
		}
	}
	return nil
}

// Segments returns the mapping keys of the path.
func (p FieldPath) Segments() []string { return strings.Split(string(p), ".") }

// Error implements the error interface.
func (e *InvalidFieldPathError) Error() string {
	return fmt.Sprintf("invalid field path %q: segments must not be blank", e.Value)
}

// Unwrap returns ErrInvalidFieldPath for errors.Is() compatibility.
func (e *InvalidFieldPathError) Unwrap() error { return ErrInvalidFieldPath }

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Name, e.Err)
}

// Unwrap returns ErrParse for errors.Is() compatibility.
func (e *ParseError) Unwrap() error { return ErrParse }

// Parse decodes data. name is used in error messages only.
func Parse(name string, data []byte) (*Document, error) {
	var root yaml.Node
	if err := yaml.Unmarshal(data, &root); err != nil {
		return nil, &ParseError{Name: name, Err: err}
	}
	if root.Kind != yaml.DocumentNode || len(root.Content) == 0 {
		return nil, &ParseError{Name: name, Err: errors.New("document is empty")}
	}
	if body := root.Content[0]; body.Kind != yaml.MappingNode {
		return nil, &ParseError{Name: name, Err: fmt.Errorf("expected a mapping at the document root, got %s", kindName(body.Kind))}
	}
	return &Document{name: name, root: &root}, nil
}

// Name returns the name the document was parsed under.
func (d *Document) Name() string { return d.name }

// Field returns the scalar value at path and whether it exists.
func (d *Document) Field(path FieldPath) (string, bool) {
	node := d.root.Content[0]
	for _, key := range path.Segments() {
		if node.Kind != yaml.MappingNode {
			return "", false
		}
		node = lookup(node, key)
		if node == nil {
			return "", false
		}
	}
	if node.Kind != yaml.ScalarNode {
		return "", false
	}
	return node.Value, true
}

// WithField returns a copy of the document with the value at path set to
// the string value. Missing mappings along the path are created; a
// non-mapping value in the way is an error.
func (d *Document) WithField(path FieldPath, value string) (*Document, error) {
	if err := path.Validate(); err != nil {
		return nil, err
	}

	root := cloneNode(d.root)
	node := root.Content[0]
	segs := path.Segments()
	for i, key := range segs {
		if node.Kind != yaml.MappingNode {
			return nil, fmt.Errorf("setting %s in %s: %s is a %s, not a mapping",
				path, d.name, strings.Join(segs[:i], "."), kindName(node.Kind))
		}

		child := lookup(node, key)
		last := i == len(segs)-1
		switch {
		case child == nil && last:
			node.Content = append(node.Content, stringNode(key), stringNode(value))
		case child == nil:
			child = &yaml.Node{Kind: yaml.MappingNode, Tag: "!!map"}
			node.Content = append(node.Content, stringNode(key), child)
		case last:
			replaceScalar(child, value)
		}
		node = child
	}

	return &Document{name: d.name, root: root}, nil
}

// Encode renders the document as YAML with two-space indentation.
func (d *Document) Encode() ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(d.root); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", d.name, err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding %s: %w", d.name, err)
	}
	return buf.Bytes(), nil
}

// lookup returns the value node for key in a mapping node.
func lookup(mapping *yaml.Node, key string) *yaml.Node {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		if mapping.Content[i].Value == key {
			return mapping.Content[i+1]
		}
	}
	return nil
}

func stringNode(value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: value}
}

// replaceScalar turns n into a plain string scalar, keeping its comments.
func replaceScalar(n *yaml.Node, value string) {
	n.Kind = yaml.ScalarNode
	n.Tag = "!!str"
	n.Value = value
	n.Style = 0
	n.Content = nil
	n.Alias = nil
	n.Anchor = ""
}

func cloneNode(n *yaml.Node) *yaml.Node {
	if n == nil {
		return nil
	}
	c := *n
	if n.Content != nil {
		c.Content = make([]*yaml.Node, len(n.Content))
		for i, child := range n.Content {
			c.Content[i] = cloneNode(child)
		}
	}
	return &c
}

func kindName(k yaml.Kind) string {
	switch k {
	case yaml.DocumentNode:
		return "document"
	case yaml.SequenceNode:
		return "sequence"
	case yaml.MappingNode:
		return "mapping"
	case yaml.ScalarNode:
		return "scalar"
	case yaml.AliasNode:
		return "alias"
	default:
		return "unknown node"
	}
}
