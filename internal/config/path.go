package config

import (
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	seqerr "github.com/mrz1836/seqeth/pkg/errors"
)

// ErrUnknownKey is returned by Get and Set for paths that name no field.
//
//nolint:gochecknoglobals // sentinel
var ErrUnknownKey = &seqerr.SequenceError{
	Kind:       seqerr.KindInvalidInput,
	Message:    "unknown config key",
	Suggestion: "run 'seqeth config show' to list keys",
	ExitCode:   seqerr.ExitInput,
}

// Get returns the value at a dotted YAML path such as "network.rpc" or
// "tokens.0.symbol". Sections are returned as YAML.
func (c *Config) Get(path string) (string, error) {
	root, err := c.tree()
	if err != nil {
		return "", err
	}
	node, err := lookup(root, path)
	if err != nil {
		return "", err
	}
	if node.Kind == yaml.ScalarNode {
		return node.Value, nil
	}
	out, err := yaml.Marshal(node)
	if err != nil {
		return "", seqerr.WrapAs(seqerr.KindEncodingError, err, "encoding %s", path)
	}
	return strings.TrimSpace(string(out)), nil
}

// Set replaces the scalar at path with value, parsed as YAML, and
// validates the result. c is unchanged on error.
func (c *Config) Set(path, value string) error {
	root, err := c.tree()
	if err != nil {
		return err
	}
	node, err := lookup(root, path)
	if err != nil {
		return err
	}
	if node.Kind != yaml.ScalarNode {
		return seqerr.WithDetails(
			seqerr.New(seqerr.KindInvalidInput, "config key is a section, not a value"),
			map[string]string{"key": path},
		)
	}
	node.Value = value
	node.Tag = ""
	node.Style = 0

	data, err := yaml.Marshal(root)
	if err != nil {
		return seqerr.WrapAs(seqerr.KindEncodingError, err, "encoding config")
	}
	var next Config
	if err := yaml.Unmarshal(data, &next); err != nil {
		return seqerr.WithDetails(
			seqerr.WrapAs(seqerr.KindInvalidInput, err, "invalid value for "+path),
			map[string]string{"key": path, "value": value},
		)
	}
	if err := next.Validate(); err != nil {
		return err
	}
	*c = next
	return nil
}

func (c *Config) tree() (*yaml.Node, error) {
	var doc yaml.Node
	if err := doc.Encode(c); err != nil {
		return nil, seqerr.WrapAs(seqerr.KindEncodingError, err, "encoding config")
	}
	return &doc, nil
}

func lookup(node *yaml.Node, path string) (*yaml.Node, error) {
	if path == "" {
		return nil, ErrUnknownKey
	}
	for _, part := range strings.Split(path, ".") {
		var next *yaml.Node
		switch node.Kind {
		case yaml.MappingNode:
			for i := 0; i+1 < len(node.Content); i += 2 {
				if node.Content[i].Value == part {
					next = node.Content[i+1]
					break
				}
			}
		case yaml.SequenceNode:
			if i, err := strconv.Atoi(part); err == nil && i >= 0 && i < len(node.Content) {
				next = node.Content[i]
			}
		}
		if next == nil {
			return nil, seqerr.WithDetails(ErrUnknownKey, map[string]string{"key": path})
		}
		node = next
	}
	return node, nil
}
