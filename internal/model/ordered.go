package model

import (
	"fmt"
	"iter"
	"slices"

	"github.com/pb33f/libopenapi/orderedmap"
	"go.yaml.in/yaml/v4"
)

// Map is a string-keyed mapping that keeps the document's declaration order.
// The zero value is an empty map.
type Map[V any] struct {
	entries *orderedmap.Map[string, V]
}

func (m *Map[V]) Set(key string, value V) {
	if m.entries == nil {
		m.entries = orderedmap.New[string, V]()
	}
	m.entries.Set(key, value)
}

func (m Map[V]) Get(key string) (V, bool) {
	if m.entries == nil {
		var zero V
		return zero, false
	}
	return m.entries.Get(key)
}

func (m Map[V]) Len() int {
	return orderedmap.Len(m.entries)
}

func (m Map[V]) Keys() []string {
	return slices.Collect(m.entries.KeysFromOldest())
}

// FromOldest iterates entries in declaration order.
func (m Map[V]) FromOldest() iter.Seq2[string, V] {
	return m.entries.FromOldest()
}

func (m *Map[V]) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode && node.ShortTag() == "!!null" {
		return nil
	}
	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping", node.Line)
	}

	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i].Value
		var value V
		if err := node.Content[i+1].Decode(&value); err != nil {
			return fmt.Errorf("decoding %q: %w", key, err)
		}
		m.Set(key, value)
	}
	return nil
}
