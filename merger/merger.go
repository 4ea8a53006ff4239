// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

// Package merger recursively merges a configuration tree into another one.
// Only maps are merged recursively. Values of other kinds (scalars and slices)
// from the source side replace values on the destination side.
//
// MergeMap works on plain map[string]any trees. Merge and MergeDocument work on
// YAML node trees and keep comments and key order of every entry the source
// does not touch, so the result can be written back to a human-edited file.
package merger

import (
	"reflect"
	"sort"

	"gopkg.in/yaml.v3"
)

const (
	mapTag = "!!map"
	strTag = "!!str"
)

// MergeMap method merges src into dst and returns dst. Nested maps are merged
// recursively, any other value from src overwrites the value in dst. If a key
// holds a map in src but something else in dst, the dst value is dropped and
// the merge starts from an empty map. A nil dst is replaced with a new map.
func MergeMap(src, dst map[string]any) map[string]any {
	if dst == nil {
		dst = make(map[string]any, len(src))
	}

	for key, value := range src {
		if srcMap, ok := value.(map[string]any); ok {
			dstMap, _ := dst[key].(map[string]any)
			dst[key] = MergeMap(srcMap, dstMap)

			continue
		}

		dst[key] = value
	}

	return dst
}

// Merge method merges src into the YAML mapping node dst and returns the
// resulting mapping node. The merge is done in place when dst is a mapping
// node. A nil or non-mapping dst is replaced with a new mapping node.
//
// Entries of dst absent from src keep their values, comments and positions.
// Entries present only in src are appended in key order without comments. A
// scalar or sequence value equal to the one already in dst leaves the node
// untouched; a scalar overwriting a scalar keeps the inline comments of the
// slot. Any other overwrite replaces the value node with its comments.
//
// Merge keys (<<) of dst are not followed: a key inherited through a merge key
// is looked up among the explicit keys of the mapping only, so it is appended
// as an explicit entry. The written values stay equivalent.
func Merge(src map[string]any, dst *yaml.Node) (*yaml.Node, error) {
	if dst == nil || dst.Kind != yaml.MappingNode {
		dst = newMapping()
	}

	for _, key := range sortedKeys(src) {
		value := src[key]
		idx := findKey(dst, key)

		var cur *yaml.Node

		if idx >= 0 {
			cur = dst.Content[idx+1]
		}

		if srcMap, ok := value.(map[string]any); ok {
			node, err := Merge(srcMap, cur)

			if err != nil {
				return nil, err
			}

			setValue(dst, idx, key, node)

			continue
		}

		if cur != nil && decodesTo(cur, value) {
			continue
		}

		node, err := encode(value)

		if err != nil {
			return nil, err
		}

		if cur != nil {
			if equal(cur, node) {
				continue
			}

			keepComments(cur, node)
		}

		setValue(dst, idx, key, node)
	}

	return dst, nil
}

// MergeDocument method merges src into the YAML document node doc. If doc is
// nil or is not a document node, the merge starts from an empty document.
func MergeDocument(src map[string]any, doc *yaml.Node) (*yaml.Node, error) {
	if doc == nil || doc.Kind != yaml.DocumentNode {
		doc = &yaml.Node{Kind: yaml.DocumentNode}
	}

	var root *yaml.Node

	if len(doc.Content) > 0 {
		root = doc.Content[0]
	}

	root, err := Merge(src, root)

	if err != nil {
		return nil, err
	}

	doc.Content = []*yaml.Node{root}

	return doc, nil
}

func newMapping() *yaml.Node {
	return &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  mapTag,
	}
}

func findKey(mapping *yaml.Node, key string) int {
	for i := 0; i+1 < len(mapping.Content); i += 2 {
		keyNode := mapping.Content[i]

		if keyNode.Kind == yaml.ScalarNode && keyNode.Value == key {
			return i
		}
	}

	return -1
}

func setValue(mapping *yaml.Node, idx int, key string, value *yaml.Node) {
	if idx >= 0 {
		mapping.Content[idx+1] = value
		return
	}

	keyNode := &yaml.Node{
		Kind:  yaml.ScalarNode,
		Tag:   strTag,
		Value: key,
	}

	mapping.Content = append(mapping.Content, keyNode, value)
}

func encode(value any) (*yaml.Node, error) {
	node := &yaml.Node{}
	err := node.Encode(value)

	if err != nil {
		return nil, err
	}

	return node, nil
}

// decodesTo reports whether node decodes to value, so 1.0 in the file matches
// float64(1) without being rewritten as 1.
func decodesTo(node *yaml.Node, value any) bool {
	var nodeVal any

	if err := node.Decode(&nodeVal); err != nil {
		return false
	}

	return reflect.DeepEqual(nodeVal, value)
}

// equal reports whether both nodes decode to the same value. Nodes that cannot
// be decoded are never equal.
func equal(a, b *yaml.Node) bool {
	var aVal, bVal any

	if err := a.Decode(&aVal); err != nil {
		return false
	}
	if err := b.Decode(&bVal); err != nil {
		return false
	}

	return reflect.DeepEqual(aVal, bVal)
}

func keepComments(from, to *yaml.Node) {
	if from.Kind != yaml.ScalarNode || to.Kind != yaml.ScalarNode {
		return
	}

	to.HeadComment = from.HeadComment
	to.LineComment = from.LineComment
	to.FootComment = from.FootComment

	if from.Tag == strTag && to.Tag == strTag {
		to.Style = from.Style
	}
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))

	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
