// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

/*
Package fileconf reads YAML configuration files from a storage. Load returns a
plain configuration tree, LoadDocument returns the YAML node tree with comments
and key order, which is needed to write updated values back to the file.

Errors of the YAML parser are returned as is.
*/
package fileconf

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/iph0/yamlconf/storage"
)

const (
	errPref  = "fileconf"
	nullTag  = "!!null"
	mergeTag = "!!merge"
)

// Loader reads configuration files from a storage.
type Loader struct {
	storage storage.Storage
}

// NewLoader method creates new loader instance.
func NewLoader(st storage.Storage) *Loader {
	return &Loader{
		storage: st,
	}
}

// Load method loads configuration tree from the file. An empty file gives an
// empty tree.
func (l *Loader) Load(ctx context.Context, path string) (map[string]any, error) {
	bytes, err := l.read(ctx, path)

	if err != nil {
		return nil, err
	}

	return Parse(bytes)
}

// LoadDocument method loads YAML node tree from the file. A file holding only
// comments gives a document node without content that keeps the comments. It
// returns nil if the file has neither YAML content nor comments.
func (l *Loader) LoadDocument(ctx context.Context, path string) (*yaml.Node, error) {
	bytes, err := l.read(ctx, path)

	if err != nil {
		return nil, err
	}

	var doc yaml.Node
	err = yaml.Unmarshal(bytes, &doc)

	if err != nil {
		return nil, err
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		comment := comments(bytes)

		if comment == "" {
			return nil, nil
		}

		return &yaml.Node{
			Kind:        yaml.DocumentNode,
			HeadComment: comment,
		}, nil
	}

	return &doc, nil
}

func (l *Loader) read(ctx context.Context, path string) ([]byte, error) {
	f, err := l.storage.Open(ctx, path)

	if err != nil {
		return nil, err
	}

	defer f.Close()

	return io.ReadAll(f)
}

// Parse method parses YAML data into configuration tree. Root of the data must
// be a mapping. Keys are taken as written in the data, so keys like 0x10 or
// NULL stay "0x10" and "NULL". Merge keys (<<) are resolved.
func Parse(bytes []byte) (map[string]any, error) {
	var doc yaml.Node
	err := yaml.Unmarshal(bytes, &doc)

	if err != nil {
		return nil, err
	}

	if doc.Kind == 0 || len(doc.Content) == 0 {
		return make(map[string]any), nil
	}

	root := doc.Content[0]

	if root.Kind == yaml.ScalarNode && root.ShortTag() == nullTag {
		return make(map[string]any), nil
	}

	iData, err := convertNode(root)

	if err != nil {
		return nil, err
	}

	data, ok := iData.(map[string]any)

	if !ok {
		return nil, fmt.Errorf("%s: configuration root must be a mapping, but got: %T",
			errPref, iData)
	}

	return data, nil
}

func convertNode(node *yaml.Node) (any, error) {
	switch node.Kind {
	case yaml.AliasNode:
		return convertNode(node.Alias)
	case yaml.MappingNode:
		return convertMapping(node)
	case yaml.SequenceNode:
		to := make([]any, len(node.Content))

		for i, elem := range node.Content {
			value, err := convertNode(elem)

			if err != nil {
				return nil, err
			}

			to[i] = value
		}

		return to, nil
	}

	var value any
	err := node.Decode(&value)

	if err != nil {
		return nil, err
	}

	return value, nil
}

// convertMapping builds a map keyed by the source text of the keys. Explicit
// keys take precedence over merged ones, earlier merged maps over later ones.
func convertMapping(node *yaml.Node) (map[string]any, error) {
	to := make(map[string]any, len(node.Content)/2)
	var merges []*yaml.Node

	for i := 0; i+1 < len(node.Content); i += 2 {
		keyNode := node.Content[i]
		valNode := node.Content[i+1]

		if keyNode.Kind == yaml.ScalarNode && keyNode.ShortTag() == mergeTag {
			merges = append(merges, valNode)
			continue
		}

		key, err := keyString(keyNode)

		if err != nil {
			return nil, err
		}

		value, err := convertNode(valNode)

		if err != nil {
			return nil, err
		}

		to[key] = value
	}

	for _, merge := range merges {
		err := mergeInto(to, merge)

		if err != nil {
			return nil, err
		}
	}

	return to, nil
}

func mergeInto(to map[string]any, node *yaml.Node) error {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	if node.Kind == yaml.SequenceNode {
		for _, elem := range node.Content {
			err := mergeInto(to, elem)

			if err != nil {
				return err
			}
		}

		return nil
	}

	if node.Kind != yaml.MappingNode {
		return fmt.Errorf("%s: merge key value must be a mapping at line %d",
			errPref, node.Line)
	}

	from, err := convertMapping(node)

	if err != nil {
		return err
	}

	for key, value := range from {
		if _, ok := to[key]; !ok {
			to[key] = value
		}
	}

	return nil
}

func keyString(node *yaml.Node) (string, error) {
	if node.Kind == yaml.AliasNode {
		node = node.Alias
	}

	if node.Kind != yaml.ScalarNode {
		return "", fmt.Errorf("%s: mapping key must be a scalar at line %d",
			errPref, node.Line)
	}

	return node.Value, nil
}

// comments returns comment lines of data that has no YAML content.
func comments(bytes []byte) string {
	var lines []string

	for _, line := range strings.Split(string(bytes), "\n") {
		line = strings.TrimSpace(line)

		if strings.HasPrefix(line, "#") {
			lines = append(lines, line)
		}
	}

	return strings.Join(lines, "\n")
}
