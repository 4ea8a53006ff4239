package merger_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/iph0/yamlconf/merger"
)

func TestMergeMap(t *testing.T) {
	t.Run("overwrites_and_keeps",
		func(t *testing.T) {
			src := map[string]any{
				"a": 1,
				"b": map[string]any{"c": 2},
			}

			dst := map[string]any{
				"a": 0,
				"b": map[string]any{"c": 9, "d": "kept"},
			}

			res := merger.MergeMap(src, dst)

			assert.Equal(t,
				map[string]any{
					"a": 1,
					"b": map[string]any{"c": 2, "d": "kept"},
				},
				res,
			)
		},
	)

	t.Run("map_over_scalar",
		func(t *testing.T) {
			src := map[string]any{"x": map[string]any{"y": 1}}
			dst := map[string]any{"x": 5}

			res := merger.MergeMap(src, dst)

			assert.Equal(t, map[string]any{"x": map[string]any{"y": 1}}, res)
		},
	)

	t.Run("nil_destination",
		func(t *testing.T) {
			src := map[string]any{
				"foo": map[string]any{"bar": []any{1, 2}},
			}

			res := merger.MergeMap(src, nil)

			assert.Equal(t, src, res)
		},
	)

	t.Run("zero_values_overwrite",
		func(t *testing.T) {
			src := map[string]any{"debug": false, "retries": 0, "name": ""}
			dst := map[string]any{"debug": true, "retries": 3, "name": "foo"}

			res := merger.MergeMap(src, dst)

			assert.Equal(t, src, res)
		},
	)

	t.Run("idempotent",
		func(t *testing.T) {
			src := map[string]any{
				"a": 1,
				"b": map[string]any{"c": 2, "e": map[string]any{"f": "g"}},
			}

			once := merger.MergeMap(src, map[string]any{"z": true})
			twice := merger.MergeMap(src, merger.MergeMap(src, map[string]any{"z": true}))

			assert.Equal(t, once, twice)
		},
	)
}

const commentedDoc = `# head of the file
a: 0 # old a
b:
  c: 9
  # about d
  d: kept # inline d
x: 5 # old x
`

func TestMerge(t *testing.T) {
	t.Run("keeps_untouched_metadata",
		func(t *testing.T) {
			doc := parseDoc(t, commentedDoc)
			root := doc.Content[0]
			dNode := lookup(t, root, "b", "d")

			_, err := merger.MergeDocument(
				map[string]any{
					"a": 1,
					"b": map[string]any{"c": 2},
				},
				doc,
			)

			require.NoError(t, err)

			assert.Same(t, dNode, lookup(t, root, "b", "d"))
			assert.Equal(t, "# inline d", dNode.LineComment)

			assert.Equal(t, map[string]any{
				"a": 1,
				"b": map[string]any{"c": 2, "d": "kept"},
				"x": 5,
			}, decode(t, doc))

			out := render(t, doc)
			assert.Contains(t, out, "# head of the file")
			assert.Contains(t, out, "# about d")
			assert.Contains(t, out, "d: kept # inline d")
			assert.Contains(t, out, "a: 1 # old a")
		},
	)

	t.Run("map_over_scalar_drops_metadata",
		func(t *testing.T) {
			doc := parseDoc(t, commentedDoc)

			_, err := merger.MergeDocument(
				map[string]any{"x": map[string]any{"y": 1}},
				doc,
			)

			require.NoError(t, err)

			xNode := lookup(t, doc.Content[0], "x")
			assert.Equal(t, yaml.MappingNode, xNode.Kind)
			assert.Empty(t, xNode.LineComment)
			assert.Equal(t, map[string]any{"y": 1}, decode(t, doc)["x"])
			assert.NotContains(t, render(t, doc), "# old x")
		},
	)

	t.Run("new_keys_appended",
		func(t *testing.T) {
			doc := parseDoc(t, "b: 1\na: 2\n")

			_, err := merger.MergeDocument(
				map[string]any{
					"d": map[string]any{"e": "f"},
					"c": []any{1, 2},
				},
				doc,
			)

			require.NoError(t, err)

			root := doc.Content[0]
			var keys []string

			for i := 0; i < len(root.Content); i += 2 {
				keys = append(keys, root.Content[i].Value)
			}

			assert.Equal(t, []string{"b", "a", "c", "d"}, keys)

			dNode := lookup(t, root, "d")
			assert.Equal(t, yaml.MappingNode, dNode.Kind)
			assert.Empty(t, dNode.HeadComment)
			assert.Empty(t, dNode.LineComment)
		},
	)

	t.Run("equal_value_keeps_node",
		func(t *testing.T) {
			doc := parseDoc(t, "name: \"foo\" # quoted\nlist: [1, 2]\n")
			root := doc.Content[0]
			nameNode := lookup(t, root, "name")
			listNode := lookup(t, root, "list")

			_, err := merger.Merge(
				map[string]any{"name": "foo", "list": []any{1, 2}},
				root,
			)

			require.NoError(t, err)
			assert.Same(t, nameNode, lookup(t, root, "name"))
			assert.Same(t, listNode, lookup(t, root, "list"))
			assert.Equal(t, "name: \"foo\" # quoted\nlist: [1, 2]\n", render(t, doc))
		},
	)

	t.Run("equal_float_keeps_node",
		func(t *testing.T) {
			doc := parseDoc(t, "ratio: 1.0 # r\nbig: 1e3\n")
			root := doc.Content[0]
			ratioNode := lookup(t, root, "ratio")

			_, err := merger.Merge(
				map[string]any{"ratio": float64(1), "big": float64(1000)},
				root,
			)

			require.NoError(t, err)
			assert.Same(t, ratioNode, lookup(t, root, "ratio"))
			assert.Equal(t, "ratio: 1.0 # r\nbig: 1e3\n", render(t, doc))
		},
	)

	t.Run("nil_destination",
		func(t *testing.T) {
			node, err := merger.Merge(
				map[string]any{"a": map[string]any{"b": 1}, "c": "d"},
				nil,
			)

			require.NoError(t, err)
			assert.Equal(t, yaml.MappingNode, node.Kind)

			var val map[string]any
			require.NoError(t, node.Decode(&val))
			assert.Equal(t, map[string]any{"a": map[string]any{"b": 1}, "c": "d"}, val)
		},
	)

	t.Run("idempotent",
		func(t *testing.T) {
			src := map[string]any{
				"a": 1,
				"b": map[string]any{"c": 2, "n": map[string]any{"m": "o"}},
			}

			doc := parseDoc(t, commentedDoc)
			_, err := merger.MergeDocument(src, doc)
			require.NoError(t, err)
			once := render(t, doc)

			_, err = merger.MergeDocument(src, doc)
			require.NoError(t, err)

			assert.Equal(t, once, render(t, doc))
		},
	)
}

func ExampleMergeDocument() {
	var doc yaml.Node

	err := yaml.Unmarshal(
		[]byte("# database settings\ndb:\n  host: localhost # dev only\n  port: 5432\n"),
		&doc,
	)

	if err != nil {
		fmt.Println(err)
		return
	}

	_, err = merger.MergeDocument(
		map[string]any{
			"db": map[string]any{"port": 6432, "user": "app"},
		},
		&doc,
	)

	if err != nil {
		fmt.Println(err)
		return
	}

	out, err := yaml.Marshal(&doc)

	if err != nil {
		fmt.Println(err)
		return
	}

	fmt.Print(string(out))

	// Output:
	// # database settings
	// db:
	//     host: localhost # dev only
	//     port: 6432
	//     user: app
}

func parseDoc(t *testing.T, text string) *yaml.Node {
	t.Helper()

	var doc yaml.Node
	require.NoError(t, yaml.Unmarshal([]byte(text), &doc))

	return &doc
}

func lookup(t *testing.T, node *yaml.Node, path ...string) *yaml.Node {
	t.Helper()

	for _, key := range path {
		require.Equal(t, yaml.MappingNode, node.Kind)

		var found *yaml.Node

		for i := 0; i+1 < len(node.Content); i += 2 {
			if node.Content[i].Value == key {
				found = node.Content[i+1]
				break
			}
		}

		require.NotNil(t, found, "key %q not found", key)
		node = found
	}

	return node
}

func decode(t *testing.T, doc *yaml.Node) map[string]any {
	t.Helper()

	var val map[string]any
	require.NoError(t, doc.Decode(&val))

	return val
}

func render(t *testing.T, doc *yaml.Node) string {
	t.Helper()

	var sb strings.Builder
	enc := yaml.NewEncoder(&sb)
	enc.SetIndent(2)

	require.NoError(t, enc.Encode(doc))
	require.NoError(t, enc.Close())

	return sb.String()
}
