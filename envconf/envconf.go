// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

/*
Package envconf imports environment variables into a configuration tree. Only
variables with the given prefix are imported. The prefix and the following
underscore are stripped, double underscore separates nesting levels:

	MYAPP_DEBUG=true          -> DEBUG: true
	MYAPP_DB__PORT=5432       -> DB: {PORT: 5432}
	MYAPP_DB__HOSTS=["a","b"] -> DB: {HOSTS: [a, b]}

Values are parsed as TOML literals, so numbers, booleans, arrays and inline
tables get their types. Values that are not valid TOML literals are kept as
strings. Names are case-sensitive.
*/
package envconf

import (
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/BurntSushi/toml"
)

const (
	errPref    = "envconf"
	nestingSep = "__"
	valueKey   = "value"
)

// Load method imports environment variables with the given prefix to
// configuration tree.
func Load(prefix string) (map[string]any, error) {
	return Parse(prefix, os.Environ())
}

// Parse method builds configuration tree from KEY=VALUE pairs with the given
// prefix.
func Parse(prefix string, pairs []string) (map[string]any, error) {
	if prefix == "" {
		return nil, fmt.Errorf("%s: empty prefix specified", errPref)
	}

	re, err := regexp.Compile("^" + regexp.QuoteMeta(prefix) + "_(.+)$")

	if err != nil {
		return nil, fmt.Errorf("%s: %s", errPref, err)
	}

	config := make(map[string]any)

	for _, pairRaw := range pairs {
		pair := strings.SplitN(pairRaw, "=", 2)

		if len(pair) < 2 {
			continue
		}

		matches := re.FindStringSubmatch(pair[0])

		if matches == nil {
			continue
		}

		path := strings.Split(matches[1], nestingSep)

		if hasEmpty(path) {
			return nil, fmt.Errorf("%s: malformed variable name: %s", errPref, pair[0])
		}

		set(config, path, ParseValue(pair[1]))
	}

	return config, nil
}

// ParseValue method parses the raw value as a TOML literal. If the raw value is
// not a valid literal it is returned as is.
func ParseValue(raw string) any {
	var doc map[string]any
	_, err := toml.Decode(valueKey+" = "+raw, &doc)

	if err != nil {
		return raw
	}

	value, ok := doc[valueKey]

	if !ok {
		return raw
	}

	return normalize(value)
}

func normalize(value any) any {
	switch val := value.(type) {
	case int64:
		return int(val)
	case []any:
		for i, elem := range val {
			val[i] = normalize(elem)
		}

		return val
	case []map[string]any:
		arr := make([]any, len(val))

		for i, elem := range val {
			arr[i] = normalize(elem)
		}

		return arr
	case map[string]any:
		for key, elem := range val {
			val[key] = normalize(elem)
		}

		return val
	}

	return value
}

func set(config map[string]any, path []string, value any) {
	node := config
	last := len(path) - 1

	for _, key := range path[:last] {
		child, ok := node[key].(map[string]any)

		if !ok {
			child = make(map[string]any)
			node[key] = child
		}

		node = child
	}

	node[path[last]] = value
}

func hasEmpty(tokens []string) bool {
	for _, token := range tokens {
		if token == "" {
			return true
		}
	}

	return false
}
