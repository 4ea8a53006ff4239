// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	refKey          = "$ref"
	nameKey         = "name"
	firstDefinedKey = "firstDefined"
	defaultKey      = "default"
)

// processor expands references in string values and resolves $ref
// directives. References are absolute dot separated names. The source tree is
// not modified, the processed tree is built from copies.
type processor struct {
	root      M
	stack     []string
	refs      map[string]any
	resolving map[string]struct{}
}

func process(root M) (M, error) {
	p := &processor{
		root:      root,
		stack:     make([]string, 0, 10),
		refs:      make(map[string]any),
		resolving: make(map[string]struct{}),
	}

	config, err := p.processNode(root)

	if err != nil {
		return nil, fmt.Errorf("%w at %s", err, p.processContext())
	}

	conf, ok := config.(M)

	if !ok {
		return nil,
			fmt.Errorf("%s: processed settings must be a map, but got: %T", errPref,
				config)
	}

	return conf, nil
}

func (p *processor) processNode(node any) (any, error) {
	switch n := node.(type) {
	case string:
		return p.expandRefs(n)
	case M:
		if ref, ok := n[refKey]; ok {
			return p.resolveRef(ref)
		}

		to := make(M, len(n))

		for _, key := range sortedKeys(n) {
			p.pushToStack(key)
			value, err := p.processNode(n[key])

			if err != nil {
				return nil, err
			}

			to[key] = value
			p.popFromStack()
		}

		return to, nil
	case A:
		to := make(A, len(n))

		for i, elem := range n {
			p.pushToStack(strconv.Itoa(i))
			value, err := p.processNode(elem)

			if err != nil {
				return nil, err
			}

			to[i] = value
			p.popFromStack()
		}

		return to, nil
	}

	return node, nil
}

// expandRefs replaces ${name} with string form of the referenced value. $${name}
// is an escape and gives ${name}. References to missing values give empty
// strings.
func (p *processor) expandRefs(str string) (string, error) {
	var sb strings.Builder

	for {
		i := strings.Index(str, "${")

		if i < 0 {
			break
		}

		j := strings.IndexByte(str[i+2:], '}')

		if j < 0 {
			break
		}

		j += i + 2
		name := strings.TrimSpace(str[i+2 : j])

		switch {
		case i > 0 && str[i-1] == '$':
			sb.WriteString(str[:i-1])
			sb.WriteString(str[i : j+1])
		case name == "":
			sb.WriteString(str[:j+1])
		default:
			sb.WriteString(str[:i])
			node, ok, err := p.fetchNode(name)

			if err != nil {
				return "", err
			}

			if ok && node != nil {
				sb.WriteString(fmt.Sprintf("%v", node))
			}
		}

		str = str[j+1:]
	}

	sb.WriteString(str)

	return sb.String(), nil
}

func (p *processor) resolveRef(ref any) (any, error) {
	switch r := ref.(type) {
	case string:
		node, _, err := p.fetchNode(r)

		if err != nil {
			return nil, err
		}

		return copyValue(node), nil
	case M:
		if name, ok := r[nameKey]; ok {
			nameStr, ok := name.(string)

			if !ok {
				return nil,
					fmt.Errorf("%s: reference name must be a string, but got: %T", errPref,
						name)
			}

			node, found, err := p.fetchNode(nameStr)

			if err != nil {
				return nil, err
			}

			if found && node != nil {
				return copyValue(node), nil
			}
		} else if names, ok := r[firstDefinedKey]; ok {
			list, ok := names.(A)

			if !ok {
				return nil,
					fmt.Errorf("%s: \"%s\" must be an array, but got: %T", errPref,
						firstDefinedKey, names)
			}

			for _, name := range list {
				nameStr, ok := name.(string)

				if !ok {
					return nil,
						fmt.Errorf("%s: reference name in \"%s\" must be a string, but got: %T",
							errPref, firstDefinedKey, name)
				}

				node, found, err := p.fetchNode(nameStr)

				if err != nil {
					return nil, err
				}

				if found && node != nil {
					return copyValue(node), nil
				}
			}
		}

		if node, ok := r[defaultKey]; ok {
			return p.processNode(node)
		}
	}

	return nil, fmt.Errorf("%s: malformed directive: %s", errPref, refKey)
}

func (p *processor) fetchNode(name string) (any, bool, error) {
	if node, ok := p.refs[name]; ok {
		return node, true, nil
	}

	if _, ok := p.resolving[name]; ok {
		return nil, false, fmt.Errorf("%s: circular reference: %s", errPref, name)
	}

	p.resolving[name] = struct{}{}
	stackTemp := p.stack
	p.stack = strings.Split(name, nameSep)

	node, found, err := p.findNode(name)

	if err != nil {
		return nil, false, err
	}

	p.stack = stackTemp
	delete(p.resolving, name)

	if found {
		p.refs[name] = node
	}

	return node, found, nil
}

// findNode returns processed value of the named node. $ref directives met on
// the way are resolved.
func (p *processor) findNode(name string) (any, bool, error) {
	var node any = p.root
	var processed bool

	for _, token := range strings.Split(name, nameSep) {
		switch n := node.(type) {
		case M:
			child, ok := n[token]

			if !ok {
				return nil, false, nil
			}

			node = child
		case A:
			i, err := strconv.Atoi(token)

			if err != nil {
				return nil, false, fmt.Errorf("%s: invalid array index: %s", errPref, token)
			} else if i < 0 || i >= len(n) {
				return nil, false, fmt.Errorf("%s: array index out of range", errPref)
			}

			node = n[i]
		default:
			return nil, false, nil
		}

		if m, ok := node.(M); ok {
			if ref, ok := m[refKey]; ok {
				resolved, err := p.resolveRef(ref)

				if err != nil {
					return nil, false, err
				}

				node = resolved
				processed = true
			}
		}
	}

	if processed {
		return node, true, nil
	}

	node, err := p.processNode(node)

	if err != nil {
		return nil, false, err
	}

	return node, true, nil
}

func (p *processor) pushToStack(bc string) {
	p.stack = append(p.stack, bc)
}

func (p *processor) popFromStack() {
	p.stack = p.stack[:len(p.stack)-1]
}

func (p *processor) processContext() string {
	return strings.Join(p.stack, nameSep)
}

func sortedKeys(m M) []string {
	keys := make([]string, 0, len(m))

	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
