// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"dario.cat/mergo"
	mapstruct "github.com/mitchellh/mapstructure"
	"go.uber.org/zap"

	"github.com/iph0/yamlconf/envconf"
	"github.com/iph0/yamlconf/fileconf"
	"github.com/iph0/yamlconf/internal/logging"
	"github.com/iph0/yamlconf/merger"
	"github.com/iph0/yamlconf/storage"
)

const (
	errPref        = "yamlconf"
	decoderTagName = "yaml"
	nameSep        = "."

	// DefaultEnvVarsSection is the name of the settings section promoted to
	// environment variables by default.
	DefaultEnvVarsSection = "ENV_VARIABLES"
)

// M type is a convenient alias for a map[string]any map.
type M = map[string]any

// A type is a convenient alias for a []any slice.
type A = []any

// Options is a structure with parameters for settings loading.
type Options struct {
	// Path is the settings file. If empty, the file is resolved from
	// Environment by Resolver.
	Path string

	// Environment selects the settings file if Path is empty. Default comes from
	// YAMLCONF_ENV (see LoadEnvironmentConfig).
	Environment Environment

	// Resolver maps environments to settings files. Default resolver uses
	// YAMLCONF_ROOT as root directory.
	Resolver *Resolver

	// Validators are applied to loaded settings in the given order.
	Validators []*Validator

	// ApplyDefaultOnNone makes validators replace null values with their
	// defaults. Default is true.
	ApplyDefaultOnNone *bool

	// SkipEnvVars disables promotion of EnvVarsSection to environment
	// variables on loading.
	SkipEnvVars bool

	// EnvVarsSection is the name of the section promoted to environment
	// variables. Default is DefaultEnvVarsSection.
	EnvVarsSection string

	// Overrides are merged over values from the file.
	Overrides M

	// EnvPrefix enables overriding of settings by environment variables with
	// the prefix (see envconf package). Environment overrides have the highest
	// priority.
	EnvPrefix string

	// ExpandRefs enables expansion of ${name} references in string values and
	// processing of $ref directives. Note that Save writes expanded values.
	ExpandRefs bool

	// Storage gives access to settings files. Default is the local file system.
	Storage storage.Storage

	// Logger receives warnings. Default is a JSON logger writing to stderr.
	Logger *zap.Logger
}

// Settings is a hierarchical settings store loaded from a YAML file. Settings
// is not safe for concurrent use.
type Settings struct {
	opts   Options
	path   string
	data   M
	loader *fileconf.Loader
	logger *zap.Logger
}

// New method loads settings file and, unless Options.SkipEnvVars is set,
// promotes Options.EnvVarsSection to environment variables. Errors of the
// YAML parser are returned unchanged.
func New(ctx context.Context, opts Options) (*Settings, error) {
	opts, err := withDefaults(opts)

	if err != nil {
		return nil, err
	}

	path := opts.Path

	if path == "" {
		var ok bool
		path, ok = opts.Resolver.Resolve(opts.Environment)

		if !ok {
			return nil, fmt.Errorf("%s: no settings file mapped to environment %q",
				errPref, opts.Environment)
		}
	}

	s := &Settings{
		opts:   opts,
		path:   path,
		loader: fileconf.NewLoader(opts.Storage),
		logger: opts.Logger,
	}

	err = s.load(ctx)

	if err != nil {
		return nil, err
	}

	if !opts.SkipEnvVars {
		err := s.SetEnvVars(opts.EnvVarsSection)

		if err != nil {
			return nil, err
		}
	}

	return s, nil
}

func withDefaults(opts Options) (Options, error) {
	applyDefaultOnNone := true

	defaults := Options{
		EnvVarsSection:     DefaultEnvVarsSection,
		ApplyDefaultOnNone: &applyDefaultOnNone,
	}

	if opts.Storage == nil {
		defaults.Storage = storage.NewFile()
	}

	if opts.Path == "" && (opts.Environment == "" || opts.Resolver == nil) {
		envCfg, err := LoadEnvironmentConfig()

		if err != nil {
			return Options{}, err
		}

		if opts.Environment == "" {
			defaults.Environment = envCfg.Environment
		}
		if opts.Resolver == nil {
			defaults.Resolver = NewResolver(envCfg.Root)
		}
	}

	err := mergo.Merge(&opts, defaults, mergo.WithoutDereference)

	if err != nil {
		return Options{}, fmt.Errorf("%s: %w", errPref, err)
	}

	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}

	return opts, nil
}

// Reload method reloads settings from the file. Changes made with Set are
// discarded. Environment variables are not promoted again.
func (s *Settings) Reload(ctx context.Context) error {
	return s.load(ctx)
}

func (s *Settings) load(ctx context.Context) error {
	err := ValidateExtension(s.path)

	if err != nil {
		return err
	}

	data, err := s.loader.Load(ctx, s.path)

	if err != nil {
		return err
	}

	if s.opts.Overrides != nil {
		data = merger.MergeMap(copyMap(s.opts.Overrides), data)
	}

	if s.opts.EnvPrefix != "" {
		envData, err := envconf.Load(s.opts.EnvPrefix)

		if err != nil {
			return err
		}

		data = merger.MergeMap(envData, data)
	}

	if s.opts.ExpandRefs {
		data, err = process(data)

		if err != nil {
			return err
		}
	}

	err = validate(data, s.opts.Validators, *s.opts.ApplyDefaultOnNone)

	if err != nil {
		return err
	}

	s.data = data

	return nil
}

// Path method returns path of the settings file.
func (s *Settings) Path() string {
	return s.path
}

// Get method returns value of the settings parameter. Name is a dot separated
// path, elements of arrays are addressed by index:
//
//	db.connectors.stat.host
//	db.hosts.0
func (s *Settings) Get(name string) (any, bool) {
	return lookup(s.data, name)
}

// Section method returns the named settings section if it exists and is a map.
func (s *Settings) Section(name string) (M, bool) {
	value, ok := s.Get(name)

	if !ok {
		return nil, false
	}

	section, ok := value.(M)

	return section, ok
}

// Set method sets value of the settings parameter. Missing intermediate maps
// are created, intermediate values of other types are replaced with maps.
func (s *Settings) Set(name string, value any) error {
	return assign(s.data, name, value)
}

// AsMap method returns a deep copy of the settings tree.
func (s *Settings) AsMap() M {
	return copyMap(s.data)
}

// Decode method decodes the named settings section into the structure. Empty
// name decodes the whole tree. The yaml tags defined in the struct type
// indicate which fields the values are mapped to. Decoding is weakly typed,
// e.g. strings are converted to numbers when the field requires it.
func (s *Settings) Decode(name string, out any) error {
	var raw any = s.data

	if name != "" {
		var ok bool
		raw, ok = s.Get(name)

		if !ok {
			return fmt.Errorf("%s: settings parameter not found: %s", errPref, name)
		}
	}

	return Decode(raw, out)
}

// Decode method decodes raw settings data into structure.
func Decode(raw, out any) error {
	decoder, err := mapstruct.NewDecoder(
		&mapstruct.DecoderConfig{
			WeaklyTypedInput: true,
			Result:           out,
			TagName:          decoderTagName,
		},
	)

	if err != nil {
		return err
	}

	return decoder.Decode(raw)
}

func lookup(root M, name string) (any, bool) {
	if name == "" {
		return nil, false
	}

	var node any = root

	for _, token := range strings.Split(name, nameSep) {
		switch n := node.(type) {
		case M:
			child, ok := n[token]

			if !ok {
				return nil, false
			}

			node = child
		case A:
			i, err := strconv.Atoi(token)

			if err != nil || i < 0 || i >= len(n) {
				return nil, false
			}

			node = n[i]
		default:
			return nil, false
		}
	}

	return node, true
}

func assign(root M, name string, value any) error {
	tokens := strings.Split(name, nameSep)

	for _, token := range tokens {
		if token == "" {
			return fmt.Errorf("%s: invalid settings parameter name: %q", errPref, name)
		}
	}

	node := root
	last := len(tokens) - 1

	for _, token := range tokens[:last] {
		child, ok := node[token].(M)

		if !ok {
			child = make(M)
			node[token] = child
		}

		node = child
	}

	node[tokens[last]] = value

	return nil
}

func copyMap(m M) M {
	if m == nil {
		return nil
	}

	return copyValue(m).(M)
}

func copyValue(value any) any {
	switch val := value.(type) {
	case M:
		to := make(M, len(val))

		for key, elem := range val {
			to[key] = copyValue(elem)
		}

		return to
	case A:
		to := make(A, len(val))

		for i, elem := range val {
			to[i] = copyValue(elem)
		}

		return to
	}

	return value
}
