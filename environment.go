// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/caarlos0/env/v11"
)

const (
	configDir     = "config"
	configFileExt = ".yaml"
)

// Environment identifies a deployment environment.
type Environment string

// Deployment environments.
const (
	UAT     Environment = "UAT"
	Prod    Environment = "PROD"
	PreProd Environment = "PREPROD"
	NoCML   Environment = "NO_CML"
)

// Environments lists all known deployment environments.
var Environments = []Environment{UAT, Prod, PreProd, NoCML}

// Valid method reports whether the environment is a known one.
func (e Environment) Valid() bool {
	for _, known := range Environments {
		if e == known {
			return true
		}
	}

	return false
}

// Resolver maps deployment environments to settings files.
type Resolver struct {
	Root  string
	Paths map[Environment]string
}

// NewResolver method creates resolver that maps each known environment to
// <root>/config/<environment in lower case>.yaml, for example
// <root>/config/preprod.yaml.
func NewResolver(root string) *Resolver {
	paths := make(map[Environment]string, len(Environments))

	for _, e := range Environments {
		name := strings.ToLower(string(e)) + configFileExt
		paths[e] = filepath.Join(root, configDir, name)
	}

	return &Resolver{
		Root:  root,
		Paths: paths,
	}
}

// Resolve method returns path of the settings file for the environment. The
// second result is false if no file is mapped to the environment.
func (r *Resolver) Resolve(e Environment) (string, bool) {
	path, ok := r.Paths[e]

	return path, ok && path != ""
}

// EnvironmentConfig holds the environment selection read from the process
// environment.
type EnvironmentConfig struct {
	Environment Environment `env:"YAMLCONF_ENV" envDefault:"PREPROD"`
	Root        string      `env:"YAMLCONF_ROOT" envDefault:"."`
}

// LoadEnvironmentConfig method reads YAMLCONF_ENV and YAMLCONF_ROOT variables.
func LoadEnvironmentConfig() (EnvironmentConfig, error) {
	var cfg EnvironmentConfig

	err := env.Parse(&cfg)

	if err != nil {
		return EnvironmentConfig{}, err
	}

	if !cfg.Environment.Valid() {
		return EnvironmentConfig{}, fmt.Errorf("%s: unknown environment: %q",
			errPref, cfg.Environment)
	}

	return cfg, nil
}
