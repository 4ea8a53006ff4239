// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

// Command yamlconf inspects and edits settings files of yamlconf based
// applications.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/alecthomas/kingpin/v2"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/iph0/yamlconf"
	"github.com/iph0/yamlconf/internal/logging"
)

const yamlIndent = 2

type cli struct {
	app *kingpin.Application

	env       *string
	root      *string
	file      *string
	envPrefix *string
	section   *string
	logLevel  *string

	path *kingpin.CmdClause

	get    *kingpin.CmdClause
	getKey *string

	set      *kingpin.CmdClause
	setKey   *string
	setValue *string

	envCmd *kingpin.CmdClause
	dump   *kingpin.CmdClause
	format *string
}

func main() {
	err := run(os.Args[1:], os.Stdout, os.Stderr)

	if err != nil {
		fmt.Fprintln(os.Stderr, "yamlconf:", err)
		os.Exit(1)
	}
}

func newCLI(stdout, stderr io.Writer) *cli {
	app := kingpin.New("yamlconf", "Inspects and edits environment specific YAML settings files")
	app.UsageWriter(stdout)
	app.ErrorWriter(stderr)
	app.Terminate(nil)

	c := &cli{app: app}

	c.env = app.Flag("env", "Deployment environment (UAT, PROD, PREPROD, NO_CML)").
		Envar("YAMLCONF_ENV").Default(string(yamlconf.PreProd)).String()
	c.root = app.Flag("root", "Application root directory holding config/").
		Envar("YAMLCONF_ROOT").Default(".").String()
	c.file = app.Flag("file", "Settings file, overrides --env and --root").String()
	c.envPrefix = app.Flag("env-prefix", "Prefix of environment variables overriding settings").String()
	c.section = app.Flag("section", "Section holding environment variables").
		Default(yamlconf.DefaultEnvVarsSection).String()
	c.logLevel = app.Flag("log-level", "Log level").Default(logging.DefaultLevel).String()

	c.path = app.Command("path", "Print path of the settings file")

	c.get = app.Command("get", "Print value of the parameter")
	c.getKey = c.get.Arg("key", "Dot separated parameter name").Required().String()

	c.set = app.Command("set", "Set value of the parameter and save the settings file")
	c.setKey = c.set.Arg("key", "Dot separated parameter name").Required().String()
	c.setValue = c.set.Arg("value", "Parameter value in YAML").Required().String()

	c.envCmd = app.Command("env", "Print environment variables of the section as shell exports")

	c.dump = app.Command("dump", "Print all settings")
	c.format = c.dump.Flag("format", "Output format").Default("yaml").Enum("yaml", "json", "toml")

	return c
}

func run(args []string, stdout, stderr io.Writer) error {
	c := newCLI(stdout, stderr)
	command, err := c.app.Parse(args)

	if err != nil {
		return err
	}

	logger, err := logging.New(*c.logLevel)

	if err != nil {
		return err
	}

	defer func() {
		_ = logger.Sync()
	}()

	ctx := context.Background()
	settings, err := c.load(ctx, logger)

	if err != nil {
		return err
	}

	switch command {
	case c.path.FullCommand():
		fmt.Fprintln(stdout, settings.Path())
	case c.get.FullCommand():
		value, ok := settings.Get(*c.getKey)

		if !ok {
			return fmt.Errorf("parameter not found: %s", *c.getKey)
		}

		return printValue(stdout, value)
	case c.set.FullCommand():
		return setValue(ctx, settings, *c.setKey, *c.setValue, logger)
	case c.envCmd.FullCommand():
		return printExports(stdout, settings, *c.section)
	case c.dump.FullCommand():
		return dump(stdout, settings.AsMap(), *c.format)
	}

	return nil
}

func (c *cli) load(ctx context.Context, logger *zap.Logger) (*yamlconf.Settings, error) {
	opts := yamlconf.Options{
		Path:           *c.file,
		EnvPrefix:      *c.envPrefix,
		EnvVarsSection: *c.section,
		SkipEnvVars:    true,
		Logger:         logger,
	}

	if opts.Path == "" {
		e := yamlconf.Environment(*c.env)

		if !e.Valid() {
			return nil, fmt.Errorf("unknown environment: %q", *c.env)
		}

		opts.Environment = e
		opts.Resolver = yamlconf.NewResolver(*c.root)
	}

	return yamlconf.New(ctx, opts)
}

func setValue(ctx context.Context, settings *yamlconf.Settings, key, raw string,
	logger *zap.Logger) error {

	var value any
	err := yaml.Unmarshal([]byte(raw), &value)

	if err != nil {
		return fmt.Errorf("invalid value: %w", err)
	}

	err = settings.Set(key, value)

	if err != nil {
		return err
	}

	err = settings.Save(ctx, "")

	if err != nil {
		return err
	}

	logger.Info("settings saved",
		zap.String("file", settings.Path()),
		zap.String("key", key),
	)

	return nil
}

func printValue(w io.Writer, value any) error {
	switch value.(type) {
	case yamlconf.M, yamlconf.A:
		return writeYAML(w, value)
	case nil:
		_, err := fmt.Fprintln(w, "null")
		return err
	}

	_, err := fmt.Fprintln(w, value)

	return err
}

func printExports(w io.Writer, settings *yamlconf.Settings, section string) error {
	vars, ok, err := settings.EnvVars(section)

	if err != nil {
		return err
	}

	if !ok {
		return fmt.Errorf("section not found: %s", section)
	}

	for _, key := range sortedKeys(vars) {
		_, err := fmt.Fprintf(w, "export %s=%s\n", key, shellQuote(vars[key]))

		if err != nil {
			return err
		}
	}

	return nil
}

func dump(w io.Writer, data yamlconf.M, format string) error {
	switch format {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")

		return enc.Encode(data)
	case "toml":
		return toml.NewEncoder(w).Encode(data)
	}

	return writeYAML(w, data)
}

func writeYAML(w io.Writer, value any) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(yamlIndent)

	err := enc.Encode(value)

	if err != nil {
		return err
	}

	return enc.Close()
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))

	for key := range m {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	return keys
}
