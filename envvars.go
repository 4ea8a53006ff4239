// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// EnvVars method returns environment variables defined by the settings
// section. The second result is false if the section is missing or null. The
// section must be a flat map; scalar values are converted to strings, floats
// always with a decimal point, and null values become empty strings.
func (s *Settings) EnvVars(section string) (map[string]string, bool, error) {
	raw, ok := s.Get(section)

	if !ok || raw == nil {
		return nil, false, nil
	}

	values, ok := raw.(M)

	if !ok {
		return nil, true,
			fmt.Errorf("%s: section %s must be a map, but got: %T", errPref,
				section, raw)
	}

	vars := make(map[string]string, len(values))

	for key, value := range values {
		switch val := value.(type) {
		case nil:
			vars[key] = ""
		case string:
			vars[key] = val
		case float64:
			vars[key] = formatFloat(val)
		case M, A:
			return nil, true,
				fmt.Errorf("%s: value of %s.%s must be a scalar, but got: %T", errPref,
					section, key, value)
		default:
			vars[key] = fmt.Sprintf("%v", val)
		}
	}

	return vars, true, nil
}

// SetEnvVars method sets environment variables defined by the settings section.
// If the section is missing, a warning is logged and nothing is set. Variables
// set before a failure stay set.
func (s *Settings) SetEnvVars(section string) error {
	vars, ok, err := s.EnvVars(section)

	if err != nil {
		return err
	}

	if !ok {
		s.logger.Warn("skip the setting of environment variables, section not found",
			zap.String("section", section),
			zap.String("file", s.path),
		)

		return nil
	}

	return ApplyEnvVars(vars)
}

// formatFloat keeps the decimal point of integral values, so 1.0 gives "1.0".
func formatFloat(f float64) string {
	str := strconv.FormatFloat(f, 'f', -1, 64)

	if !strings.ContainsAny(str, ".IN") {
		str += ".0"
	}

	return str
}

// ApplyEnvVars method sets the environment variables in key order.
func ApplyEnvVars(vars map[string]string) error {
	keys := make([]string, 0, len(vars))

	for key := range vars {
		keys = append(keys, key)
	}

	sort.Strings(keys)

	for _, key := range keys {
		err := os.Setenv(key, vars[key])

		if err != nil {
			return err
		}
	}

	return nil
}
