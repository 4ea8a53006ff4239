package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/BurntSushi/toml"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iph0/yamlconf"
)

const prodYAML = `# Database
db:
  host: db.example.com
  port: 5432 # pg
ENV_VARIABLES:
  DB_USER: app
  DB_NOTE: it's
`

func TestRun(t *testing.T) {
	root := newRoot(t)
	path := filepath.Join(root, "config", "prod.yaml")

	t.Run("path",
		func(t *testing.T) {
			out, err := execute(t, "--env", "PROD", "--root", root, "path")
			require.NoError(t, err)
			assert.Equal(t, path+"\n", out)
		},
	)

	t.Run("get_scalar",
		func(t *testing.T) {
			out, err := execute(t, "--env", "PROD", "--root", root, "get", "db.port")
			require.NoError(t, err)
			assert.Equal(t, "5432\n", out)
		},
	)

	t.Run("get_map",
		func(t *testing.T) {
			out, err := execute(t, "--file", path, "get", "db")
			require.NoError(t, err)
			assert.Equal(t, "host: db.example.com\nport: 5432\n", out)
		},
	)

	t.Run("env",
		func(t *testing.T) {
			out, err := execute(t, "--file", path, "env")
			require.NoError(t, err)
			assert.Equal(t,
				"export DB_NOTE='it'\\''s'\nexport DB_USER='app'\n",
				out,
			)
		},
	)

	t.Run("dump_json",
		func(t *testing.T) {
			out, err := execute(t, "--file", path, "dump", "--format", "json")
			require.NoError(t, err)

			var data map[string]any
			require.NoError(t, json.Unmarshal([]byte(out), &data))
			assert.Equal(t, "db.example.com", data["db"].(map[string]any)["host"])
		},
	)

	t.Run("dump_toml",
		func(t *testing.T) {
			out, err := execute(t, "--file", path, "dump", "--format", "toml")
			require.NoError(t, err)

			var data map[string]any
			_, err = toml.Decode(out, &data)
			require.NoError(t, err)
			assert.Equal(t, int64(5432), data["db"].(map[string]any)["port"])
		},
	)
}

func TestRunSet(t *testing.T) {
	root := newRoot(t)
	path := filepath.Join(root, "config", "prod.yaml")

	_, err := execute(t, "--env", "PROD", "--root", root, "set", "db.port", "6432")
	require.NoError(t, err)

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "# Database")
	assert.Contains(t, string(content), "port: 6432 # pg")

	out, err := execute(t, "--file", path, "get", "db.port")
	require.NoError(t, err)
	assert.Equal(t, "6432\n", out)
}

func TestRunErrors(t *testing.T) {
	root := newRoot(t)

	t.Run("parameter_not_found",
		func(t *testing.T) {
			_, err := execute(t, "--env", "PROD", "--root", root, "get", "db.user")

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), "parameter not found")
			}
		},
	)

	t.Run("unknown_environment",
		func(t *testing.T) {
			_, err := execute(t, "--env", "DEV", "--root", root, "path")

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), "unknown environment")
			}
		},
	)

	t.Run("unsupported_extension",
		func(t *testing.T) {
			_, err := execute(t, "--file", filepath.Join(root, "config.json"), "path")
			assert.ErrorIs(t, err, yamlconf.ErrUnsupportedFileType)
		},
	)

	t.Run("section_not_found",
		func(t *testing.T) {
			_, err := execute(t, "--env", "PROD", "--root", root, "--section", "VARS", "env")

			if assert.Error(t, err) {
				assert.Contains(t, err.Error(), "section not found")
			}
		},
	)

	t.Run("invalid_format",
		func(t *testing.T) {
			_, err := execute(t, "--env", "PROD", "--root", root, "dump", "--format", "xml")
			assert.Error(t, err)
		},
	)
}

func newRoot(t *testing.T) string {
	t.Helper()

	root := t.TempDir()
	dir := filepath.Join(root, "config")

	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "prod.yaml"), []byte(prodYAML), 0o644))

	return root
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(args, &stdout, &stderr)

	return stdout.String(), err
}
