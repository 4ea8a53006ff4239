package storage_test

import (
	"context"
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iph0/yamlconf/storage"
)

func TestFile(t *testing.T) {
	ctx := context.Background()
	st := storage.NewFile()
	path := filepath.Join(t.TempDir(), "prod.yaml")

	exists, err := st.Exists(ctx, path)
	require.NoError(t, err)
	assert.False(t, exists)

	_, err = st.Open(ctx, path)
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	writeAll(t, st, path, "foo: bar\nmoo: jar\n")
	writeAll(t, st, path, "foo: zoo\n")

	exists, err = st.Exists(ctx, path)
	require.NoError(t, err)
	assert.True(t, exists)

	assert.Equal(t, "foo: zoo\n", readAll(t, st, path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "foo: zoo\n", string(data))
}

func TestMemory(t *testing.T) {
	ctx := context.Background()
	st := storage.NewMemory(map[string]string{
		"uat.yaml": "foo: bar\n",
	})

	assert.Equal(t, "foo: bar\n", readAll(t, st, "uat.yaml"))

	_, err := st.Open(ctx, "prod.yaml")
	assert.True(t, errors.Is(err, fs.ErrNotExist))

	w, err := st.Create(ctx, "prod.yaml")
	require.NoError(t, err)

	_, err = io.WriteString(w, "moo: jar\n")
	require.NoError(t, err)

	exists, err := st.Exists(ctx, "prod.yaml")
	require.NoError(t, err)
	assert.False(t, exists, "file must not be visible before close")

	require.NoError(t, w.Close())

	content, ok := st.Content("prod.yaml")
	assert.True(t, ok)
	assert.Equal(t, "moo: jar\n", content)
}

func writeAll(t *testing.T, st storage.Storage, name, content string) {
	t.Helper()

	w, err := st.Create(context.Background(), name)
	require.NoError(t, err)

	_, err = io.WriteString(w, content)
	require.NoError(t, err)
	require.NoError(t, w.Close())
}

func readAll(t *testing.T, st storage.Storage, name string) string {
	t.Helper()

	r, err := st.Open(context.Background(), name)
	require.NoError(t, err)

	defer r.Close()

	data, err := io.ReadAll(r)
	require.NoError(t, err)

	return string(data)
}
