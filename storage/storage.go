// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

/*
Package storage provides byte stream access to configuration files. The yamlconf
package reads and writes settings files only through the Storage interface, so
files can live on the local file system, in memory or in a remote object store
(see the s3storage package).
*/
package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"sync"
)

const (
	errPref         = "storage"
	defaultFilePerm = 0o644
)

// Storage is an interface for configuration file storages.
type Storage interface {
	// Open opens the named file for reading.
	Open(ctx context.Context, name string) (io.ReadCloser, error)

	// Create creates or truncates the named file. Written data must be
	// persisted not later than on Close.
	Create(ctx context.Context, name string) (io.WriteCloser, error)

	// Exists reports whether the named file exists.
	Exists(ctx context.Context, name string) (bool, error)
}

// File type represents the local file system storage.
type File struct {
	// Perm is used for newly created files. Default is 0644.
	Perm fs.FileMode
}

// NewFile method creates new local file system storage.
func NewFile() *File {
	return &File{
		Perm: defaultFilePerm,
	}
}

// Open method opens the file for reading.
func (s *File) Open(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(name)
}

// Create method truncates the file or creates it if it does not exist.
func (s *File) Create(_ context.Context, name string) (io.WriteCloser, error) {
	perm := s.Perm

	if perm == 0 {
		perm = defaultFilePerm
	}

	return os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
}

// Exists method reports whether the file exists.
func (s *File) Exists(_ context.Context, name string) (bool, error) {
	_, err := os.Stat(name)

	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return false, nil
		}

		return false, err
	}

	return true, nil
}

// Memory type represents in-memory storage. Written files become visible when
// the writer is closed.
type Memory struct {
	mu    sync.Mutex
	files map[string][]byte
}

// NewMemory method creates new in-memory storage with initial files.
func NewMemory(files map[string]string) *Memory {
	m := &Memory{
		files: make(map[string][]byte, len(files)),
	}

	for name, content := range files {
		m.files[name] = []byte(content)
	}

	return m
}

// Open method opens the file for reading.
func (m *Memory) Open(_ context.Context, name string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]

	if !ok {
		return nil, fmt.Errorf("%s: open %s: %w", errPref, name, fs.ErrNotExist)
	}

	return io.NopCloser(bytes.NewReader(data)), nil
}

// Create method creates the file writer.
func (m *Memory) Create(_ context.Context, name string) (io.WriteCloser, error) {
	return &memoryWriter{
		storage: m,
		name:    name,
	}, nil
}

// Exists method reports whether the file exists.
func (m *Memory) Exists(_ context.Context, name string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	_, ok := m.files[name]

	return ok, nil
}

// Content method returns content of the file.
func (m *Memory) Content(name string) (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	data, ok := m.files[name]

	return string(data), ok
}

type memoryWriter struct {
	storage *Memory
	name    string
	buf     bytes.Buffer
}

func (w *memoryWriter) Write(p []byte) (int, error) {
	return w.buf.Write(p)
}

func (w *memoryWriter) Close() error {
	w.storage.mu.Lock()
	defer w.storage.mu.Unlock()

	w.storage.files[w.name] = bytes.Clone(w.buf.Bytes())

	return nil
}
