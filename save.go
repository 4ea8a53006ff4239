// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import (
	"bytes"
	"context"

	"gopkg.in/yaml.v3"

	"github.com/iph0/yamlconf/merger"
)

const yamlIndent = 2

// Save method writes settings to the YAML file. Empty path means the file the
// settings were loaded from. If the file exists, current values are merged into
// its content, so comments and key order of the file are kept. Otherwise a new
// file is written. Nothing is written if the settings can not be encoded. The
// file is truncated and rewritten in place.
func (s *Settings) Save(ctx context.Context, path string) error {
	if path == "" {
		path = s.path
	}

	err := ValidateExtension(path)

	if err != nil {
		return err
	}

	source := s.AsMap()
	doc, err := s.document(ctx, path)

	if err != nil {
		return err
	}

	doc, err = merger.MergeDocument(source, doc)

	if err != nil {
		return err
	}

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(yamlIndent)

	err = enc.Encode(doc)

	if err != nil {
		return err
	}

	err = enc.Close()

	if err != nil {
		return err
	}

	w, err := s.opts.Storage.Create(ctx, path)

	if err != nil {
		return err
	}

	_, err = w.Write(buf.Bytes())

	if err != nil {
		w.Close()
		return err
	}

	return w.Close()
}

func (s *Settings) document(ctx context.Context, path string) (*yaml.Node, error) {
	exists, err := s.opts.Storage.Exists(ctx, path)

	if err != nil {
		return nil, err
	}

	if !exists {
		return nil, nil
	}

	return s.loader.LoadDocument(ctx, path)
}
