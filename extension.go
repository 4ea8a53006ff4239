// Copyright (c) 2026, Eugene Ponizovsky, <ponizovsky@gmail.com>. All rights
// reserved. Use of this source code is governed by a MIT License that can
// be found in the LICENSE file.

package yamlconf

import (
	"errors"
	"fmt"
	"path/filepath"
)

// AllowedExtensions lists extensions of settings files. Comparison is
// case-sensitive.
var AllowedExtensions = []string{".yaml", ".yml"}

// ErrUnsupportedFileType is returned for settings files with extensions other
// than AllowedExtensions.
var ErrUnsupportedFileType = errors.New("file type not supported")

// ValidateExtension method checks that extension of the path is one of
// AllowedExtensions.
func ValidateExtension(path string) error {
	ext := filepath.Ext(path)

	for _, allowed := range AllowedExtensions {
		if ext == allowed {
			return nil
		}
	}

	return fmt.Errorf("%s: %w: %q", errPref, ErrUnsupportedFileType, ext)
}
