// Package confkit holds the shared configuration plumbing: go-zero based
// file loading, per-module section hydration, dotenv bootstrap, and
// project-relative path resolution.
package confkit

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/zeromicro/go-zero/core/conf"
)

// ResolvePath expands environment variables in file and, when it is
// relative, anchors it at base.
func ResolvePath(base, file string) string {
	file = os.ExpandEnv(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(base, file)
}

// BaseDir returns the directory containing the main config file.
func BaseDir(mainPath string) string {
	return filepath.Dir(mainPath)
}

// LoadFile parses a configuration file into T via go-zero's conf loader,
// optionally expanding ${ENV} references.
func LoadFile[T any](path string, useEnv bool) (*T, error) {
	var cfg T
	var opts []conf.Option
	if useEnv {
		opts = append(opts, conf.UseEnv())
	}
	if err := conf.Load(path, &cfg, opts...); err != nil {
		return nil, fmt.Errorf("load config %s: %w", path, err)
	}
	return &cfg, nil
}

// Section is a config block that may live in its own file next to the main
// config. File names the sidecar; Value is populated by Hydrate.
type Section[T any] struct {
	File  string `json:",optional"`
	Value *T     `json:"-"`
}

// Hydrate loads the sidecar file through loader and stores the result.
// A Section with no File is left untouched.
func (s *Section[T]) Hydrate(base string, loader func(string) (*T, error)) error {
	if s.File == "" {
		return nil
	}
	path := ResolvePath(base, s.File)
	v, err := loader(path)
	if err != nil {
		return err
	}
	s.File, s.Value = path, v
	return nil
}
