// Package theme reads batch files that describe a set of cursors to build
// in one run.
//
//	version: "1"
//	prefix: x2
//	cursors:
//	  - name: left_ptr
//	    config: configs/left_ptr.cfg
//	    size: 32
//	    output: out/left_ptr
//	  - name: wait
//	    config: configs/wait.cfg
//	    size: 48
//	    output: out/wait
//	    title: Busy
package theme

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/png2cursor/internal/config"
)

// Theme is a batch of cursor builds.
type Theme struct {
	Version string `yaml:"version"`
	Prefix  string `yaml:"prefix,omitempty"` // default image directory for every item
	Author  string `yaml:"author,omitempty"`
	Cursors []Item `yaml:"cursors"`
}

// Item is one cursor in a theme. Relative paths are taken relative to the
// theme file.
type Item struct {
	Name   string `yaml:"name"`
	Config string `yaml:"config"`
	Size   int    `yaml:"size"`
	Output string `yaml:"output"`
	Prefix string `yaml:"prefix,omitempty"`
	Title  string `yaml:"title,omitempty"`
}

// ReadTheme reads a theme from a YAML file and resolves its relative paths.
func ReadTheme(path string) (*Theme, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read theme file %s: %w", path, err)
	}

	var t Theme
	if err := yaml.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("invalid theme file %s: %w", path, err)
	}
	if len(t.Cursors) == 0 {
		return nil, fmt.Errorf("theme file %s declares no cursors", path)
	}

	base := filepath.Dir(path)
	t.Prefix = resolve(base, t.Prefix)
	for i := range t.Cursors {
		it := &t.Cursors[i]
		if it.Name == "" {
			it.Name = fmt.Sprintf("#%d", i)
		}
		// Joining cleans "out/" or ".." into a directory name, so the
		// stem is checked as written.
		if err := config.ValidateOutputStem(it.Output); err != nil {
			return nil, fmt.Errorf("theme file %s, cursor %s: %w", path, it.Name, err)
		}
		it.Config = resolve(base, it.Config)
		it.Output = resolve(base, it.Output)
		if it.Prefix == "" {
			it.Prefix = t.Prefix
		} else {
			it.Prefix = resolve(base, it.Prefix)
		}
	}

	return &t, nil
}

func resolve(base, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(base, path)
}
