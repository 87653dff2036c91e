// Package config loads option defaults from an optional .weft.yaml file in
// the working directory. Command-line flags always win over the file.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the defaults file looked up in the working directory.
const FileName = ".weft.yaml"

// File mirrors the settings a defaults file may carry. Pointer fields
// distinguish "absent" from a zero value.
type File struct {
	Markers      string            `yaml:"markers"`
	Checksum     *bool             `yaml:"checksum"`
	Verbosity    *int              `yaml:"verbosity"`
	Suffix       string            `yaml:"suffix"`
	Encoding     string            `yaml:"encoding"`
	UnixNewlines *bool             `yaml:"unix_newlines"`
	Prologue     string            `yaml:"prologue"`
	Defines      map[string]string `yaml:"defines"`
	IncludePath  []string          `yaml:"include"`
}

// Load reads the defaults file from dir. A missing file is not an error:
// it returns nil.
func Load(dir string) (*File, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return &f, nil
}
