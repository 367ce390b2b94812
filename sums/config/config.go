package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	json "github.com/goccy/go-json"
	"github.com/goccy/go-yaml"
)

// ErrUnsupportedFormat is returned for config files
// whose extension is neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported config format")

// File holds run defaults. Pointer fields distinguish
// "unset" from the zero value.
type File struct {
	Repo         string   `json:"repo"          yaml:"repo"`
	Threads      *int     `json:"threads"       yaml:"threads"`
	Verbose      *bool    `json:"verbose"       yaml:"verbose"`
	DryRun       *bool    `json:"dry_run"       yaml:"dry_run"`
	Algorithms   []string `json:"algorithms"    yaml:"algorithms"`
	NoticeFormat string   `json:"notice_format" yaml:"notice_format"`
}

// Load reads path and decodes it according to its
// extension (.yaml, .yml or .json). Unknown keys are
// rejected.
func Load(path string) (File, error) {
	const errCtx = "loading config"

	raw, err := os.ReadFile(path) //nolint:gosec // path from CLI flag
	if err != nil {
		return File{}, fmt.Errorf("%s: %w", errCtx, err)
	}

	var fi File

	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = yaml.UnmarshalWithOptions(raw, &fi, yaml.Strict())
	case ".json":
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.DisallowUnknownFields()
		err = dec.Decode(&fi)
	default:
		return File{}, fmt.Errorf(
			"%s: %w: %s", errCtx, ErrUnsupportedFormat, path,
		)
	}

	if err != nil {
		return File{}, fmt.Errorf(
			"%s: decoding %s: %w", errCtx, path, err,
		)
	}

	return fi, nil
}
