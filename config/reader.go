package config

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"

	"github.com/pkg/errors"

	"go.viam.com/simrecord/logging"
	"go.viam.com/simrecord/recording/badgerstore"
)

// Read reads a config from the given file. Relative search paths, description files, mesh paths
// and badger directories are resolved against the file's directory.
func Read(
	ctx context.Context,
	filePath string,
	logger logging.Logger,
) (*Config, error) {
	//nolint:gosec
	buf, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	cfg, err := FromReader(ctx, filePath, bytes.NewReader(buf), logger)
	if err != nil {
		return nil, err
	}
	cfg.resolvePaths(filepath.Dir(filePath))
	return cfg, nil
}

func (c *Config) resolvePaths(dir string) {
	abs := func(p string) string {
		if p == "" || filepath.IsAbs(p) {
			return p
		}
		return filepath.Join(dir, p)
	}
	for i, p := range c.SearchPaths {
		c.SearchPaths[i] = abs(p)
	}
	for i := range c.Robots {
		c.Robots[i].Description = abs(c.Robots[i].Description)
		c.Robots[i].MeshPath = abs(c.Robots[i].MeshPath)
	}
	for _, s := range c.Sinks {
		if bc, ok := s.ConvertedAttributes.(*badgerstore.Config); ok {
			bc.Path = abs(bc.Path)
		}
	}
}

// FromReader reads a config from the given reader and specifies
// where, if applicable, the file the reader originated from.
func FromReader(
	ctx context.Context,
	originalPath string,
	r io.Reader,
	logger logging.Logger,
) (*Config, error) {
	cfg := Config{
		ConfigFilePath: originalPath,
		LogLevel:       logging.INFO,
	}
	decoder := json.NewDecoder(r)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(&cfg); err != nil {
		return nil, errors.Wrapf(err, "failed to decode Config from json")
	}
	if err := cfg.Validate(""); err != nil {
		return nil, errors.Wrapf(err, "failed to process Config")
	}
	logger.CDebugw(ctx, "config read", "path", originalPath, "robots", len(cfg.Robots), "sinks", len(cfg.Sinks))
	return &cfg, nil
}
