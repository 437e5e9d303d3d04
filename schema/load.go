package schema

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/afero"
)

// DefaultNames are the schema file names searched for, in order.
var DefaultNames = []string{"mcu_database.json", "menzu_config.json"}

// Candidates lists the files to try: explicit first when set, then each
// default name in each directory. Empty directories are skipped.
func Candidates(explicit string, dirs ...string) []string {
	var out []string
	if explicit != "" {
		out = append(out, explicit)
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		for _, name := range DefaultNames {
			out = append(out, filepath.Join(dir, name))
		}
	}
	return out
}

// SearchDirs returns the working directory and the executable's
// directory, the places a schema is looked for by default.
func SearchDirs() []string {
	var dirs []string
	if wd, err := os.Getwd(); err == nil {
		dirs = append(dirs, wd)
	}
	if exe, err := os.Executable(); err == nil {
		dirs = append(dirs, filepath.Dir(exe))
	}
	return dirs
}

// Load returns the first candidate that exists and parses. Missing files
// are skipped silently; broken ones are logged and skipped. When nothing
// loads the error wraps ErrConfiguration and the reason for each file
// that was tried.
func Load(fs afero.Fs, candidates ...string) (*Schema, error) {
	var tried []error
	for _, path := range candidates {
		data, err := afero.ReadFile(fs, path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err == nil {
			var s *Schema
			if s, err = Parse(data); err == nil {
				s.Source = path
				log.Info().Str("path", path).Int("cards", len(s.Cards)).Msg("schema loaded")
				return s, nil
			}
		}
		log.Warn().Err(err).Str("path", path).Msg("schema candidate rejected")
		tried = append(tried, fmt.Errorf("%s: %w", path, err))
	}
	if len(tried) == 0 {
		return nil, fmt.Errorf("%w: none of %d candidates exist", ErrConfiguration, len(candidates))
	}
	return nil, fmt.Errorf("%w: %w", ErrConfiguration, errors.Join(tried...))
}
