package config

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/afero"
)

// Releases mirrors releases.toml, the list of supported release lines.
type Releases struct {
	OldestSupportedMajorVersion uint64 `toml:"oldest_supported_major_version"`
}

// LoadReleases reads the releases file. A missing file yields an error since backport
// targets cannot be computed without it.
func LoadReleases(fsys afero.Fs, path string) (*Releases, error) {
	data, err := afero.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("releases file %s not found: %w", path, err)
		}
		return nil, fmt.Errorf("failed to read releases file: %w", err)
	}
	releases := &Releases{}
	if err := toml.Unmarshal(data, releases); err != nil {
		return nil, fmt.Errorf("failed to parse releases file %s: %w", path, err)
	}
	if releases.OldestSupportedMajorVersion == 0 {
		return nil, fmt.Errorf("releases file %s: oldest_supported_major_version must be set", path)
	}
	return releases, nil
}
