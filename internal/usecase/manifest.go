package usecase

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/compozy/releasesync/internal/domain"
	"github.com/compozy/releasesync/internal/repository"
	json "github.com/goccy/go-json"
)

var manifestVersionLine = regexp.MustCompile(`"version"\s*:\s*"([^"]*)"`)

// ReadManifest loads the manifest. A manifest left with merge conflict markers is not valid
// JSON, so the version then comes from the first "version" field found in the text.
func ReadManifest(fsRepo repository.FileSystemRepository, path string) (*domain.Manifest, error) {
	text, err := repository.ReadTextFile(fsRepo, path, "")
	if err != nil {
		return nil, err
	}
	if text == "" {
		return nil, fmt.Errorf("manifest %s not found or empty", path)
	}
	manifest := &domain.Manifest{Path: path}
	if err := json.Unmarshal([]byte(text), manifest); err == nil && manifest.Version != "" {
		return manifest, nil
	}
	m := manifestVersionLine.FindStringSubmatch(text)
	if m == nil {
		return nil, fmt.Errorf("manifest %s has no version field", path)
	}
	manifest.Version = m[1]
	return manifest, nil
}

// RewriteManifestVersion replaces prevVersion with newVersion on version lines. With a
// packageName, only the version line directly after that package's name line is touched;
// otherwise only the first version line is.
func RewriteManifestVersion(text, packageName, prevVersion, newVersion string) (string, bool) {
	lines := strings.Split(text, "\n")
	nameLine := fmt.Sprintf(`"name": %q,`, packageName)
	prevIsName := false
	changed := false
	for i, line := range lines {
		if !changed || packageName != "" {
			eligible := packageName == "" || prevIsName
			if eligible && isVersionLine(line, prevVersion) {
				lines[i] = strings.Replace(line, prevVersion, newVersion, 1)
				changed = true
			}
		}
		prevIsName = packageName != "" && strings.Contains(line, nameLine)
	}
	return strings.Join(lines, "\n"), changed
}

func isVersionLine(line, version string) bool {
	m := manifestVersionLine.FindStringSubmatch(line)
	return m != nil && m[1] == version
}
