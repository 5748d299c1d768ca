package domain

// Manifest holds the fields of the package manifest that carry the release version.
type Manifest struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	// Path is where the manifest was read from.
	Path string `json:"-"`
}
