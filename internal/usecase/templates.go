package usecase

import (
	"strings"

	"github.com/valyala/fasttemplate"
)

const (
	// DefaultTitleTemplate names the pull request after the branches it merges.
	DefaultTitleTemplate  = "Merge {source} into {target}"
	primaryCommitTemplate = "Update changelog for v{version}"
	changelogDateLayout   = "02 Jan 2006"
)

// renderTemplate fills {name} placeholders; unknown placeholders are left as written.
func renderTemplate(tpl string, values map[string]interface{}) string {
	return fasttemplate.ExecuteStringStd(tpl, "{", "}", values)
}

// BookkeepingMessage is the message of the commit that rewrites the version and changelog
// of a backport: the literal prefix followed by the version, then the trailer.
func BookkeepingMessage(prefix, version, trailer string) string {
	msg := renderTemplate("{prefix}{version}", map[string]interface{}{
		"prefix":  prefix,
		"version": version,
	})
	if trailer == "" {
		return msg
	}
	return msg + "\n\n" + trailer
}

// IsBookkeepingMessage matches the trailer first and the literal prefix second, so commits
// written before the trailer existed are still found.
func IsBookkeepingMessage(message, prefix, trailer string) bool {
	if trailer != "" {
		for _, line := range strings.Split(message, "\n") {
			if strings.TrimSpace(line) == trailer {
				return true
			}
		}
	}
	return prefix != "" && strings.HasPrefix(message, prefix)
}
