package changelog

import (
	"errors"
	"fmt"
	"strings"
)

// Rollback replaces the newest section with a release that rolls back rollbackVersion and
// is identical to targetVersion. A changelog without sections is kept whole as preamble.
func Rollback(text, rollbackVersion, targetVersion, newVersion, date string) (string, error) {
	doc, err := Parse(text)
	if errors.Is(err, ErrMalformedChangelog) {
		doc, err = &Document{Preamble: strings.Split(text, "\n")}, nil
	}
	if err != nil {
		return "", err
	}
	note := fmt.Sprintf(
		"This release rolls back %s due to issues with that release. It is identical to %s.",
		rollbackVersion, targetVersion,
	)
	rollback := Section{
		Heading: fmt.Sprintf("%s%s - %s", headingPrefix, newVersion, date),
		Body:    []string{"", note, ""},
	}
	rest := doc.Sections
	if len(rest) > 0 {
		rest = rest[1:]
	}
	doc.Sections = append([]Section{rollback}, rest...)
	return doc.String(), nil
}
