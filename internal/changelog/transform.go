package changelog

import (
	"regexp"
	"strconv"
	"strings"
)

// UnreleasedToken marks the heading of changes that have not been released yet.
const UnreleasedToken = "[UNRELEASED]"

var (
	// annotationPattern marks a note that only applies to major N and later.
	annotationPattern = regexp.MustCompile(`\[v(\d+)\+ only\]`)
	majorTokenPattern = regexp.MustCompile(`^(##\s+v?)(\d+)(\.)`)
)

// InsertNewRelease replaces the first unreleased placeholder with "versionLabel - date".
// found is false, and text is returned unchanged, when there is no placeholder.
func InsertNewRelease(text, versionLabel, date string) (updated string, found bool) {
	if !strings.Contains(text, UnreleasedToken) {
		return text, false
	}
	return strings.Replace(text, UnreleasedToken, versionLabel+" - "+date, 1), true
}

// RewriteForBackport renumbers headings from sourceMajor to targetMajor, drops notes
// restricted to a newer major than targetMajor and fills sections left empty with
// NoChangesPlaceholder.
func RewriteForBackport(text string, sourceMajor, targetMajor uint64) (string, error) {
	doc, err := scan(text, scanHooks{
		heading: func(line string) string {
			return rewriteHeadingMajor(line, sourceMajor, targetMajor)
		},
		keep: func(line string) bool {
			return AppliesTo(line, targetMajor)
		},
		exit: fillEmpty,
	})
	if err != nil {
		return "", err
	}
	return doc.String(), nil
}

// AppliesTo reports whether a body line is kept for the given major. Lines without a
// well-formed [vN+ only] annotation always apply.
func AppliesTo(line string, major uint64) bool {
	m := annotationPattern.FindStringSubmatch(line)
	if m == nil {
		return true
	}
	minMajor, err := strconv.ParseUint(m[1], 10, 64)
	if err != nil {
		return true
	}
	return major >= minMajor
}

func rewriteHeadingMajor(line string, from, to uint64) string {
	m := majorTokenPattern.FindStringSubmatchIndex(line)
	if m == nil {
		return line
	}
	major, err := strconv.ParseUint(line[m[4]:m[5]], 10, 64)
	if err != nil || major != from {
		return line
	}
	return line[:m[4]] + strconv.FormatUint(to, 10) + line[m[5]:]
}

// fillEmpty keeps the heading's line ending. A trailing "" body line is the remainder after
// the final newline and stays bare.
func fillEmpty(s *Section) {
	if s.HasContent() {
		return
	}
	eol := ""
	if strings.HasSuffix(s.Heading, "\r") {
		eol = "\r"
	}
	last := eol
	if n := len(s.Body); n > 0 && s.Body[n-1] == "" {
		last = ""
	}
	s.Body = []string{eol, NoChangesPlaceholder + eol, last}
}
