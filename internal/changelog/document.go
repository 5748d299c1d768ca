// Package changelog rewrites release changelogs: one "## <version>" heading per release,
// an optional preamble before the first heading, free-form body lines below each heading.
package changelog

import (
	"errors"
	"strings"
)

const (
	headingPrefix = "## "
	// NoChangesPlaceholder is written into sections that would otherwise render empty.
	NoChangesPlaceholder = "No user facing changes."
)

// ErrMalformedChangelog means the document has no section heading at all.
var ErrMalformedChangelog = errors.New("malformed changelog: no section heading found")

// Section is one release entry. Body holds raw lines, blanks included.
type Section struct {
	Heading string
	Body    []string
}

// HasContent reports whether the body has at least one non-blank line.
func (s Section) HasContent() bool {
	for _, line := range s.Body {
		if strings.TrimSpace(line) != "" {
			return true
		}
	}
	return false
}

// Document is a parsed changelog. Section 0 is the first physical heading.
type Document struct {
	Preamble []string
	Sections []Section
}

// String renders the document; Parse followed by String is byte-identical.
func (d *Document) String() string {
	lines := make([]string, 0, len(d.Preamble)+len(d.Sections)*4)
	lines = append(lines, d.Preamble...)
	for _, s := range d.Sections {
		lines = append(lines, s.Heading)
		lines = append(lines, s.Body...)
	}
	return strings.Join(lines, "\n")
}

// Parse splits text into preamble and sections.
func Parse(text string) (*Document, error) {
	return scan(text, scanHooks{})
}

// DefaultDocument is the changelog written when none exists yet.
func DefaultDocument(title string) string {
	return "# " + title + "\n\n" + headingPrefix + UnreleasedToken + "\n\n" + NoChangesPlaceholder + "\n\n"
}

func isHeading(line string) bool {
	return strings.HasPrefix(line, headingPrefix)
}

type scanState int

const (
	inPreamble scanState = iota
	inSection
)

// scanHooks customise the scanner. Nil hooks are skipped.
type scanHooks struct {
	// heading rewrites a heading line before it opens a section.
	heading func(line string) string
	// keep filters body lines; preamble lines are never filtered.
	keep func(line string) bool
	// exit runs on each section as it closes, before it is emitted.
	exit func(s *Section)
}

type scanner struct {
	hooks   scanHooks
	state   scanState
	doc     *Document
	current Section
}

func (s *scanner) feed(line string) {
	if isHeading(line) {
		if s.state == inSection {
			s.closeSection()
		}
		if s.hooks.heading != nil {
			line = s.hooks.heading(line)
		}
		s.current = Section{Heading: line}
		s.state = inSection
		return
	}
	switch s.state {
	case inPreamble:
		s.doc.Preamble = append(s.doc.Preamble, line)
	case inSection:
		if s.hooks.keep == nil || s.hooks.keep(line) {
			s.current.Body = append(s.current.Body, line)
		}
	}
}

func (s *scanner) closeSection() {
	if s.hooks.exit != nil {
		s.hooks.exit(&s.current)
	}
	s.doc.Sections = append(s.doc.Sections, s.current)
	s.current = Section{}
}

func (s *scanner) finish() (*Document, error) {
	if s.state != inSection {
		return nil, ErrMalformedChangelog
	}
	s.closeSection()
	return s.doc, nil
}

func scan(text string, hooks scanHooks) (*Document, error) {
	s := &scanner{hooks: hooks, state: inPreamble, doc: &Document{}}
	for line := range strings.SplitSeq(text, "\n") {
		s.feed(line)
	}
	return s.finish()
}
