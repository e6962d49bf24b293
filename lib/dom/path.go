package dom

import (
	"fmt"
	"strings"
)

// Segment addresses one element among the children of the previous
// segment's match. Index is 1-based and counts only the children that
// match Tag and the attribute qualifiers, which is how XPath predicates
// behave. A zero Index means the first match.
//
// NOTE: the order of classes (which are space-separated) in a Class
// qualifier matters. e.g. "u-grid-item u-xs-6" is not the same as
// "u-xs-6 u-grid-item".
type Segment struct {
	Tag   string
	Id    string
	Class string
	Index int
}

// Path is a structural path into a document tree, rooted at the
// document element. Paths are immutable values; every builder method
// returns a copy.
type Path struct {
	segs []Segment
}

// Root returns the path addressing the document element of the given
// tag, usually "html".
func Root(tag string) Path {
	return Path{segs: []Segment{{Tag: tag}}}
}

func (p Path) append(s Segment) Path {
	segs := make([]Segment, len(p.segs)+1)
	copy(segs, p.segs)
	segs[len(p.segs)] = s
	return Path{segs: segs}
}

// Child addresses the first child element with the given tag.
func (p Path) Child(tag string) Path {
	return p.append(Segment{Tag: tag})
}

// Nth addresses the n-th (1-based) child element with the given tag.
func (p Path) Nth(tag string, n int) Path {
	return p.append(Segment{Tag: tag, Index: n})
}

// Class addresses the first child element whose class attribute equals
// class exactly.
func (p Path) Class(tag, class string) Path {
	return p.append(Segment{Tag: tag, Class: class})
}

// ClassNth addresses the n-th (1-based) child element whose class
// attribute equals class exactly.
func (p Path) ClassNth(tag, class string, n int) Path {
	return p.append(Segment{Tag: tag, Class: class, Index: n})
}

// Id addresses the first child element with the given id attribute.
func (p Path) Id(tag, id string) Path {
	return p.append(Segment{Tag: tag, Id: id})
}

func (p Path) Segments() []Segment {
	return p.segs
}

// String renders the path in an XPath-like form, for logs and error
// messages.
func (p Path) String() string {
	var b strings.Builder
	for _, s := range p.segs {
		b.WriteByte('/')
		b.WriteString(s.Tag)
		if s.Id != "" {
			fmt.Fprintf(&b, "[@id='%s']", s.Id)
		}
		if s.Class != "" {
			fmt.Fprintf(&b, "[@class='%s']", s.Class)
		}
		if s.Index > 0 {
			fmt.Fprintf(&b, "[%d]", s.Index)
		}
	}
	return b.String()
}
