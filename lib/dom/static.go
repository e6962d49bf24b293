package dom

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/Homebrew-Software/nelnet-tracker/lib/htmlutil"
	"golang.org/x/net/html"
)

// StaticSource is an ElementSource over a fully rendered HTML document.
// Server-rendered pages already contain their disclosure content, so
// Trigger is a no-op and AwaitPresence resolves against the parsed tree
// without waiting: content that is absent now will never appear.
type StaticSource struct {
	doc  *goquery.Document
	root *html.Node
}

func NewStaticSource(r io.Reader) (*StaticSource, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	root := documentElement(doc)
	if root == nil {
		return nil, fmt.Errorf("document has no root element")
	}
	return &StaticSource{doc: doc, root: root}, nil
}

func documentElement(doc *goquery.Document) *html.Node {
	for _, n := range doc.Selection.Nodes {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type == html.ElementNode {
				return c
			}
		}
	}
	return nil
}

// Title returns the document title, for operator-facing logs.
func (s *StaticSource) Title() string {
	return htmlutil.CleanText(s.doc.Find("title").Text())
}

func (s *StaticSource) Locate(path Path) (*html.Node, error) {
	segs := path.Segments()
	if len(segs) == 0 {
		return nil, fmt.Errorf("%w: empty path", ErrNotFound)
	}
	if !matches(s.root, segs[0]) || segs[0].Index > 1 {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
	}
	node := s.root
	for _, seg := range segs[1:] {
		node = childMatch(node, seg)
		if node == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
	}
	return node, nil
}

func matches(n *html.Node, seg Segment) bool {
	if n.Type != html.ElementNode || n.Data != seg.Tag {
		return false
	}
	if seg.Id != "" && attrVal(n, "id") != seg.Id {
		return false
	}
	if seg.Class != "" && attrVal(n, "class") != seg.Class {
		return false
	}
	return true
}

func childMatch(parent *html.Node, seg Segment) *html.Node {
	want := seg.Index
	if want == 0 {
		want = 1
	}
	seen := 0
	for c := parent.FirstChild; c != nil; c = c.NextSibling {
		if !matches(c, seg) {
			continue
		}
		seen++
		if seen == want {
			return c
		}
	}
	return nil
}

func attrVal(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func (s *StaticSource) Text(n *html.Node) string {
	return htmlutil.CleanText(htmlutil.GetText(n))
}

// Trigger verifies the control exists but performs no activation; a
// static document cannot change.
func (s *StaticSource) Trigger(ctx context.Context, path Path) error {
	_, err := s.Locate(path)
	return err
}

func (s *StaticSource) AwaitPresence(ctx context.Context, path Path, timeout time.Duration) (*html.Node, error) {
	n, err := s.Locate(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTimedOut, path)
	}
	return n, nil
}

func (s *StaticSource) Close() error {
	return nil
}
