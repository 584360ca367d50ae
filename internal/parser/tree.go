package parser

import (
	"strings"

	"github.com/dgallion1/fundgest/internal/doctree"
)

// treeBuilder nests text under headings by level. Markdown, HTML and DOCX
// all report headings with a 1-6 level.
type treeBuilder struct {
	root    *doctree.DocNode
	stack   []stackEntry
	current []string
}

type stackEntry struct {
	node  *doctree.DocNode
	level int
}

func newTreeBuilder(title string) *treeBuilder {
	root := &doctree.DocNode{Title: title}
	return &treeBuilder{root: root, stack: []stackEntry{{node: root}}}
}

func (b *treeBuilder) flush() {
	if len(b.current) == 0 {
		return
	}
	t := strings.Join(b.current, "\n")
	top := b.stack[len(b.stack)-1].node
	if top.Text != "" {
		top.Text += "\n" + t
	} else {
		top.Text = t
	}
	b.current = nil
}

func (b *treeBuilder) heading(level int, title string) {
	if title == "" {
		return
	}
	b.flush()
	n := &doctree.DocNode{Title: title}
	for len(b.stack) > 1 && b.stack[len(b.stack)-1].level >= level {
		b.stack = b.stack[:len(b.stack)-1]
	}
	parent := b.stack[len(b.stack)-1].node
	parent.Children = append(parent.Children, n)
	b.stack = append(b.stack, stackEntry{node: n, level: level})
}

func (b *treeBuilder) text(t string) {
	if t = strings.TrimSpace(t); t != "" {
		b.current = append(b.current, t)
	}
}

// finish returns the top-level nodes. Text before the first heading, or a
// document with no headings at all, becomes a leading untitled node.
func (b *treeBuilder) finish() []*doctree.DocNode {
	b.flush()
	out := b.root.Children
	if b.root.Text != "" {
		out = append([]*doctree.DocNode{{Text: b.root.Text}}, out...)
	}
	return out
}
