package doctree

import "strings"

// DocTree is the root of a parsed document.
type DocTree struct {
	Title    string     // Document title (from metadata or filename)
	Children []*DocNode // Top-level sections
}

// DocNode is a recursive section in the document tree.
type DocNode struct {
	Title    string     // Section heading (empty for leaf text)
	Text     string     // Text content of this node (may be empty for container nodes)
	Page     int        // Source page (0 if N/A)
	Children []*DocNode // Subsections
}

// Flatten renders the tree back to plain text in document order. Each
// heading is a line of its own, followed by the node text and then the
// subsections. The document title is not included.
func Flatten(tree *DocTree) string {
	if tree == nil {
		return ""
	}
	var lines []string
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			if t := strings.TrimSpace(n.Title); t != "" {
				lines = append(lines, t)
			}
			if t := strings.TrimSpace(n.Text); t != "" {
				lines = append(lines, t)
			}
			walk(n.Children)
		}
	}
	walk(tree.Children)
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// Pages returns the highest page number seen in the tree.
func Pages(tree *DocTree) int {
	last := 0
	var walk func(nodes []*DocNode)
	walk = func(nodes []*DocNode) {
		for _, n := range nodes {
			last = max(last, n.Page)
			walk(n.Children)
		}
	}
	if tree != nil {
		walk(tree.Children)
	}
	return last
}
