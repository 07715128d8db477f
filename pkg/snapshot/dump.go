package snapshot

import (
	"fmt"
	"sort"
	"strings"

	"github.com/xlab/treeprint"

	"domsnap/pkg/html"
)

// DumpTree renders a node tree as an indented outline, one line per node.
// Long attribute values such as data: URIs are shortened.
func DumpTree(n *html.Node) string {
	tree := treeprint.NewWithRoot(label(n))
	type item struct {
		node   *html.Node
		branch treeprint.Tree
	}
	stack := []item{{n, tree}}
	for len(stack) > 0 {
		it := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		branches := make([]item, 0, len(it.node.Children))
		for _, c := range it.node.Children {
			if len(c.Children) == 0 {
				it.branch.AddNode(label(c))
				continue
			}
			branches = append(branches, item{c, it.branch.AddBranch(label(c))})
		}
		stack = append(stack, branches...)
	}
	return tree.String()
}

func label(n *html.Node) string {
	switch n.Type {
	case html.TextNode:
		return fmt.Sprintf("%q", shorten(strings.TrimSpace(n.Text)))
	case html.CommentNode:
		return "<!-- -->"
	}
	keys := make([]string, 0, len(n.Attributes))
	for k := range n.Attributes {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	var sb strings.Builder
	sb.WriteString(n.TagName)
	for _, k := range keys {
		fmt.Fprintf(&sb, " %s=%q", k, shorten(n.Attributes[k]))
	}
	return sb.String()
}
