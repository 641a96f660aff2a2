package memory

import (
	"fmt"
	"strings"
)

// String renders the namespace from depth zero.
func (n *Namespace) String() string {
	return n.Render(0)
}

// Render produces the human readable dump of the namespace.
// The header carries the number of public values, each public value gets one
// "name : value" line indented by depth tabs, and nested namespaces recurse
// with depth+1. Values are listed in insertion order.
func (n *Namespace) Render(depth int) string {
	public := n.Public()

	lines := make([]string, 0, len(public)+2)
	lines = append(lines, fmt.Sprintf("{NTrodeMemory(%d)", len(public)))

	indent := strings.Repeat("\t", depth)
	for _, k := range public {
		var value string
		if child, ok := n.values[k].(*Namespace); ok && child != nil {
			value = child.Render(depth + 1)
		} else {
			value = fmt.Sprint(n.values[k])
		}
		lines = append(lines, fmt.Sprintf("%s%s : %s", indent, k, value))
	}
	lines = append(lines, "}")
	return strings.Join(lines, "\n")
}
