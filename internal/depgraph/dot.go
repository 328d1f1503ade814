package depgraph

import (
	"fmt"
	"strings"
)

// DOT renders the graph as a GraphViz document, labeled name. The
// generator writes one of these at each of the four checkpoints spec §6
// calls out (_init, _simpl, _topdown, _bottomup), each invocation of DOT
// simply being called at a different point in Graph's lifecycle.
func (g *Graph) DOT(name string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "digraph %s {\n", sanitizeID(name))
	for _, n := range g.nodes {
		fmt.Fprintf(&sb, "  n%d [label=%q];\n", n.ID, nodeLabel(n))
	}
	for _, e := range g.edges {
		fmt.Fprintf(&sb, "  n%d -> n%d;\n", e.Src.ID, e.Dst.ID)
	}
	for _, le := range g.labeled {
		fmt.Fprintf(&sb, "  n%d -> n%d [label=\"dim%d\", style=dashed];\n", le.Idx.ID, le.Array.ID, le.Dim)
	}
	sb.WriteString("}\n")
	return sb.String()
}

func nodeLabel(n *Node) string {
	base := n.String()
	if n.Kind == Affine && len(n.Range.Lower.String()) > 0 {
		return fmt.Sprintf("%s\\n%s", base, n.Range.String())
	}
	return base
}

func sanitizeID(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9') || r == '_' {
			sb.WriteRune(r)
		} else {
			sb.WriteRune('_')
		}
	}
	if sb.Len() == 0 {
		return "g"
	}
	return sb.String()
}
