// Package production provides production integrations: persistence, event publishing, visualization.
// Implements core interfaces using stdlib where possible.
package production

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/comalice/statechartx/internal/core"
)

// DefaultVisualizer is the stdlib-only implementation of core.Visualizer.
type DefaultVisualizer struct{}

// ExportDOT generates Graphviz DOT source for def, highlighting whichever
// nodes appear in active.
func (v *DefaultVisualizer) ExportDOT(def *core.Definition, active []string) string {
	var buf bytes.Buffer
	buf.WriteString("digraph Statechart {\n")
	buf.WriteString("  rankdir=LR;\n")
	buf.WriteString("  node [shape=box, fontsize=10, style=rounded];\n")
	buf.WriteString("  edge [fontsize=9];\n")

	nodes := def.Nodes()
	activeSet := make(map[string]bool, len(active))
	for _, id := range active {
		activeSet[id] = true
	}

	for _, id := range def.RootChildren() {
		renderNode(&buf, id, nodes, activeSet)
	}

	for _, edge := range collectEdges(nodes) {
		fmt.Fprintf(&buf, "  %q -> %q [label=%q];\n", edge.From, edge.To, edge.Label)
	}

	buf.WriteString("}\n")
	return buf.String()
}

// ExportJSON serializes def's resolved node tree to JSON.
func (v *DefaultVisualizer) ExportJSON(def *core.Definition) ([]byte, error) {
	doc := struct {
		ID    string                   `json:"id"`
		Nodes map[string]core.NodeInfo `json:"nodes"`
		Roots []string                 `json:"roots"`
	}{
		ID:    def.ID(),
		Nodes: def.Nodes(),
		Roots: def.RootChildren(),
	}
	return json.MarshalIndent(doc, "", "  ")
}

// edge is one transition arrow in the rendered graph.
type edge struct {
	From  string
	To    string
	Label string
}

// collectEdges flattens every resolved transition in nodes into edges,
// one per (source, target) pair; targetless transitions yield no edge.
func collectEdges(nodes map[string]core.NodeInfo) []edge {
	var edges []edge
	for from, info := range nodes {
		for _, t := range info.Transitions {
			for _, to := range t.Targets {
				edges = append(edges, edge{From: from, To: to, Label: t.Event})
			}
		}
	}
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].From != edges[j].From {
			return edges[i].From < edges[j].From
		}
		return edges[i].Label < edges[j].Label
	})
	return edges
}

// renderNode recursively renders id and its descendants, clustering
// compound/parallel nodes and coloring whichever ones are active.
func renderNode(buf *bytes.Buffer, id string, nodes map[string]core.NodeInfo, active map[string]bool) {
	info, ok := nodes[id]
	if !ok {
		return
	}

	if len(info.Children) > 0 {
		clusterID := fmt.Sprintf("cluster_%s", sanitize(id))
		fmt.Fprintf(buf, "  subgraph %s {\n", clusterID)
		style := ""
		if active[id] {
			style = " style=filled fillcolor=orange"
		} else if info.Kind == "parallel" {
			style = " style=filled fillcolor=lightblue"
		}
		fmt.Fprintf(buf, "    label=%q%s;\n", fmt.Sprintf("%s (%s)", id, info.Kind), style)
		fmt.Fprintf(buf, "    %q [label=%q shape=ellipse%s];\n", id, id, style)

		for _, child := range info.Children {
			renderNode(buf, child, nodes, active)
		}

		buf.WriteString("  }\n")
		return
	}

	style := ""
	if active[id] {
		style = " style=filled fillcolor=lightgreen"
	}
	fmt.Fprintf(buf, "  %q [label=%q%s];\n", id, id, style)
}

// sanitize replaces delimiter characters DOT cluster names can't carry
// unquoted; Graphviz accepts quoted cluster names too, but keeping these
// readable in plain text output is worth the extra pass.
func sanitize(id string) string {
	out := make([]rune, 0, len(id))
	for _, r := range id {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			out = append(out, r)
		default:
			out = append(out, '_')
		}
	}
	return string(out)
}
