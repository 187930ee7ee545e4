package graph

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// WriteMermaid writes the graph in Mermaid format to w.
// Each connected component is a subgraph.
func WriteMermaid(w io.Writer, g *Graph) error {
	components := FindComponents(g)

	fmt.Fprintln(w, "graph TD")

	for i, comp := range components {
		fmt.Fprintf(w, "    subgraph component_%d\n", i+1)

		inComp := make(map[schema.TableRef]bool, len(comp.Tables))
		for _, t := range comp.Tables {
			inComp[t] = true
		}

		written := make(map[string]bool)
		for _, edge := range g.Edges {
			if !inComp[edge.Child] {
				continue
			}
			line := fmt.Sprintf("%s -->|%s| %s",
				mermaidID(g.Name(edge.Child)), memberLabel(edge.Key), mermaidID(g.Name(edge.Parent)))
			if written[line] {
				continue
			}
			written[line] = true
			fmt.Fprintf(w, "        %s\n", line)
		}

		for _, t := range comp.Tables {
			for _, key := range g.SelfRefs[t] {
				fmt.Fprintf(w, "        %s -->|%s| %s\n",
					mermaidID(g.Name(t)), memberLabel(key), mermaidID(g.Name(t)))
			}
		}

		// Standalone nodes
		for _, t := range comp.Tables {
			if !hasEdge(g, t, inComp) {
				fmt.Fprintf(w, "        %s\n", mermaidID(g.Name(t)))
			}
		}

		fmt.Fprintln(w, "    end")
		if i < len(components)-1 {
			fmt.Fprintln(w)
		}
	}

	return nil
}

// WriteText writes a text summary of the graph to w.
func WriteText(w io.Writer, g *Graph) error {
	components := FindComponents(g)

	fmt.Fprintf(w, "Tables: %d\n", len(g.Nodes))
	fmt.Fprintf(w, "Foreign Keys: %d\n", len(g.Edges)+countSelfRefs(g))
	fmt.Fprintf(w, "Connected Components: %d\n\n", len(components))

	topoResult := TopoSortAll(g)
	if topoResult.HasCycle {
		fmt.Fprintf(w, "WARNING: Circular dependencies detected: %v\n\n", g.Names(topoResult.CycleTables))
	}

	var noPK []string
	for _, ref := range g.Nodes {
		if g.Table(ref).PrimaryKey == nil {
			noPK = append(noPK, g.Name(ref))
		}
	}
	if len(noPK) > 0 {
		sort.Strings(noPK)
		fmt.Fprintf(w, "WARNING: Tables without primary key: %v\n\n", noPK)
	}

	if len(g.SelfRefs) > 0 {
		var selfRef []string
		for ref := range g.SelfRefs {
			selfRef = append(selfRef, g.Name(ref))
		}
		sort.Strings(selfRef)
		fmt.Fprintf(w, "Self-referencing tables: %v\n\n", selfRef)
	}

	roots := g.Names(g.Roots())
	sort.Strings(roots)
	fmt.Fprintf(w, "Root tables (no FK parents): %v\n\n", roots)

	for i, comp := range components {
		fmt.Fprintf(w, "=== Component %d (%d tables) ===\n", i+1, len(comp.Tables))

		topoComp := TopoSort(g, comp.Tables)
		if topoComp.HasCycle {
			fmt.Fprintf(w, "  Topological order (partial, has cycle):\n")
		} else {
			fmt.Fprintf(w, "  Topological order:\n")
		}
		for j, ref := range topoComp.Order {
			tbl := g.Table(ref)
			pkInfo := "no PK"
			if tbl.PrimaryKey != nil {
				pkInfo = "PK: " + strings.Join(memberNames(tbl.PrimaryKey.Members), ", ")
			}
			fkCount := 0
			for _, key := range tbl.Keys {
				if key.PrimaryTable != ref {
					fkCount++
				}
			}
			fmt.Fprintf(w, "    %d. %s (%d cols, %s, %d FKs)\n",
				j+1, g.Name(ref), len(tbl.Columns), pkInfo, fkCount)
		}
		if topoComp.HasCycle {
			fmt.Fprintf(w, "  Cycle tables: %v\n", g.Names(topoComp.CycleTables))
		}
		fmt.Fprintln(w)
	}

	return nil
}

// mermaidID converts a schema.table name to a Mermaid-safe node ID.
func mermaidID(fullName string) string {
	return strings.Map(func(r rune) rune {
		if r == '_' || ('a' <= r && r <= 'z') || ('A' <= r && r <= 'Z') || ('0' <= r && r <= '9') {
			return r
		}
		return '_'
	}, fullName)
}

func memberLabel(key *schema.TableKey) string {
	return strings.Join(memberNames(key.ForeignMembers), ", ")
}

func memberNames(members []schema.MemberColumn) []string {
	names := make([]string, len(members))
	for i, m := range members {
		names[i] = m.Name
	}
	return names
}

func hasEdge(g *Graph, table schema.TableRef, inComp map[schema.TableRef]bool) bool {
	for _, edge := range g.Edges {
		if edge.Child == table && inComp[edge.Parent] {
			return true
		}
		if edge.Parent == table && inComp[edge.Child] {
			return true
		}
	}
	_, ok := g.SelfRefs[table]
	return ok
}

func countSelfRefs(g *Graph) int {
	count := 0
	for _, keys := range g.SelfRefs {
		count += len(keys)
	}
	return count
}
