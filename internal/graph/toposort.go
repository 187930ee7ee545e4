package graph

import (
	"fmt"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// TopoResult holds the result of topological sorting.
type TopoResult struct {
	// Order is the topological order (parents before children).
	Order []schema.TableRef
	// HasCycle is true if the graph contains a cycle.
	HasCycle bool
	// CycleTables lists tables involved in cycles (if any).
	CycleTables []schema.TableRef
}

// TopoSort performs Kahn's algorithm on the given set of tables within the graph.
// Returns tables in dependency order: parents first, then children.
func TopoSort(g *Graph, tables []schema.TableRef) TopoResult {
	inSet := make(map[schema.TableRef]bool, len(tables))
	for _, t := range tables {
		inSet[t] = true
	}

	// In-degree = number of parent edges within the subset
	inDegree := make(map[schema.TableRef]int, len(tables))
	localChildren := make(map[schema.TableRef][]schema.TableRef)
	for _, t := range tables {
		for _, p := range g.Parents[t] {
			if inSet[p] {
				localChildren[p] = append(localChildren[p], t)
				inDegree[t]++
			}
		}
	}

	var queue []schema.TableRef
	for _, t := range tables {
		if inDegree[t] == 0 {
			queue = append(queue, t)
		}
	}

	var order []schema.TableRef
	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		order = append(order, node)

		for _, child := range localChildren[node] {
			inDegree[child]--
			if inDegree[child] == 0 {
				queue = append(queue, child)
			}
		}
	}

	result := TopoResult{Order: order}
	if len(order) < len(tables) {
		result.HasCycle = true
		for _, t := range tables {
			if inDegree[t] > 0 {
				result.CycleTables = append(result.CycleTables, t)
			}
		}
	}
	return result
}

// TopoSortAll performs topological sort across all tables in the graph.
func TopoSortAll(g *Graph) TopoResult {
	return TopoSort(g, g.Nodes)
}

// ValidateCycles checks for cycles and returns a descriptive error if found.
func (g *Graph) ValidateCycles(result TopoResult) error {
	if !result.HasCycle {
		return nil
	}
	return fmt.Errorf("circular dependency detected among tables: %v", g.Names(result.CycleTables))
}
