package graph

import "github.com/hurou927/pg-schema-explorer/internal/schema"

// Component represents a connected component of tables.
type Component struct {
	Tables []schema.TableRef
}

// FindComponents detects connected components using undirected BFS.
// Components and their tables are ordered by display name.
func FindComponents(g *Graph) []Component {
	visited := make(map[schema.TableRef]bool)
	var components []Component

	for _, ref := range g.Nodes {
		if visited[ref] {
			continue
		}
		comp := bfs(g, ref, visited)
		g.sortByName(comp)
		components = append(components, Component{Tables: comp})
	}

	firsts := make([]schema.TableRef, len(components))
	byFirst := make(map[schema.TableRef]Component, len(components))
	for i, c := range components {
		firsts[i] = c.Tables[0]
		byFirst[c.Tables[0]] = c
	}
	g.sortByName(firsts)
	for i, f := range firsts {
		components[i] = byFirst[f]
	}

	return components
}

func bfs(g *Graph, start schema.TableRef, visited map[schema.TableRef]bool) []schema.TableRef {
	queue := []schema.TableRef{start}
	visited[start] = true
	var result []schema.TableRef

	for len(queue) > 0 {
		node := queue[0]
		queue = queue[1:]
		result = append(result, node)

		for neighbor := range g.adjacency[node] {
			if !visited[neighbor] {
				visited[neighbor] = true
				queue = append(queue, neighbor)
			}
		}
	}

	return result
}
