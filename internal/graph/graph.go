package graph

import (
	"sort"

	"github.com/hurou927/pg-schema-explorer/internal/schema"
)

// Edge represents a directed edge from child to parent (FK direction).
type Edge struct {
	Key    *schema.TableKey
	Child  schema.TableRef
	Parent schema.TableRef
}

// Graph is a directed graph built from the foreign keys of a populated Database.
type Graph struct {
	db *schema.Database

	// Nodes are the included tables in Database order.
	Nodes []schema.TableRef

	// Edges are non-self-referential FK edges (child → parent).
	Edges []Edge

	// SelfRefs holds self-referential FKs, keyed by table.
	SelfRefs map[schema.TableRef][]*schema.TableKey

	// Children maps parent → child tables, Parents the reverse.
	Children map[schema.TableRef][]schema.TableRef
	Parents  map[schema.TableRef][]schema.TableRef

	// adjacency for undirected connectivity
	adjacency map[schema.TableRef]map[schema.TableRef]bool
}

// Build constructs a directed graph from db. Tables whose bare name is in
// excludeSet are skipped along with every key touching them.
func Build(db *schema.Database, excludeSet map[string]bool) *Graph {
	g := &Graph{
		db:        db,
		SelfRefs:  make(map[schema.TableRef][]*schema.TableKey),
		Children:  make(map[schema.TableRef][]schema.TableRef),
		Parents:   make(map[schema.TableRef][]schema.TableRef),
		adjacency: make(map[schema.TableRef]map[schema.TableRef]bool),
	}

	for _, tbl := range db.Tables {
		if excludeSet[tbl.Name] {
			continue
		}
		g.Nodes = append(g.Nodes, tbl.Ref())
		g.adjacency[tbl.Ref()] = make(map[schema.TableRef]bool)
	}

	for _, child := range g.Nodes {
		for _, key := range db.TableAt(child).Keys {
			parent := key.PrimaryTable
			if _, ok := g.adjacency[parent]; !ok {
				continue // parent table not in scope
			}

			if parent == child {
				g.SelfRefs[child] = append(g.SelfRefs[child], key)
				continue
			}

			g.Edges = append(g.Edges, Edge{Key: key, Child: child, Parent: parent})
			g.Children[parent] = append(g.Children[parent], child)
			g.Parents[child] = append(g.Parents[child], parent)
			g.adjacency[child][parent] = true
			g.adjacency[parent][child] = true
		}
	}

	return g
}

// Table resolves a node.
func (g *Graph) Table(ref schema.TableRef) *schema.Table {
	return g.db.TableAt(ref)
}

// Name returns the display name "schema.table" of a node.
func (g *Graph) Name(ref schema.TableRef) string {
	t := g.db.TableAt(ref)
	if t == nil {
		return "?"
	}
	return t.Schema + "." + t.Name
}

// Names maps refs to display names.
func (g *Graph) Names(refs []schema.TableRef) []string {
	names := make([]string, len(refs))
	for i, r := range refs {
		names[i] = g.Name(r)
	}
	return names
}

// Roots returns tables that have no outgoing FK edges (no parents).
func (g *Graph) Roots() []schema.TableRef {
	var roots []schema.TableRef
	for _, ref := range g.Nodes {
		if len(g.Parents[ref]) == 0 {
			roots = append(roots, ref)
		}
	}
	return roots
}

// sortByName orders refs by display name.
func (g *Graph) sortByName(refs []schema.TableRef) {
	sort.Slice(refs, func(i, j int) bool { return g.Name(refs[i]) < g.Name(refs[j]) })
}
