package graph

import "sql_dashboard/internal/models"

// Edge is one traversable hop between two tables. Every foreign key yields
// two edges: the declared direction and its reverse with the column lists
// swapped.
type Edge struct {
	FromTable   string   `json:"from_table"`
	ToTable     string   `json:"to_table"`
	FromColumns []string `json:"from_columns"`
	ToColumns   []string `json:"to_columns"`
}

// Path is a simple route between two tables. Tables has one more element
// than Edges.
type Path struct {
	Edges  []Edge   `json:"edges"`
	Tables []string `json:"tables"`
}

// Hops returns the number of edges on the path.
func (p *Path) Hops() int {
	return len(p.Edges)
}

// RelationshipGraph answers reachability questions over a schema's foreign
// keys. It is immutable once built and safe for concurrent use.
type RelationshipGraph struct {
	adjacency map[string][]Edge
}

func New(schema *models.SchemaModel) *RelationshipGraph {
	g := &RelationshipGraph{adjacency: make(map[string][]Edge, len(schema.Tables))}
	for _, t := range schema.Tables {
		g.adjacency[t.Name] = nil
	}

	for _, rel := range schema.Relationships {
		g.adjacency[rel.FromTable] = append(g.adjacency[rel.FromTable], Edge{
			FromTable:   rel.FromTable,
			ToTable:     rel.ToTable,
			FromColumns: rel.FromColumns,
			ToColumns:   rel.ToColumns,
		})
		g.adjacency[rel.ToTable] = append(g.adjacency[rel.ToTable], Edge{
			FromTable:   rel.ToTable,
			ToTable:     rel.FromTable,
			FromColumns: rel.ToColumns,
			ToColumns:   rel.FromColumns,
		})
	}
	return g
}

// HasTable reports whether the table is a node of the graph.
func (g *RelationshipGraph) HasTable(table string) bool {
	_, ok := g.adjacency[table]
	return ok
}

// FindPath returns the path from src to dst with the fewest edges. Among
// equally short paths the one using the earliest declared relationships wins.
func (g *RelationshipGraph) FindPath(src, dst string) (*Path, bool) {
	if src == dst {
		return &Path{Tables: []string{src}}, true
	}
	if !g.HasTable(src) {
		return nil, false
	}

	// via[t] is the edge used to first reach t.
	via := map[string]Edge{}
	visited := map[string]bool{src: true}
	queue := []string{src}

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		for _, e := range g.adjacency[current] {
			if visited[e.ToTable] {
				continue
			}
			visited[e.ToTable] = true
			via[e.ToTable] = e
			if e.ToTable == dst {
				return g.unwind(src, dst, via), true
			}
			queue = append(queue, e.ToTable)
		}
	}
	return nil, false
}

func (g *RelationshipGraph) unwind(src, dst string, via map[string]Edge) *Path {
	var edges []Edge
	for t := dst; t != src; {
		e := via[t]
		edges = append(edges, e)
		t = e.FromTable
	}

	path := &Path{
		Edges:  make([]Edge, 0, len(edges)),
		Tables: make([]string, 0, len(edges)+1),
	}
	path.Tables = append(path.Tables, src)
	for i := len(edges) - 1; i >= 0; i-- {
		path.Edges = append(path.Edges, edges[i])
		path.Tables = append(path.Tables, edges[i].ToTable)
	}
	return path
}

// Related returns the distinct tables one edge away, in declaration order.
func (g *RelationshipGraph) Related(table string) []string {
	seen := map[string]bool{}
	related := []string{}
	for _, e := range g.adjacency[table] {
		if seen[e.ToTable] {
			continue
		}
		seen[e.ToTable] = true
		related = append(related, e.ToTable)
	}
	return related
}
