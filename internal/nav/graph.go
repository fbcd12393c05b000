package nav

import "sort"

// Graph is the undirected transition graph accumulated across FSM
// state changes. Nodes and adjacency lists are kept sorted so two
// snapshots compare deterministically.
type Graph struct {
	Nodes []string            `json:"nodes"`
	Edges map[string][]string `json:"edges"`
}

// NewGraph returns an empty graph.
func NewGraph() *Graph {
	return &Graph{Edges: map[string][]string{}}
}

// AddNode inserts a state tag, ignoring duplicates and blanks.
func (g *Graph) AddNode(state string) {
	if state == "" {
		return
	}
	for _, n := range g.Nodes {
		if n == state {
			return
		}
	}
	g.Nodes = append(g.Nodes, state)
	sort.Strings(g.Nodes)
}

// Link records an undirected edge between two states. Self-loops and
// blank endpoints are ignored.
func (g *Graph) Link(from, to string) {
	if from == "" || to == "" || from == to {
		return
	}
	if g.Edges == nil {
		g.Edges = map[string][]string{}
	}
	g.addEdge(from, to)
	g.addEdge(to, from)
}

func (g *Graph) addEdge(a, b string) {
	for _, n := range g.Edges[a] {
		if n == b {
			return
		}
	}
	g.Edges[a] = append(g.Edges[a], b)
	sort.Strings(g.Edges[a])
}

// Clone returns a deep copy of the graph.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return NewGraph()
	}
	out := &Graph{
		Nodes: append([]string(nil), g.Nodes...),
		Edges: make(map[string][]string, len(g.Edges)),
	}
	for k, v := range g.Edges {
		out.Edges[k] = append([]string(nil), v...)
	}
	return out
}
