package nav

import (
	"reflect"
	"testing"
)

func TestGraphLink(t *testing.T) {
	g := NewGraph()
	g.AddNode("menu")
	g.Link("menu", "detail")
	g.Link("detail", "menu") // duplicate, reversed
	g.Link("menu", "menu")   // self-loop ignored
	g.Link("", "detail")     // blank ignored

	if !reflect.DeepEqual(g.Edges["menu"], []string{"detail"}) {
		t.Errorf("menu edges = %v", g.Edges["menu"])
	}
	if !reflect.DeepEqual(g.Edges["detail"], []string{"menu"}) {
		t.Errorf("detail edges = %v", g.Edges["detail"])
	}
}

func TestGraphNodesSorted(t *testing.T) {
	g := NewGraph()
	for _, n := range []string{"zeta", "alpha", "menu", "alpha"} {
		g.AddNode(n)
	}
	want := []string{"alpha", "menu", "zeta"}
	if !reflect.DeepEqual(g.Nodes, want) {
		t.Errorf("Nodes = %v, want %v", g.Nodes, want)
	}
}

func TestGraphClone(t *testing.T) {
	g := NewGraph()
	g.AddNode("a")
	g.Link("a", "b")
	c := g.Clone()
	c.Link("a", "c")
	if len(g.Edges["a"]) != 1 {
		t.Error("mutating the clone leaked into the original")
	}
	var nilGraph *Graph
	if got := nilGraph.Clone(); got == nil || got.Edges == nil {
		t.Error("Clone of nil should yield a usable empty graph")
	}
}
