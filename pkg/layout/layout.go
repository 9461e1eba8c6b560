package layout

import (
	"cmp"
	"fmt"
	"math"
	"slices"

	"gonum.org/v1/gonum/graph/simple"
	"gonum.org/v1/gonum/graph/topo"
)

// RankDir controls the direction in which ranks are stacked
type RankDir string

const (
	RankTopBottom RankDir = "TB"
	RankLeftRight RankDir = "LR"
)

// IsValid returns true if the direction is supported
func (d RankDir) IsValid() bool {
	return d == RankTopBottom || d == RankLeftRight
}

// Options tunes the layout pass
type Options struct {
	RankDir    RankDir `json:"rank_dir"`
	NodeWidth  float64 `json:"node_width"`
	NodeHeight float64 `json:"node_height"`
	RankSep    float64 `json:"rank_sep"` // Gap between consecutive ranks
	NodeSep    float64 `json:"node_sep"` // Gap between neighbours in a rank
	Padding    float64 `json:"padding"`  // Margin around the drawing
}

// DefaultOptions mirrors the browser renderer's node size and dagre spacing
func DefaultOptions() Options {
	return Options{
		RankDir:    RankTopBottom,
		NodeWidth:  45,
		NodeHeight: 45,
		RankSep:    50,
		NodeSep:    30,
		Padding:    20,
	}
}

// Validate checks if the options are usable
func (o Options) Validate() error {
	if !o.RankDir.IsValid() {
		return fmt.Errorf("invalid rank direction: %q", o.RankDir)
	}
	if o.NodeWidth <= 0 || o.NodeHeight <= 0 {
		return fmt.Errorf("node size must be positive (got %vx%v)", o.NodeWidth, o.NodeHeight)
	}
	if o.RankSep < 0 || o.NodeSep < 0 || o.Padding < 0 {
		return fmt.Errorf("separations and padding cannot be negative")
	}
	return nil
}

// PlacedNode is an element node with its centre coordinates
type PlacedNode struct {
	ElementNode
	Rank int     `json:"rank"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// PlacedEdge is an element edge with centre-to-centre endpoints
type PlacedEdge struct {
	ElementEdge
	X1 float64 `json:"x1"`
	Y1 float64 `json:"y1"`
	X2 float64 `json:"x2"`
	Y2 float64 `json:"y2"`
}

// Diagram is the result of a layout pass
type Diagram struct {
	Nodes   []PlacedNode `json:"nodes"`
	Edges   []PlacedEdge `json:"edges"`
	Width   float64      `json:"width"`
	Height  float64      `json:"height"`
	Options Options      `json:"options"`

	byID map[string]int
}

// Layout ranks the elements by longest path from the sources (the level,
// for a tree) and spreads each rank so that parents sit centred over their
// children. Node order inside a rank follows parent order, then element
// order.
func Layout(el Elements, opts Options) (Diagram, error) {
	if err := opts.Validate(); err != nil {
		return Diagram{}, err
	}

	d := Diagram{Options: opts, byID: make(map[string]int, len(el.Nodes))}
	if el.IsEmpty() {
		d.Width, d.Height = 2*opts.Padding, 2*opts.Padding
		return d, nil
	}

	g := simple.NewDirectedGraph()
	gid := make(map[string]int64, len(el.Nodes))
	for i, n := range el.Nodes {
		if _, dup := gid[n.ID]; dup {
			return Diagram{}, fmt.Errorf("duplicate node id %q", n.ID)
		}
		gid[n.ID] = int64(i)
		g.AddNode(simple.Node(int64(i)))
	}

	successors := make(map[string][]string)
	hasParent := make(map[string]bool)
	for _, e := range el.Edges {
		from, okFrom := gid[e.Source]
		to, okTo := gid[e.Target]
		if !okFrom || !okTo {
			return Diagram{}, fmt.Errorf("edge %s: unknown endpoint", e.ID)
		}
		if from == to {
			return Diagram{}, fmt.Errorf("edge %s: self loop", e.ID)
		}
		g.SetEdge(g.NewEdge(simple.Node(from), simple.Node(to)))
		successors[e.Source] = append(successors[e.Source], e.Target)
		hasParent[e.Target] = true
	}

	order, err := topo.Sort(g)
	if err != nil {
		return Diagram{}, fmt.Errorf("elements are not acyclic: %w", err)
	}

	rank := make(map[int64]int, len(order))
	for _, n := range order {
		to := g.From(n.ID())
		for to.Next() {
			w := to.Node().ID()
			if r := rank[n.ID()] + 1; r > rank[w] {
				rank[w] = r
			}
		}
	}

	// Slot assignment: leaves take consecutive slots in DFS order and each
	// parent is centred between its first and last child.
	slot := make(map[string]float64, len(el.Nodes))
	next := 0.0
	var place func(id string)
	place = func(id string) {
		if _, done := slot[id]; done {
			return
		}
		kids := successors[id]
		if len(kids) == 0 {
			slot[id] = next
			next++
			return
		}
		slot[id] = math.NaN() // in progress
		for _, k := range kids {
			place(k)
		}
		first, last := slot[kids[0]], slot[kids[len(kids)-1]]
		slot[id] = (first + last) / 2
	}
	for _, n := range el.Nodes {
		if !hasParent[n.ID] {
			place(n.ID)
		}
	}

	breadthStep := opts.NodeWidth + opts.NodeSep
	depthStep := opts.NodeHeight + opts.RankSep
	if opts.RankDir == RankLeftRight {
		breadthStep = opts.NodeHeight + opts.NodeSep
		depthStep = opts.NodeWidth + opts.RankSep
	}

	maxRank := 0
	for _, n := range el.Nodes {
		r := rank[gid[n.ID]]
		if r > maxRank {
			maxRank = r
		}
		breadth := slot[n.ID] * breadthStep
		depth := float64(r) * depthStep
		x, y := breadth, depth
		if opts.RankDir == RankLeftRight {
			x, y = depth, breadth
		}
		d.byID[n.ID] = len(d.Nodes)
		d.Nodes = append(d.Nodes, PlacedNode{
			ElementNode: n,
			Rank:        r,
			X:           x + opts.Padding + opts.NodeWidth/2,
			Y:           y + opts.Padding + opts.NodeHeight/2,
		})
	}

	for _, e := range el.Edges {
		src := d.Nodes[d.byID[e.Source]]
		dst := d.Nodes[d.byID[e.Target]]
		d.Edges = append(d.Edges, PlacedEdge{
			ElementEdge: e,
			X1:          src.X, Y1: src.Y,
			X2: dst.X, Y2: dst.Y,
		})
	}

	spanBreadth := (next-1)*breadthStep + opts.NodeWidth
	spanDepth := float64(maxRank)*depthStep + opts.NodeHeight
	if opts.RankDir == RankLeftRight {
		spanBreadth = (next-1)*breadthStep + opts.NodeHeight
		spanDepth = float64(maxRank)*depthStep + opts.NodeWidth
		d.Width, d.Height = spanDepth, spanBreadth
	} else {
		d.Width, d.Height = spanBreadth, spanDepth
	}
	d.Width += 2 * opts.Padding
	d.Height += 2 * opts.Padding

	return d, nil
}

// Node returns the placed node with the given id
func (d Diagram) Node(id string) (PlacedNode, bool) {
	if i, ok := d.byID[id]; ok {
		return d.Nodes[i], true
	}
	for _, n := range d.Nodes {
		if n.ID == id {
			return n, true
		}
	}
	return PlacedNode{}, false
}

// NodeAt translates a tap at (x, y) into the id of the node under it.
func (d Diagram) NodeAt(x, y float64) (string, bool) {
	hw, hh := d.Options.NodeWidth/2, d.Options.NodeHeight/2
	for _, n := range d.Nodes {
		if math.Abs(x-n.X) <= hw && math.Abs(y-n.Y) <= hh {
			return n.ID, true
		}
	}
	return "", false
}

// Ranks groups node ids by rank, in placement order
func (d Diagram) Ranks() [][]string {
	var ranks [][]string
	for _, n := range d.Nodes {
		for len(ranks) <= n.Rank {
			ranks = append(ranks, nil)
		}
		ranks[n.Rank] = append(ranks[n.Rank], n.ID)
	}
	for _, r := range ranks {
		sortByBreadth(r, d)
	}
	return ranks
}

func sortByBreadth(ids []string, d Diagram) {
	key := func(id string) float64 {
		n, _ := d.Node(id)
		if d.Options.RankDir == RankLeftRight {
			return n.Y
		}
		return n.X
	}
	slices.SortStableFunc(ids, func(a, b string) int {
		return cmp.Compare(key(a), key(b))
	})
}
