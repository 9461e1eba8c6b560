package export

import (
	"io"
	"time"

	"github.com/goccy/go-json"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// jsonNode is a tree node with its position and info block
type jsonNode struct {
	ID       string          `json:"id"`
	Label    string          `json:"label"`
	ParentID *string         `json:"parent_id"`
	Rank     int             `json:"rank"`
	X        float64         `json:"x"`
	Y        float64         `json:"y"`
	Info     *model.NodeInfo `json:"info,omitempty"`
}

// jsonDocument is the on-disk shape of the JSON export
type jsonDocument struct {
	Title     string               `json:"title,omitempty"`
	Generated time.Time            `json:"generated"`
	TreeSize  int                  `json:"tree_size"`
	Depth     int                  `json:"depth"`
	Selected  string               `json:"selected,omitempty"`
	Width     float64              `json:"width"`
	Height    float64              `json:"height"`
	Layout    layout.Options       `json:"layout"`
	Ranks     [][]string           `json:"ranks"`
	Nodes     []jsonNode           `json:"nodes"`
	Edges     []layout.ElementEdge `json:"edges"`
}

func toJSONDocument(doc *Document) jsonDocument {
	out := jsonDocument{
		Title:     doc.Title,
		Generated: doc.Generated,
		TreeSize:  doc.TreeSize(),
		Depth:     doc.Depth,
		Selected:  doc.Selected,
		Width:     doc.Diagram.Width,
		Height:    doc.Diagram.Height,
		Layout:    doc.Diagram.Options,
		Ranks:     doc.Diagram.Ranks(),
		Nodes:     make([]jsonNode, 0, len(doc.Nodes)),
		Edges:     make([]layout.ElementEdge, 0, len(doc.Diagram.Edges)),
	}
	for _, n := range doc.Nodes {
		jn := jsonNode{ID: n.ID, Label: n.Label, ParentID: n.ParentID}
		if p, ok := doc.Diagram.Node(n.ID); ok {
			jn.Rank, jn.X, jn.Y = p.Rank, p.X, p.Y
		}
		if info, ok := doc.Info[n.ID]; ok {
			jn.Info = &info
		}
		out.Nodes = append(out.Nodes, jn)
	}
	for _, e := range doc.Diagram.Edges {
		out.Edges = append(out.Edges, e.ElementEdge)
	}
	return out
}

// WriteJSON writes nodes, edges, positions and per-node info
func WriteJSON(w io.Writer, doc *Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(toJSONDocument(doc))
}
