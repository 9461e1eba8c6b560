package export

import (
	"fmt"
	"image/color"
	"io"
	"math"

	svg "github.com/ajstarks/svgo"

	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
)

// Palette shared by the SVG, PNG and HTML renderers
var (
	colorBackground = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorNode       = color.RGBA{0x19, 0x76, 0xd2, 0xff}
	colorSelected   = color.RGBA{0xd3, 0x2f, 0x2f, 0xff}
	colorLabel      = color.RGBA{0xff, 0xff, 0xff, 0xff}
	colorEdge       = color.RGBA{0x99, 0x99, 0x99, 0xff}
)

const (
	edgeWidth = 2
	arrowSize = 8
	fontSize  = 12
)

func hex(c color.RGBA) string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// edgeSegment trims a centre-to-centre edge so it starts at the source
// node's rim and ends, arrow included, at the target's rim.
func edgeSegment(e layout.PlacedEdge, radius float64) (x1, y1, x2, y2 float64) {
	dx, dy := e.X2-e.X1, e.Y2-e.Y1
	length := math.Hypot(dx, dy)
	if length == 0 {
		return e.X1, e.Y1, e.X2, e.Y2
	}
	ux, uy := dx/length, dy/length
	return e.X1 + ux*radius, e.Y1 + uy*radius, e.X2 - ux*radius, e.Y2 - uy*radius
}

func nodeRadius(opts layout.Options) float64 {
	return math.Min(opts.NodeWidth, opts.NodeHeight) / 2
}

func round(f float64) int {
	return int(math.Round(f))
}

// WriteSVG draws the diagram as an SVG document
func WriteSVG(w io.Writer, doc *Document) error {
	d := doc.Diagram
	width, height := round(d.Width), round(d.Height)
	r := nodeRadius(d.Options)

	canvas := svg.New(w)
	canvas.Start(width, height)
	if doc.Title != "" {
		canvas.Title(doc.Title)
	}

	canvas.Def()
	canvas.Marker("arrow", arrowSize, arrowSize/2, arrowSize, arrowSize, `orient="auto"`, `markerUnits="userSpaceOnUse"`)
	canvas.Path(fmt.Sprintf("M0,0 L%d,%d L0,%d z", arrowSize, arrowSize/2, arrowSize), "fill:"+hex(colorEdge))
	canvas.MarkerEnd()
	canvas.DefEnd()

	canvas.Rect(0, 0, width, height, "fill:"+hex(colorBackground))

	canvas.Gid("edges")
	for _, e := range d.Edges {
		x1, y1, x2, y2 := edgeSegment(e, r)
		canvas.Line(round(x1), round(y1), round(x2), round(y2),
			fmt.Sprintf("stroke:%s;stroke-width:%d", hex(colorEdge), edgeWidth),
			`marker-end="url(#arrow)"`,
			fmt.Sprintf(`id="edge-%s"`, e.ID))
	}
	canvas.Gend()

	canvas.Gid("nodes")
	for _, n := range d.Nodes {
		fill := colorNode
		if n.ID == doc.Selected {
			fill = colorSelected
		}
		canvas.Circle(round(n.X), round(n.Y), round(r), "fill:"+hex(fill), fmt.Sprintf(`id="node-%s"`, n.ID))
		canvas.Text(round(n.X), round(n.Y), n.Label,
			fmt.Sprintf("fill:%s;font-size:%dpx;font-family:sans-serif;text-anchor:middle;dominant-baseline:central", hex(colorLabel), fontSize))
	}
	canvas.Gend()

	canvas.End()
	return nil
}
