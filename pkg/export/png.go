package export

import (
	"fmt"
	"io"
	"math"

	"git.sr.ht/~sbinet/gg"
	"golang.org/x/image/font/basicfont"
)

// WritePNG rasterizes the diagram at one pixel per layout unit
func WritePNG(w io.Writer, doc *Document) error {
	d := doc.Diagram
	width, height := int(math.Ceil(d.Width)), int(math.Ceil(d.Height))
	if width <= 0 || height <= 0 {
		return fmt.Errorf("empty canvas %dx%d", width, height)
	}
	r := nodeRadius(d.Options)

	dc := gg.NewContext(width, height)
	dc.SetColor(colorBackground)
	dc.Clear()

	dc.SetColor(colorEdge)
	dc.SetLineWidth(edgeWidth)
	for _, e := range d.Edges {
		x1, y1, x2, y2 := edgeSegment(e, r)
		dc.DrawLine(x1, y1, x2, y2)
		dc.Stroke()
		drawArrowHead(dc, x1, y1, x2, y2)
	}

	dc.SetFontFace(basicfont.Face7x13)
	for _, n := range d.Nodes {
		if n.ID == doc.Selected {
			dc.SetColor(colorSelected)
		} else {
			dc.SetColor(colorNode)
		}
		dc.DrawCircle(n.X, n.Y, r)
		dc.Fill()

		dc.SetColor(colorLabel)
		dc.DrawStringAnchored(n.Label, n.X, n.Y, 0.5, 0.35)
	}

	return dc.EncodePNG(w)
}

// drawArrowHead fills a triangle whose tip sits at (x2, y2)
func drawArrowHead(dc *gg.Context, x1, y1, x2, y2 float64) {
	angle := math.Atan2(y2-y1, x2-x1)
	spread := math.Pi / 7
	dc.MoveTo(x2, y2)
	dc.LineTo(x2-arrowSize*math.Cos(angle-spread), y2-arrowSize*math.Sin(angle-spread))
	dc.LineTo(x2-arrowSize*math.Cos(angle+spread), y2-arrowSize*math.Sin(angle+spread))
	dc.ClosePath()
	dc.Fill()
}
