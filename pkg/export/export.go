// Package export renders a laid-out tree to static files: SVG, PNG, a
// self-contained interactive HTML page, Mermaid markdown and JSON.
package export

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/layout"
	"github.com/Dicklesworthstone/tree_viewer/pkg/metrics"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// Format is an export file format
type Format string

const (
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
	FormatHTML Format = "html"
	FormatMD   Format = "md"
	FormatJSON Format = "json"
)

// AllFormats lists every supported format
func AllFormats() []Format {
	return []Format{FormatSVG, FormatPNG, FormatHTML, FormatMD, FormatJSON}
}

// IsValid returns true if the format is supported
func (f Format) IsValid() bool {
	switch f {
	case FormatSVG, FormatPNG, FormatHTML, FormatMD, FormatJSON:
		return true
	}
	return false
}

// Ext returns the file extension including the dot
func (f Format) Ext() string {
	return "." + string(f)
}

// ParseFormats accepts entries such as "svg", "svg,png" or "all", dropping
// duplicates while keeping first-seen order.
func ParseFormats(entries []string) ([]Format, error) {
	var out []Format
	seen := make(map[Format]bool)
	for _, entry := range entries {
		for _, part := range strings.Split(entry, ",") {
			part = strings.ToLower(strings.TrimSpace(part))
			if part == "" {
				continue
			}
			if part == "all" {
				for _, f := range AllFormats() {
					if !seen[f] {
						seen[f] = true
						out = append(out, f)
					}
				}
				continue
			}
			if part == "markdown" || part == "mermaid" {
				part = string(FormatMD)
			}
			f := Format(part)
			if !f.IsValid() {
				return nil, fmt.Errorf("unknown export format %q", part)
			}
			if !seen[f] {
				seen[f] = true
				out = append(out, f)
			}
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("no export format given")
	}
	return out, nil
}

// Document is the read-only snapshot every exporter renders
type Document struct {
	Title     string
	Generated time.Time
	Nodes     []model.Node
	Info      map[string]model.NodeInfo
	// Depth is the deepest node level, -1 for an empty tree
	Depth    int
	Diagram  layout.Diagram
	Selected string
	Catalog  editor.Catalog
}

// NewDocument snapshots the session's tree and lays it out
func NewDocument(sess *editor.Session, title string, opts layout.Options) (*Document, error) {
	d, err := layout.Layout(sess.Elements(), opts)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}

	nodes := sess.Nodes()
	info := make(map[string]model.NodeInfo, len(nodes))
	for _, n := range nodes {
		ni, err := sess.Tree().ComputeNodeInfo(n.ID)
		if err != nil {
			return nil, fmt.Errorf("node info %s: %w", n.ID, err)
		}
		info[n.ID] = ni
	}

	return &Document{
		Title:     title,
		Generated: time.Now(),
		Nodes:     nodes,
		Info:      info,
		Depth:     sess.Tree().Depth(),
		Diagram:   d,
		Selected:  sess.Selected(),
		Catalog:   sess.Catalog(),
	}, nil
}

// TreeSize returns the number of nodes in the snapshot
func (doc *Document) TreeSize() int { return len(doc.Nodes) }

// Render writes doc in the given format
func Render(w io.Writer, doc *Document, f Format) error {
	switch f {
	case FormatSVG:
		return WriteSVG(w, doc)
	case FormatPNG:
		return WritePNG(w, doc)
	case FormatHTML:
		return WriteHTML(w, doc, HTMLOptions{})
	case FormatMD:
		return WriteMarkdown(w, doc)
	case FormatJSON:
		return WriteJSON(w, doc)
	default:
		return fmt.Errorf("unknown export format %q", f)
	}
}

// WriteFile renders doc into path, creating parent directories
func WriteFile(path string, doc *Document, f Format) error {
	if dir := filepath.Dir(path); dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create dir: %w", err)
		}
	}
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Render(file, doc, f); err != nil {
		file.Close()
		return fmt.Errorf("render %s: %w", f, err)
	}
	if err := file.Close(); err != nil {
		return err
	}
	metrics.ExportsWritten.WithLabelValues(string(f)).Inc()
	return nil
}

// WriteAll renders every format concurrently into dir/base.<ext> and
// returns the written paths in format order.
func WriteAll(ctx context.Context, doc *Document, dir, base string, formats []Format) ([]string, error) {
	if base == "" {
		base = "tree"
	}
	paths := make([]string, len(formats))
	g, ctx := errgroup.WithContext(ctx)
	for i, f := range formats {
		paths[i] = filepath.Join(dir, base+f.Ext())
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return WriteFile(paths[i], doc, f)
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return paths, nil
}
