package ui

import (
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/lipgloss"

	"github.com/Dicklesworthstone/tree_viewer/pkg/editor"
	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

func testTheme() Theme {
	return DefaultTheme(lipgloss.NewRenderer(io.Discard))
}

func TestNewMarkdownRenderer(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	if mr.width != 80 {
		t.Errorf("width = %d, want 80", mr.width)
	}
	if mr.useTheme || mr.theme != nil {
		t.Error("plain renderer should not carry a theme")
	}
	if mr.renderer == nil {
		t.Error("glamour renderer not built")
	}
}

func TestMarkdownRendererRender(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	out, err := mr.Render("## Raíz\n\n- **Nivel:** 0\n")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	for _, want := range []string{"Raíz", "Nivel", "0"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMarkdownRendererNilRenderer(t *testing.T) {
	mr := &MarkdownRenderer{width: 80}
	out, err := mr.Render("# raw")
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out != "# raw" {
		t.Errorf("Render = %q, want raw markdown", out)
	}
}

func TestMarkdownRendererSetWidth(t *testing.T) {
	mr := NewMarkdownRendererWithTheme(80, testTheme())
	orig := mr.renderer

	mr.SetWidth(80)
	if mr.renderer != orig {
		t.Error("same width should keep the renderer")
	}
	mr.SetWidth(0)
	mr.SetWidth(-3)
	if mr.width != 80 {
		t.Errorf("width = %d after invalid widths, want 80", mr.width)
	}
	mr.SetWidth(100)
	if mr.width != 100 {
		t.Errorf("width = %d, want 100", mr.width)
	}
	if !mr.useTheme || mr.theme == nil {
		t.Error("SetWidth dropped the theme")
	}
}

func TestMarkdownRendererSetWidthWithTheme(t *testing.T) {
	mr := NewMarkdownRenderer(80)
	mr.SetWidthWithTheme(60, testTheme())
	if mr.width != 60 || !mr.useTheme || mr.theme == nil {
		t.Errorf("got width=%d useTheme=%v", mr.width, mr.useTheme)
	}
}

func TestExtractHex(t *testing.T) {
	ac := lipgloss.AdaptiveColor{Light: "#ffffff", Dark: "#000000"}
	if got := extractHex(ac, false); got != "#ffffff" {
		t.Errorf("light = %s, want #ffffff", got)
	}
	if got := extractHex(ac, true); got != "#000000" {
		t.Errorf("dark = %s, want #000000", got)
	}
}

func TestBuildStyleFromTheme(t *testing.T) {
	theme := testTheme()

	dark := buildStyleFromTheme(theme, true)
	if dark.Document.Color == nil || *dark.Document.Color != "#f8f8f2" {
		t.Errorf("dark document color = %v, want #f8f8f2", dark.Document.Color)
	}
	if *dark.Heading.Color != theme.Primary.Dark {
		t.Errorf("dark heading color = %s, want %s", *dark.Heading.Color, theme.Primary.Dark)
	}

	light := buildStyleFromTheme(theme, false)
	if *light.Document.Color != "#000000" {
		t.Errorf("light document color = %s, want #000000", *light.Document.Color)
	}
}

func TestInfoMarkdown(t *testing.T) {
	parent := "A (raíz)"
	info := model.NodeInfo{
		ID:             "n2",
		Label:          "B",
		ParentLabel:    &parent,
		ChildrenLabels: []string{"D"},
		SiblingsLabels: nil,
		Level:          1,
		SubtreeSize:    2,
	}
	got := InfoMarkdown(info, editor.CatalogFor(editor.LocaleES))

	for _, want := range []string{
		"## B",
		"- **Nodo:** `n2`",
		"- **Padre:** A (raíz)",
		"- **Hijos:** D",
		"- **Hermanos:** _Ninguno_",
		"- **Nivel:** 1",
		"- **Tamaño del subárbol:** 2",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("InfoMarkdown missing %q:\n%s", want, got)
		}
	}

	root := model.NodeInfo{ID: "n1", Label: "A (root)", SubtreeSize: 1}
	got = InfoMarkdown(root, editor.CatalogFor(editor.LocaleEN))
	if !strings.Contains(got, "- **Parent:** _None_") {
		t.Errorf("root info missing parent placeholder:\n%s", got)
	}
}
