package editor

import (
	"errors"
	"strings"

	"github.com/Dicklesworthstone/tree_viewer/pkg/model"
)

// Locale selects the language of user-facing messages
type Locale string

const (
	LocaleES Locale = "es"
	LocaleEN Locale = "en"

	DefaultLocale = LocaleES
)

// ParseLocale maps a tag like "en_US" or "ES" onto a supported locale.
// Unknown tags fall back to DefaultLocale.
func ParseLocale(tag string) Locale {
	tag = strings.ToLower(strings.TrimSpace(tag))
	if i := strings.IndexAny(tag, "-_."); i >= 0 {
		tag = tag[:i]
	}
	switch Locale(tag) {
	case LocaleEN:
		return LocaleEN
	case LocaleES:
		return LocaleES
	default:
		return DefaultLocale
	}
}

// Catalog holds the strings shown to users for one locale
type Catalog struct {
	RootMarker string

	RootAlreadyExists string
	EmptyRootLabel    string
	EmptyNodeLabel    string
	MissingParent     string
	ParentNotFound    string
	NodeNotFound      string
	Unexpected        string

	// Info block headings
	Node        string
	Parent      string
	Children    string
	Siblings    string
	Level       string
	SubtreeSize string
	TreeSize    string
	None        string
}

var catalogs = map[Locale]Catalog{
	LocaleES: {
		RootMarker:        model.DefaultRootMarker,
		RootAlreadyExists: "El árbol ya tiene una raíz.",
		EmptyRootLabel:    "La etiqueta de la raíz es obligatoria.",
		EmptyNodeLabel:    "La etiqueta del nodo es obligatoria.",
		MissingParent:     "Debes seleccionar un nodo padre.",
		ParentNotFound:    "El nodo padre no existe.",
		NodeNotFound:      "El nodo seleccionado no existe.",
		Unexpected:        "Error inesperado.",
		Node:              "Nodo",
		Parent:            "Padre",
		Children:          "Hijos",
		Siblings:          "Hermanos",
		Level:             "Nivel",
		SubtreeSize:       "Tamaño del subárbol",
		TreeSize:          "Tamaño del árbol",
		None:              "Ninguno",
	},
	LocaleEN: {
		RootMarker:        " (root)",
		RootAlreadyExists: "The tree already has a root.",
		EmptyRootLabel:    "The root label is required.",
		EmptyNodeLabel:    "The node label is required.",
		MissingParent:     "You must select a parent node.",
		ParentNotFound:    "The parent node does not exist.",
		NodeNotFound:      "The selected node does not exist.",
		Unexpected:        "Unexpected error.",
		Node:              "Node",
		Parent:            "Parent",
		Children:          "Children",
		Siblings:          "Siblings",
		Level:             "Level",
		SubtreeSize:       "Subtree size",
		TreeSize:          "Tree size",
		None:              "None",
	},
}

// CatalogFor returns the catalog of a locale, falling back to DefaultLocale
func CatalogFor(l Locale) Catalog {
	if c, ok := catalogs[l]; ok {
		return c
	}
	return catalogs[DefaultLocale]
}

// Message renders err as the single user-facing message.
func (c Catalog) Message(err error) string {
	if err == nil {
		return ""
	}
	switch model.KindOf(err) {
	case model.KindRootAlreadyExists:
		return c.RootAlreadyExists
	case model.KindEmptyLabel:
		var ve *model.ValidationError
		if errors.As(err, &ve) && ve.Field == "root_label" {
			return c.EmptyRootLabel
		}
		return c.EmptyNodeLabel
	case model.KindMissingParent:
		return c.MissingParent
	case model.KindParentNotFound:
		return c.ParentNotFound
	case model.KindNodeNotFound:
		return c.NodeNotFound
	default:
		return c.Unexpected
	}
}
