package visual

import (
	"encoding/xml"
	"strconv"
	"strings"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Tree is the parsed rendered visual tree, owned by one conversion run.
// It is read-only after Parse and discarded once extraction has run.
type Tree struct {
	// Width and Height are the declared canvas size, 0 when absent.
	Width  float64
	Height float64

	root element
}

// element mirrors one XML element of the rendered SVG.
type element struct {
	XMLName  xml.Name
	Attrs    []xml.Attr `xml:",any,attr"`
	Children []element  `xml:",any"`
	Text     string     `xml:",chardata"`
}

// attr returns the named attribute value, or "" when absent.
// The namespace prefix is ignored; rendered SVG rarely qualifies attributes.
func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

// floatAttr returns the named attribute parsed as a float, or fallback.
// Unit suffixes like "px" are stripped.
func (e *element) floatAttr(name string, fallback float64) float64 {
	v := e.attr(name)
	if v == "" {
		return fallback
	}
	v = strings.TrimSuffix(strings.TrimSpace(v), "px")
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

// Parse decodes a rendered SVG document into a Tree.
// Returns an EXTRACTION_FAILED error when the document is not well-formed
// XML or its root element is not <svg>.
func Parse(data []byte) (*Tree, error) {
	if len(data) == 0 {
		return nil, dberrors.New(dberrors.ErrCodeExtraction, "empty rendered document").WithStage("extract")
	}

	var root element
	if err := xml.Unmarshal(data, &root); err != nil {
		return nil, dberrors.Wrap(dberrors.ErrCodeExtraction, err, "malformed rendered document").WithStage("extract")
	}
	if root.XMLName.Local != "svg" {
		return nil, dberrors.New(dberrors.ErrCodeExtraction, "root element is <%s>, expected <svg>", root.XMLName.Local).WithStage("extract")
	}

	t := &Tree{root: root}
	t.Width = root.floatAttr("width", 0)
	t.Height = root.floatAttr("height", 0)
	if vb := root.attr("viewBox"); vb != "" && (t.Width == 0 || t.Height == 0) {
		if fields := strings.Fields(vb); len(fields) == 4 {
			w, werr := strconv.ParseFloat(fields[2], 64)
			h, herr := strconv.ParseFloat(fields[3], 64)
			if werr == nil && herr == nil {
				t.Width, t.Height = w, h
			}
		}
	}
	return t, nil
}
