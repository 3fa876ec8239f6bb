// Package convert orchestrates the conversion pipeline.
//
// A single conversion runs render → extract → classify → layout → style →
// build as a strict sequential pipeline; each stage consumes the previous
// stage's complete output. Parallelism exists only across conversions,
// supervised by [Runner.ConvertMany] with a bounded sandbox pool.
package convert

import (
	"strings"

	dberrors "github.com/matzehuels/drawbridge/pkg/errors"
)

// Source is one diagram to convert: opaque source text plus its declared
// or sniffed diagram type. Immutable once created.
type Source struct {
	// Text is the diagram-language source.
	Text string
	// DiagramType is the grammar name. Empty means sniff it from Text.
	DiagramType string
	// Name identifies the source in batch results and logs (a file path,
	// usually). Optional.
	Name string
}

// typeAliases maps source-language keywords to grammar names. The first
// meaningful token of the source selects the type.
var typeAliases = map[string]string{
	"flowchart":       "flowchart",
	"flowchart-v2":    "flowchart",
	"graph":           "flowchart",
	"sequencediagram": "sequence",
	"sequence":        "sequence",
	"gantt":           "gantt",
	"pie":             "pie",
	"mindmap":         "mindmap",
	"orgchart":        "orgchart",
	"kanban":          "kanban",
	"timeline":        "timeline",
	"journey":         "userjourney",
	"userjourney":     "userjourney",
	"quadrantchart":   "swot",
	"swot":            "swot",
}

// Sniff infers the diagram type from the first meaningful token of the
// source, skipping directives and comment lines. Returns an
// ErrCodeUnsupportedType error when the token matches no known grammar.
func Sniff(text string) (string, error) {
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "%%") || strings.HasPrefix(line, "#") {
			continue
		}
		token := line
		if i := strings.IndexAny(line, " \t"); i > 0 {
			token = line[:i]
		}
		if t, ok := typeAliases[strings.ToLower(token)]; ok {
			return t, nil
		}
		return "", dberrors.New(dberrors.ErrCodeUnsupportedType,
			"cannot infer diagram type from %q", token).WithStage("sniff")
	}
	return "", dberrors.New(dberrors.ErrCodeInvalidSource, "source is empty").WithStage("sniff")
}

// resolveType returns the source's declared type, sniffing when absent.
func (s Source) resolveType() (string, error) {
	if s.DiagramType != "" {
		return s.DiagramType, nil
	}
	return Sniff(s.Text)
}
